package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const gitTimeout = 30 * time.Second

// Git is a VersionControl provider that shells out to the git binary. It
// computes ChangedSince as the union of a committed diff against ref, the
// working tree's staged/unstaged modifications, and untracked-but-not-ignored
// files — matching the full changed_since algorithm, not merely a diff.
type Git struct {
	ProjectRoot string
}

// ChangedSince returns diff(ref..HEAD) ∪ porcelain(modified+staged) ∪
// ls-files(untracked, respecting ignore files).
func (g *Git) ChangedSince(ref string) ([]string, error) {
	mergeBase, err := g.mergeBase(ref, "HEAD")
	if err != nil {
		return nil, fmt.Errorf("find merge-base between %s and HEAD: %w", ref, err)
	}

	diffed, err := g.diffNameOnly(mergeBase, "HEAD")
	if err != nil {
		return nil, fmt.Errorf("diff %s..HEAD: %w", mergeBase, err)
	}

	modified, err := g.statusPorcelain()
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}

	untracked, err := g.untrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	set := map[string]bool{}
	for _, f := range diffed {
		set[f] = true
	}
	for _, f := range modified {
		set[f] = true
	}
	for _, f := range untracked {
		set[f] = true
	}

	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	return out, nil
}

func (g *Git) run(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.ProjectRoot

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("git %s timed out after %s", strings.Join(args, " "), gitTimeout)
		}
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return string(output), nil
}

func (g *Git) mergeBase(base, head string) (string, error) {
	out, err := g.run("merge-base", base, head)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// diffNameOnly lists Added/Copied/Modified/Renamed paths between base and head.
func (g *Git) diffNameOnly(base, head string) ([]string, error) {
	out, err := g.run("diff", "--name-only", "--diff-filter=ACMR", base+".."+head)
	if err != nil {
		return nil, err
	}
	return parseFileList(out), nil
}

// statusPorcelain returns paths with staged or unstaged modifications in the
// working tree (anything git status reports except untracked entries, which
// are handled separately by untrackedFiles so ignore-file rules apply).
func (g *Git) statusPorcelain() ([]string, error) {
	out, err := g.run("status", "--porcelain")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		if code == "??" {
			continue // untracked — handled by untrackedFiles
		}
		rest := strings.TrimSpace(line[3:])
		// Renames report as "old -> new"; the new path is what's live now.
		if idx := strings.Index(rest, " -> "); idx >= 0 {
			rest = rest[idx+4:]
		}
		files = append(files, rest)
	}
	return files, nil
}

// untrackedFiles returns untracked paths, excluding anything matched by
// gitignore-style ignore files.
func (g *Git) untrackedFiles() ([]string, error) {
	out, err := g.run("ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	return parseFileList(out), nil
}

func parseFileList(output string) []string {
	var files []string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			files = append(files, trimmed)
		}
	}
	return files
}
