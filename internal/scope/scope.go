// Package scope turns an audit request into a concrete, stable file list by
// combining glob matching, ignore-file translation, and an optional
// changed-since intersection against a VersionControl provider.
package scope

import (
	"sort"
	"strings"

	"github.com/gitgovernance/audit/internal/fileaccess"
	"github.com/gitgovernance/audit/internal/vcs"
)

// Request describes the file selection for one audit call: an empty
// Include always resolves to zero files — there is no implicit default.
type Request struct {
	Include      []string
	Exclude      []string
	ChangedSince string
	BaseDir      string
}

// Resolver computes the file list for a Request against a FileAccess and an
// optional VersionControl provider.
type Resolver struct {
	FA  fileaccess.FileAccess
	VCS vcs.Provider // nil disables changed_since intersection
}

// Resolve returns a stable, sorted list of repo-relative file paths.
func (r *Resolver) Resolve(req Request) ([]string, error) {
	if len(req.Include) == 0 {
		return nil, nil
	}

	exclude := append([]string{}, req.Exclude...)
	ignorePatterns, err := loadIgnorePatterns(r.FA, req.BaseDir)
	if err != nil {
		return nil, err
	}
	exclude = append(ignorePatterns, exclude...)

	listed, err := r.FA.List(req.Include, fileaccess.ListOptions{
		Ignore:    exclude,
		OnlyFiles: true,
	})
	if err != nil {
		return nil, err
	}

	if req.ChangedSince != "" && r.VCS != nil {
		changed, err := r.VCS.ChangedSince(req.ChangedSince)
		if err != nil {
			// VersionControl unavailable at runtime: degrade to full listing.
			sort.Strings(listed)
			return listed, nil
		}
		changedSet := make(map[string]bool, len(changed))
		for _, c := range changed {
			changedSet[c] = true
		}
		var intersected []string
		for _, l := range listed {
			if changedSet[l] {
				intersected = append(intersected, l)
			}
		}
		sort.Strings(intersected)
		return intersected, nil
	}

	sort.Strings(listed)
	return listed, nil
}

const ignoreFileName = ".gitgovignore"

// loadIgnorePatterns reads the ignore file at baseDir (if present) and
// translates each line into a glob: trailing-slash entries
// become "**/<pat>**"; entries without a slash become "**/<pat>"; entries
// containing a slash are used as-is.
func loadIgnorePatterns(fa fileaccess.FileAccess, baseDir string) ([]string, error) {
	if baseDir == "" {
		return nil, nil
	}
	path := ignoreFileName
	if baseDir != "." {
		path = strings.TrimSuffix(baseDir, "/") + "/" + ignoreFileName
	}

	exists, err := fa.Exists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	content, err := fa.Read(path)
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, translateIgnoreLine(line))
	}
	return patterns, nil
}

func translateIgnoreLine(line string) string {
	switch {
	case strings.HasSuffix(line, "/"):
		return "**/" + strings.TrimSuffix(line, "/") + "**"
	case !strings.Contains(line, "/"):
		return "**/" + line
	default:
		return line
	}
}
