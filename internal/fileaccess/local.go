package fileaccess

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Local is a FileAccess backend bounded to baseDir. Any resolved path that
// escapes baseDir — including via a symlink — is rejected with ErrInvalidPath.
type Local struct {
	baseDir string
}

// NewLocal constructs a Local backend rooted at baseDir.
func NewLocal(baseDir string) (*Local, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, newError(ErrInvalidPath, baseDir, err)
	}
	return &Local{baseDir: abs}, nil
}

// resolve joins path onto baseDir and verifies the result does not escape
// baseDir, resolving symlinks the way a directory-traversal guard must.
func (l *Local) resolve(path string) (string, error) {
	if path == "" {
		return "", newError(ErrInvalidPath, path, nil)
	}
	joined := filepath.Join(l.baseDir, path)
	rel, err := filepath.Rel(l.baseDir, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", newError(ErrInvalidPath, path, nil)
	}

	evaluated, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if os.IsNotExist(err) {
			return joined, nil
		}
		return "", newError(ErrReadFailed, path, err)
	}
	evalRel, err := filepath.Rel(l.baseDir, evaluated)
	if err != nil || evalRel == ".." || strings.HasPrefix(evalRel, ".."+string(filepath.Separator)) {
		return "", newError(ErrInvalidPath, path, nil)
	}
	return evaluated, nil
}

func (l *Local) List(patterns []string, opts ListOptions) ([]string, error) {
	var out []string
	seen := map[string]bool{}

	err := filepath.Walk(l.baseDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best-effort walk; unreadable subtrees are skipped
		}
		rel, relErr := filepath.Rel(l.baseDir, p)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if opts.MaxDepth > 0 && strings.Count(rel, "/")+1 > opts.MaxDepth {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if opts.OnlyFiles && info.IsDir() {
			return nil
		}
		if matchesAny(rel, opts.Ignore) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !matchesAny(rel, patterns) {
			return nil
		}
		result := rel
		if opts.Absolute {
			result = p
		}
		if !seen[result] {
			seen[result] = true
			out = append(out, result)
		}
		return nil
	})
	if err != nil {
		return nil, newError(ErrReadFailed, l.baseDir, err)
	}
	sort.Strings(out)
	return out, nil
}

func (l *Local) Exists(path string) (bool, error) {
	resolved, err := l.resolve(path)
	if err != nil {
		return false, err
	}
	_, statErr := os.Stat(resolved)
	if statErr == nil {
		return true, nil
	}
	if os.IsNotExist(statErr) {
		return false, nil
	}
	return false, newError(classifyStatErr(statErr), path, statErr)
}

func (l *Local) Read(path string) (string, error) {
	resolved, err := l.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", newError(classifyReadErr(err), path, err)
	}
	return string(data), nil
}

func (l *Local) Stat(path string) (Info, error) {
	resolved, err := l.resolve(path)
	if err != nil {
		return Info{}, err
	}
	fi, statErr := os.Stat(resolved)
	if statErr != nil {
		return Info{}, newError(classifyStatErr(statErr), path, statErr)
	}
	return Info{Size: fi.Size(), MTime: fi.ModTime().Unix(), IsFile: !fi.IsDir()}, nil
}

func classifyStatErr(err error) Kind {
	switch {
	case os.IsNotExist(err):
		return ErrNotFound
	case os.IsPermission(err):
		return ErrPermissionDenied
	default:
		return ErrReadFailed
	}
}

func classifyReadErr(err error) Kind {
	switch {
	case os.IsNotExist(err):
		return ErrNotFound
	case os.IsPermission(err):
		return ErrPermissionDenied
	default:
		return ErrReadFailed
	}
}

// matchesAny reports whether path matches any of patterns using doublestar
// glob semantics, also trying the basename for simple patterns like "*.go".
func matchesAny(path string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}
