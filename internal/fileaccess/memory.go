package fileaccess

import (
	"path/filepath"
	"sort"
)

// Memory is an in-memory FileAccess backend backed by an explicit path to
// content map, used by tests and by audit_contents-style callers.
type Memory struct {
	files map[string]string
}

// NewMemory constructs a Memory backend over files (path -> UTF-8 content).
func NewMemory(files map[string]string) *Memory {
	copied := make(map[string]string, len(files))
	for k, v := range files {
		copied[k] = v
	}
	return &Memory{files: copied}
}

func (m *Memory) List(patterns []string, opts ListOptions) ([]string, error) {
	var out []string
	for path := range m.files {
		if matchesAny(path, opts.Ignore) {
			continue
		}
		if !matchesAny(path, patterns) {
			continue
		}
		result := path
		if opts.Absolute {
			abs, err := filepath.Abs(path)
			if err == nil {
				result = abs
			}
		}
		out = append(out, result)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Exists(path string) (bool, error) {
	_, ok := m.files[path]
	return ok, nil
}

func (m *Memory) Read(path string) (string, error) {
	content, ok := m.files[path]
	if !ok {
		return "", newError(ErrNotFound, path, nil)
	}
	return content, nil
}

func (m *Memory) Stat(path string) (Info, error) {
	content, ok := m.files[path]
	if !ok {
		return Info{}, newError(ErrNotFound, path, nil)
	}
	return Info{Size: int64(len(content)), IsFile: true}, nil
}
