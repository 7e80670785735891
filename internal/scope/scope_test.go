package scope

import (
	"testing"

	"github.com/gitgovernance/audit/internal/fileaccess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEmptyIncludeIsEmpty(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{"src/a.ts": "x"})
	r := &Resolver{FA: fa}
	files, err := r.Resolve(Request{})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestResolveSortedAscending(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"src/b.ts": "x",
		"src/a.ts": "y",
	})
	r := &Resolver{FA: fa}
	files, err := r.Resolve(Request{Include: []string{"**/*.ts"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts", "src/b.ts"}, files)
}

func TestResolveExcludesIgnoreFile(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"src/a.ts":        "x",
		"vendor/dep.ts":   "y",
		".gitgovignore":   "vendor/\nnode_modules\n",
	})
	r := &Resolver{FA: fa}
	files, err := r.Resolve(Request{Include: []string{"**/*.ts"}, BaseDir: "."})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts"}, files)
}

type stubVCS struct {
	changed []string
	err     error
}

func (s stubVCS) ChangedSince(string) ([]string, error) { return s.changed, s.err }

func TestResolveChangedSinceIntersection(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{
		"src/a.ts": "x",
		"src/b.ts": "y",
	})
	r := &Resolver{FA: fa, VCS: stubVCS{changed: []string{"src/b.ts"}}}
	files, err := r.Resolve(Request{Include: []string{"**/*.ts"}, ChangedSince: "main"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/b.ts"}, files)
}

func TestResolveChangedSinceDegradesWithoutVCS(t *testing.T) {
	fa := fileaccess.NewMemory(map[string]string{"src/a.ts": "x"})
	r := &Resolver{FA: fa}
	files, err := r.Resolve(Request{Include: []string{"**/*.ts"}, ChangedSince: "main"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts"}, files)
}

func TestTranslateIgnoreLine(t *testing.T) {
	assert.Equal(t, "**/vendor**", translateIgnoreLine("vendor/"))
	assert.Equal(t, "**/node_modules", translateIgnoreLine("node_modules"))
	assert.Equal(t, "build/output", translateIgnoreLine("build/output"))
}
