package vcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFileList(t *testing.T) {
	out := "src/a.ts\nsrc/b.ts\n\n"
	assert.Equal(t, []string{"src/a.ts", "src/b.ts"}, parseFileList(out))
}

func TestParseFileListEmpty(t *testing.T) {
	assert.Nil(t, parseFileList(""))
	assert.Nil(t, parseFileList("\n\n"))
}

func TestHasNextPage(t *testing.T) {
	assert.False(t, hasNextPage(""))
	assert.False(t, hasNextPage(`<https://api.github.com/x?page=1>; rel="prev"`))
	assert.True(t, hasNextPage(`<https://api.github.com/x?page=2>; rel="next", <https://api.github.com/x?page=1>; rel="prev"`))
}
