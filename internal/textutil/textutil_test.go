package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	assert.Equal(t, Hash("abc"), Hash("abc"))
	assert.NotEqual(t, Hash("abc"), Hash("abd"))
	assert.Len(t, Hash(""), 64)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
}

func TestLineOf(t *testing.T) {
	doc := "a\nb\nc"
	assert.Equal(t, 1, LineOf(doc, 0))
	assert.Equal(t, 2, LineOf(doc, 2))
	assert.Equal(t, 3, LineOf(doc, 4))
	assert.Equal(t, 3, LineOf(doc, 100))
	assert.Equal(t, 1, LineOf(doc, -5))
}
