package sii

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nestedDoc = `SiiNunit
{
vehicle : v1 {
 odometer: 100
 sub {
  x: 1
 }
 license_plate: "ABC 123|de"
}
vehicle : v12 {
 odometer: 7
}
}
`

func TestLocateBlockSpansOuterBrace(t *testing.T) {
	span, err := LocateBlock(nestedDoc, "vehicle", "v1")
	require.NoError(t, err)

	text := nestedDoc[span.Start:span.End]
	assert.True(t, len(text) > 0 && text[0] == 'v')
	assert.Contains(t, text, `license_plate: "ABC 123|de"`)
	assert.Equal(t, byte('}'), nestedDoc[span.End-1])
	assert.NotContains(t, text, "v12")
}

func TestLocateBlockExactID(t *testing.T) {
	b, err := FindBlock(nestedDoc, "vehicle", "v12")
	require.NoError(t, err)
	assert.Equal(t, "\n odometer: 7\n", b.Body())

	_, err = FindBlock(nestedDoc, "vehicle", "v")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocateBlockNotFound(t *testing.T) {
	_, err := LocateBlock(nestedDoc, "trailer", "v1")
	require.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "trailer", nf.Class)
	assert.False(t, nf.Unbalanced)
}

func TestLocateBlockUnbalanced(t *testing.T) {
	_, err := LocateBlock("vehicle : v1 {\n a: 1\n sub {\n", "vehicle", "v1")
	require.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.True(t, nf.Unbalanced)
}

func TestLocateBlockIgnoresBracesInStrings(t *testing.T) {
	doc := "profile : p1 {\n name: \"a } b\"\n x: 2\n}\nrest"
	b, err := FindBlock(doc, "profile", "p1")
	require.NoError(t, err)
	assert.Equal(t, "rest", doc[b.Span.End+1:])
}

func TestLocateBlockClassNeedsBoundary(t *testing.T) {
	doc := "my_vehicle : v1 {\n a: 1\n}\n"
	_, err := LocateBlock(doc, "vehicle", "v1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlocks(t *testing.T) {
	blocks := Blocks(nestedDoc, "vehicle")
	require.Len(t, blocks, 2)
	assert.Equal(t, "v1", blocks[0].ID)
	assert.Equal(t, "v12", blocks[1].ID)
	assert.Equal(t, "vehicle", blocks[1].Class)
}

func TestAllBlocks(t *testing.T) {
	doc := "SiiNunit\n{\neconomy : _nameless.1 {\n player: p\n}\nplayer : p {\n my_truck: v\n}\n}\n"
	blocks := AllBlocks(doc)
	require.Len(t, blocks, 2)
	assert.Equal(t, "economy", blocks[0].Class)
	assert.Equal(t, "_nameless.1", blocks[0].ID)
	assert.Equal(t, "player", blocks[1].Class)
}
