package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_StringAndValid(t *testing.T) {
	l := Location{Line: 3, Column: 7}
	assert.Equal(t, "3:7", l.String())
	assert.True(t, l.Valid())

	assert.False(t, Location{}.Valid())
	assert.False(t, Location{Line: 0, Column: 1}.Valid())
	assert.False(t, Location{Line: 1, Column: 0}.Valid())
}

func TestDialectForExt(t *testing.T) {
	d, ok := DialectForExt(".rf")
	require.True(t, ok)
	assert.Equal(t, RazorForge, d)

	d, ok = DialectForExt(".sf")
	require.True(t, ok)
	assert.Equal(t, Suflae, d)

	_, ok = DialectForExt(".go")
	assert.False(t, ok)
}

func TestDialect_String(t *testing.T) {
	assert.Equal(t, "razorforge", RazorForge.String())
	assert.Equal(t, "suflae", Suflae.String())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestFileSet_AddAssignsStableSequentialIDs(t *testing.T) {
	fs := NewFileSet()
	a := fs.Add("a.rf", "pkg/a.rf", "content a", RazorForge)
	b := fs.Add("b.rf", "pkg/b.rf", "content b", RazorForge)

	assert.Equal(t, FileID(1), a.ID)
	assert.Equal(t, FileID(2), b.ID)
	assert.Same(t, a, fs.Get(a.ID))
	assert.Same(t, b, fs.Get(b.ID))
}

func TestFileSet_GetAndNameForUnknownID(t *testing.T) {
	fs := NewFileSet()
	assert.Nil(t, fs.Get(FileID(99)))
	assert.Equal(t, "<unknown>", fs.Name(FileID(99)))
}

func TestFileSet_NameReturnsDisplayName(t *testing.T) {
	fs := NewFileSet()
	f := fs.Add("main.rf", "", "routine start { }", RazorForge)
	assert.Equal(t, "main.rf", fs.Name(f.ID))
}
