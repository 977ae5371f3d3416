package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndLookup_GlobalScope(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Insert(&Symbol{Name: "start", Kind: KindFunction}))

	sym, ok := tbl.Lookup("start")
	require.True(t, ok)
	assert.Equal(t, KindFunction, sym.Kind)
}

func TestInsert_DuplicateInSameScopeFails(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Insert(&Symbol{Name: "x", Kind: KindVariable}))
	err := tbl.Insert(&Symbol{Name: "x", Kind: KindVariable})
	require.Error(t, err)
	_, ok := err.(*ErrDuplicate)
	assert.True(t, ok)
}

func TestPushPop_InnerScopeShadowsOuter(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Insert(&Symbol{Name: "x", Kind: KindVariable, VarType: nil}))

	tbl.Push(false)
	require.NoError(t, tbl.Insert(&Symbol{Name: "x", Kind: KindVariable, Mutable: true}))
	sym, ok := tbl.Lookup("x")
	require.True(t, ok)
	assert.True(t, sym.Mutable)

	tbl.Pop()
	sym, ok = tbl.Lookup("x")
	require.True(t, ok)
	assert.False(t, sym.Mutable)
}

func TestLookupLocal_DoesNotSeeOuterScope(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Insert(&Symbol{Name: "x", Kind: KindVariable}))
	tbl.Push(false)

	_, ok := tbl.LookupLocal("x")
	assert.False(t, ok)
	_, ok = tbl.Lookup("x")
	assert.True(t, ok)
}

func TestInFunction_TrueOnlyInsideFunctionScope(t *testing.T) {
	tbl := NewTable()
	assert.False(t, tbl.InFunction())

	tbl.Push(true)
	assert.True(t, tbl.InFunction())

	tbl.Push(false)
	assert.True(t, tbl.InFunction(), "a block scope nested in a function scope is still in-function")

	tbl.Pop()
	tbl.Pop()
	assert.False(t, tbl.InFunction())
}

func TestPop_NeverClosesGlobalScope(t *testing.T) {
	tbl := NewTable()
	tbl.Pop()
	assert.Equal(t, tbl.Global(), tbl.Current())
}
