package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"razorforge/src/source"
)

func TestIDGen_TakeIsMonotonicAndStartsAtOne(t *testing.T) {
	g := NewIDGen()
	assert.Equal(t, NodeID(1), g.Take())
	assert.Equal(t, NodeID(2), g.Take())
	assert.Equal(t, NodeID(3), g.Take())
}

func TestBase_IDAndLocation(t *testing.T) {
	loc := source.Location{Line: 3, Column: 5}
	b := NewBase(7, loc)
	assert.Equal(t, NodeID(7), b.ID())
	assert.Equal(t, loc, b.Location())
}

func TestProgram_DeclarationsSatisfyDeclarationInterface(t *testing.T) {
	prog := &Program{Base: NewBase(0, source.Location{}), Declarations: []Declaration{
		&FunctionDecl{Base: NewBase(1, source.Location{}), Name: "start"},
		&RecordDecl{Base: NewBase(2, source.Location{}), Name: "Point"},
	}}
	assert.Len(t, prog.Declarations, 2)
	f, ok := prog.Declarations[0].(*FunctionDecl)
	assert.True(t, ok)
	assert.Equal(t, "start", f.Name)
}

func TestIdentifier_IsAnExpression(t *testing.T) {
	var e Expression = &Identifier{Base: NewBase(1, source.Location{}), Name: "x"}
	assert.Equal(t, NodeID(1), e.ID())
}
