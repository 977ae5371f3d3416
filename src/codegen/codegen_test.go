package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"razorforge/src/ast"
)

func TestMangleFunction_PlainRoutine(t *testing.T) {
	f := &ast.FunctionDecl{Name: "compute"}
	assert.Equal(t, "compute", mangleFunction(f))
}

func TestMangleFunction_Method(t *testing.T) {
	f := &ast.FunctionDecl{Name: "push", Receiver: &ast.TypeExpr{Name: "Stack"}}
	assert.Equal(t, "Stack_push", mangleFunction(f))
}

func TestMangleFunction_GenericReceiverSanitized(t *testing.T) {
	f := &ast.FunctionDecl{
		Name:     "select",
		Receiver: &ast.TypeExpr{Name: "List", Args: []*ast.TypeExpr{{Name: "s32"}}},
	}
	assert.Equal(t, "List_s32_select", mangleFunction(f))
}

func TestMangleFunction_StripsDunder(t *testing.T) {
	f := &ast.FunctionDecl{Name: "__add__"}
	assert.Equal(t, "add", mangleFunction(f))
}

func TestDeclaresName_FindsTopLevelFunction(t *testing.T) {
	prog := &ast.Program{Declarations: []ast.Declaration{
		&ast.FunctionDecl{Name: "main"},
	}}
	assert.True(t, declaresName(prog, "main"))
	assert.False(t, declaresName(prog, "printf"))
}

func TestMethodsOf_CollectsAcrossAggregateKinds(t *testing.T) {
	m1 := &ast.FunctionDecl{Name: "area"}
	m2 := &ast.FunctionDecl{Name: "scale"}
	assert.Equal(t, []*ast.FunctionDecl{m1}, methodsOf(&ast.RecordDecl{Methods: []*ast.FunctionDecl{m1}}))
	assert.Equal(t, []*ast.FunctionDecl{m2}, methodsOf(&ast.EntityDecl{Methods: []*ast.FunctionDecl{m2}}))
	assert.Nil(t, methodsOf(&ast.MutantDecl{}))
}

func TestTopoSortAggregates_OrdersDependencyBeforeDependent(t *testing.T) {
	point := &ast.RecordDecl{Name: "Point", Fields: []ast.Field{{Name: "x", Type: &ast.TypeExpr{Name: "s32"}}}}
	line := &ast.RecordDecl{Name: "Line", Fields: []ast.Field{
		{Name: "from", Type: &ast.TypeExpr{Name: "Point"}},
		{Name: "to", Type: &ast.TypeExpr{Name: "Point"}},
	}}
	prog := &ast.Program{Declarations: []ast.Declaration{line, point}}

	order, err := topoSortAggregates(prog)
	require.NoError(t, err)
	require.Len(t, order, 2)
	pointName, _ := aggregateName(order[0])
	lineName, _ := aggregateName(order[1])
	assert.Equal(t, "Point", pointName)
	assert.Equal(t, "Line", lineName)
}

func TestTopoSortAggregates_DetectsCycle(t *testing.T) {
	a := &ast.RecordDecl{Name: "A", Fields: []ast.Field{{Name: "b", Type: &ast.TypeExpr{Name: "B"}}}}
	b := &ast.RecordDecl{Name: "B", Fields: []ast.Field{{Name: "a", Type: &ast.TypeExpr{Name: "A"}}}}
	prog := &ast.Program{Declarations: []ast.Declaration{a, b}}

	_, err := topoSortAggregates(prog)
	require.Error(t, err)
}

func TestAggregateName_NonAggregateDeclarationIsSkipped(t *testing.T) {
	_, ok := aggregateName(&ast.FunctionDecl{Name: "start"})
	assert.False(t, ok)
}

func TestFieldsOf_ChoiceHasNoFields(t *testing.T) {
	_, ok := fieldsOf(&ast.ChoiceDecl{Name: "Color"})
	assert.False(t, ok)
}
