package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"razorforge/src/ast"
	"razorforge/src/diag"
	"razorforge/src/lexer"
	"razorforge/src/source"
)

func parseSource(t *testing.T, src string) (*ast.Program, []diag.Diagnostic) {
	t.Helper()
	fset := source.NewFileSet()
	f := fset.Add("test.rf", "", src, source.RazorForge)
	toks, lerrs := lexer.Lex(f)
	require.Empty(t, lerrs)
	return Parse(f, toks)
}

func TestParse_FunctionDecl(t *testing.T) {
	prog, diags := parseSource(t, "routine square(n: s32) -> s32 { return n * n }")
	assert.Empty(t, diags)
	require.Len(t, prog.Declarations, 1)
	f, ok := prog.Declarations[0].(*ast.FunctionDecl)
	require.True(t, ok)
	assert.Equal(t, "square", f.Name)
	require.Len(t, f.Params, 1)
	assert.Equal(t, "n", f.Params[0].Name)
	require.NotNil(t, f.ReturnType)
	assert.Equal(t, "s32", f.ReturnType.Name)
}

func TestParse_RecordDeclWithFields(t *testing.T) {
	prog, diags := parseSource(t, "record Point { x: s32, y: s32 }")
	assert.Empty(t, diags)
	require.Len(t, prog.Declarations, 1)
	r, ok := prog.Declarations[0].(*ast.RecordDecl)
	require.True(t, ok)
	assert.Equal(t, "Point", r.Name)
	require.Len(t, r.Fields, 2)
	assert.Equal(t, "x", r.Fields[0].Name)
	assert.Equal(t, "y", r.Fields[1].Name)
}

func TestParse_BinaryPrecedence(t *testing.T) {
	prog, diags := parseSource(t, "routine f { return 1 + 2 * 3 }")
	assert.Empty(t, diags)
	f := prog.Declarations[0].(*ast.FunctionDecl)
	ret := f.Body.Statements[0].(*ast.ReturnStatement)
	top, ok := ret.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "+", top.Op)
	_, leftIsLit := top.Left.(*ast.Literal)
	assert.True(t, leftIsLit)
	mul, ok := top.Right.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)
}

func TestParse_IfElseStatement(t *testing.T) {
	prog, diags := parseSource(t, "routine f { if true { return 1 } else { return 2 } }")
	assert.Empty(t, diags)
	f := prog.Declarations[0].(*ast.FunctionDecl)
	ifs, ok := f.Body.Statements[0].(*ast.IfStatement)
	require.True(t, ok)
	require.NotNil(t, ifs.Then)
	require.NotNil(t, ifs.Else)
}

func TestParse_WhileLoop(t *testing.T) {
	prog, diags := parseSource(t, "routine f { while true { break } }")
	assert.Empty(t, diags)
	f := prog.Declarations[0].(*ast.FunctionDecl)
	_, ok := f.Body.Statements[0].(*ast.WhileStatement)
	assert.True(t, ok)
}

func TestParse_GenericMethodReceiver(t *testing.T) {
	prog, diags := parseSource(t, "routine List<T>.select(n: T) -> T { return n }")
	assert.Empty(t, diags)
	f, ok := prog.Declarations[0].(*ast.FunctionDecl)
	require.True(t, ok)
	require.NotNil(t, f.Receiver)
	assert.Equal(t, "List", f.Receiver.Name)
	assert.Equal(t, "select", f.Name)
	require.Len(t, f.ReceiverGeneric, 1)
	assert.Equal(t, "T", f.ReceiverGeneric[0].Name)
}

func TestParse_NestedGenericArgsCloseOnDoubleGreater(t *testing.T) {
	prog, diags := parseSource(t, "routine f(xs: List<List<s32>>) { }")
	assert.Empty(t, diags)
	f := prog.Declarations[0].(*ast.FunctionDecl)
	require.Len(t, f.Params, 1)
	outer := f.Params[0].Type
	require.Equal(t, "List", outer.Name)
	require.Len(t, outer.Args, 1)
	assert.Equal(t, "List", outer.Args[0].Name)
}

func TestParse_SyncsPastErrorAndKeepsGoing(t *testing.T) {
	prog, diags := parseSource(t, "routine a( { } routine b { }")
	assert.NotEmpty(t, diags)
	var names []string
	for _, d := range prog.Declarations {
		if f, ok := d.(*ast.FunctionDecl); ok {
			names = append(names, f.Name)
		}
	}
	assert.Contains(t, names, "b")
}
