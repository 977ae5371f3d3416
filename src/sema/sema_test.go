package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"razorforge/src/ast"
	"razorforge/src/diag"
	"razorforge/src/lexer"
	"razorforge/src/module"
	"razorforge/src/parser"
	"razorforge/src/source"
)

// parseUnit parses src into a module.Unit usable with AnalyzeUnits, without
// going through module.Resolver's filesystem loading.
func parseUnit(t *testing.T, path, src string, imports []module.ImportSpec) *module.Unit {
	t.Helper()
	fset := source.NewFileSet()
	f := fset.Add(path+".rf", path, src, source.RazorForge)
	toks, lerrs := lexer.Lex(f)
	require.Empty(t, lerrs)
	prog, perrs := parser.Parse(f, toks)
	require.Empty(t, perrs)
	return &module.Unit{Path: path, File: f, Program: prog, Imports: imports}
}

func analyze(t *testing.T, src string) (*ast.Program, *Analyzer, []diag.Diagnostic) {
	t.Helper()
	fset := source.NewFileSet()
	f := fset.Add("test.rf", "", src, source.RazorForge)
	toks, lerrs := lexer.Lex(f)
	require.Empty(t, lerrs)
	prog, perrs := parser.Parse(f, toks)
	require.Empty(t, perrs)

	bag := diag.NewBag()
	a := NewAnalyzer(bag)
	a.Analyze(prog)
	return prog, a, bag.Close()
}

func TestAnalyze_WellTypedProgramHasNoDiagnostics(t *testing.T) {
	_, _, diags := analyze(t, "routine square(n: s32) -> s32 { return n * n }")
	assert.False(t, diag.HasErrors(diags), "%v", diags)
}

func TestAnalyze_UnknownSymbolIsReported(t *testing.T) {
	_, _, diags := analyze(t, "routine f { return missing }")
	assert.True(t, diag.HasErrors(diags))
}

func TestAnalyze_IntegerDivisionRequiresDoubleSlash(t *testing.T) {
	_, _, diags := analyze(t, "routine f(a: s32, b: s32) -> s32 { return a / b }")
	assert.True(t, diag.HasErrors(diags))
	var found bool
	for _, d := range diags {
		if d.Kind == diag.KindIntegerDivide {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyze_ArithmeticOnNonNumericIsRejected(t *testing.T) {
	_, _, diags := analyze(t, `routine f(a: bool, b: bool) -> bool { return a + b }`)
	assert.True(t, diag.HasErrors(diags))
}

func TestAnalyze_ArityMismatchIsReported(t *testing.T) {
	_, _, diags := analyze(t, "routine add(a: s32, b: s32) -> s32 { return a + b } routine f { return add(1) }")
	assert.True(t, diag.HasErrors(diags))
	var found bool
	for _, d := range diags {
		if d.Kind == diag.KindArityMismatch {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyze_ReservedPrefixOnUserFunctionIsRejected(t *testing.T) {
	_, _, diags := analyze(t, "routine try_open { }")
	assert.True(t, diag.HasErrors(diags))
}

func TestAnalyze_DunderNameOnUserFunctionIsRejected(t *testing.T) {
	_, _, diags := analyze(t, "routine __add__ { }")
	assert.True(t, diag.HasErrors(diags))
}

func TestAnalyze_ThrowingFunctionWithoutBangIsRejected(t *testing.T) {
	_, _, diags := analyze(t, "routine f { throw 1 }")
	assert.True(t, diag.HasErrors(diags))
}

func TestAnalyze_ThrowingFunctionWithBangIsAccepted(t *testing.T) {
	_, _, diags := analyze(t, "routine f! { throw 1 }")
	assert.False(t, diag.HasErrors(diags), "%v", diags)
}

func TestAnalyze_RecordDeclarationIsRegistered(t *testing.T) {
	_, a, diags := analyze(t, "record Point { x: s32, y: s32 }")
	assert.False(t, diag.HasErrors(diags), "%v", diags)
	info, ok := a.Reg.Lookup("Point")
	require.True(t, ok)
	assert.Equal(t, "Point", info.Name)
}

func TestAnalyze_ResolvedTypeIsAvailableForLiteral(t *testing.T) {
	prog, a, diags := analyze(t, "routine f { return 1 }")
	assert.False(t, diag.HasErrors(diags), "%v", diags)
	f := prog.Declarations[0].(*ast.FunctionDecl)
	ret := f.Body.Statements[0].(*ast.ReturnStatement)
	info, ok := a.ResolvedType(ret.Value)
	require.True(t, ok)
	assert.Equal(t, "s32", info.Name)
}

func TestAnalyzeUnits_UnimportedSiblingSymbolIsUnknown(t *testing.T) {
	util := parseUnit(t, "util", "routine square(n: s32) -> s32 { return n * n }", nil)
	entry := parseUnit(t, "", "routine f(n: s32) -> s32 { return square(n) }", nil)

	bag := diag.NewBag()
	a := NewAnalyzer(bag)
	a.AnalyzeUnits([]*module.Unit{util, entry})

	diags := bag.Close()
	assert.True(t, diag.HasErrors(diags), "calling an unimported sibling's function should be reported")
}

func TestAnalyzeUnits_ExplicitImportMakesSymbolVisible(t *testing.T) {
	util := parseUnit(t, "util", "routine square(n: s32) -> s32 { return n * n }", nil)
	entry := parseUnit(t, "", "routine f(n: s32) -> s32 { return square(n) }",
		[]module.ImportSpec{{Path: "util"}})

	bag := diag.NewBag()
	a := NewAnalyzer(bag)
	a.AnalyzeUnits([]*module.Unit{util, entry})

	diags := bag.Close()
	assert.False(t, diag.HasErrors(diags), "%v", diags)
}

func TestAnalyzeUnits_SelectiveImportExcludesUnlistedNames(t *testing.T) {
	util := parseUnit(t, "util", "routine square(n: s32) -> s32 { return n * n }\nroutine cube(n: s32) -> s32 { return n * n * n }", nil)
	entry := parseUnit(t, "", "routine f(n: s32) -> s32 { return cube(n) }",
		[]module.ImportSpec{{Path: "util", Selective: []string{"square"}}})

	bag := diag.NewBag()
	a := NewAnalyzer(bag)
	a.AnalyzeUnits([]*module.Unit{util, entry})

	diags := bag.Close()
	assert.True(t, diag.HasErrors(diags), "a selective import should not expose names it didn't list")
}
