package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"razorforge/src/diag"
	"razorforge/src/source"
	"razorforge/src/token"
)

func lexString(t *testing.T, src string) []token.Token {
	t.Helper()
	fset := source.NewFileSet()
	f := fset.Add("test.rf", "", src, source.RazorForge)
	toks, diags := Lex(f)
	require.False(t, diag.HasErrors(diags), "unexpected lexical diagnostics: %v", diags)
	return toks
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tk := range toks {
		out[i] = tk.Kind
	}
	return out
}

func TestLex_EmptySourceYieldsOnlyEof(t *testing.T) {
	toks := lexString(t, "")
	assert.Equal(t, []token.Kind{token.Eof}, kinds(toks))
}

func TestLex_KeywordsAndIdentifier(t *testing.T) {
	toks := lexString(t, "routine let x")
	assert.Equal(t, []token.Kind{token.KwRoutine, token.KwLet, token.Identifier, token.Eof}, kinds(toks))
}

func TestLex_FunctionHeaderPunctuation(t *testing.T) {
	toks := lexString(t, "routine square(n: s32): s32 { return n * n }")
	got := kinds(toks)
	assert.Contains(t, got, token.LParen)
	assert.Contains(t, got, token.RParen)
	assert.Contains(t, got, token.LBrace)
	assert.Contains(t, got, token.RBrace)
	assert.Contains(t, got, token.Colon)
	assert.Contains(t, got, token.Star)
}

func TestLex_IntLiteralWithSuffix(t *testing.T) {
	toks := lexString(t, "42_s32")
	require.Equal(t, token.IntLiteral, toks[0].Kind)
	assert.Equal(t, "42_s32", toks[0].Lexeme)
}

func TestLex_FloatLiteral(t *testing.T) {
	toks := lexString(t, "3.14")
	require.Equal(t, token.FloatLiteral, toks[0].Kind)
}

func TestLex_LineCommentIsSkipped(t *testing.T) {
	toks := lexString(t, "# comment\nlet")
	assert.Equal(t, []token.Kind{token.KwLet, token.Eof}, kinds(toks))
}

func TestLex_CompoundAssignOperators(t *testing.T) {
	toks := lexString(t, "x += 1")
	assert.Equal(t, []token.Kind{token.Identifier, token.PlusAssign, token.IntLiteral, token.Eof}, kinds(toks))
}

func TestLex_ArrowAndFatArrow(t *testing.T) {
	toks := lexString(t, "-> =>")
	assert.Equal(t, []token.Kind{token.Arrow, token.FatArrow, token.Eof}, kinds(toks))
}

func TestLex_TracksLineAndColumn(t *testing.T) {
	toks := lexString(t, "let\nx")
	require.Len(t, toks, 3)
	assert.Equal(t, 1, toks[0].Loc.Line)
	assert.Equal(t, 2, toks[1].Loc.Line)
}

func TestLex_IllegalCharacterProducesDiagnostic(t *testing.T) {
	fset := source.NewFileSet()
	f := fset.Add("bad.rf", "", "let x = `", source.RazorForge)
	_, diags := Lex(f)
	assert.True(t, diag.HasErrors(diags))
}
