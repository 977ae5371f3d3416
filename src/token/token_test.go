package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"razorforge/src/source"
)

func TestLookup_RecognizesKeywordsOfVaryingLength(t *testing.T) {
	cases := map[string]Kind{
		"if":       KwIf,
		"let":      KwLet,
		"while":    KwWhile,
		"routine":  KwRoutine,
		"namespace": KwNamespace,
	}
	for lexeme, want := range cases {
		got, ok := Lookup(lexeme)
		assert.True(t, ok, lexeme)
		assert.Equal(t, want, got, lexeme)
	}
}

func TestLookup_NonKeywordIsIdentifier(t *testing.T) {
	got, ok := Lookup("square")
	assert.False(t, ok)
	assert.Equal(t, Identifier, got)
}

func TestLookup_EmptyAndOversizedNamesAreIdentifiers(t *testing.T) {
	_, ok := Lookup("")
	assert.False(t, ok)

	_, ok = Lookup(strings.Repeat("x", 64))
	assert.False(t, ok)
}

func TestToken_StringFormatsEofDistinctly(t *testing.T) {
	tok := Token{Kind: Eof}
	assert.Equal(t, "EOF", tok.String())
}

func TestToken_StringTruncatesLongLexemes(t *testing.T) {
	tok := Token{Kind: StringLiteral, Lexeme: strings.Repeat("a", 20), Loc: source.Location{Line: 1, Column: 1}}
	s := tok.String()
	assert.Contains(t, s, "...")
}

func TestHasReservedPrefix(t *testing.T) {
	assert.True(t, HasReservedPrefix("try_open"))
	assert.True(t, HasReservedPrefix("check_bounds"))
	assert.True(t, HasReservedPrefix("find_index"))
	assert.False(t, HasReservedPrefix("try"))
	assert.False(t, HasReservedPrefix("trying"))
	assert.False(t, HasReservedPrefix("open"))
}

func TestIsDunder(t *testing.T) {
	assert.True(t, IsDunder("__add__"))
	assert.True(t, IsDunder("__add__!"))
	assert.False(t, IsDunder("__add"))
	assert.False(t, IsDunder("add"))
	assert.False(t, IsDunder("___"))
}
