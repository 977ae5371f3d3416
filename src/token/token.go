// Package token defines the closed set of lexical token kinds shared by the
// RazorForge and Suflae dialects, and the Token value the lexer emits.
package token

import (
	"fmt"

	"razorforge/src/source"
)

// Kind is a closed enumeration spanning keywords, operators, literal kinds
// and structural punctuation (spec §3 Token).
type Kind int

const (
	Illegal Kind = iota
	Eof

	Identifier

	// Literals.
	IntLiteral     // typed integer literal, e.g. 42_s32
	FloatLiteral   // typed float/decimal literal, e.g. 3.14_f32
	DurationLiteral   // 5w, 30m, 1ms, ...
	MemorySizeLiteral // 64kib, 2gb, 0b (zero bytes)
	StringLiteral     // prefixed text literal; see StringPrefix
	BoolLiteral
	NoneLiteral

	// Identifiers/keywords (dialect-shared substrate).
	KwRecord
	KwEntity
	KwResident
	KwChoice
	KwVariant
	KwMutant
	KwProtocol
	KwRoutine
	KwLet
	KwVar
	KwIf
	KwElse
	KwUnless
	KwWhile
	KwFor
	KwLoop
	KwWhen
	KwBreak
	KwContinue
	KwReturn
	KwImport
	KwAs
	KwNamespace
	KwExternal
	KwPreset
	KwCommon
	KwOpen
	KwSealed
	KwOverride
	KwFollows
	KwFrom
	KwWhere
	KwDanger
	KwHijacking
	KwViewing
	KwSeizing
	KwInspecting
	KwUsing
	KwThrow
	KwAbsent
	KwTo
	KwDownto
	KwStep
	KwIs
	KwIsnot
	KwIn
	KwNotin
	KwAnd
	KwOr
	KwNot
	KwMe
	KwMyType
	KwTrue
	KwFalse
	KwNone
	KwSome
	KwPublic
	KwPrivate
	KwFamily
	KwModule

	// Punctuation & operators.
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Dot
	Colon
	ColonColon
	Semicolon
	Arrow    // ->
	FatArrow // =>
	Assign   // =
	At       // @ (intrinsic prefix)
	Bang     // ! (fallible suffix / crashable op suffix)
	Question // ? (checked overflow op suffix)
	Caret    // ^ (saturating overflow op suffix)
	Percent  // % (wrap overflow op suffix / modulo)

	Plus
	Minus
	Star
	Slash
	SlashSlash // floor division //
	Amp
	Pipe
	Tilde
	Shl
	Shr // >> outside nested-generic context
	Less
	Greater // > ; doubled Greater Greater closes nested generics
	LessEq
	GreaterEq
	Eq
	NotEq
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign

	// Dotted intrinsic path segment, e.g. the NAME in @intrinsic.NAME.
	IntrinsicPath
)

// StringPrefixKind enumerates the closed set of string-literal prefixes
// (spec §4.1): t8, t16, r, f, combinations, and Suflae's b/br/bf/brf.
type StringPrefixKind int

const (
	PrefixNone StringPrefixKind = iota
	PrefixT8
	PrefixT16
	PrefixRaw
	PrefixFormatted
	PrefixRawFormatted
	PrefixBytes     // b
	PrefixRawBytes  // br
	PrefixFmtBytes  // bf
	PrefixRawFmtBytes // brf
)

// Token is a tagged value (kind, lexeme, value, location), spec §3.
type Token struct {
	Kind     Kind
	Lexeme   string
	Loc      source.Location
	EndLoc   source.Location

	// Value is not set by the lexer; the parser decodes literal values
	// from Lexeme (see parser/literal.go).
	Value interface{}

	// Suffix carries the explicit type suffix attached to a numeric literal,
	// e.g. "s32", "uaddr", "f32"; empty when the literal is untyped.
	Suffix string

	// Prefix carries the string-literal prefix kind for StringLiteral tokens.
	Prefix StringPrefixKind

	// Unit carries the unit suffix of a duration/memory-size literal, e.g.
	// "ms", "kib", "b".
	Unit string
}

func (t Token) String() string {
	if t.Kind == Eof {
		return "EOF"
	}
	if len(t.Lexeme) > 12 {
		return fmt.Sprintf("%.12q...(%s)", t.Lexeme, t.Loc)
	}
	return fmt.Sprintf("%q(%s)", t.Lexeme, t.Loc)
}

// keyword is one entry of the length-bucketed reserved word table.
type keyword struct {
	val string
	typ Kind
}

// keywords buckets reserved words by length, the way the teacher's
// src/frontend/lang.go does, on the theory that indexing by length and
// scanning a short bucket beats a generic hash lookup for a closed,
// small vocabulary known at compile time of the compiler itself.
var keywords = buildKeywordTable()

func buildKeywordTable() [][]keyword {
	raw := []keyword{
		{"as", KwAs}, {"if", KwIf}, {"in", KwIn}, {"is", KwIs}, {"me", KwMe},
		{"or", KwOr}, {"to", KwTo},
		{"var", KwVar}, {"let", KwLet}, {"for", KwFor}, {"not", KwNot},
		{"and", KwAnd},
		{"else", KwElse}, {"loop", KwLoop}, {"when", KwWhen}, {"from", KwFrom},
		{"true", KwTrue}, {"step", KwStep},
		{"while", KwWhile}, {"break", KwBreak}, {"throw", KwThrow}, {"using", KwUsing},
		{"false", KwFalse}, {"isnot", KwIsnot}, {"notin", KwNotin}, {"some", KwSome},
		{"where", KwWhere}, {"begin", Illegal}, // placeholder removed below
		{"return", KwReturn}, {"record", KwRecord}, {"entity", KwEntity},
		{"choice", KwChoice}, {"unless", KwUnless}, {"danger", KwDanger},
		{"absent", KwAbsent}, {"downto", KwDownto}, {"common", KwCommon},
		{"sealed", KwSealed}, {"public", KwPublic}, {"family", KwFamily},
		{"module", KwModule}, {"MyType", KwMyType}, {"none", KwNone},
		{"import", KwImport}, {"routine", KwRoutine}, {"variant", KwVariant},
		{"mutant", KwMutant}, {"follows", KwFollows}, {"viewing", KwViewing},
		{"seizing", KwSeizing}, {"private", KwPrivate},
		{"override", KwOverride}, {"external", KwExternal}, {"preset", KwPreset},
		{"resident", KwResident}, {"protocol", KwProtocol}, {"hijacking", KwHijacking},
		{"inspecting", KwInspecting}, {"continue", KwContinue}, {"namespace", KwNamespace},
		{"open", KwOpen},
	}
	var buckets [][]keyword
	for _, kw := range raw {
		if kw.typ == Illegal {
			continue
		}
		for len(buckets) < len(kw.val) {
			buckets = append(buckets, nil)
		}
		buckets[len(kw.val)-1] = append(buckets[len(kw.val)-1], kw)
	}
	return buckets
}

// Lookup returns the Kind of s if it is a reserved keyword, else
// (Identifier, false).
func Lookup(s string) (Kind, bool) {
	if len(s) == 0 || len(s) > len(keywords) {
		return Identifier, false
	}
	for _, kw := range keywords[len(s)-1] {
		if kw.val == s {
			return kw.typ, true
		}
	}
	return Identifier, false
}

// reservedPrefixes is the closed set the naming rule in spec §4.3(b)
// forbids user code from using for its own declarations.
var reservedPrefixes = []string{"try_", "check_", "find_"}

// HasReservedPrefix reports whether name begins with a derivation prefix
// reserved for compiler-synthesized fallible-function variants.
func HasReservedPrefix(name string) bool {
	for _, p := range reservedPrefixes {
		if len(name) > len(p) && name[:len(p)] == p {
			return true
		}
	}
	return false
}

// IsDunder reports whether name has the reserved __name__ or __name__!
// shape (spec §4.3(c)).
func IsDunder(name string) bool {
	n := name
	if len(n) > 0 && n[len(n)-1] == '!' {
		n = n[:len(n)-1]
	}
	return len(n) >= 5 && n[:2] == "__" && n[len(n)-2:] == "__"
}
