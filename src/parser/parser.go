// Package parser turns the flat token sequence produced by src/lexer into
// an *ast.Program. Unlike the teacher, which feeds goyacc an LALR grammar
// generated from a .y file (not present in this tree), this is a
// hand-written recursive-descent parser with Pratt-style operator
// precedence climbing for expressions, needed for three things an LALR
// table can't express directly: disambiguating nested generic closers from
// shift operators, suppressing the `is` operator inside when-patterns, and
// synchronizing to the next statement boundary after an error instead of
// aborting the whole parse (spec §4.2).
package parser

import (
	"razorforge/src/ast"
	"razorforge/src/diag"
	"razorforge/src/source"
	"razorforge/src/token"
)

// parser holds the token cursor and diagnostic sink for one file.
type parser struct {
	file   *source.File
	toks   []token.Token
	pos    int
	ids    *ast.IDGen
	diags  []diag.Diagnostic

	// inTypeContext suppresses recombining adjacent Greater tokens into a
	// shift operator, so generic argument lists like List<List<s32>> close
	// both brackets on a single ">>" lexeme pair.
	inTypeContext int

	// inPatternContext suppresses the `is` binary operator so `is SomeType`
	// parses as a type pattern rather than a comparison expression.
	inPatternContext int
}

// Parse builds an *ast.Program from toks, the complete token sequence for
// f (including its trailing Eof), returning any diagnostics gathered along
// the way. A best-effort Program is always returned, even in the presence
// of errors, so that later stages can still report on everything that did
// parse.
func Parse(f *source.File, toks []token.Token) (*ast.Program, []diag.Diagnostic) {
	p := &parser{file: f, toks: toks, ids: ast.NewIDGen()}
	prog := &ast.Program{Base: ast.NewBase(p.ids.Take(), p.locAt(0))}
	for !p.atEnd() {
		if p.check(token.Eof) {
			break
		}
		decl := p.parseTopLevelDecl()
		if decl != nil {
			prog.Declarations = append(prog.Declarations, decl)
		}
	}
	return prog, p.diags
}

// --- cursor helpers -------------------------------------------------------

func (p *parser) cur() token.Token  { return p.toks[p.pos] }
func (p *parser) atEnd() bool       { return p.pos >= len(p.toks) || p.toks[p.pos].Kind == token.Eof }
func (p *parser) locAt(i int) source.Location {
	if i < len(p.toks) {
		return p.toks[i].Loc
	}
	if len(p.toks) > 0 {
		return p.toks[len(p.toks)-1].Loc
	}
	return source.Location{File: p.file.ID, Line: 1, Column: 1}
}

func (p *parser) check(k token.Kind) bool {
	return !p.atEnd() && p.cur().Kind == k
}

// checkShift reports whether the cursor is sitting on two adjacent Greater
// tokens that, outside a generic-argument context, recombine into a shift
// operator (spec §4.1 lexer/parser contract: the lexer always emits lone
// Greater tokens, never Shr, so that nested generics close correctly; this
// parser is the one place that glues two of them back into `>>` when not
// parsing a type).
func (p *parser) checkShift() bool {
	if p.inTypeContext > 0 {
		return false
	}
	if !p.check(token.Greater) || p.pos+1 >= len(p.toks) {
		return false
	}
	next := p.toks[p.pos+1]
	return next.Kind == token.Greater && next.Loc.Offset == p.cur().Loc.Offset+len(p.cur().Lexeme)
}

func (p *parser) advance() token.Token {
	t := p.cur()
	if !p.atEnd() {
		p.pos++
	}
	return t
}

func (p *parser) match(ks ...token.Kind) bool {
	for _, k := range ks {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes a token of kind k, reporting KindUnexpectedToken and
// synthesizing a zero-value token on mismatch so callers can keep building
// a partial node instead of panicking.
func (p *parser) expect(k token.Kind, what string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	p.errorf(diag.KindUnexpectedToken, "expected %s, found %q", what, p.cur().Lexeme)
	return p.cur()
}

func (p *parser) errorf(kind diag.Kind, format string, args ...interface{}) {
	p.diags = append(p.diags, diag.Errorf(kind, p.cur().Loc, format, args...))
}

// synchronize discards tokens up to the next statement/declaration boundary
// after a parse error, so one malformed construct doesn't cascade into
// spurious errors for the rest of the file (spec §4.2 recovery).
func (p *parser) synchronize() {
	for !p.atEnd() {
		switch p.cur().Kind {
		case token.Semicolon:
			p.advance()
			return
		case token.RBrace, token.KwRoutine, token.KwRecord, token.KwEntity, token.KwResident,
			token.KwChoice, token.KwVariant, token.KwMutant, token.KwProtocol, token.KwImport,
			token.KwLet, token.KwVar, token.KwIf, token.KwFor, token.KwWhile, token.KwReturn,
			token.KwNamespace, token.KwExternal, token.KwPreset:
			return
		}
		p.advance()
	}
}

func visFromModifiers(pub, priv, fam, ext bool) ast.Visibility {
	switch {
	case ext:
		return ast.VisExternal
	case pub:
		return ast.VisPublic
	case fam:
		return ast.VisFamily
	case priv:
		return ast.VisPrivate
	default:
		return ast.VisModule
	}
}
