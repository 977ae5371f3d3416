package parser

import (
	"razorforge/src/ast"
	"razorforge/src/token"
)

// parseTypeExpr parses a (possibly generic) type reference, e.g. `s32`,
// `List<s32>`, `Range<BackIndex<uaddr>>`, or the function-type form
// `Routine<(T, U), R>`. Each nesting level closes its own Greater
// independently by recursion, which is why the lexer never needs to
// distinguish a doubled `>>` from two lone closers here: parsing
// `List<List<s32>>` simply recurses into the inner `List<s32>`, that call
// consumes the first `>`, and this call consumes the second (spec §4.1
// lexer/parser contract). Greater-pair recombination into a shift operator
// only matters in expression context; see checkShift in parser.go.
func (p *parser) parseTypeExpr() *ast.TypeExpr {
	loc := p.cur().Loc
	name := p.expect(token.Identifier, "type name").Lexeme
	t := &ast.TypeExpr{Base: ast.NewBase(p.ids.Take(), loc), Name: name}
	if p.check(token.Less) {
		p.advance()
		for !p.check(token.Greater) && !p.atEnd() {
			if p.check(token.LParen) {
				t.Args = append(t.Args, p.parseTupleTypeExpr())
			} else {
				t.Args = append(t.Args, p.parseTypeExpr())
			}
			if !p.match(token.Comma) {
				break
			}
		}
		p.expect(token.Greater, ">")
	}
	return t
}

// parseTupleTypeExpr parses the "(T, U)" parameter-list form used inside a
// Routine<(T,U), R> function-type expression, represented as a synthetic
// TypeExpr named "Tuple" carrying each element as a generic argument.
func (p *parser) parseTupleTypeExpr() *ast.TypeExpr {
	loc := p.advance().Loc // `(`
	t := &ast.TypeExpr{Base: ast.NewBase(p.ids.Take(), loc), Name: "Tuple"}
	for !p.check(token.RParen) && !p.atEnd() {
		t.Args = append(t.Args, p.parseTypeExpr())
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, ")")
	return t
}
