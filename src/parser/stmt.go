package parser

import (
	"razorforge/src/ast"
	"razorforge/src/token"
)

// scopedKeywords maps each scoped-access-form keyword to the MemoryOpKind
// it introduces (spec §3 Scoped access forms): `viewing expr as name { }`,
// `hijacking ...`, `seizing ...`, `inspecting ...`. `using expr as name { }`
// is resource management rather than a borrow and carries no MemoryOpKind.
var scopedKeywords = map[token.Kind]ast.MemoryOpKind{
	token.KwViewing:    ast.OpView,
	token.KwHijacking:  ast.OpHijack,
	token.KwSeizing:    ast.OpSeize,
	token.KwInspecting: ast.OpInspect,
}

// parseBlock parses a `{ stmt... }` block.
func (p *parser) parseBlock() *ast.Block {
	loc := p.expect(token.LBrace, "{").Loc
	b := &ast.Block{Base: ast.NewBase(p.ids.Take(), loc)}
	for !p.check(token.RBrace) && !p.atEnd() {
		b.Statements = append(b.Statements, p.parseStatement())
	}
	p.expect(token.RBrace, "}")
	return b
}

// parseStatement dispatches on the leading token to the right statement
// form, synchronizing to the next statement boundary on a parse error
// (spec §4.2 Failure model).
func (p *parser) parseStatement() ast.Statement {
	startPos := p.pos
	stmt := p.parseStatementInner()
	if stmt == nil && p.pos == startPos {
		// Guard against an unconsumed cursor looping forever.
		p.advance()
	}
	return stmt
}

func (p *parser) parseStatementInner() ast.Statement {
	switch {
	case p.check(token.KwLet), p.check(token.KwVar):
		return p.wrapDeclStatement(p.parseVariableDecl(ast.VisModule))
	case p.check(token.KwRoutine):
		return p.wrapDeclStatement(p.parseFunction(ast.VisModule, declModifiers{}))
	case p.check(token.KwReturn):
		return p.parseReturn()
	case p.check(token.KwIf):
		return p.parseIfStatement()
	case p.check(token.KwUnless):
		return p.parseUnlessStatement()
	case p.check(token.KwWhile):
		return p.parseWhile()
	case p.check(token.KwLoop):
		return p.parseLoop()
	case p.check(token.KwFor):
		return p.parseFor()
	case p.check(token.KwWhen):
		return p.parseWhen()
	case p.check(token.KwBreak):
		return p.parseBreak()
	case p.check(token.KwContinue):
		loc := p.advance().Loc
		return &ast.ContinueStatement{Base: ast.NewBase(p.ids.Take(), loc)}
	case p.check(token.KwDanger):
		return p.parseDangerBlock()
	case p.check(token.KwThrow):
		loc := p.advance().Loc
		return &ast.ThrowStatement{Base: ast.NewBase(p.ids.Take(), loc), Value: p.parseExpr()}
	case p.check(token.KwAbsent):
		loc := p.advance().Loc
		return &ast.AbsentStatement{Base: ast.NewBase(p.ids.Take(), loc)}
	case p.check(token.KwUsing):
		return p.parseScopedAccess(token.KwUsing)
	case p.check(token.KwViewing), p.check(token.KwHijacking), p.check(token.KwSeizing), p.check(token.KwInspecting):
		return p.parseScopedAccess(p.cur().Kind)
	case p.check(token.LBrace):
		return p.parseBlock()
	default:
		return p.parseSimpleStatement()
	}
}

func (p *parser) wrapDeclStatement(d ast.Declaration) ast.Statement {
	return &ast.DeclStatement{Base: ast.NewBase(p.ids.Take(), d.Location()), Decl: d}
}

func (p *parser) parseReturn() ast.Statement {
	loc := p.advance().Loc // `return`
	var val ast.Expression
	if !p.check(token.RBrace) && !p.check(token.Semicolon) && !p.atEnd() {
		val = p.parseExpr()
	}
	return &ast.ReturnStatement{Base: ast.NewBase(p.ids.Take(), loc), Value: val}
}

func (p *parser) parseIfStatement() ast.Statement {
	loc := p.advance().Loc // `if`
	cond := p.parseExpr()
	then := p.parseBlock()
	var elseBlk *ast.Block
	if p.match(token.KwElse) {
		if p.check(token.KwIf) {
			inner := p.parseIfStatement()
			if ifs, ok := inner.(*ast.IfStatement); ok {
				elseBlk = &ast.Block{Base: ast.NewBase(p.ids.Take(), ifs.Location()), Statements: []ast.Statement{ifs}}
			}
		} else {
			elseBlk = p.parseBlock()
		}
	}
	return &ast.IfStatement{Base: ast.NewBase(p.ids.Take(), loc), Cond: cond, Then: then, Else: elseBlk}
}

// parseUnlessStatement desugars `unless cond { body }` to `if not cond {
// body }`, matching the teacher's preference for desugaring sugar forms
// early rather than carrying a parallel AST node through every later stage.
func (p *parser) parseUnlessStatement() ast.Statement {
	loc := p.advance().Loc // `unless`
	cond := p.parseExpr()
	negated := &ast.Unary{Base: ast.NewBase(p.ids.Take(), loc), Op: "not", Operand: cond}
	then := p.parseBlock()
	return &ast.IfStatement{Base: ast.NewBase(p.ids.Take(), loc), Cond: negated, Then: then}
}

func (p *parser) parseWhile() ast.Statement {
	loc := p.advance().Loc // `while`
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.WhileStatement{Base: ast.NewBase(p.ids.Take(), loc), Cond: cond, Body: body}
}

// parseLoop desugars `loop { body }` to `while true { body }`; `break`
// still carries its optional value through to whatever consumes the loop
// as an expression (spec §4.2 Control-flow forms).
func (p *parser) parseLoop() ast.Statement {
	loc := p.advance().Loc // `loop`
	body := p.parseBlock()
	trueLit := &ast.Literal{Base: ast.NewBase(p.ids.Take(), loc), LitKind: ast.LitBool, Value: true}
	return &ast.WhileStatement{Base: ast.NewBase(p.ids.Take(), loc), Cond: trueLit, Body: body}
}

func (p *parser) parseFor() ast.Statement {
	loc := p.advance().Loc // `for`
	name := p.expect(token.Identifier, "identifier").Lexeme
	p.expect(token.KwIn, "in")
	iterable := p.parseExpr()
	body := p.parseBlock()
	return &ast.ForStatement{Base: ast.NewBase(p.ids.Take(), loc), Var: name, Iterable: iterable, Body: body}
}

func (p *parser) parseBreak() ast.Statement {
	loc := p.advance().Loc // `break`
	var val ast.Expression
	if !p.check(token.RBrace) && !p.check(token.Semicolon) && !p.atEnd() {
		val = p.parseExpr()
	}
	return &ast.BreakStatement{Base: ast.NewBase(p.ids.Take(), loc), Value: val}
}

// parseWhen parses `when value { pattern => stmt_or_expr, ... }`. Each
// pattern is parsed with inPatternContext raised so a bare `is SomeType`
// form is recognized as PatternType rather than mis-parsed as a comparison
// (spec §4.2 Patterns).
func (p *parser) parseWhen() ast.Statement {
	loc := p.advance().Loc // `when`
	subject := p.parseExpr()
	p.expect(token.LBrace, "{")
	var cases []ast.WhenCase
	for !p.check(token.RBrace) && !p.atEnd() {
		pat := p.parsePattern()
		p.expect(token.FatArrow, "=>")
		var body ast.Statement
		if p.check(token.LBrace) {
			body = p.parseBlock()
		} else {
			body = p.parseSimpleStatement()
		}
		cases = append(cases, ast.WhenCase{Pattern: pat, Body: body})
		p.match(token.Comma)
	}
	p.expect(token.RBrace, "}")
	return &ast.WhenStatement{Base: ast.NewBase(p.ids.Take(), loc), Subject: subject, Cases: cases}
}

// parsePattern parses one when-clause pattern: a wildcard `_`, a literal,
// `is Type [name]`, a bare binding identifier, or a boolean-guard
// expression (spec §3 Patterns).
func (p *parser) parsePattern() ast.Pattern {
	loc := p.cur().Loc
	if p.check(token.Identifier) && p.cur().Lexeme == "_" {
		p.advance()
		return ast.Pattern{Kind: ast.PatternWildcard, Loc: loc}
	}
	if p.match(token.KwIs) {
		typ := p.parseTypeExpr()
		name := ""
		if p.check(token.Identifier) {
			name = p.advance().Lexeme
		}
		return ast.Pattern{Kind: ast.PatternType, Loc: loc, Type: typ, Name: name}
	}
	switch {
	case p.check(token.IntLiteral), p.check(token.FloatLiteral), p.check(token.StringLiteral),
		p.check(token.KwTrue), p.check(token.KwFalse), p.check(token.KwNone):
		p.inPatternContext++
		lit := p.parsePrimary()
		p.inPatternContext--
		if l, ok := lit.(*ast.Literal); ok {
			return ast.Pattern{Kind: ast.PatternLiteral, Loc: loc, Literal: l}
		}
	case p.check(token.Identifier):
		// A bare identifier followed directly by `=>` binds the subject;
		// otherwise it's a boolean guard expression.
		if p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.FatArrow {
			name := p.advance().Lexeme
			return ast.Pattern{Kind: ast.PatternIdentifier, Loc: loc, Name: name}
		}
	}
	p.inPatternContext++
	guard := p.parseExpr()
	p.inPatternContext--
	return ast.Pattern{Kind: ast.PatternExpression, Loc: loc, Guard: guard}
}

func (p *parser) parseDangerBlock() ast.Statement {
	loc := p.advance().Loc // `danger`
	body := p.parseBlock()
	return &ast.DangerBlock{Base: ast.NewBase(p.ids.Take(), loc), Body: body}
}

// parseScopedAccess parses `viewing|hijacking|seizing|inspecting|using expr
// as name { body }` (spec §3 Scoped access forms), desugaring it into a
// DeclStatement binding name to a MemoryOp over expr, followed by the body
// block, so the memory analyzer only has to understand MemoryOp creation
// and ordinary lexical scoping rather than a fifth distinct AST shape.
func (p *parser) parseScopedAccess(kw token.Kind) ast.Statement {
	loc := p.advance().Loc // the keyword itself
	target := p.parseExpr()
	p.expect(token.KwAs, "as")
	name := p.expect(token.Identifier, "identifier").Lexeme

	var bindExpr ast.Expression = target
	if opKind, ok := scopedKeywords[kw]; ok {
		bindExpr = &ast.MemoryOp{Base: ast.NewBase(p.ids.Take(), loc), Kind: opKind, Receiver: target}
	}
	binding := &ast.VariableDecl{Base: ast.NewBase(p.ids.Take(), loc), Mutable: false, Name: name, Init: bindExpr, Vis: ast.VisPrivate}
	body := p.parseBlock()
	body.Statements = append([]ast.Statement{p.wrapDeclStatement(binding)}, body.Statements...)
	return body
}

// parseSimpleStatement parses an expression statement or an assignment,
// the only two statement forms not introduced by a leading keyword.
func (p *parser) parseSimpleStatement() ast.Statement {
	loc := p.cur().Loc
	expr := p.parseExpr()
	if op, ok := p.matchAssignOp(); ok {
		val := p.parseExpr()
		return &ast.Assignment{Base: ast.NewBase(p.ids.Take(), loc), Op: op, Target: expr, Value: val}
	}
	return &ast.ExprStatement{Base: ast.NewBase(p.ids.Take(), loc), Expr: expr}
}

func (p *parser) matchAssignOp() (string, bool) {
	switch {
	case p.match(token.Assign):
		return "=", true
	case p.match(token.PlusAssign):
		return "+=", true
	case p.match(token.MinusAssign):
		return "-=", true
	case p.match(token.StarAssign):
		return "*=", true
	case p.match(token.SlashAssign):
		return "/=", true
	default:
		return "", false
	}
}
