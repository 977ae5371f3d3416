package parser

import (
	"razorforge/src/ast"
	"razorforge/src/diag"
	"razorforge/src/source"
	"razorforge/src/token"
)

// Precedence levels, lowest to highest, for the Pratt expression parser.
const (
	precNone int = iota
	precOr
	precAnd
	precComparison // chained <, <=, >, >=, ==, !=, is, isnot, in, notin
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdd
	precMul
	precUnary
	precCall // call/member/index postfix
)

var binaryPrec = map[token.Kind]int{
	token.KwOr:       precOr,
	token.KwAnd:      precAnd,
	token.Less:       precComparison,
	token.LessEq:     precComparison,
	token.Greater:    precComparison,
	token.GreaterEq:  precComparison,
	token.Eq:         precComparison,
	token.NotEq:      precComparison,
	token.KwIs:       precComparison,
	token.KwIsnot:    precComparison,
	token.KwIn:       precComparison,
	token.KwNotin:    precComparison,
	token.Pipe:       precBitOr,
	token.Tilde:      precBitXor,
	token.Amp:        precBitAnd,
	token.Shl:        precShift,
	token.Shr:        precShift,
	token.Plus:       precAdd,
	token.Minus:      precAdd,
	token.Star:       precMul,
	token.Slash:      precMul,
	token.SlashSlash:  precMul,
	token.Percent:    precMul,
}

// chainableComparisons is the set of operators that may appear in an `a <
// b < c` chained-comparison expression (spec §3 ChainedComparison).
var chainableComparisons = map[token.Kind]bool{
	token.Less: true, token.LessEq: true, token.Greater: true, token.GreaterEq: true,
	token.Eq: true, token.NotEq: true,
}

// parseExpr is the expression-parsing entry point.
func (p *parser) parseExpr() ast.Expression {
	return p.parsePrecedence(precOr)
}

func (p *parser) parsePrecedence(minPrec int) ast.Expression {
	left := p.parseUnary()
	for {
		op, prec, ok := p.peekBinaryOp()
		if !ok || prec < minPrec {
			break
		}
		loc := p.cur().Loc
		left = p.parseBinaryRHS(left, op, prec, loc)
	}
	return left
}

// peekBinaryOp inspects the cursor for a binary operator, accounting for
// the shift-recombination rule: two adjacent Greater tokens outside type
// context form Shr (spec §4.1/§4.2 contract), and for pattern context,
// which suppresses `is` entirely so `is SomeType` parses as a type pattern
// rather than a comparison (spec §4.2 Patterns).
func (p *parser) peekBinaryOp() (token.Kind, int, bool) {
	if p.atEnd() {
		return token.Illegal, 0, false
	}
	if p.checkShift() {
		return token.Shr, precShift, true
	}
	if p.inPatternContext > 0 && p.check(token.KwIs) {
		return token.Illegal, 0, false
	}
	k := p.cur().Kind
	prec, ok := binaryPrec[k]
	return k, prec, ok
}

// overflowSuffixes maps the tokens that may immediately follow +, -, *, /
// with no separating trivia to the OverflowMode they select (spec §3
// OverflowMode): `+%` wraps, `+^` saturates, `+!` is unchecked, `+?` is
// checked. Bare `+`/`-`/`*`/`/` default to OverflowNone (trapping).
var overflowSuffixes = map[token.Kind]ast.OverflowMode{
	token.Percent: ast.OverflowWrap,
	token.Caret:   ast.OverflowSaturate,
	token.Bang:    ast.OverflowUnchecked,
	token.Question: ast.OverflowChecked,
}

func isArithmeticOp(k token.Kind) bool {
	return k == token.Plus || k == token.Minus || k == token.Star || k == token.Slash
}

func (p *parser) parseBinaryRHS(left ast.Expression, op token.Kind, prec int, loc source.Location) ast.Expression {
	opTok := p.cur()
	if op == token.Shr {
		p.advance() // first Greater
		p.advance() // second Greater
	} else {
		p.advance()
	}

	if chainableComparisons[op] {
		return p.finishChainedComparison(left, op, prec, loc)
	}

	overflow := ast.OverflowNone
	if isArithmeticOp(op) && !p.atEnd() {
		if mode, ok := overflowSuffixes[p.cur().Kind]; ok && p.cur().Loc.Offset == opTok.Loc.Offset+len(opTok.Lexeme) {
			overflow = mode
			p.advance()
		}
	}

	right := p.parsePrecedence(prec + 1)
	_, opStr := overflowAndSymbol(op)
	return &ast.Binary{Base: ast.NewBase(p.ids.Take(), loc), Op: opStr, Overflow: overflow, Left: left, Right: right}
}

// finishChainedComparison accumulates operands/operators for as long as
// further chainable comparisons follow at the same precedence, producing a
// plain Binary for the common two-operand case and a ChainedComparison
// otherwise.
func (p *parser) finishChainedComparison(first ast.Expression, firstOp token.Kind, prec int, loc source.Location) ast.Expression {
	_, firstSym := overflowAndSymbol(firstOp)
	operands := []ast.Expression{first, p.parsePrecedence(prec + 1)}
	ops := []string{firstSym}
	for {
		nop, nprec, ok := p.peekBinaryOp()
		if !ok || nprec != prec || !chainableComparisons[nop] {
			break
		}
		p.advance()
		_, sym := overflowAndSymbol(nop)
		ops = append(ops, sym)
		operands = append(operands, p.parsePrecedence(prec+1))
	}
	if len(operands) == 2 {
		return &ast.Binary{Base: ast.NewBase(p.ids.Take(), loc), Op: ops[0], Left: operands[0], Right: operands[1]}
	}
	return &ast.ChainedComparison{Base: ast.NewBase(p.ids.Take(), loc), Operands: operands, Ops: ops}
}

// overflowAndSymbol maps a token kind to its ast.Binary operator symbol and,
// where applicable, the overflow mode its own suffix spelling implies
// (spec §3 OverflowMode: wrap %, saturate ^, unchecked !, checked ?). Bare
// arithmetic tokens parse as OverflowNone; the checked/unchecked/wrap/
// saturate suffix forms are folded in by parseBinaryRHS after
// the operator, since they are written as a trailing mark on the operator
// itself (e.g. `a +% b`) rather than as distinct tokens here.
func overflowAndSymbol(k token.Kind) (ast.OverflowMode, string) {
	switch k {
	case token.Plus:
		return ast.OverflowNone, "+"
	case token.Minus:
		return ast.OverflowNone, "-"
	case token.Star:
		return ast.OverflowNone, "*"
	case token.Slash:
		return ast.OverflowNone, "/"
	case token.SlashSlash:
		return ast.OverflowNone, "//"
	case token.Percent:
		return ast.OverflowWrap, "%"
	case token.Caret:
		return ast.OverflowSaturate, "^"
	case token.Shl:
		return ast.OverflowNone, "<<"
	case token.Shr:
		return ast.OverflowNone, ">>"
	case token.Amp:
		return ast.OverflowNone, "&"
	case token.Pipe:
		return ast.OverflowNone, "|"
	case token.Tilde:
		return ast.OverflowNone, "~"
	case token.Less:
		return ast.OverflowNone, "<"
	case token.LessEq:
		return ast.OverflowNone, "<="
	case token.Greater:
		return ast.OverflowNone, ">"
	case token.GreaterEq:
		return ast.OverflowNone, ">="
	case token.Eq:
		return ast.OverflowNone, "=="
	case token.NotEq:
		return ast.OverflowNone, "!="
	case token.KwAnd:
		return ast.OverflowNone, "and"
	case token.KwOr:
		return ast.OverflowNone, "or"
	case token.KwIs:
		return ast.OverflowNone, "is"
	case token.KwIsnot:
		return ast.OverflowNone, "isnot"
	case token.KwIn:
		return ast.OverflowNone, "in"
	case token.KwNotin:
		return ast.OverflowNone, "notin"
	default:
		return ast.OverflowNone, ""
	}
}

// parseUnary handles prefix -, ~, not, then falls through to postfix.
func (p *parser) parseUnary() ast.Expression {
	if p.check(token.Minus) || p.check(token.Tilde) || p.check(token.KwNot) {
		loc := p.cur().Loc
		op := p.advance().Lexeme
		operand := p.parseUnary()
		return &ast.Unary{Base: ast.NewBase(p.ids.Take(), loc), Op: op, Operand: operand}
	}
	return p.parsePostfix(p.parsePrimary())
}

// parsePostfix handles call, member/method, index, range, generic-method-
// call, memory-op and type-conversion suffixes, left to right.
func (p *parser) parsePostfix(e ast.Expression) ast.Expression {
	for {
		switch {
		case p.check(token.LParen):
			e = p.finishCall(e, false)
		case p.check(token.Dot):
			e = p.parseMemberOrMethod(e)
		case p.check(token.LBracket):
			e = p.finishIndex(e)
		case p.check(token.KwTo), p.check(token.KwDownto):
			e = p.finishRange(e)
		case p.check(token.Bang) && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.LParen:
			e = p.finishCall(e, true)
		case p.check(token.Less) && isIdentifier(e) && p.looksLikeGenericArgs():
			e = p.finishGenericCall(e)
		default:
			return e
		}
	}
}

// isIdentifier reports whether e is a bare identifier, the only callee shape
// the explicit free-generic-call syntax `name<T>(args)` applies to (spec §8
// scenario: `identity<s64>(42)`).
func isIdentifier(e ast.Expression) bool {
	_, ok := e.(*ast.Identifier)
	return ok
}

func (p *parser) finishGenericCall(callee ast.Expression) ast.Expression {
	loc := callee.Location()
	typeArgs := p.parseExplicitTypeArgs()
	p.expect(token.LParen, "(")
	var args []ast.Expression
	for !p.check(token.RParen) && !p.atEnd() {
		args = append(args, p.parseExpr())
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, ")")
	return &ast.GenericCall{Base: ast.NewBase(p.ids.Take(), loc), Callee: callee, TypeArgs: typeArgs, Args: args}
}

func (p *parser) finishCall(callee ast.Expression, crashable bool) ast.Expression {
	loc := callee.Location()
	if crashable {
		p.advance() // `!`
	}
	p.expect(token.LParen, "(")
	var args []ast.Expression
	for !p.check(token.RParen) && !p.atEnd() {
		args = append(args, p.parseExpr())
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, ")")
	return &ast.Call{Base: ast.NewBase(p.ids.Take(), loc), Callee: callee, Args: args, Crashable: crashable}
}

func (p *parser) finishIndex(receiver ast.Expression) ast.Expression {
	loc := receiver.Location()
	p.advance() // `[`
	idx := p.parseExpr()
	p.expect(token.RBracket, "]")
	return &ast.Index{Base: ast.NewBase(p.ids.Take(), loc), Receiver: receiver, Index: idx}
}

func (p *parser) finishRange(from ast.Expression) ast.Expression {
	loc := from.Location()
	downto := p.cur().Kind == token.KwDownto
	p.advance()
	to := p.parsePrecedence(precAdd)
	r := &ast.Range{Base: ast.NewBase(p.ids.Take(), loc), From: from, To: to, Downto: downto}
	if p.match(token.KwStep) {
		r.Step = p.parsePrecedence(precAdd)
	}
	return r
}

// memoryOpNames maps the fixed set of suffix-`!` memory operation method
// names to their MemoryOpKind (spec §3 Memory operations).
var memoryOpNames = map[string]ast.MemoryOpKind{
	"size":       ast.OpSize,
	"address":    ast.OpAddress,
	"hijack":     ast.OpHijack,
	"unsafe_ptr": ast.OpUnsafePtr,
	"view":       ast.OpView,
	"inspect":    ast.OpInspect,
	"seize":      ast.OpSeize,
}

func (p *parser) parseMemberOrMethod(receiver ast.Expression) ast.Expression {
	loc := receiver.Location()
	p.advance() // `.`
	name := p.expect(token.Identifier, "identifier").Lexeme

	if kind, ok := memoryOpNames[name]; ok && p.check(token.Bang) {
		p.advance() // `!`
		p.expect(token.LParen, "(")
		p.expect(token.RParen, ")")
		return &ast.MemoryOp{Base: ast.NewBase(p.ids.Take(), loc), Kind: kind, Receiver: receiver}
	}

	// Method-style type conversion: x.T!()
	if p.check(token.Bang) && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.LParen {
		p.advance() // `!`
		p.expect(token.LParen, "(")
		p.expect(token.RParen, ")")
		target := &ast.TypeExpr{Base: ast.NewBase(p.ids.Take(), loc), Name: name}
		return &ast.TypeConversion{Base: ast.NewBase(p.ids.Take(), loc), Form: ast.ConversionMethodStyle, Target: target, Source: receiver}
	}

	// Generic method call: x.method<T>(args)
	if p.check(token.Less) && p.looksLikeGenericArgs() {
		typeArgs := p.parseExplicitTypeArgs()
		p.expect(token.LParen, "(")
		var args []ast.Expression
		for !p.check(token.RParen) && !p.atEnd() {
			args = append(args, p.parseExpr())
			if !p.match(token.Comma) {
				break
			}
		}
		p.expect(token.RParen, ")")
		return &ast.GenericMethodCall{Base: ast.NewBase(p.ids.Take(), loc), Receiver: receiver, Method: name, TypeArgs: typeArgs, Args: args}
	}

	return &ast.Member{Base: ast.NewBase(p.ids.Take(), loc), Receiver: receiver, Name: name}
}

// looksLikeGenericArgs performs the restorable-position try-parse the spec
// calls for to disambiguate `<` as generic-argument-open from `<` as
// less-than, by speculatively parsing a type-argument list and rewinding
// the cursor on failure (spec §4.2 "Disambiguating <").
func (p *parser) looksLikeGenericArgs() bool {
	save := p.pos
	saveDiags := len(p.diags)
	p.parseExplicitTypeArgs()
	ok := p.check(token.LParen)
	p.pos = save
	p.diags = p.diags[:saveDiags]
	return ok
}

func (p *parser) parseExplicitTypeArgs() []*ast.TypeExpr {
	p.expect(token.Less, "<")
	var args []*ast.TypeExpr
	for !p.check(token.Greater) && !p.atEnd() {
		args = append(args, p.parseTypeExpr())
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.Greater, ">")
	return args
}

// parsePrimary parses literals, identifiers/type-conversions, parenthesized
// expressions, lambdas, block-expression if/else, slice constructors,
// intrinsic calls, and @-prefixed forms.
func (p *parser) parsePrimary() ast.Expression {
	loc := p.cur().Loc
	switch {
	case p.check(token.IntLiteral):
		t := p.advance()
		v, _ := decodeIntLexeme(t.Lexeme)
		return &ast.Literal{Base: ast.NewBase(p.ids.Take(), loc), LitKind: ast.LitInt, Value: v, Suffix: t.Suffix}
	case p.check(token.FloatLiteral):
		t := p.advance()
		v, _ := decodeFloatLexeme(t.Lexeme)
		return &ast.Literal{Base: ast.NewBase(p.ids.Take(), loc), LitKind: ast.LitFloat, Value: v, Suffix: t.Suffix}
	case p.check(token.DurationLiteral):
		t := p.advance()
		v, _ := decodeIntLexeme(t.Lexeme)
		return &ast.Literal{Base: ast.NewBase(p.ids.Take(), loc), LitKind: ast.LitDuration, Value: v, Unit: t.Unit}
	case p.check(token.MemorySizeLiteral):
		t := p.advance()
		v, _ := decodeIntLexeme(t.Lexeme)
		return &ast.Literal{Base: ast.NewBase(p.ids.Take(), loc), LitKind: ast.LitMemorySize, Value: v, Unit: t.Unit}
	case p.check(token.StringLiteral):
		t := p.advance()
		return &ast.Literal{Base: ast.NewBase(p.ids.Take(), loc), LitKind: ast.LitString, Value: t.Lexeme}
	case p.check(token.KwTrue), p.check(token.KwFalse):
		t := p.advance()
		return &ast.Literal{Base: ast.NewBase(p.ids.Take(), loc), LitKind: ast.LitBool, Value: t.Kind == token.KwTrue}
	case p.check(token.KwNone):
		p.advance()
		return &ast.Literal{Base: ast.NewBase(p.ids.Take(), loc), LitKind: ast.LitNone}
	case p.check(token.LParen):
		p.advance()
		e := p.parseExpr()
		p.expect(token.RParen, ")")
		return e
	case p.check(token.LBracket):
		return p.parseSliceConstructor(loc)
	case p.check(token.KwIf):
		return p.parseConditionalExpr()
	case p.check(token.At):
		return p.parseIntrinsicCall(loc)
	case p.check(token.KwMe):
		p.advance()
		return &ast.Identifier{Base: ast.NewBase(p.ids.Take(), loc), Name: "me"}
	case p.check(token.KwMyType):
		p.advance()
		return &ast.Identifier{Base: ast.NewBase(p.ids.Take(), loc), Name: "MyType"}
	case p.check(token.LBrace):
		return p.parseLambdaOrBlockExpr(loc)
	case p.check(token.Identifier):
		return p.parseIdentifierOrConversion(loc)
	default:
		p.errorf(diag.KindUnexpectedToken, "unexpected token %q in expression", p.cur().Lexeme)
		p.advance()
		return &ast.Literal{Base: ast.NewBase(p.ids.Take(), loc), LitKind: ast.LitNone}
	}
}

func (p *parser) parseIdentifierOrConversion(loc source.Location) ast.Expression {
	name := p.advance().Lexeme
	// Function-style type conversion: T!(x)
	if p.check(token.Bang) && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.LParen && startsUpper(name) {
		p.advance() // `!`
		p.advance() // `(`
		src := p.parseExpr()
		p.expect(token.RParen, ")")
		target := &ast.TypeExpr{Base: ast.NewBase(p.ids.Take(), loc), Name: name}
		return &ast.TypeConversion{Base: ast.NewBase(p.ids.Take(), loc), Form: ast.ConversionFunctionStyle, Target: target, Source: src}
	}
	return &ast.Identifier{Base: ast.NewBase(p.ids.Take(), loc), Name: name}
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

func (p *parser) parseSliceConstructor(loc source.Location) ast.Expression {
	p.advance() // `[`
	kind := ast.DynamicSlice
	var elems []ast.Expression
	for !p.check(token.RBracket) && !p.atEnd() {
		elems = append(elems, p.parseExpr())
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RBracket, "]")
	return &ast.SliceConstructor{Base: ast.NewBase(p.ids.Take(), loc), Kind: kind, Elements: elems}
}

// parseConditionalExpr parses the block-expression form of if/else, whose
// branches are full Blocks (spec §3 ConditionalExpr) rather than single
// expressions, matching `let x = if cond { a } else { b }`.
func (p *parser) parseConditionalExpr() ast.Expression {
	loc := p.advance().Loc // `if`
	cond := p.parseExpr()
	then := p.parseBlock()
	var elseBlk *ast.Block
	if p.match(token.KwElse) {
		if p.check(token.KwIf) {
			innerLoc := p.cur().Loc
			inner := p.parseConditionalExpr()
			elseBlk = &ast.Block{Base: ast.NewBase(p.ids.Take(), innerLoc), Statements: []ast.Statement{
				&ast.ExprStatement{Base: ast.NewBase(p.ids.Take(), innerLoc), Expr: inner},
			}}
		} else {
			elseBlk = p.parseBlock()
		}
	}
	return &ast.ConditionalExpr{Base: ast.NewBase(p.ids.Take(), loc), Cond: cond, Then: then, Else: elseBlk}
}

// parseLambdaOrBlockExpr handles `{ |params| body }`-style lambdas. A bare
// `{` with no leading `|` is treated as a zero-parameter lambda body.
func (p *parser) parseLambdaOrBlockExpr(loc source.Location) ast.Expression {
	p.advance() // `{`
	var params []ast.Param
	if p.match(token.Pipe) {
		for !p.check(token.Pipe) && !p.atEnd() {
			ploc := p.cur().Loc
			name := p.expect(token.Identifier, "identifier").Lexeme
			var typ *ast.TypeExpr
			if p.match(token.Colon) {
				typ = p.parseTypeExpr()
			}
			params = append(params, ast.Param{Name: name, Type: typ, Loc: ploc})
			if !p.match(token.Comma) {
				break
			}
		}
		p.expect(token.Pipe, "|")
	}
	body := &ast.Block{Base: ast.NewBase(p.ids.Take(), loc)}
	for !p.check(token.RBrace) && !p.atEnd() {
		body.Statements = append(body.Statements, p.parseStatement())
	}
	p.expect(token.RBrace, "}")
	return &ast.Lambda{Base: ast.NewBase(p.ids.Take(), loc), Params: params, Body: body}
}

// parseIntrinsicCall parses `@intrinsic.<dotted.path><T[,U]>(args)`. The
// lexer treats '@' as a single At token and leaves the rest ("intrinsic",
// the dotted path, any generic args and the call) to be scanned as
// ordinary identifier/punctuation tokens (spec §4.1), so the parser does
// all the recognition here. The node is accepted in any expression
// position; the semantic analyzer is the one that rejects placement
// outside a danger! block (spec §4.2 Intrinsics).
func (p *parser) parseIntrinsicCall(loc source.Location) ast.Expression {
	p.advance() // `@`
	p.expect(token.Identifier, "intrinsic")
	p.expect(token.Dot, ".")
	path := p.expect(token.Identifier, "identifier").Lexeme
	for p.match(token.Dot) {
		path += "." + p.expect(token.Identifier, "identifier").Lexeme
	}
	var typeArgs []*ast.TypeExpr
	if p.check(token.Less) {
		typeArgs = p.parseExplicitTypeArgs()
	}
	p.expect(token.LParen, "(")
	var args []ast.Expression
	for !p.check(token.RParen) && !p.atEnd() {
		args = append(args, p.parseExpr())
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, ")")
	return &ast.IntrinsicCall{Base: ast.NewBase(p.ids.Take(), loc), Path: path, TypeArgs: typeArgs, Args: args}
}
