package parser

import (
	"strings"

	"razorforge/src/ast"
	"razorforge/src/diag"
	"razorforge/src/token"
)

// parseTopLevelDecl parses one top-level construct: namespace, import,
// preset, external, or a modified declaration (record/entity/resident/
// choice/variant/mutant/protocol/implementation/routine/let/var).
func (p *parser) parseTopLevelDecl() ast.Declaration {
	startLoc := p.cur().Loc
	switch {
	case p.check(token.KwNamespace):
		return p.parseNamespace()
	case p.check(token.KwImport):
		return p.parseImport()
	case p.check(token.KwPreset):
		return p.parsePreset(ast.VisModule)
	case p.check(token.KwExternal):
		return p.parseExternal()
	case p.check(token.KwProtocol):
		return p.parseProtocol(ast.VisModule)
	}

	vis, mods := p.parseModifiers()
	decl := p.parseModifiedDecl(vis, mods)
	if decl == nil {
		p.errorf(diag.KindUnexpectedToken, "expected a declaration, found %q", p.cur().Lexeme)
		p.synchronize()
		return nil
	}
	_ = startLoc
	return decl
}

// declModifiers collects the modifier keywords legal before a declaration
// (spec §3 Declarations): visibility, open/sealed/override/common, plus the
// contextual `usurping` function attribute (spec §4.4 Return-value rules).
// "usurping" is not in the closed reserved-word table (spec §4.1), so it is
// recognized here as a contextual identifier in modifier position rather
// than a keyword, the same way Go treats "go:generate" as meaningful only
// in comment position without reserving the word itself.
type declModifiers struct {
	open, sealed, override, common, usurping bool
}

func (p *parser) parseModifiers() (ast.Visibility, declModifiers) {
	var pub, priv, fam bool
	var m declModifiers
	for {
		switch {
		case p.match(token.KwPublic):
			pub = true
		case p.match(token.KwPrivate):
			priv = true
		case p.match(token.KwFamily):
			fam = true
		case p.match(token.KwOpen):
			m.open = true
		case p.match(token.KwSealed):
			m.sealed = true
		case p.match(token.KwOverride):
			m.override = true
		case p.match(token.KwCommon):
			m.common = true
		case p.check(token.Identifier) && p.cur().Lexeme == "usurping" && p.peekIsRoutine():
			p.advance()
			m.usurping = true
		default:
			return visFromModifiers(pub, priv, fam, false), m
		}
	}
}

// peekIsRoutine reports whether the token after the current one is `routine`,
// used to admit the contextual `usurping` modifier only directly in front of
// a function declaration and nowhere else an identifier could legally start
// a statement.
func (p *parser) peekIsRoutine() bool {
	return p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.KwRoutine
}

func (p *parser) parseModifiedDecl(vis ast.Visibility, m declModifiers) ast.Declaration {
	switch {
	case p.check(token.KwRecord):
		return p.parseRecord(vis)
	case p.check(token.KwEntity):
		return p.parseEntity(vis, m)
	case p.check(token.KwResident):
		return p.parseResident(vis)
	case p.check(token.KwChoice):
		return p.parseChoice(vis)
	case p.check(token.KwVariant):
		return p.parseVariant(vis)
	case p.check(token.KwMutant):
		return p.parseMutant(vis)
	case p.check(token.KwProtocol):
		return p.parseProtocol(vis)
	case p.check(token.KwRoutine):
		return p.parseFunction(vis, m)
	case p.check(token.KwPreset):
		return p.parsePreset(vis)
	case p.check(token.KwLet), p.check(token.KwVar):
		return p.parseVariableDecl(vis)
	}
	return nil
}

func (p *parser) parseNamespace() ast.Declaration {
	loc := p.advance().Loc // `namespace`
	path := p.parseSlashPath()
	return &ast.NamespaceDecl{Base: ast.NewBase(p.ids.Take(), loc), Path: path}
}

func (p *parser) parseSlashPath() []string {
	var segs []string
	segs = append(segs, p.expect(token.Identifier, "identifier").Lexeme)
	for p.match(token.Slash) {
		segs = append(segs, p.expect(token.Identifier, "identifier").Lexeme)
	}
	return segs
}

func (p *parser) parseImport() ast.Declaration {
	loc := p.advance().Loc // `import`
	path := p.parseSlashPath()
	decl := &ast.ImportDecl{Base: ast.NewBase(p.ids.Take(), loc), Path: path}
	if p.match(token.KwAs) {
		decl.Alias = p.expect(token.Identifier, "identifier").Lexeme
	}
	if p.match(token.Slash) && p.match(token.LBrace) {
		for !p.check(token.RBrace) && !p.atEnd() {
			decl.Selective = append(decl.Selective, p.expect(token.Identifier, "identifier").Lexeme)
			if !p.match(token.Comma) {
				break
			}
		}
		p.expect(token.RBrace, "}")
	}
	return decl
}

func (p *parser) parsePreset(vis ast.Visibility) ast.Declaration {
	loc := p.advance().Loc // `preset`
	name := p.expect(token.Identifier, "identifier").Lexeme
	var typ *ast.TypeExpr
	if p.match(token.Colon) {
		typ = p.parseTypeExpr()
	}
	p.expect(token.Assign, "=")
	val := p.parseExpr()
	return &ast.PresetDecl{Base: ast.NewBase(p.ids.Take(), loc), Name: name, Type: typ, Value: val, Vis: vis}
}

func (p *parser) parseExternal() ast.Declaration {
	loc := p.advance().Loc // `external`
	conv := ast.ConvDefault
	if p.check(token.StringLiteral) {
		lit := p.advance()
		switch strings.Trim(lit.Lexeme, `"`) {
		case "stdcall":
			conv = ast.ConvStdcall
		case "c":
			conv = ast.ConvC
		}
	}
	p.expect(token.KwRoutine, "routine")
	name := p.expect(token.Identifier, "identifier").Lexeme
	params := p.parseParams()
	var ret *ast.TypeExpr
	if p.match(token.Arrow) {
		ret = p.parseTypeExpr()
	}
	return &ast.ExternalDecl{Base: ast.NewBase(p.ids.Take(), loc), Name: name, Params: params, ReturnType: ret, Convention: conv}
}

func (p *parser) parseGenericParams() []ast.GenericParam {
	if !p.match(token.Less) {
		return nil
	}
	p.inTypeContext++
	defer func() { p.inTypeContext-- }()
	var params []ast.GenericParam
	for !p.check(token.Greater) && !p.atEnd() {
		loc := p.cur().Loc
		name := p.expect(token.Identifier, "identifier").Lexeme
		gp := ast.GenericParam{Name: name, Loc: loc}
		if p.match(token.Colon) {
			gp.Constraints = append(gp.Constraints, p.expect(token.Identifier, "protocol name").Lexeme)
			for p.match(token.Plus) {
				gp.Constraints = append(gp.Constraints, p.expect(token.Identifier, "protocol name").Lexeme)
			}
		}
		params = append(params, gp)
		if !p.match(token.Comma) {
			break
		}
	}
	p.parseWhereClauseInto(&params)
	p.expect(token.Greater, ">")
	return params
}

// parseWhereClauseInto folds an optional trailing `where T follows
// Protocol, ...` clause into already-parsed generic params.
func (p *parser) parseWhereClauseInto(params *[]ast.GenericParam) {
	if !p.match(token.KwWhere) {
		return
	}
	for {
		name := p.expect(token.Identifier, "identifier").Lexeme
		p.expect(token.KwFollows, "follows")
		proto := p.expect(token.Identifier, "protocol name").Lexeme
		for i := range *params {
			if (*params)[i].Name == name {
				(*params)[i].Constraints = append((*params)[i].Constraints, proto)
			}
		}
		if !p.match(token.Comma) {
			break
		}
	}
}

func (p *parser) parseFields() []ast.Field {
	p.expect(token.LBrace, "{")
	var fields []ast.Field
	for !p.check(token.RBrace) && !p.atEnd() {
		if p.check(token.KwRoutine) {
			break // methods follow fields in the same block in some forms
		}
		loc := p.cur().Loc
		name := p.expect(token.Identifier, "identifier").Lexeme
		p.expect(token.Colon, ":")
		typ := p.parseTypeExpr()
		fields = append(fields, ast.Field{Name: name, Type: typ, Loc: loc})
		if !p.match(token.Comma) {
			continue
		}
	}
	return fields
}

func (p *parser) parseMethodsUntilRBrace() []*ast.FunctionDecl {
	var methods []*ast.FunctionDecl
	for !p.check(token.RBrace) && !p.atEnd() {
		vis, m := p.parseModifiers()
		if !p.check(token.KwRoutine) {
			p.errorf(diag.KindUnexpectedToken, "expected a method, found %q", p.cur().Lexeme)
			p.synchronize()
			continue
		}
		fn := p.parseFunction(vis, m)
		if fd, ok := fn.(*ast.FunctionDecl); ok {
			methods = append(methods, fd)
		}
	}
	p.expect(token.RBrace, "}")
	return methods
}

func (p *parser) parseRecord(vis ast.Visibility) ast.Declaration {
	loc := p.advance().Loc // `record`
	name := p.expect(token.Identifier, "identifier").Lexeme
	gparams := p.parseGenericParams()
	var follows []string
	if p.match(token.KwFollows) {
		follows = append(follows, p.expect(token.Identifier, "protocol name").Lexeme)
		for p.match(token.Comma) {
			follows = append(follows, p.expect(token.Identifier, "protocol name").Lexeme)
		}
	}
	p.expect(token.LBrace, "{")
	var fields []ast.Field
	for !p.check(token.RBrace) && !p.check(token.KwRoutine) && !p.atEnd() {
		floc := p.cur().Loc
		fname := p.expect(token.Identifier, "identifier").Lexeme
		p.expect(token.Colon, ":")
		ftyp := p.parseTypeExpr()
		fields = append(fields, ast.Field{Name: fname, Type: ftyp, Loc: floc})
		if !p.match(token.Comma) {
			break
		}
	}
	methods := p.parseMethodsUntilRBrace()
	return &ast.RecordDecl{
		Base: ast.NewBase(p.ids.Take(), loc), Name: name, GenericParams: gparams,
		Fields: fields, Methods: methods, Follows: follows, Vis: vis,
	}
}

func (p *parser) parseEntity(vis ast.Visibility, m declModifiers) ast.Declaration {
	loc := p.advance().Loc // `entity`
	name := p.expect(token.Identifier, "identifier").Lexeme
	gparams := p.parseGenericParams()
	var base *ast.TypeExpr
	if p.match(token.KwFrom) {
		base = p.parseTypeExpr()
	}
	var follows []string
	if p.match(token.KwFollows) {
		follows = append(follows, p.expect(token.Identifier, "protocol name").Lexeme)
		for p.match(token.Comma) {
			follows = append(follows, p.expect(token.Identifier, "protocol name").Lexeme)
		}
	}
	p.expect(token.LBrace, "{")
	var fields []ast.Field
	for !p.check(token.RBrace) && !p.check(token.KwRoutine) && !p.atEnd() {
		floc := p.cur().Loc
		fname := p.expect(token.Identifier, "identifier").Lexeme
		p.expect(token.Colon, ":")
		ftyp := p.parseTypeExpr()
		fields = append(fields, ast.Field{Name: fname, Type: ftyp, Loc: floc})
		if !p.match(token.Comma) {
			break
		}
	}
	methods := p.parseMethodsUntilRBrace()
	return &ast.EntityDecl{
		Base: ast.NewBase(p.ids.Take(), loc), Name: name, GenericParams: gparams, BaseType: base,
		Fields: fields, Methods: methods, Follows: follows, Vis: vis, Sealed: m.sealed, Open: m.open,
	}
}

func (p *parser) parseResident(vis ast.Visibility) ast.Declaration {
	loc := p.advance().Loc // `resident`
	name := p.expect(token.Identifier, "identifier").Lexeme
	p.expect(token.LBrace, "{")
	var fields []ast.Field
	for !p.check(token.RBrace) && !p.check(token.KwRoutine) && !p.atEnd() {
		floc := p.cur().Loc
		fname := p.expect(token.Identifier, "identifier").Lexeme
		p.expect(token.Colon, ":")
		ftyp := p.parseTypeExpr()
		fields = append(fields, ast.Field{Name: fname, Type: ftyp, Loc: floc})
		if !p.match(token.Comma) {
			break
		}
	}
	methods := p.parseMethodsUntilRBrace()
	return &ast.ResidentDecl{Base: ast.NewBase(p.ids.Take(), loc), Name: name, Fields: fields, Methods: methods, Vis: vis}
}

func (p *parser) parseChoice(vis ast.Visibility) ast.Declaration {
	loc := p.advance().Loc // `choice`
	name := p.expect(token.Identifier, "identifier").Lexeme
	p.expect(token.LBrace, "{")
	var cases []ast.ChoiceCase
	for !p.check(token.RBrace) && !p.check(token.KwRoutine) && !p.atEnd() {
		cloc := p.cur().Loc
		cname := p.expect(token.Identifier, "identifier").Lexeme
		cc := ast.ChoiceCase{Name: cname, Loc: cloc}
		if p.match(token.Assign) {
			lit := p.expect(token.IntLiteral, "integer literal")
			if v, ok := decodeIntLexeme(lit.Lexeme); ok {
				cc.Value = &v
			}
		}
		cases = append(cases, cc)
		if !p.match(token.Comma) {
			break
		}
	}
	methods := p.parseMethodsUntilRBrace()
	return &ast.ChoiceDecl{Base: ast.NewBase(p.ids.Take(), loc), Name: name, Cases: cases, Methods: methods, Vis: vis}
}

func (p *parser) parseVariant(vis ast.Visibility) ast.Declaration {
	loc := p.advance().Loc // `variant`
	name := p.expect(token.Identifier, "identifier").Lexeme
	gparams := p.parseGenericParams()
	p.expect(token.LBrace, "{")
	var cases []ast.VariantCase
	for !p.check(token.RBrace) && !p.check(token.KwRoutine) && !p.atEnd() {
		cloc := p.cur().Loc
		cname := p.expect(token.Identifier, "identifier").Lexeme
		vc := ast.VariantCase{Name: cname, Loc: cloc}
		if p.match(token.LParen) {
			vc.Payload = p.parseTypeExpr()
			p.expect(token.RParen, ")")
		}
		cases = append(cases, vc)
		if !p.match(token.Comma) {
			break
		}
	}
	methods := p.parseMethodsUntilRBrace()
	return &ast.VariantDecl{Base: ast.NewBase(p.ids.Take(), loc), Name: name, GenericParams: gparams, Cases: cases, Methods: methods, Vis: vis}
}

func (p *parser) parseMutant(vis ast.Visibility) ast.Declaration {
	loc := p.advance().Loc // `mutant`
	name := p.expect(token.Identifier, "identifier").Lexeme
	p.expect(token.LBrace, "{")
	var fields []ast.Field
	for !p.check(token.RBrace) && !p.atEnd() {
		floc := p.cur().Loc
		fname := p.expect(token.Identifier, "identifier").Lexeme
		p.expect(token.Colon, ":")
		ftyp := p.parseTypeExpr()
		fields = append(fields, ast.Field{Name: fname, Type: ftyp, Loc: floc})
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace, "}")
	return &ast.MutantDecl{Base: ast.NewBase(p.ids.Take(), loc), Name: name, Fields: fields, Vis: vis}
}

func (p *parser) parseProtocol(vis ast.Visibility) ast.Declaration {
	loc := p.advance().Loc // `protocol`
	name := p.expect(token.Identifier, "identifier").Lexeme
	p.expect(token.LBrace, "{")
	var methods []ast.ProtocolMethod
	for !p.check(token.RBrace) && !p.atEnd() {
		p.expect(token.KwRoutine, "routine")
		mloc := p.cur().Loc
		mname := p.expect(token.Identifier, "identifier").Lexeme
		params := p.parseParams()
		var ret *ast.TypeExpr
		if p.match(token.Arrow) {
			ret = p.parseTypeExpr()
		}
		methods = append(methods, ast.ProtocolMethod{Name: mname, Params: params, ReturnType: ret, Loc: mloc})
	}
	p.expect(token.RBrace, "}")
	return &ast.ProtocolDecl{Base: ast.NewBase(p.ids.Take(), loc), Name: name, Methods: methods, Vis: vis}
}

func (p *parser) parseParams() []ast.Param {
	p.expect(token.LParen, "(")
	var params []ast.Param
	for !p.check(token.RParen) && !p.atEnd() {
		loc := p.cur().Loc
		name := p.expect(token.Identifier, "identifier").Lexeme
		var typ *ast.TypeExpr
		if p.match(token.Colon) {
			typ = p.parseTypeExpr()
		}
		params = append(params, ast.Param{Name: name, Type: typ, Loc: loc})
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, ")")
	return params
}

func (p *parser) parseFunction(vis ast.Visibility, m declModifiers) ast.Declaration {
	loc := p.advance().Loc // `routine`

	// Method-on-type syntax: routine TypeName.method(...) or
	// routine TypeName<T>.method<U>(...).
	var receiver *ast.TypeExpr
	var recvGenerics []ast.GenericParam
	name := p.expect(token.Identifier, "identifier").Lexeme
	recvGenerics = p.parseGenericParams()
	if p.match(token.Dot) {
		receiver = &ast.TypeExpr{Base: ast.NewBase(p.ids.Take(), loc), Name: name}
		name = p.expect(token.Identifier, "identifier").Lexeme
	}
	crashable := p.match(token.Bang)
	gparams := p.parseGenericParams()
	if len(gparams) == 0 {
		gparams = nil
	}
	var params []ast.Param
	if p.check(token.LParen) {
		params = p.parseParams()
	}
	var ret *ast.TypeExpr
	if p.match(token.Arrow) {
		ret = p.parseTypeExpr()
	}
	var body *ast.Block
	if p.check(token.LBrace) {
		body = p.parseBlock()
	}
	return &ast.FunctionDecl{
		Base: ast.NewBase(p.ids.Take(), loc), Name: name, Receiver: receiver,
		GenericParams: gparams, ReceiverGeneric: recvGenerics, Params: params, ReturnType: ret,
		Body: body, Vis: vis, Open: m.open, Sealed: m.sealed, Override: m.override, Common: m.common,
		IsUsurping: m.usurping, Crashable: crashable,
	}
}

func (p *parser) parseVariableDecl(vis ast.Visibility) ast.Declaration {
	mutable := p.cur().Kind == token.KwVar
	loc := p.advance().Loc // `let`/`var`
	name := p.expect(token.Identifier, "identifier").Lexeme
	var typ *ast.TypeExpr
	if p.match(token.Colon) {
		typ = p.parseTypeExpr()
	}
	var init ast.Expression
	if p.match(token.Assign) {
		init = p.parseExpr()
	}
	return &ast.VariableDecl{Base: ast.NewBase(p.ids.Take(), loc), Mutable: mutable, Name: name, Type: typ, Init: init, Vis: vis}
}
