package sema

import (
	"razorforge/src/ast"
	"razorforge/src/diag"
	"razorforge/src/memory"
	"razorforge/src/source"
	"razorforge/src/symbols"
	"razorforge/src/types"
)

// memoryKindOf maps the scoped-access MemoryOpKind the parser's
// parseScopedAccess desugars into onto the memory package's TokenKind.
var memoryKindOf = map[ast.MemoryOpKind]memory.TokenKind{
	ast.OpView:    memory.TokenView,
	ast.OpHijack:  memory.TokenHijack,
	ast.OpInspect: memory.TokenInspect,
	ast.OpSeize:   memory.TokenSeize,
}

// checkFunctionBody type-checks and memory-analyzes one function's body. A
// fresh memory.Analyzer is used per function (spec §4.4: ownership never
// crosses function boundaries except through parameters/return values).
func (a *Analyzer) checkFunctionBody(f *ast.FunctionDecl) {
	if f.Body == nil {
		return
	}
	prevFn, prevMem, prevDanger := a.fn, a.mem, a.danger
	a.fn = f
	a.mem = memory.NewAnalyzer(f.IsUsurping, a.diags)
	a.danger = 0

	a.Types.Push(true)
	// A generic template's own body is never emitted directly (spec §4.5,
	// §8 scenarios #1/#2: only its concrete instantiations are); its formal
	// generic parameters are registered as opaque placeholders so the body
	// self-checks without chasing an unbound "T" through the real type
	// registry, and real parameter types are left to each instantiation.
	isTemplate := len(f.GenericParams) > 0 || len(f.ReceiverGeneric) > 0
	if isTemplate {
		for _, gp := range f.GenericParams {
			a.Reg.Register(&types.TypeInfo{Name: gp.Name, Category: types.CatRecord, IsGenericParameter: true})
		}
		for _, gp := range f.ReceiverGeneric {
			a.Reg.Register(&types.TypeInfo{Name: gp.Name, Category: types.CatRecord, IsGenericParameter: true})
		}
	}
	for _, p := range f.Params {
		a.insert(&symbols.Symbol{Name: p.Name, Kind: symbols.KindVariable, VarType: p.Type, Loc: p.Loc})
		if info := a.resolveTypeExpr(p.Type); info != nil && referenceLike(info) {
			a.mem.Register(p.Name, info.Name, memory.Owned, p.Loc)
		}
	}
	a.checkBlock(f.Body)
	a.Types.Pop()

	a.fn, a.mem, a.danger = prevFn, prevMem, prevDanger
}

// referenceLike reports whether a resolved type is tracked by the memory
// analyzer: reference-semantics aggregates and memory wrapper kinds.
func referenceLike(info *types.TypeInfo) bool {
	return info.Category == types.CatEntity || info.Category == types.CatResident || info.Wrapper != types.NotWrapper
}

func (a *Analyzer) checkBlock(b *ast.Block) {
	if b == nil {
		return
	}
	a.Types.Push(false)
	a.mem.PushScope()
	for _, s := range b.Statements {
		a.checkStatement(s)
	}
	a.mem.PopScope()
	a.Types.Pop()
}

func (a *Analyzer) checkStatement(s ast.Statement) {
	switch v := s.(type) {
	case *ast.ExprStatement:
		a.checkExpr(v.Expr)
	case *ast.DeclStatement:
		a.checkDeclStatement(v)
	case *ast.Assignment:
		a.checkAssignment(v)
	case *ast.ReturnStatement:
		if v.Value != nil {
			a.checkExpr(v.Value)
			if id, ok := v.Value.(*ast.Identifier); ok {
				a.mem.CheckReturn(id.Name, v.Location())
			}
		}
	case *ast.IfStatement:
		a.checkExpr(v.Cond)
		a.checkBlock(v.Then)
		a.checkBlock(v.Else)
	case *ast.WhileStatement:
		a.checkExpr(v.Cond)
		a.checkBlock(v.Body)
	case *ast.ForStatement:
		a.checkExpr(v.Iterable)
		a.Types.Push(false)
		a.insert(&symbols.Symbol{Name: v.Var, Kind: symbols.KindVariable, Loc: v.Location()})
		a.checkBlock(v.Body)
		a.Types.Pop()
	case *ast.Block:
		a.checkBlock(v)
	case *ast.WhenStatement:
		subjType := a.inferExpr(v.Subject)
		for _, c := range v.Cases {
			a.checkPattern(c.Pattern, v.Subject, subjType)
			if blk, ok := c.Body.(*ast.Block); ok {
				a.checkBlock(blk)
			} else if c.Body != nil {
				a.checkStatement(c.Body)
			}
		}
	case *ast.BreakStatement:
		if v.Value != nil {
			a.checkExpr(v.Value)
		}
	case *ast.DangerBlock:
		a.danger++
		a.checkBlock(v.Body)
		a.danger--
	case *ast.ThrowStatement:
		a.checkExpr(v.Value)
	case *ast.ContinueStatement, *ast.AbsentStatement:
		// No subexpressions to check.
	}
}

// checkPattern type-checks a `when` case pattern and, for patterns that bind
// a name (PatternIdentifier, and PatternType's optional trailing var), inserts
// that name into the current scope. subject/subjectType identify the `when`
// scrutinee, used to decide whether the bound name must be tracked as a
// memory object and, when the scrutinee is itself a scoped token, whether
// the binding carries that token status onward (spec §4.4 Failable scoped
// acquisitions, propagated via memory.PropagateScopedBinding).
func (a *Analyzer) checkPattern(p ast.Pattern, subject ast.Expression, subjectType *types.TypeInfo) {
	switch p.Kind {
	case ast.PatternIdentifier:
		a.bindPatternName(p.Name, subject, subjectType, p.Loc)
	case ast.PatternType:
		info := a.resolveTypeExpr(p.Type)
		if p.Name != "" {
			if info == nil {
				info = subjectType
			}
			a.bindPatternName(p.Name, subject, info, p.Loc)
		}
	case ast.PatternExpression:
		if p.Guard != nil {
			a.checkExpr(p.Guard)
		}
	}
}

// bindPatternName registers a `when`-pattern binding in the symbol table and,
// when the matched subject was itself a scoped token, propagates that status
// onto the newly bound name (spec §4.4).
func (a *Analyzer) bindPatternName(name string, subject ast.Expression, info *types.TypeInfo, loc source.Location) {
	if name == "" {
		return
	}
	var varType *ast.TypeExpr
	if info != nil {
		varType = &ast.TypeExpr{Name: info.Name}
	}
	a.insert(&symbols.Symbol{Name: name, Kind: symbols.KindVariable, VarType: varType, Loc: loc})
	if id, ok := subject.(*ast.Identifier); ok {
		if src := a.mem.Find(id.Name); src != nil && src.State == memory.ScopedToken {
			a.mem.PropagateScopedBinding(name, src.TypeName, src.TokenKind, loc)
			return
		}
	}
	if info != nil && referenceLike(info) {
		a.mem.Register(name, info.Name, memory.Owned, loc)
	}
}

func (a *Analyzer) checkDeclStatement(d *ast.DeclStatement) {
	vd, ok := d.Decl.(*ast.VariableDecl)
	if !ok {
		// Local routine/type declarations re-enter the top-level pipeline.
		a.registerDecl(d.Decl)
		return
	}
	a.insert(&symbols.Symbol{Name: vd.Name, Kind: symbols.KindVariable, VarType: vd.Type, Mutable: vd.Mutable, Loc: vd.Location()})

	if mo, ok := vd.Init.(*ast.MemoryOp); ok {
		a.checkMemoryOp(mo, true)
		if kind, ok := memoryKindOf[mo.Kind]; ok {
			typeName := ""
			if info := a.inferExpr(mo.Receiver); info != nil {
				typeName = info.Name
			}
			a.mem.Register(vd.Name, typeName, memory.ScopedToken, vd.Location())
			_ = kind
		}
		return
	}
	if vd.Init != nil {
		a.checkExpr(vd.Init)
	}
	info := a.resolveTypeExprOrInfer(vd.Type, vd.Init)
	if info != nil {
		if vd.Mutable && info.Category == types.CatEntity {
			a.errorf(diag.KindImmutableEntityBinding, vd.Location(),
				"%q is an entity type: entities have reference identity and cannot be bound with var", info.Name)
		}
		if referenceLike(info) {
			a.mem.Register(vd.Name, info.Name, memory.Owned, vd.Location())
		}
	}
}

func (a *Analyzer) resolveTypeExprOrInfer(t *ast.TypeExpr, init ast.Expression) *types.TypeInfo {
	if t != nil {
		return a.resolveTypeExpr(t)
	}
	if init != nil {
		return a.inferExpr(init)
	}
	return nil
}

func (a *Analyzer) checkAssignment(asg *ast.Assignment) {
	a.checkExpr(asg.Target)
	a.checkExpr(asg.Value)
	if id, ok := asg.Value.(*ast.Identifier); ok {
		if _, isMember := asg.Target.(*ast.Member); isMember {
			a.mem.CheckStorable(id.Name, asg.Location())
		}
	}
}

// checkMemoryOp validates a scoped-access/memory-op node: raw ops
// (size!/address!/unsafe_ptr!) are danger-only; view/inspect/seize
// token-creating ops are always legal; hijack additionally requires a
// usurping function unless reached through a scoped binding form (spec §3,
// §4.4). bound reports whether mo was reached via a named scoped-form/`let`
// binding (checkDeclStatement) rather than as a bare sub-expression.
func (a *Analyzer) checkMemoryOp(mo *ast.MemoryOp, bound bool) {
	a.checkExpr(mo.Receiver)
	switch mo.Kind {
	case ast.OpAddress, ast.OpUnsafePtr:
		if a.danger == 0 {
			a.errorf(diag.KindIntrinsicOutsideDanger, mo.Location(), "raw memory operation requires a danger block")
		}
	case ast.OpHijack:
		a.mem.RequireTokenInsideUsurping(bound, mo.Location())
	}
}

// checkExpr walks e for side-effecting checks (intrinsic danger-gating,
// use-after-invalidation) without needing its resolved type.
func (a *Analyzer) checkExpr(e ast.Expression) {
	a.inferExpr(e)
}
