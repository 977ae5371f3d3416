package sema

import (
	"strings"

	"razorforge/src/ast"
	"razorforge/src/diag"
	"razorforge/src/symbols"
	"razorforge/src/types"
)

// inferExpr resolves e's static type, reporting any type/memory/danger
// diagnostics encountered along the way (spec §4.3 Type resolution,
// Protocol conformance). It returns nil when e's type could not be
// determined, which callers treat as "already diagnosed, stop checking".
func (a *Analyzer) inferExpr(e ast.Expression) *types.TypeInfo {
	if e == nil {
		return nil
	}
	t := a.inferExprKind(e)
	if t != nil {
		a.resolved[e.ID()] = t
	}
	return t
}

// inferExprKind is the per-kind dispatch inferExpr wraps to additionally
// record the result into the resolved side table.
func (a *Analyzer) inferExprKind(e ast.Expression) *types.TypeInfo {
	switch v := e.(type) {
	case *ast.Literal:
		return a.inferLiteral(v)
	case *ast.Identifier:
		return a.inferIdentifier(v)
	case *ast.Binary:
		return a.inferBinary(v)
	case *ast.Unary:
		return a.inferExpr(v.Operand)
	case *ast.ChainedComparison:
		return a.inferChainedComparison(v)
	case *ast.Call:
		return a.inferCall(v)
	case *ast.Member:
		recv := a.inferExpr(v.Receiver)
		if recv != nil {
			for _, fld := range recv.Fields {
				if fld.Name == v.Name {
					return fld.Type
				}
			}
		}
		return nil // plain (non-generic) aggregate field layout lives on the AST, not the registry; codegen resolves those directly
	case *ast.Index:
		a.inferExpr(v.Receiver)
		a.inferExpr(v.Index)
		return nil
	case *ast.ConditionalExpr:
		a.inferExpr(v.Cond)
		a.checkBlock(v.Then)
		a.checkBlock(v.Else)
		return nil
	case *ast.Range:
		a.inferExpr(v.From)
		a.inferExpr(v.To)
		if v.Step != nil {
			a.inferExpr(v.Step)
		}
		return nil
	case *ast.Lambda:
		a.Types.Push(true)
		for _, p := range v.Params {
			a.insert(&symbols.Symbol{Name: p.Name, Kind: symbols.KindVariable, VarType: p.Type, Loc: p.Loc})
		}
		a.checkBlock(v.Body)
		a.Types.Pop()
		return nil
	case *ast.TypeExpr:
		return a.resolveTypeExpr(v)
	case *ast.TypeConversion:
		a.inferExpr(v.Source)
		return a.resolveTypeExpr(v.Target)
	case *ast.SliceConstructor:
		for _, el := range v.Elements {
			a.inferExpr(el)
		}
		return nil
	case *ast.GenericMethodCall:
		recv := a.inferExpr(v.Receiver)
		for _, arg := range v.Args {
			a.inferExpr(arg)
		}
		for _, ta := range v.TypeArgs {
			a.resolveTypeExpr(ta)
		}
		if recv == nil {
			return nil
		}
		if fn := a.resolveMethodCall(recv, v.Method, v.Location()); fn != nil {
			a.resolvedCallee[v.ID()] = fn
			return fn.Return
		}
		return nil
	case *ast.GenericCall:
		return a.inferGenericCall(v)
	case *ast.MemoryOp:
		a.checkMemoryOp(v, false)
		return nil
	case *ast.IntrinsicCall:
		return a.inferIntrinsicCall(v)
	}
	return nil
}

// inferGenericCall resolves an explicit free-generic-function call such as
// `identity<s64>(42)` by instantiating the named template with the given
// type arguments and returning the instantiation's substituted return type
// (spec §8 scenario #1).
func (a *Analyzer) inferGenericCall(c *ast.GenericCall) *types.TypeInfo {
	for _, arg := range c.Args {
		a.inferExpr(arg)
	}
	id, ok := c.Callee.(*ast.Identifier)
	if !ok {
		a.inferExpr(c.Callee)
		for _, ta := range c.TypeArgs {
			a.resolveTypeExpr(ta)
		}
		return nil
	}
	a.mem.Use(id.Name, id.Location())
	argNames := make([]string, len(c.TypeArgs))
	for i, ta := range c.TypeArgs {
		a.resolveTypeExpr(ta)
		argNames[i] = typeExprName(ta)
	}
	concreteName := id.Name + "<" + strings.Join(argNames, ", ") + ">"
	fn := a.resolveTypeByName(concreteName, c.Location())
	if fn == nil {
		return nil
	}
	a.resolvedCallee[c.ID()] = fn
	return fn.Return
}

func (a *Analyzer) inferLiteral(l *ast.Literal) *types.TypeInfo {
	name := literalTypeName(l)
	if name == "" {
		return nil
	}
	info, ok := a.Reg.Lookup(name)
	if !ok {
		a.errorf(diag.KindUnknownType, l.Location(), "unknown literal type %q", name)
		return nil
	}
	if l.LitKind == ast.LitInt || l.LitKind == ast.LitFloat {
		// A literal too large for its (explicit or default) type is
		// reported here rather than left to codegen (spec §7 Type errors).
		if ov, val := literalOverflows(l, info); ov {
			a.errorf(diag.KindLiteralOutOfRange, l.Location(), "literal %v out of range for %s", val, name)
		}
	}
	return info
}

// literalTypeName picks the concrete type a literal denotes: its explicit
// suffix if present, otherwise the default for its LiteralKind (spec §3
// Expressions, literal type inference).
func literalTypeName(l *ast.Literal) string {
	if l.Suffix != "" {
		return l.Suffix
	}
	switch l.LitKind {
	case ast.LitInt:
		return "s32"
	case ast.LitFloat:
		return "f64"
	case ast.LitBool:
		return "bool"
	case ast.LitString:
		return "Text"
	default:
		return ""
	}
}

// literalOverflows checks a decoded integer literal's value against its
// target type's bit width, when that width is staticially known.
func literalOverflows(l *ast.Literal, info *types.TypeInfo) (bool, interface{}) {
	if l.LitKind != ast.LitInt || !info.IsSingleField {
		return false, nil
	}
	v, ok := l.Value.(int64)
	if !ok {
		return false, nil
	}
	bits, signed := bitsFor(info.Name)
	if bits == 0 {
		return false, nil
	}
	if signed {
		lo, hi := -(int64(1) << (bits - 1)), (int64(1)<<(bits-1))-1
		return v < lo || v > hi, v
	}
	if v < 0 {
		return true, v
	}
	hi := uint64(1)<<bits - 1
	return uint64(v) > hi, v
}

func bitsFor(name string) (int, bool) {
	switch name {
	case "s8":
		return 8, true
	case "s16":
		return 16, true
	case "s32":
		return 32, true
	case "s64":
		return 64, true
	case "u8":
		return 8, false
	case "u16":
		return 16, false
	case "u32":
		return 32, false
	case "u64":
		return 64, false
	default:
		return 0, false
	}
}

func (a *Analyzer) inferIdentifier(id *ast.Identifier) *types.TypeInfo {
	a.mem.Use(id.Name, id.Location())
	sym, ok := a.Types.Lookup(id.Name)
	if !ok {
		a.errorf(diag.KindUnknownSymbol, id.Location(), "unknown symbol %q", id.Name)
		return nil
	}
	if sym.VarType != nil {
		return a.resolveTypeExpr(sym.VarType)
	}
	return nil
}

// inferBinary checks operand protocol conformance for the operator (spec
// §4.3 Protocol conformance). It does not look at b.Overflow, so an
// overflow suffix on a non-arithmetic operator is not reported here.
func (a *Analyzer) inferBinary(b *ast.Binary) *types.TypeInfo {
	lt := a.inferExpr(b.Left)
	rt := a.inferExpr(b.Right)
	if lt == nil || rt == nil {
		return lt
	}
	switch b.Op {
	case "+", "-", "*", "/", "//":
		if !lt.Is(types.Numeric) || !rt.Is(types.Numeric) {
			a.errorf(diag.KindNonComparableOperands, b.Location(), "operator %q requires Numeric operands", b.Op)
			return nil
		}
		isInt := lt.Is(types.SignedInteger) || lt.Is(types.UnsignedInteger)
		if b.Op == "/" && isInt {
			a.errorf(diag.KindIntegerDivide, b.Location(), "integer division must use `//`, not `/`")
		}
		return lt
	case "==", "!=":
		if !lt.Is(types.Equatable) {
			a.errorf(diag.KindNonComparableOperands, b.Location(), "%s is not Equatable", lt.Name)
		}
		return a.boolType()
	case "<", "<=", ">", ">=":
		if !lt.Is(types.Comparable) {
			a.errorf(diag.KindNonComparableOperands, b.Location(), "%s is not Comparable", lt.Name)
		}
		return a.boolType()
	case "and", "or":
		return a.boolType()
	default:
		return lt
	}
}

func (a *Analyzer) inferChainedComparison(c *ast.ChainedComparison) *types.TypeInfo {
	for _, o := range c.Operands {
		a.inferExpr(o)
	}
	return a.boolType()
}

func (a *Analyzer) boolType() *types.TypeInfo {
	info, _ := a.Reg.Lookup("bool")
	return info
}

func (a *Analyzer) inferCall(c *ast.Call) *types.TypeInfo {
	switch callee := c.Callee.(type) {
	case *ast.Identifier:
		return a.inferIdentifierCall(callee, c)
	case *ast.Member:
		return a.inferMethodCall(callee, c)
	default:
		a.inferExpr(c.Callee)
		for _, arg := range c.Args {
			a.inferExpr(arg)
		}
		return nil
	}
}

// inferIdentifierCall resolves a plain `name(args)` call against the symbol
// table, reporting unknown-function/arity diagnostics, and returns the
// callee's resolved return type.
func (a *Analyzer) inferIdentifierCall(id *ast.Identifier, c *ast.Call) *types.TypeInfo {
	a.mem.Use(id.Name, id.Location())
	sym, ok := a.Types.Lookup(id.Name)
	if !ok {
		a.errorf(diag.KindUnknownSymbol, id.Location(), "unknown function %q", id.Name)
	} else if sym.Kind == symbols.KindFunction && len(sym.Params) != len(c.Args) {
		a.errorf(diag.KindArityMismatch, c.Location(), "%q expects %d arguments, got %d", id.Name, len(sym.Params), len(c.Args))
	}
	for _, arg := range c.Args {
		a.inferExpr(arg)
	}
	if ok && sym.ReturnType != nil {
		return a.resolveTypeExpr(sym.ReturnType)
	}
	return nil
}

// inferMethodCall resolves a `receiver.method(args)` call, instantiating a
// generic method template when the receiver's resolved type is itself a
// generic instantiation (spec §4.3 step 2, §4.5).
func (a *Analyzer) inferMethodCall(m *ast.Member, c *ast.Call) *types.TypeInfo {
	recv := a.inferExpr(m.Receiver)
	for _, arg := range c.Args {
		a.inferExpr(arg)
	}
	if recv == nil {
		return nil
	}
	if fn := a.resolveMethodCall(recv, m.Name, c.Location()); fn != nil {
		a.resolvedCallee[c.ID()] = fn
		return fn.Return
	}
	return nil
}

// inferIntrinsicCall enforces the danger-only placement rule and basic
// type/value arity (spec §4.3 Intrinsics, §7 Intrinsic errors).
func (a *Analyzer) inferIntrinsicCall(ic *ast.IntrinsicCall) *types.TypeInfo {
	if a.danger == 0 {
		a.errorf(diag.KindIntrinsicOutsideDanger, ic.Location(), "@intrinsic.%s used outside a danger block", ic.Path)
	}
	for _, arg := range ic.Args {
		a.inferExpr(arg)
	}
	for _, ta := range ic.TypeArgs {
		a.resolveTypeExpr(ta)
	}
	return nil
}
