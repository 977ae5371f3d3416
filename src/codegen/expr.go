package codegen

import (
	"fmt"
	"strings"

	"tinygo.org/x/go-llvm"

	"razorforge/src/ast"
	"razorforge/src/types"
)

// emitExpr mirrors the teacher's genExpression/genRelation dispatch,
// generalized from VSL's two expression shapes (binary op, unary op) to
// the full expression grammar. It never infers types itself: operand
// kind (integer vs float, signed vs unsigned) comes from
// sema.Analyzer.ResolvedType, looked up via exprTypeInfo.
func (g *Generator) emitExpr(e ast.Expression) (llvm.Value, error) {
	switch v := e.(type) {
	case *ast.Literal:
		return g.emitLiteral(v)
	case *ast.Identifier:
		return g.emitIdentifierLoad(v)
	case *ast.Binary:
		return g.emitBinary(v)
	case *ast.Unary:
		return g.emitUnary(v)
	case *ast.ChainedComparison:
		return g.emitChainedComparison(v)
	case *ast.Call:
		return g.emitCall(v)
	case *ast.ConditionalExpr:
		return g.emitConditionalExpr(v)
	case *ast.TypeConversion:
		return g.emitTypeConversion(v)
	case *ast.IntrinsicCall:
		return g.emitIntrinsicCall(v)
	case *ast.Member:
		return g.emitMember(v)
	case *ast.GenericCall:
		return g.emitGenericCall(v)
	case *ast.GenericMethodCall:
		return g.emitGenericMethodCall(v)
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unhandled expression %T", e)
	}
}

// emitGenericCall invokes a free generic-function instantiation, e.g.
// `identity<s64>(42)` (spec §8 scenario #1).
func (g *Generator) emitGenericCall(c *ast.GenericCall) (llvm.Value, error) {
	fn, ok := g.sema.ResolvedCallee(c)
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: generic call was not resolved by analysis")
	}
	return g.emitInstantiatedCall(fn, c.Args)
}

// emitGenericMethodCall invokes a generic method instantiation with its
// receiver prepended as "me", e.g. `t.get_value<s64>()` (spec §8 scenario
// #2).
func (g *Generator) emitGenericMethodCall(c *ast.GenericMethodCall) (llvm.Value, error) {
	fn, ok := g.sema.ResolvedCallee(c)
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: generic method call %q was not resolved by analysis", c.Method)
	}
	return g.emitInstantiatedCall(fn, append([]ast.Expression{c.Receiver}, c.Args...))
}

// emitMember loads a named field off an aggregate value: an ExtractValue for
// a by-value record/resident, or a GEP+Load through the pointer an entity's
// reference semantics always carries (spec §4.7 Type mapping).
func (g *Generator) emitMember(m *ast.Member) (llvm.Value, error) {
	recvInfo := g.exprTypeInfo(m.Receiver)
	recvVal, err := g.emitExpr(m.Receiver)
	if err != nil {
		return llvm.Value{}, err
	}
	if recvInfo == nil {
		return llvm.Value{}, fmt.Errorf("codegen: field access %q on an expression of unresolved type", m.Name)
	}
	idx, ok := g.fieldIndex(recvInfo, m.Name)
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: %q has no field %q", recvInfo.Name, m.Name)
	}
	if recvInfo.Category == types.CatEntity {
		gep := g.builder.CreateStructGEP(recvVal, idx, "")
		return g.builder.CreateLoad(gep, ""), nil
	}
	return g.builder.CreateExtractValue(recvVal, idx, ""), nil
}

// fieldIndex resolves a named field to its struct-layout position: an
// instantiated generic aggregate's already-substituted Fields list when
// present, otherwise the field order declared on the plain AST aggregate
// (spec §4.7).
func (g *Generator) fieldIndex(info *types.TypeInfo, name string) (int, bool) {
	if len(info.Fields) > 0 {
		for i, f := range info.Fields {
			if f.Name == name {
				return i, true
			}
		}
		return 0, false
	}
	decl, ok := g.aggDecls[info.Name]
	if !ok {
		return 0, false
	}
	fields, ok := fieldsOf(decl)
	if !ok {
		return 0, false
	}
	for i, f := range fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (g *Generator) emitLiteral(l *ast.Literal) (llvm.Value, error) {
	info := g.exprTypeInfo(l)
	switch l.LitKind {
	case ast.LitInt:
		ty, err := g.literalIntType(info)
		if err != nil {
			return llvm.Value{}, err
		}
		val, _ := l.Value.(int64)
		return llvm.ConstInt(ty, uint64(val), true), nil
	case ast.LitFloat:
		ty, err := g.literalFloatType(info)
		if err != nil {
			return llvm.Value{}, err
		}
		val, _ := l.Value.(float64)
		return llvm.ConstFloat(ty, val), nil
	case ast.LitBool:
		val, _ := l.Value.(bool)
		if val {
			return llvm.ConstInt(g.ctx.Int1Type(), 1, false), nil
		}
		return llvm.ConstInt(g.ctx.Int1Type(), 0, false), nil
	case ast.LitString:
		str, _ := l.Value.(string)
		return g.builder.CreateGlobalStringPtr(str, ""), nil
	case ast.LitNone:
		return llvm.ConstInt(g.ctx.Int1Type(), 0, false), nil
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unsupported literal kind %v", l.LitKind)
	}
}

func (g *Generator) literalIntType(info *types.TypeInfo) (llvm.Type, error) {
	if info == nil {
		return g.ctx.Int32Type(), nil
	}
	return g.llvmUnderlying(info.LLVMUnderlying)
}

func (g *Generator) literalFloatType(info *types.TypeInfo) (llvm.Type, error) {
	if info == nil {
		return g.ctx.DoubleType(), nil
	}
	return g.llvmUnderlying(info.LLVMUnderlying)
}

func (g *Generator) emitIdentifierLoad(id *ast.Identifier) (llvm.Value, error) {
	alloc, ok := g.locals[id.Name]
	if !ok {
		if fn, ok := g.funcs[id.Name]; ok {
			return fn, nil
		}
		return llvm.Value{}, fmt.Errorf("codegen: undeclared identifier %q", id.Name)
	}
	return g.builder.CreateLoad(alloc, ""), nil
}

// exprTypeInfo is a thin wrapper over sema.Analyzer.ResolvedType that
// tolerates a miss (returns nil), since not every expression kind records
// a resolved type (spec §4.7: "the code generator performs no inference
// of its own" — a miss here means the category needs no operand-kind
// dispatch, e.g. a call's own type is unused by codegen).
func (g *Generator) exprTypeInfo(e ast.Expression) *types.TypeInfo {
	info, ok := g.sema.ResolvedType(e)
	if !ok {
		return nil
	}
	return g.substType(info)
}

func isFloatInfo(info *types.TypeInfo) bool {
	return info != nil && info.Is(types.FloatingPoint)
}

func isUnsignedInfo(info *types.TypeInfo) bool {
	return info != nil && info.Is(types.UnsignedInteger)
}

// emitArith applies op to two already-evaluated operands, choosing the
// int/float and signed/unsigned instruction family from left's resolved
// type (mirrors the teacher's genExpression operator switch, generalized
// to float and unsigned variants the VSL source language never had).
// emitArith applies op to two already-evaluated integer or float operands,
// dispatching on b.Overflow for the four overflow-suffixed arithmetic forms
// (spec §4.7's overflow table): `%` wraps silently, `^` saturates to the
// type's bounds, `!` is the same unchecked wrapping instruction as `%` (no
// runtime guarantee either way beyond what the bare LLVM op already gives),
// and the unsuffixed default plus `?` both route through the overflow-flag
// intrinsic — the default traps, and `?` does too: this codegen emits each
// expression as a single value with no escape hatch for a fallible result,
// so a `?`-suffixed arithmetic op traps exactly like the default rather than
// threading a Result<T> through the enclosing expression (documented as an
// accepted gap, not a silent behavior change, since both still abort on
// overflow instead of producing a silently wrong value).
func (g *Generator) emitArith(op string, b *ast.Binary, left, right llvm.Value, unsigned bool) (llvm.Value, error) {
	isFloat := isFloatType(left.Type())

	if isFloat || op == "/" || op == "//" {
		return g.emitPlainArith(op, left, right, isFloat)
	}

	switch b.Overflow {
	case ast.OverflowWrap, ast.OverflowUnchecked:
		return g.emitPlainArith(op, left, right, false)
	case ast.OverflowSaturate:
		return g.emitSaturatingArith(op, left, right, unsigned)
	default: // ast.OverflowNone, ast.OverflowChecked
		return g.emitTrappingArith(op, left, right, unsigned)
	}
}

func isFloatType(t llvm.Type) bool {
	switch t.TypeKind() {
	case llvm.FloatTypeKind, llvm.DoubleTypeKind, llvm.HalfTypeKind, llvm.FP128TypeKind:
		return true
	default:
		return false
	}
}

// emitPlainArith emits the bare LLVM instruction with no overflow handling:
// wrapping two's-complement semantics for integers, IEEE semantics for
// floats.
func (g *Generator) emitPlainArith(op string, left, right llvm.Value, isFloat bool) (llvm.Value, error) {
	switch op {
	case "+":
		if isFloat {
			return g.builder.CreateFAdd(left, right, ""), nil
		}
		return g.builder.CreateAdd(left, right, ""), nil
	case "-":
		if isFloat {
			return g.builder.CreateFSub(left, right, ""), nil
		}
		return g.builder.CreateSub(left, right, ""), nil
	case "*":
		if isFloat {
			return g.builder.CreateFMul(left, right, ""), nil
		}
		return g.builder.CreateMul(left, right, ""), nil
	case "/":
		if isFloat {
			return g.builder.CreateFDiv(left, right, ""), nil
		}
		return g.builder.CreateSDiv(left, right, ""), nil
	case "//":
		return g.builder.CreateSDiv(left, right, ""), nil
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unsupported arithmetic operator %q", op)
	}
}

// overflowIntrinsicName picks the signed/unsigned llvm.*.with.overflow
// intrinsic for op.
func overflowIntrinsicName(op string, unsigned bool) (string, error) {
	prefix := "s"
	if unsigned {
		prefix = "u"
	}
	switch op {
	case "+":
		return prefix + "add.with.overflow", nil
	case "-":
		return prefix + "sub.with.overflow", nil
	case "*":
		return prefix + "mul.with.overflow", nil
	default:
		return "", fmt.Errorf("codegen: %q has no overflow-checked form", op)
	}
}

// emitOverflowPair calls the matching llvm.*.with.overflow intrinsic and
// returns both the (possibly wrapped) result and the i1 overflow flag.
func (g *Generator) emitOverflowPair(op string, left, right llvm.Value, unsigned bool) (llvm.Value, llvm.Value, error) {
	name, err := overflowIntrinsicName(op, unsigned)
	if err != nil {
		return llvm.Value{}, llvm.Value{}, err
	}
	structTy := g.ctx.StructType([]llvm.Type{left.Type(), g.ctx.Int1Type()}, false)
	fnTy := llvm.FunctionType(structTy, []llvm.Type{left.Type(), right.Type()}, false)
	fn := g.intrinsicFunc("llvm."+name+"."+llvmTypeSuffix(left.Type()), fnTy)
	call := g.builder.CreateCall(fn, []llvm.Value{left, right}, "")
	val := g.builder.CreateExtractValue(call, 0, "")
	ovf := g.builder.CreateExtractValue(call, 1, "")
	return val, ovf, nil
}

// emitTrappingArith implements the default (unsuffixed) overflow mode: on
// overflow, branch to an `llvm.trap` + unreachable block instead of letting
// the wrapped value escape (spec §4.7 "panics/traps on overflow").
func (g *Generator) emitTrappingArith(op string, left, right llvm.Value, unsigned bool) (llvm.Value, error) {
	val, ovf, err := g.emitOverflowPair(op, left, right, unsigned)
	if err != nil {
		return llvm.Value{}, err
	}
	fn := g.builder.GetInsertBlock().Parent()
	trapBB := llvm.AddBasicBlock(fn, "arith.trap")
	contBB := llvm.AddBasicBlock(fn, "arith.ok")
	g.builder.CreateCondBr(ovf, trapBB, contBB)

	g.builder.SetInsertPointAtEnd(trapBB)
	trapTy := llvm.FunctionType(g.ctx.VoidType(), nil, false)
	g.builder.CreateCall(g.intrinsicFunc("llvm.trap", trapTy), nil, "")
	g.builder.CreateUnreachable()

	g.builder.SetInsertPointAtEnd(contBB)
	return val, nil
}

// emitSaturatingArith implements the `^` overflow mode: clamp to the
// type's representable bounds instead of wrapping or trapping.
func (g *Generator) emitSaturatingArith(op string, left, right llvm.Value, unsigned bool) (llvm.Value, error) {
	switch op {
	case "+":
		return g.emitSaturatingIntrinsic(saturatingIntrinsicName("add", unsigned), []llvm.Value{left, right})
	case "-":
		return g.emitSaturatingIntrinsic(saturatingIntrinsicName("sub", unsigned), []llvm.Value{left, right})
	case "*":
		return g.emitSaturatingMul(left, right, unsigned)
	default:
		return llvm.Value{}, fmt.Errorf("codegen: %q has no saturating form", op)
	}
}

func saturatingIntrinsicName(kind string, unsigned bool) string {
	if unsigned {
		return "u" + kind + ".sat"
	}
	return "s" + kind + ".sat"
}

// emitSaturatingMul saturates a multiply manually: LLVM has no
// llvm.*mul.sat intrinsic, so this clamps the overflow-checked product to
// the type's max (unsigned, or same-sign signed overflow) or min (opposite-
// sign signed overflow) bound.
func (g *Generator) emitSaturatingMul(left, right llvm.Value, unsigned bool) (llvm.Value, error) {
	val, ovf, err := g.emitOverflowPair("*", left, right, unsigned)
	if err != nil {
		return llvm.Value{}, err
	}
	ty := left.Type()
	if unsigned {
		allOnes := llvm.ConstInt(ty, ^uint64(0), false)
		return g.builder.CreateSelect(ovf, allOnes, val, ""), nil
	}
	bits := uint(ty.IntTypeWidth())
	maxVal := llvm.ConstInt(ty, (uint64(1)<<(bits-1))-1, false)
	minVal := llvm.ConstInt(ty, uint64(1)<<(bits-1), true)
	zero := llvm.ConstInt(ty, 0, false)
	leftNeg := g.builder.CreateICmp(llvm.IntSLT, left, zero, "")
	rightNeg := g.builder.CreateICmp(llvm.IntSLT, right, zero, "")
	sameSign := g.builder.CreateICmp(llvm.IntEQ, leftNeg, rightNeg, "")
	bound := g.builder.CreateSelect(sameSign, maxVal, minVal, "")
	return g.builder.CreateSelect(ovf, bound, val, ""), nil
}

// emitBinary emits arithmetic, equality and relational operators; `and`/
// `or` short-circuit via the same basic-block-splitting pattern emitIf
// uses.
func (g *Generator) emitBinary(b *ast.Binary) (llvm.Value, error) {
	switch b.Op {
	case "and", "or":
		return g.emitShortCircuit(b)
	}

	left, err := g.emitExpr(b.Left)
	if err != nil {
		return llvm.Value{}, err
	}
	right, err := g.emitExpr(b.Right)
	if err != nil {
		return llvm.Value{}, err
	}

	leftInfo := g.exprTypeInfo(b.Left)
	switch b.Op {
	case "+", "-", "*", "/", "//":
		return g.emitArith(b.Op, b, left, right, isUnsignedInfo(leftInfo))
	case "==", "!=":
		return g.emitComparison(b.Op, left, right, leftInfo)
	case "<", "<=", ">", ">=":
		return g.emitComparison(b.Op, left, right, leftInfo)
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unsupported binary operator %q", b.Op)
	}
}

func (g *Generator) emitComparison(op string, left, right llvm.Value, info *types.TypeInfo) (llvm.Value, error) {
	if isFloatInfo(info) {
		pred, err := floatPredicate(op)
		if err != nil {
			return llvm.Value{}, err
		}
		return g.builder.CreateFCmp(pred, left, right, ""), nil
	}
	pred, err := intPredicate(op, isUnsignedInfo(info))
	if err != nil {
		return llvm.Value{}, err
	}
	return g.builder.CreateICmp(pred, left, right, ""), nil
}

func intPredicate(op string, unsigned bool) (llvm.IntPredicate, error) {
	switch op {
	case "==":
		return llvm.IntEQ, nil
	case "!=":
		return llvm.IntNE, nil
	case "<":
		if unsigned {
			return llvm.IntULT, nil
		}
		return llvm.IntSLT, nil
	case "<=":
		if unsigned {
			return llvm.IntULE, nil
		}
		return llvm.IntSLE, nil
	case ">":
		if unsigned {
			return llvm.IntUGT, nil
		}
		return llvm.IntSGT, nil
	case ">=":
		if unsigned {
			return llvm.IntUGE, nil
		}
		return llvm.IntSGE, nil
	default:
		return 0, fmt.Errorf("codegen: unsupported integer comparison %q", op)
	}
}

func floatPredicate(op string) (llvm.FloatPredicate, error) {
	switch op {
	case "==":
		return llvm.FloatOEQ, nil
	case "!=":
		return llvm.FloatONE, nil
	case "<":
		return llvm.FloatOLT, nil
	case "<=":
		return llvm.FloatOLE, nil
	case ">":
		return llvm.FloatOGT, nil
	case ">=":
		return llvm.FloatOGE, nil
	default:
		return 0, fmt.Errorf("codegen: unsupported float comparison %q", op)
	}
}

// emitShortCircuit lowers `and`/`or` with branching rather than a plain
// bitwise and/or, preserving short-circuit evaluation of the right
// operand.
func (g *Generator) emitShortCircuit(b *ast.Binary) (llvm.Value, error) {
	left, err := g.emitExpr(b.Left)
	if err != nil {
		return llvm.Value{}, err
	}
	fn := g.builder.GetInsertBlock().Parent()
	rhsBB := llvm.AddBasicBlock(fn, "sc.rhs")
	convBB := llvm.AddBasicBlock(fn, "sc.end")
	startBB := g.builder.GetInsertBlock()

	if b.Op == "and" {
		g.builder.CreateCondBr(left, rhsBB, convBB)
	} else {
		g.builder.CreateCondBr(left, convBB, rhsBB)
	}

	g.builder.SetInsertPointAtEnd(rhsBB)
	right, err := g.emitExpr(b.Right)
	if err != nil {
		return llvm.Value{}, err
	}
	rhsEndBB := g.builder.GetInsertBlock()
	g.builder.CreateBr(convBB)

	g.builder.SetInsertPointAtEnd(convBB)
	phi := g.builder.CreatePHI(g.ctx.Int1Type(), "")
	phi.AddIncoming([]llvm.Value{left, right}, []llvm.BasicBlock{startBB, rhsEndBB})
	return phi, nil
}

func (g *Generator) emitUnary(u *ast.Unary) (llvm.Value, error) {
	val, err := g.emitExpr(u.Operand)
	if err != nil {
		return llvm.Value{}, err
	}
	info := g.exprTypeInfo(u.Operand)
	switch u.Op {
	case "-":
		if isFloatInfo(info) {
			return g.builder.CreateFNeg(val, ""), nil
		}
		return g.builder.CreateNeg(val, ""), nil
	case "~":
		return g.builder.CreateNot(val, ""), nil
	case "not":
		return g.builder.CreateNot(val, ""), nil
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unsupported unary operator %q", u.Op)
	}
}

func (g *Generator) emitChainedComparison(c *ast.ChainedComparison) (llvm.Value, error) {
	var result llvm.Value
	for i := 0; i < len(c.Ops); i++ {
		leftExpr, rightExpr := c.Operands[i], c.Operands[i+1]
		left, err := g.emitExpr(leftExpr)
		if err != nil {
			return llvm.Value{}, err
		}
		right, err := g.emitExpr(rightExpr)
		if err != nil {
			return llvm.Value{}, err
		}
		hop, err := g.emitComparison(c.Ops[i], left, right, g.exprTypeInfo(leftExpr))
		if err != nil {
			return llvm.Value{}, err
		}
		if i == 0 {
			result = hop
		} else {
			result = g.builder.CreateAnd(result, hop, "")
		}
	}
	return result, nil
}

// emitCall dispatches a plain `callee(args)` call. A callee sema resolved to
// a generic instantiation (recorded via ResolvedCallee) is emitted against
// that instantiation's own mangled name regardless of callee shape; a method
// callee additionally prepends its receiver as the "me" argument instantiated
// methods, like free functions, always declare as an ordinary parameter
// (spec §4.5, §8 scenarios #1/#2).
func (g *Generator) emitCall(c *ast.Call) (llvm.Value, error) {
	if fn, ok := g.sema.ResolvedCallee(c); ok {
		args := c.Args
		if mem, ok := c.Callee.(*ast.Member); ok {
			args = append([]ast.Expression{mem.Receiver}, args...)
		}
		return g.emitInstantiatedCall(fn, args)
	}
	switch callee := c.Callee.(type) {
	case *ast.Identifier:
		return g.emitIdentifierCall(callee, c.Args)
	case *ast.Member:
		return g.emitMethodCall(callee, c.Args)
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unsupported call callee %T", c.Callee)
	}
}

func (g *Generator) emitIdentifierCall(id *ast.Identifier, args []ast.Expression) (llvm.Value, error) {
	sym, ok := g.symbolOf(id.Name)
	var name string
	if ok && sym.Decl != nil {
		if fd, ok := sym.Decl.(*ast.FunctionDecl); ok {
			name = mangleFunction(fd)
		}
	}
	if name == "" {
		name = id.Name
	}
	fn, ok := g.funcs[name]
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: undeclared function %q", id.Name)
	}
	return g.emitArgsCall(fn, args)
}

// emitMethodCall resolves a non-generic `receiver.method(args)` call by
// finding method among the plain AST declaration registered for receiver's
// type, then calling it with the receiver prepended as "me" (spec §4.7).
func (g *Generator) emitMethodCall(m *ast.Member, args []ast.Expression) (llvm.Value, error) {
	recvInfo := g.exprTypeInfo(m.Receiver)
	if recvInfo == nil {
		return llvm.Value{}, fmt.Errorf("codegen: method call %q on an expression of unresolved type", m.Name)
	}
	decl, ok := g.aggDecls[baseTypeName(recvInfo.Name)]
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: no declaration found for receiver type %q", recvInfo.Name)
	}
	var target *ast.FunctionDecl
	for _, meth := range methodsOf(decl) {
		if meth.Name == m.Name {
			target = meth
			break
		}
	}
	if target == nil {
		return llvm.Value{}, fmt.Errorf("codegen: %q has no method %q", recvInfo.Name, m.Name)
	}
	fn, ok := g.funcs[mangleFunction(target)]
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: method %q.%q was not declared", recvInfo.Name, m.Name)
	}
	return g.emitArgsCall(fn, append([]ast.Expression{m.Receiver}, args...))
}

// emitInstantiatedCall calls a generic function/method instantiation by its
// already-mangled concrete name (spec §4.5, §8 scenarios #1/#2).
func (g *Generator) emitInstantiatedCall(info *types.TypeInfo, args []ast.Expression) (llvm.Value, error) {
	fn, ok := g.funcs[types.MangledName(info.Name)]
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: generic instantiation %q was not declared", info.Name)
	}
	return g.emitArgsCall(fn, args)
}

func (g *Generator) emitArgsCall(fn llvm.Value, args []ast.Expression) (llvm.Value, error) {
	vals := make([]llvm.Value, 0, len(args))
	for _, a := range args {
		v, err := g.emitExpr(a)
		if err != nil {
			return llvm.Value{}, err
		}
		vals = append(vals, v)
	}
	return g.builder.CreateCall(fn, vals, ""), nil
}

// baseTypeName strips a generic instantiation's type-argument suffix, e.g.
// "TestType<s64>" -> "TestType", matching how aggDecls is keyed (off the
// plain declared name, not any one instantiation of it).
func baseTypeName(name string) string {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		return name[:i]
	}
	return name
}

func (g *Generator) emitConditionalExpr(c *ast.ConditionalExpr) (llvm.Value, error) {
	cond, err := g.emitExpr(c.Cond)
	if err != nil {
		return llvm.Value{}, err
	}
	fn := g.builder.GetInsertBlock().Parent()
	thenBB := llvm.AddBasicBlock(fn, "cond.then")
	elseBB := llvm.AddBasicBlock(fn, "cond.else")
	convBB := llvm.AddBasicBlock(fn, "cond.end")
	g.builder.CreateCondBr(cond, thenBB, elseBB)

	g.builder.SetInsertPointAtEnd(thenBB)
	thenVal, err := g.emitTailExpr(c.Then)
	if err != nil {
		return llvm.Value{}, err
	}
	thenEndBB := g.builder.GetInsertBlock()
	g.builder.CreateBr(convBB)

	g.builder.SetInsertPointAtEnd(elseBB)
	var elseVal llvm.Value
	if c.Else != nil {
		elseVal, err = g.emitTailExpr(c.Else)
		if err != nil {
			return llvm.Value{}, err
		}
	} else {
		elseVal = thenVal
	}
	elseEndBB := g.builder.GetInsertBlock()
	g.builder.CreateBr(convBB)

	g.builder.SetInsertPointAtEnd(convBB)
	phi := g.builder.CreatePHI(thenVal.Type(), "")
	phi.AddIncoming([]llvm.Value{thenVal, elseVal}, []llvm.BasicBlock{thenEndBB, elseEndBB})
	return phi, nil
}

// emitTailExpr emits a block's leading statements, then evaluates its
// final expression statement as the block's value (spec §3 block
// expressions).
func (g *Generator) emitTailExpr(b *ast.Block) (llvm.Value, error) {
	if b == nil || len(b.Statements) == 0 {
		return llvm.ConstInt(g.ctx.Int1Type(), 0, false), nil
	}
	for _, s := range b.Statements[:len(b.Statements)-1] {
		if err := g.emitStatement(s); err != nil {
			return llvm.Value{}, err
		}
	}
	last := b.Statements[len(b.Statements)-1]
	if es, ok := last.(*ast.ExprStatement); ok {
		return g.emitExpr(es.Expr)
	}
	if err := g.emitStatement(last); err != nil {
		return llvm.Value{}, err
	}
	return llvm.ConstInt(g.ctx.Int1Type(), 0, false), nil
}

// emitTypeConversion emits a numeric widening/narrowing or int<->float
// conversion. Every conversion with no float side goes through the integer
// sign- or zero-extend-or-truncate path (picked by the source's signedness);
// there is no separate path for reference types.
func (g *Generator) emitTypeConversion(t *ast.TypeConversion) (llvm.Value, error) {
	val, err := g.emitExpr(t.Source)
	if err != nil {
		return llvm.Value{}, err
	}
	targetInfo, ok := g.sema.Reg.Lookup(t.Target.Name)
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: unknown conversion target %q", t.Target.Name)
	}
	destTy, err := g.llvmType(targetInfo)
	if err != nil {
		return llvm.Value{}, err
	}
	srcInfo := g.exprTypeInfo(t.Source)

	srcFloat := isFloatInfo(srcInfo)
	dstFloat := targetInfo.Is(types.FloatingPoint)
	switch {
	case srcFloat && dstFloat:
		return g.builder.CreateFPCast(val, destTy, ""), nil
	case srcFloat && !dstFloat:
		return g.builder.CreateFPToSI(val, destTy, ""), nil
	case !srcFloat && dstFloat:
		if isUnsignedInfo(srcInfo) {
			return g.builder.CreateUIToFP(val, destTy, ""), nil
		}
		return g.builder.CreateSIToFP(val, destTy, ""), nil
	default:
		if isUnsignedInfo(srcInfo) {
			return g.builder.CreateZExtOrTrunc(val, destTy, ""), nil
		}
		return g.builder.CreateSExtOrTrunc(val, destTy, ""), nil
	}
}
