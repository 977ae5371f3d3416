package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"razorforge/src/ast"
)

// emitIntrinsicCall dispatches one @intrinsic.NAME<T,...>(args) form to
// its fixed LLVM instruction or intrinsic, per the closed table of spec
// §4.7. Placement (danger!-only) is enforced by sema, not here; codegen
// assumes a validated tree and simply emits.
func (g *Generator) emitIntrinsicCall(ic *ast.IntrinsicCall) (llvm.Value, error) {
	args := make([]llvm.Value, 0, len(ic.Args))
	for _, a := range ic.Args {
		v, err := g.emitExpr(a)
		if err != nil {
			return llvm.Value{}, err
		}
		args = append(args, v)
	}

	switch ic.Path {
	// Arithmetic: raw ops, the four overflow variants route through
	// this table from the Binary overflow suffix, not from here; these
	// are the named @intrinsic forms used directly in danger! blocks.
	case "add.wrap":
		return g.builder.CreateAdd(args[0], args[1], ""), nil
	case "sub.wrap":
		return g.builder.CreateSub(args[0], args[1], ""), nil
	case "mul.wrap":
		return g.builder.CreateMul(args[0], args[1], ""), nil
	case "sdiv":
		return g.builder.CreateSDiv(args[0], args[1], ""), nil
	case "udiv":
		return g.builder.CreateUDiv(args[0], args[1], ""), nil
	case "srem":
		return g.builder.CreateSRem(args[0], args[1], ""), nil
	case "urem":
		return g.builder.CreateURem(args[0], args[1], ""), nil
	case "add.overflow":
		return g.emitOverflowIntrinsic("sadd.with.overflow", args)
	case "sub.overflow":
		return g.emitOverflowIntrinsic("ssub.with.overflow", args)
	case "mul.overflow":
		return g.emitOverflowIntrinsic("smul.with.overflow", args)
	case "add.sat":
		return g.emitSaturatingIntrinsic("sadd.sat", args)
	case "sub.sat":
		return g.emitSaturatingIntrinsic("ssub.sat", args)

	// Bitwise and shifts.
	case "and":
		return g.builder.CreateAnd(args[0], args[1], ""), nil
	case "or":
		return g.builder.CreateOr(args[0], args[1], ""), nil
	case "xor":
		return g.builder.CreateXor(args[0], args[1], ""), nil
	case "shl":
		return g.builder.CreateShl(args[0], args[1], ""), nil
	case "lshr":
		return g.builder.CreateLShr(args[0], args[1], ""), nil
	case "ashr":
		return g.builder.CreateAShr(args[0], args[1], ""), nil

	// Comparisons: equality/order is covered by Binary emission; the
	// intrinsic forms exist for danger! code operating on raw integers
	// without a resolved RazorForge/Suflae type to dispatch signedness
	// from, so the caller names signedness explicitly.
	case "icmp.eq":
		return g.builder.CreateICmp(llvm.IntEQ, args[0], args[1], ""), nil
	case "icmp.slt":
		return g.builder.CreateICmp(llvm.IntSLT, args[0], args[1], ""), nil
	case "icmp.ult":
		return g.builder.CreateICmp(llvm.IntULT, args[0], args[1], ""), nil
	case "fcmp.oeq":
		return g.builder.CreateFCmp(llvm.FloatOEQ, args[0], args[1], ""), nil
	case "fcmp.olt":
		return g.builder.CreateFCmp(llvm.FloatOLT, args[0], args[1], ""), nil

	// Type conversions.
	case "trunc":
		return g.convIntrinsic(ic, args[0], g.builder.CreateTrunc)
	case "zext":
		return g.convIntrinsic(ic, args[0], g.builder.CreateZExt)
	case "sext":
		return g.convIntrinsic(ic, args[0], g.builder.CreateSExt)
	case "fptrunc":
		return g.convIntrinsic(ic, args[0], g.builder.CreateFPTrunc)
	case "fpext":
		return g.convIntrinsic(ic, args[0], g.builder.CreateFPExt)
	case "fptosi":
		return g.convIntrinsic(ic, args[0], g.builder.CreateFPToSI)
	case "fptoui":
		return g.convIntrinsic(ic, args[0], g.builder.CreateFPToUI)
	case "sitofp":
		return g.convIntrinsic(ic, args[0], g.builder.CreateSIToFP)
	case "uitofp":
		return g.convIntrinsic(ic, args[0], g.builder.CreateUIToFP)
	case "bitcast":
		return g.convIntrinsic(ic, args[0], g.builder.CreateBitCast)

	// Bit manipulation.
	case "ctpop":
		return g.emitUnaryMathIntrinsic("ctpop", args[0])
	case "ctlz":
		return g.emitCountZerosIntrinsic("ctlz", args[0])
	case "cttz":
		return g.emitCountZerosIntrinsic("cttz", args[0])
	case "bswap":
		return g.emitUnaryMathIntrinsic("bswap", args[0])
	case "bitreverse":
		return g.emitUnaryMathIntrinsic("bitreverse", args[0])

	// Memory.
	case "load":
		return g.builder.CreateLoad(args[0], ""), nil
	case "store":
		g.builder.CreateStore(args[1], args[0])
		return llvm.Value{}, nil
	case "load.volatile":
		ld := g.builder.CreateLoad(args[0], "")
		ld.SetVolatile(true)
		return ld, nil
	case "store.volatile":
		st := g.builder.CreateStore(args[1], args[0])
		st.SetVolatile(true)
		return llvm.Value{}, nil

	// Atomics, all sequentially consistent (spec §4.7).
	case "atomic.load":
		ld := g.builder.CreateLoad(args[0], "")
		ld.SetOrdering(llvm.AtomicOrderingSequentiallyConsistent)
		return ld, nil
	case "atomic.store":
		st := g.builder.CreateStore(args[1], args[0])
		st.SetOrdering(llvm.AtomicOrderingSequentiallyConsistent)
		return llvm.Value{}, nil
	case "atomic.add":
		return g.builder.CreateAtomicRMW(llvm.AtomicRMWBinOpAdd, args[0], args[1], llvm.AtomicOrderingSequentiallyConsistent, false), nil
	case "atomic.xchg":
		return g.builder.CreateAtomicRMW(llvm.AtomicRMWBinOpXchg, args[0], args[1], llvm.AtomicOrderingSequentiallyConsistent, false), nil
	case "atomic.cmpxchg":
		return g.builder.CreateAtomicCmpXchg(args[0], args[1], args[2],
			llvm.AtomicOrderingSequentiallyConsistent, llvm.AtomicOrderingSequentiallyConsistent, false), nil

	// Math, via the matching llvm.* intrinsic declaration.
	case "sqrt":
		return g.emitUnaryMathIntrinsic("sqrt", args[0])
	case "fabs":
		return g.emitUnaryMathIntrinsic("fabs", args[0])
	case "floor":
		return g.emitUnaryMathIntrinsic("floor", args[0])
	case "ceil":
		return g.emitUnaryMathIntrinsic("ceil", args[0])
	case "round":
		return g.emitUnaryMathIntrinsic("round", args[0])
	case "pow":
		return g.emitBinaryMathIntrinsic("pow", args[0], args[1])
	case "exp":
		return g.emitUnaryMathIntrinsic("exp", args[0])
	case "log":
		return g.emitUnaryMathIntrinsic("log", args[0])
	case "log10":
		return g.emitUnaryMathIntrinsic("log10", args[0])
	case "sin":
		return g.emitUnaryMathIntrinsic("sin", args[0])
	case "cos":
		return g.emitUnaryMathIntrinsic("cos", args[0])

	// Invalidate.
	case "free":
		return g.emitRuntimeCall("__rf_free", args)

	default:
		return llvm.Value{}, fmt.Errorf("codegen: unknown intrinsic @intrinsic.%s", ic.Path)
	}
}

func (g *Generator) convIntrinsic(ic *ast.IntrinsicCall, v llvm.Value, f func(llvm.Value, llvm.Type, string) llvm.Value) (llvm.Value, error) {
	if len(ic.TypeArgs) == 0 {
		return llvm.Value{}, fmt.Errorf("codegen: @intrinsic.%s requires a target type argument", ic.Path)
	}
	info, ok := g.sema.Reg.Lookup(ic.TypeArgs[0].Name)
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: unknown conversion target %q", ic.TypeArgs[0].Name)
	}
	ty, err := g.llvmType(info)
	if err != nil {
		return llvm.Value{}, err
	}
	return f(v, ty, ""), nil
}

// emitOverflowIntrinsic calls one of LLVM's @llvm.s{add,sub,mul}.with.overflow
// intrinsics and extracts the boolean-pair's value element (the overflow
// flag itself is discarded here; the checked `?` overflow variant does not
// read it either, since emitArith sends `?` down the same trapping path as
// the unsuffixed default).
func (g *Generator) emitOverflowIntrinsic(name string, args []llvm.Value) (llvm.Value, error) {
	structTy := g.ctx.StructType([]llvm.Type{args[0].Type(), g.ctx.Int1Type()}, false)
	fnTy := llvm.FunctionType(structTy, []llvm.Type{args[0].Type(), args[1].Type()}, false)
	fn := g.intrinsicFunc("llvm."+name+"."+llvmTypeSuffix(args[0].Type()), fnTy)
	call := g.builder.CreateCall(fn, args, "")
	return g.builder.CreateExtractValue(call, 0, ""), nil
}

func (g *Generator) emitSaturatingIntrinsic(name string, args []llvm.Value) (llvm.Value, error) {
	fnTy := llvm.FunctionType(args[0].Type(), []llvm.Type{args[0].Type(), args[1].Type()}, false)
	fn := g.intrinsicFunc("llvm."+name+"."+llvmTypeSuffix(args[0].Type()), fnTy)
	return g.builder.CreateCall(fn, args, ""), nil
}

func (g *Generator) emitUnaryMathIntrinsic(name string, v llvm.Value) (llvm.Value, error) {
	fnTy := llvm.FunctionType(v.Type(), []llvm.Type{v.Type()}, false)
	fn := g.intrinsicFunc("llvm."+name+"."+llvmTypeSuffix(v.Type()), fnTy)
	return g.builder.CreateCall(fn, []llvm.Value{v}, ""), nil
}

func (g *Generator) emitBinaryMathIntrinsic(name string, a, b llvm.Value) (llvm.Value, error) {
	fnTy := llvm.FunctionType(a.Type(), []llvm.Type{a.Type(), b.Type()}, false)
	fn := g.intrinsicFunc("llvm."+name+"."+llvmTypeSuffix(a.Type()), fnTy)
	return g.builder.CreateCall(fn, []llvm.Value{a, b}, ""), nil
}

// emitCountZerosIntrinsic calls @llvm.ct{l,t}z with the is_zero_undef
// flag fixed to false, matching the conservative (always well-defined)
// behavior §4.7 requires of danger! intrinsics.
func (g *Generator) emitCountZerosIntrinsic(name string, v llvm.Value) (llvm.Value, error) {
	fnTy := llvm.FunctionType(v.Type(), []llvm.Type{v.Type(), g.ctx.Int1Type()}, false)
	fn := g.intrinsicFunc("llvm."+name+"."+llvmTypeSuffix(v.Type()), fnTy)
	return g.builder.CreateCall(fn, []llvm.Value{v, llvm.ConstInt(g.ctx.Int1Type(), 0, false)}, ""), nil
}

func llvmTypeSuffix(t llvm.Type) string {
	switch t.TypeKind() {
	case llvm.IntegerTypeKind:
		return fmt.Sprintf("i%d", t.IntTypeWidth())
	case llvm.FloatTypeKind:
		return "f32"
	case llvm.DoubleTypeKind:
		return "f64"
	default:
		return "p0"
	}
}

// intrinsicFunc returns the module's declaration for an LLVM intrinsic,
// declaring it on first use (spec §4.7: each @intrinsic.* maps to an
// LLVM instruction or a declared llvm.* intrinsic function).
func (g *Generator) intrinsicFunc(name string, fnTy llvm.Type) llvm.Value {
	if fn, ok := g.funcs[name]; ok {
		return fn
	}
	fn := llvm.AddFunction(g.module, name, fnTy)
	g.funcs[name] = fn
	return fn
}

func (g *Generator) emitRuntimeCall(name string, args []llvm.Value) (llvm.Value, error) {
	fn, ok := g.funcs[name]
	if !ok {
		argTypes := make([]llvm.Type, len(args))
		for i, a := range args {
			argTypes[i] = a.Type()
		}
		fnTy := llvm.FunctionType(g.ctx.VoidType(), argTypes, false)
		fn = llvm.AddFunction(g.module, name, fnTy)
		g.funcs[name] = fn
	}
	return g.builder.CreateCall(fn, args, ""), nil
}
