package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"razorforge/src/ast"
	"razorforge/src/types"
)

// declareFunction emits f's LLVM header (mirrors the teacher's
// genFuncHeader): name, parameter types and return type, with no body.
// Safe to call before any function body is generated so that forward
// references between routines resolve (spec §4.7 two-pass emission).
func (g *Generator) declareFunction(f *ast.FunctionDecl) (llvm.Value, error) {
	name := mangleFunction(f)
	if fn, ok := g.funcs[name]; ok {
		return fn, nil
	}

	// "me" (the receiver parameter) is always already present as an ordinary
	// entry in f.Params (parser/decl.go's parseFunction parses it there, not
	// as a synthesized receiver slot), so a method's parameter list is built
	// exactly like a free function's — no separate receiver slot is added.
	var paramTypes []llvm.Type
	for _, p := range f.Params {
		pt, ok := g.resolveFieldType(p.Type)
		if !ok {
			return llvm.Value{}, fmt.Errorf("codegen: parameter %q of %q has unresolved type", p.Name, f.Name)
		}
		paramTypes = append(paramTypes, pt)
	}

	retType := g.ctx.VoidType()
	if f.ReturnType != nil {
		rt, ok := g.resolveFieldType(f.ReturnType)
		if !ok {
			return llvm.Value{}, fmt.Errorf("codegen: return type of %q is unresolved", f.Name)
		}
		retType = rt
	}

	fnType := llvm.FunctionType(retType, paramTypes, false)
	fn := llvm.AddFunction(g.module, name, fnType)

	for i, p := range f.Params {
		fn.Param(i).SetName(p.Name)
	}

	g.funcs[name] = fn
	return fn, nil
}

// defineFunctionBody emits f's body into the header declareFunction
// already created (mirrors genFuncBody): one entry basic block,
// parameters spilled to allocas so they may be reassigned like any other
// local, then the block's statements.
func (g *Generator) defineFunctionBody(f *ast.FunctionDecl) error {
	fn, err := g.declareFunction(f)
	if err != nil {
		return err
	}

	entry := llvm.AddBasicBlock(fn, "entry")
	g.builder.SetInsertPointAtEnd(entry)

	g.locals = make(map[string]llvm.Value)
	g.localSeq = make(map[string]int)

	params := fn.Params()
	for i, p := range f.Params {
		g.spillParam(p.Name, params[i])
	}

	if err := g.emitBlockStatements(f.Body); err != nil {
		return err
	}

	if !blockTerminated(g.builder) && f.ReturnType == nil {
		g.builder.CreateRetVoid()
	}
	return nil
}

// declareInstantiatedFunction emits an instantiated generic function or
// method's LLVM header: same shape as declareFunction, but its parameter and
// return types come from info's already-substituted Params/Return rather
// than f's own (un-substituted) AST types, and it is named after info's
// fully concrete instantiation name rather than mangleFunction(f)'s
// template-shaped one (spec §4.5, §8 scenarios #1/#2).
func (g *Generator) declareInstantiatedFunction(f *ast.FunctionDecl, info *types.TypeInfo) (llvm.Value, error) {
	name := types.MangledName(info.Name)
	if fn, ok := g.funcs[name]; ok {
		return fn, nil
	}

	paramTypes := make([]llvm.Type, 0, len(info.Params))
	for _, p := range info.Params {
		pt, err := g.llvmType(p.Type)
		if err != nil {
			return llvm.Value{}, fmt.Errorf("codegen: parameter %q of %q has unresolved type: %w", p.Name, info.Name, err)
		}
		paramTypes = append(paramTypes, pt)
	}

	retType := g.ctx.VoidType()
	if info.Return != nil {
		rt, err := g.llvmType(info.Return)
		if err != nil {
			return llvm.Value{}, fmt.Errorf("codegen: return type of %q is unresolved: %w", info.Name, err)
		}
		retType = rt
	}

	fnType := llvm.FunctionType(retType, paramTypes, false)
	fn := llvm.AddFunction(g.module, name, fnType)
	for i, p := range f.Params {
		fn.Param(i).SetName(p.Name)
	}

	g.funcs[name] = fn
	return fn, nil
}

// defineInstantiatedFunctionBody emits an instantiated generic function or
// method's body with info.Substitution active as g.typeSubst, so every bare
// placeholder type the body itself resolves ("T" in a local declaration,
// the return type of a nested generic call) maps to this instantiation's
// concrete types throughout (spec §4.5).
func (g *Generator) defineInstantiatedFunctionBody(f *ast.FunctionDecl, info *types.TypeInfo) error {
	fn, err := g.declareInstantiatedFunction(f, info)
	if err != nil {
		return err
	}
	if f.Body == nil {
		return nil
	}

	prevSubst := g.typeSubst
	g.typeSubst = info.Substitution
	defer func() { g.typeSubst = prevSubst }()

	entry := llvm.AddBasicBlock(fn, "entry")
	g.builder.SetInsertPointAtEnd(entry)

	g.locals = make(map[string]llvm.Value)
	g.localSeq = make(map[string]int)

	params := fn.Params()
	for i, p := range f.Params {
		g.spillParam(p.Name, params[i])
	}

	if err := g.emitBlockStatements(f.Body); err != nil {
		return err
	}
	if !blockTerminated(g.builder) && f.ReturnType == nil {
		g.builder.CreateRetVoid()
	}
	return nil
}

func isTerminator(v llvm.Value) bool {
	if v.IsNil() {
		return false
	}
	switch v.InstructionOpcode() {
	case llvm.Ret, llvm.Br, llvm.Switch, llvm.Unreachable:
		return true
	default:
		return false
	}
}

func (g *Generator) spillParam(name string, v llvm.Value) {
	alloc := g.builder.CreateAlloca(v.Type(), g.uniqueLocalName(name))
	g.builder.CreateStore(v, alloc)
	g.locals[name] = alloc
}

// uniqueLocalName suffixes name with its occurrence count in this
// function, so shadowed source-level declarations never collide in the
// emitted IR (spec §4.7 "every local variable receives a unique LLVM
// name, even when it shadows an outer declaration").
func (g *Generator) uniqueLocalName(name string) string {
	n := g.localSeq[name]
	g.localSeq[name] = n + 1
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s.%d", name, n)
}

// emitBlockStatements emits every statement of b in order, stopping (but
// not erroring) once a terminator has been emitted mid-block — e.g. a
// return inside an if's then-branch of an outer block reached via
// fallthrough.
func (g *Generator) emitBlockStatements(b *ast.Block) error {
	if b == nil {
		return nil
	}
	for _, s := range b.Statements {
		if blockTerminated(g.builder) {
			break
		}
		if err := g.emitStatement(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) emitStatement(s ast.Statement) error {
	switch v := s.(type) {
	case *ast.Block:
		return g.emitBlockStatements(v)
	case *ast.ExprStatement:
		_, err := g.emitExpr(v.Expr)
		return err
	case *ast.DeclStatement:
		return g.emitDeclStatement(v)
	case *ast.Assignment:
		return g.emitAssignment(v)
	case *ast.ReturnStatement:
		return g.emitReturn(v)
	case *ast.IfStatement:
		return g.emitIf(v)
	case *ast.WhileStatement:
		return g.emitWhile(v)
	case *ast.ForStatement:
		return g.emitFor(v)
	case *ast.BreakStatement:
		return g.emitBreak(v)
	case *ast.ContinueStatement:
		return g.emitContinue()
	case *ast.DangerBlock:
		return g.emitBlockStatements(v.Body)
	case *ast.ThrowStatement:
		// Unwinding is out of scope for this generator pass; the throw's
		// value is still evaluated for its side effects.
		_, err := g.emitExpr(v.Value)
		return err
	case *ast.AbsentStatement:
		return nil
	case *ast.WhenStatement:
		return g.emitWhen(v)
	default:
		return fmt.Errorf("codegen: unhandled statement %T", s)
	}
}

func (g *Generator) emitDeclStatement(d *ast.DeclStatement) error {
	vd, ok := d.Decl.(*ast.VariableDecl)
	if !ok {
		return nil // local routine/type declarations are hoisted, not re-emitted here
	}
	var val llvm.Value
	var err error
	if vd.Init != nil {
		val, err = g.emitExpr(vd.Init)
		if err != nil {
			return err
		}
	}
	var ty llvm.Type
	if vd.Type != nil {
		ty, ok = g.resolveFieldType(vd.Type)
		if !ok {
			return fmt.Errorf("codegen: variable %q has unresolved type", vd.Name)
		}
	} else if vd.Init != nil {
		ty = val.Type()
	} else {
		return fmt.Errorf("codegen: variable %q has neither an explicit type nor an initializer", vd.Name)
	}

	alloc := g.builder.CreateAlloca(ty, g.uniqueLocalName(vd.Name))
	if vd.Init != nil {
		g.builder.CreateStore(val, alloc)
	}
	g.locals[vd.Name] = alloc
	return nil
}

func (g *Generator) emitAssignment(a *ast.Assignment) error {
	id, ok := a.Target.(*ast.Identifier)
	if !ok {
		return fmt.Errorf("codegen: only identifier assignment targets are supported")
	}
	dst, ok := g.locals[id.Name]
	if !ok {
		return fmt.Errorf("codegen: undeclared variable %q", id.Name)
	}
	val, err := g.emitExpr(a.Value)
	if err != nil {
		return err
	}
	if a.Op != "=" {
		cur := g.builder.CreateLoad(dst, "")
		val, err = g.emitPlainArith(a.Op[:len(a.Op)-1], cur, val, isFloatType(cur.Type()))
		if err != nil {
			return err
		}
	}
	g.builder.CreateStore(val, dst)
	return nil
}

func (g *Generator) emitReturn(r *ast.ReturnStatement) error {
	if r.Value == nil {
		g.builder.CreateRetVoid()
		return nil
	}
	val, err := g.emitExpr(r.Value)
	if err != nil {
		return err
	}
	g.builder.CreateRet(val)
	return nil
}

// emitIf mirrors the teacher's genIf: a converging basic block is only
// created when at least one branch falls through to it.
func (g *Generator) emitIf(s *ast.IfStatement) error {
	cond, err := g.emitExpr(s.Cond)
	if err != nil {
		return err
	}
	fn := g.builder.GetInsertBlock().Parent()
	thenBB := llvm.AddBasicBlock(fn, "if.then")

	if s.Else == nil {
		conv := llvm.AddBasicBlock(fn, "if.end")
		g.builder.CreateCondBr(cond, thenBB, conv)
		g.builder.SetInsertPointAtEnd(thenBB)
		if err := g.emitBlockStatements(s.Then); err != nil {
			return err
		}
		if !blockTerminated(g.builder) {
			g.builder.CreateBr(conv)
		}
		g.builder.SetInsertPointAtEnd(conv)
		return nil
	}

	elseBB := llvm.AddBasicBlock(fn, "if.else")
	g.builder.CreateCondBr(cond, thenBB, elseBB)

	g.builder.SetInsertPointAtEnd(thenBB)
	if err := g.emitBlockStatements(s.Then); err != nil {
		return err
	}
	thenTerminated := blockTerminated(g.builder)

	g.builder.SetInsertPointAtEnd(elseBB)
	if err := g.emitBlockStatements(s.Else); err != nil {
		return err
	}
	elseTerminated := blockTerminated(g.builder)

	if thenTerminated && elseTerminated {
		return nil
	}
	conv := llvm.AddBasicBlock(fn, "if.end")
	if !thenTerminated {
		g.builder.SetInsertPointAtEnd(thenBB)
		g.builder.CreateBr(conv)
	}
	if !elseTerminated {
		g.builder.SetInsertPointAtEnd(elseBB)
		g.builder.CreateBr(conv)
	}
	g.builder.SetInsertPointAtEnd(conv)
	return nil
}

func blockTerminated(b llvm.Builder) bool {
	return isTerminator(b.GetInsertBlock().LastInstruction())
}

func (g *Generator) emitWhile(s *ast.WhileStatement) error {
	fn := g.builder.GetInsertBlock().Parent()
	head := llvm.AddBasicBlock(fn, "while.head")
	body := llvm.AddBasicBlock(fn, "while.body")
	conv := llvm.AddBasicBlock(fn, "while.end")

	g.loopHeads = append(g.loopHeads, head)
	g.breakTargets = append(g.breakTargets, conv)
	defer func() {
		g.loopHeads = g.loopHeads[:len(g.loopHeads)-1]
		g.breakTargets = g.breakTargets[:len(g.breakTargets)-1]
	}()

	g.builder.CreateBr(head)
	g.builder.SetInsertPointAtEnd(head)
	cond, err := g.emitExpr(s.Cond)
	if err != nil {
		return err
	}
	g.builder.CreateCondBr(cond, body, conv)

	g.builder.SetInsertPointAtEnd(body)
	if err := g.emitBlockStatements(s.Body); err != nil {
		return err
	}
	if !blockTerminated(g.builder) {
		g.builder.CreateBr(head)
	}

	g.builder.SetInsertPointAtEnd(conv)
	return nil
}

// emitFor lowers `for x in a to b { ... }` into a counting while loop; any
// other iterable expression is out of scope for this pass.
func (g *Generator) emitFor(s *ast.ForStatement) error {
	rng, ok := s.Iterable.(*ast.Range)
	if !ok {
		return fmt.Errorf("codegen: only range-based for loops are supported")
	}
	from, err := g.emitExpr(rng.From)
	if err != nil {
		return err
	}
	to, err := g.emitExpr(rng.To)
	if err != nil {
		return err
	}

	fn := g.builder.GetInsertBlock().Parent()
	alloc := g.builder.CreateAlloca(from.Type(), g.uniqueLocalName(s.Var))
	g.builder.CreateStore(from, alloc)
	g.locals[s.Var] = alloc

	head := llvm.AddBasicBlock(fn, "for.head")
	body := llvm.AddBasicBlock(fn, "for.body")
	conv := llvm.AddBasicBlock(fn, "for.end")

	g.loopHeads = append(g.loopHeads, head)
	g.breakTargets = append(g.breakTargets, conv)
	defer func() {
		g.loopHeads = g.loopHeads[:len(g.loopHeads)-1]
		g.breakTargets = g.breakTargets[:len(g.breakTargets)-1]
	}()

	g.builder.CreateBr(head)
	g.builder.SetInsertPointAtEnd(head)
	cur := g.builder.CreateLoad(alloc, "")
	var cmp llvm.Value
	if rng.Exclusive {
		cmp = g.builder.CreateICmp(llvm.IntSLT, cur, to, "")
	} else {
		cmp = g.builder.CreateICmp(llvm.IntSLE, cur, to, "")
	}
	g.builder.CreateCondBr(cmp, body, conv)

	g.builder.SetInsertPointAtEnd(body)
	if err := g.emitBlockStatements(s.Body); err != nil {
		return err
	}
	if !blockTerminated(g.builder) {
		step := llvm.ConstInt(cur.Type(), 1, false)
		next := g.builder.CreateAdd(cur, step, "")
		if rng.Downto {
			next = g.builder.CreateSub(cur, step, "")
		}
		g.builder.CreateStore(next, alloc)
		g.builder.CreateBr(head)
	}

	g.builder.SetInsertPointAtEnd(conv)
	return nil
}

func (g *Generator) emitBreak(s *ast.BreakStatement) error {
	if len(g.breakTargets) == 0 {
		return fmt.Errorf("codegen: break outside a loop")
	}
	if s.Value != nil {
		if _, err := g.emitExpr(s.Value); err != nil {
			return err
		}
	}
	g.builder.CreateBr(g.breakTargets[len(g.breakTargets)-1])
	return nil
}

func (g *Generator) emitContinue() error {
	if len(g.loopHeads) == 0 {
		return fmt.Errorf("codegen: continue outside a loop")
	}
	g.builder.CreateBr(g.loopHeads[len(g.loopHeads)-1])
	return nil
}

// patternBindingName returns the name a `when` case pattern binds its
// matched subject to, or "" if the pattern introduces no binding.
func patternBindingName(p ast.Pattern) string {
	switch p.Kind {
	case ast.PatternIdentifier:
		return p.Name
	case ast.PatternType:
		return p.Name
	default:
		return ""
	}
}

// emitWhen lowers a `when` match statement into a chain of equality
// comparisons against each case's literal pattern; RazorForge/Suflae
// patterns beyond literals and wildcards are out of scope for this pass.
func (g *Generator) emitWhen(s *ast.WhenStatement) error {
	subj, err := g.emitExpr(s.Subject)
	if err != nil {
		return err
	}
	fn := g.builder.GetInsertBlock().Parent()
	conv := llvm.AddBasicBlock(fn, "when.end")

	for _, c := range s.Cases {
		matchBB := llvm.AddBasicBlock(fn, "when.case")
		nextBB := llvm.AddBasicBlock(fn, "when.next")
		if c.Pattern.Kind == ast.PatternLiteral {
			val, err := g.emitLiteral(c.Pattern.Literal)
			if err != nil {
				return err
			}
			cmp := g.builder.CreateICmp(llvm.IntEQ, subj, val, "")
			g.builder.CreateCondBr(cmp, matchBB, nextBB)
		} else {
			g.builder.CreateBr(matchBB) // binding/wildcard/type pattern: always matches
		}

		g.builder.SetInsertPointAtEnd(matchBB)
		// A PatternIdentifier (or a PatternType's trailing binding var) names
		// the matched subject inside the case body, e.g. `when r is v { ... }`.
		if name := patternBindingName(c.Pattern); name != "" {
			alloc := g.builder.CreateAlloca(subj.Type(), g.uniqueLocalName(name))
			g.builder.CreateStore(subj, alloc)
			prev, hadPrev := g.locals[name]
			g.locals[name] = alloc
			if err := g.emitStatement(c.Body); err != nil {
				return err
			}
			if hadPrev {
				g.locals[name] = prev
			} else {
				delete(g.locals, name)
			}
			if !blockTerminated(g.builder) {
				g.builder.CreateBr(conv)
			}
			g.builder.SetInsertPointAtEnd(nextBB)
			continue
		}
		if err := g.emitStatement(c.Body); err != nil {
			return err
		}
		if !blockTerminated(g.builder) {
			g.builder.CreateBr(conv)
		}

		g.builder.SetInsertPointAtEnd(nextBB)
	}
	g.builder.CreateBr(conv)
	g.builder.SetInsertPointAtEnd(conv)
	return nil
}
