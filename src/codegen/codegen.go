// Package codegen implements the Code Generator (spec §4.7): it consumes the
// decorated AST and the semantic analyzer's registries and produces LLVM IR
// text. It performs no type inference of its own; every expression's type
// comes from sema.Analyzer.ResolvedType.
package codegen

import (
	"fmt"
	"sort"

	"tinygo.org/x/go-llvm"

	"razorforge/src/ast"
	"razorforge/src/sema"
	"razorforge/src/symbols"
	"razorforge/src/target"
	"razorforge/src/types"
)

// reservedFunctionNames are identifiers the generator itself defines; a
// RazorForge/Suflae program may not declare a routine under these names
// (mirrors the teacher's reservedFunctionNames list in src/ir/llvm/transform.go,
// generalized from {main, printf, atof, atoi} to this compiler's runtime
// surface).
var reservedFunctionNames = []string{"main", "printf", "__rf_alloc", "__rf_free"}

// Generator walks a program's declarations once structural dependencies are
// known, emitting LLVM IR into a single module. One Generator emits exactly
// one compilation unit's module, matching the single-threaded, sequential
// pipeline of spec §5.
type Generator struct {
	ctx     llvm.Context
	builder llvm.Builder
	module  llvm.Module

	platform target.Platform
	sema     *sema.Analyzer

	// structTypes caches the LLVM struct type built for each aggregate,
	// keyed by its mangled canonical name, so every reference to a given
	// instantiation reuses one llvm.Type (spec §4.7 "exactly one struct
	// definition... appears in the emitted IR" per §8 Testable properties).
	structTypes map[string]llvm.Type

	// funcs caches the declared llvm.Value for every emitted function,
	// keyed by mangled name, mirroring the teacher's `globals` symTab.
	funcs map[string]llvm.Value

	// locals is the innermost function's variable-name -> alloca map. A
	// fresh map is pushed per function; RazorForge/Suflae blocks shadow by
	// source name, not by LLVM register, so unlike the teacher's stack of
	// maps this codegen keeps one map per function and disambiguates
	// shadowed declarations by suffixing a per-name occurrence counter
	// (spec §4.7 "Unique local names").
	locals     map[string]llvm.Value
	localSeq   map[string]int
	breakTargets []llvm.BasicBlock
	loopHeads    []llvm.BasicBlock

	// aggDecls maps an aggregate's declared name to its AST declaration, so
	// field access on a non-generic aggregate (emitMember) can find its
	// field order without a second pass over prog.Declarations.
	aggDecls map[string]ast.Declaration

	// typeSubst is the active generic instantiation's formal-parameter ->
	// concrete-type-name map while its body is being emitted, nil otherwise
	// (spec §4.5, §8 scenarios #1/#2). A template body's bare placeholder
	// type names ("T") are resolved against this map wherever the code
	// generator would otherwise look a type up directly.
	typeSubst map[string]string
}

// NewGenerator constructs a Generator targeting platform, backed by sa's
// resolved types and symbol table. moduleName becomes the LLVM module's
// identifier (conventionally the entry file's base name, as the teacher
// does with filepath.Base(opt.Src)).
func NewGenerator(moduleName string, platform target.Platform, sa *sema.Analyzer) *Generator {
	ctx := llvm.NewContext()
	g := &Generator{
		ctx:         ctx,
		builder:     ctx.NewBuilder(),
		module:      ctx.NewModule(moduleName),
		platform:    platform,
		sema:        sa,
		structTypes: make(map[string]llvm.Type),
		funcs:       make(map[string]llvm.Value),
	}
	g.module.SetTarget(platform.Triple)
	g.module.SetDataLayout(platform.DataLayout)
	return g
}

// Dispose releases the underlying LLVM context and builder.
func (g *Generator) Dispose() {
	g.builder.Dispose()
	g.ctx.Dispose()
}

// Generate emits prog's declarations into the module and returns the
// resulting IR text. Two structural passes per spec §4.7 "Two-pass
// structural emission" (forward-declare aggregates/functions, then define
// bodies), followed by a third pass that walks every generic template's
// recorded instantiations and emits one concrete struct or function per
// instantiation (spec §4.5, §8 scenarios #1/#2) — a generic template itself
// is never emitted; only its instantiations are.
func (g *Generator) Generate(prog *ast.Program) (string, error) {
	for _, name := range reservedFunctionNames {
		if declaresName(prog, name) {
			return "", fmt.Errorf("%q is reserved by the code generator and cannot be declared", name)
		}
	}

	g.aggDecls = make(map[string]ast.Declaration)
	for _, d := range prog.Declarations {
		if name, ok := aggregateName(d); ok {
			g.aggDecls[name] = d
		}
	}

	order, err := topoSortAggregates(prog)
	if err != nil {
		return "", err
	}
	order = filterNonGenericAggregates(order)
	for _, d := range order {
		if err := g.declareAggregate(d); err != nil {
			return "", err
		}
	}
	for _, d := range order {
		if err := g.defineAggregateBody(d); err != nil {
			return "", err
		}
	}

	var funcs []*ast.FunctionDecl
	for _, d := range prog.Declarations {
		if f, ok := d.(*ast.FunctionDecl); ok {
			funcs = append(funcs, f)
		}
		funcs = append(funcs, methodsOf(d)...)
	}
	funcs = filterNonGenericFunctions(funcs)
	for _, f := range funcs {
		if _, err := g.declareFunction(f); err != nil {
			return "", err
		}
	}
	for _, f := range funcs {
		if f.Body == nil {
			continue // external declaration: header only
		}
		if f.Name == "start" {
			if err := g.emitMain(f); err != nil {
				return "", err
			}
			continue
		}
		if err := g.defineFunctionBody(f); err != nil {
			return "", err
		}
	}

	if err := g.emitTemplateInstantiations(); err != nil {
		return "", err
	}

	return g.module.String(), nil
}

// isGenericAggregate reports whether d declares its own generic parameters,
// making it a template rather than a directly-emittable type (spec §4.5).
func isGenericAggregate(d ast.Declaration) bool {
	switch v := d.(type) {
	case *ast.RecordDecl:
		return len(v.GenericParams) > 0
	case *ast.EntityDecl:
		return len(v.GenericParams) > 0
	case *ast.VariantDecl:
		return len(v.GenericParams) > 0
	default:
		return false
	}
}

func filterNonGenericAggregates(order []ast.Declaration) []ast.Declaration {
	out := order[:0:0]
	for _, d := range order {
		if !isGenericAggregate(d) {
			out = append(out, d)
		}
	}
	return out
}

// isGenericFunction reports whether f declares its own or a receiver-bound
// generic parameter list, making it a template rather than a directly
// emittable function (spec §4.5).
func isGenericFunction(f *ast.FunctionDecl) bool {
	return len(f.GenericParams) > 0 || len(f.ReceiverGeneric) > 0
}

func filterNonGenericFunctions(funcs []*ast.FunctionDecl) []*ast.FunctionDecl {
	out := funcs[:0:0]
	for _, f := range funcs {
		if !isGenericFunction(f) {
			out = append(out, f)
		}
	}
	return out
}

// emitTemplateInstantiations walks every registered generic template and
// emits one concrete aggregate struct or function per recorded instantiation
// (spec §4.5, §8 scenarios #1/#2: `identity<s64>`, `TestType<s64>` and its
// `get_value` method). Templates and instantiation keys are visited in
// sorted order so repeated compilations of the same program emit
// byte-identical IR.
func (g *Generator) emitTemplateInstantiations() error {
	templates := g.sema.Reg.Templates()
	keys := make([]string, 0, len(templates))
	for k := range templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Aggregate instantiations must all be forward-declared before any
	// bodies are defined (a generic record can reference another), so this
	// walks every template twice: once to declare, once to define.
	for _, k := range keys {
		tmpl := templates[k]
		argKeys := sortedInstantiationKeys(tmpl)
		for _, ak := range argKeys {
			info := tmpl.Instantiations[ak]
			if isAggregateCategory(info.Category) {
				if err := g.declareInstantiatedAggregate(info); err != nil {
					return err
				}
			}
		}
	}
	for _, k := range keys {
		tmpl := templates[k]
		argKeys := sortedInstantiationKeys(tmpl)
		for _, ak := range argKeys {
			info := tmpl.Instantiations[ak]
			// Variant instantiations have no flattened Fields list (mirrors
			// fieldsOf's non-generic behavior: a Variant's tagged-union body
			// is never synthesized from a plain field list), so only
			// Record/Entity/Resident instantiations get a defined body here.
			if info.Category == types.CatRecord || info.Category == types.CatEntity || info.Category == types.CatResident {
				if err := g.defineInstantiatedAggregateBody(info); err != nil {
					return err
				}
			}
		}
	}

	for _, k := range keys {
		tmpl := templates[k]
		f, ok := tmpl.Decl.(*ast.FunctionDecl)
		if !ok {
			continue
		}
		argKeys := sortedInstantiationKeys(tmpl)
		for _, ak := range argKeys {
			info := tmpl.Instantiations[ak]
			if _, err := g.declareInstantiatedFunction(f, info); err != nil {
				return err
			}
		}
	}
	for _, k := range keys {
		tmpl := templates[k]
		f, ok := tmpl.Decl.(*ast.FunctionDecl)
		if !ok || f.Body == nil {
			continue
		}
		argKeys := sortedInstantiationKeys(tmpl)
		for _, ak := range argKeys {
			info := tmpl.Instantiations[ak]
			if err := g.defineInstantiatedFunctionBody(f, info); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedInstantiationKeys(tmpl *types.Template) []string {
	keys := make([]string, 0, len(tmpl.Instantiations))
	for k := range tmpl.Instantiations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isAggregateCategory(c types.Category) bool {
	switch c {
	case types.CatRecord, types.CatEntity, types.CatResident, types.CatVariant:
		return true
	default:
		return false
	}
}

func declaresName(prog *ast.Program, name string) bool {
	for _, d := range prog.Declarations {
		if f, ok := d.(*ast.FunctionDecl); ok && f.Name == name {
			return true
		}
	}
	return false
}

func methodsOf(d ast.Declaration) []*ast.FunctionDecl {
	switch v := d.(type) {
	case *ast.RecordDecl:
		return v.Methods
	case *ast.EntityDecl:
		return v.Methods
	case *ast.ResidentDecl:
		return v.Methods
	case *ast.ChoiceDecl:
		return v.Methods
	case *ast.VariantDecl:
		return v.Methods
	case *ast.ImplementationDecl:
		return v.Methods
	default:
		return nil
	}
}

// emitMain wraps the zero-parameter `start` routine as `define i32 @main()`
// with an implicit `ret i32 0`, regardless of start's declared return type
// (spec §4.7 Entry point).
func (g *Generator) emitMain(f *ast.FunctionDecl) error {
	fnType := llvm.FunctionType(g.ctx.Int32Type(), nil, false)
	fn := llvm.AddFunction(g.module, "main", fnType)
	entry := llvm.AddBasicBlock(fn, "entry")
	g.builder.SetInsertPointAtEnd(entry)

	g.locals = make(map[string]llvm.Value)
	g.localSeq = make(map[string]int)
	if err := g.emitBlockStatements(f.Body); err != nil {
		return err
	}
	g.builder.CreateRet(llvm.ConstInt(g.ctx.Int32Type(), 0, false))
	return nil
}

// symbolOf is a convenience lookup into sema's global symbol table, used by
// call emission to find arity/params without re-deriving them from the AST.
func (g *Generator) symbolOf(name string) (*symbols.Symbol, bool) {
	return g.sema.Types.Lookup(name)
}

func (g *Generator) typeRegistry() *types.Registry { return g.sema.Reg }
