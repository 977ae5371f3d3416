package codegen

import (
	"fmt"
	"strings"

	"tinygo.org/x/go-llvm"

	"razorforge/src/ast"
	"razorforge/src/types"
)

// llvmType maps a resolved TypeInfo to its LLVM representation by category:
//
//	Record (single-field, e.g. s32)  -> the wrapped intrinsic type directly
//	Record (multi-field)             -> a named LLVM struct literal
//	Entity                           -> pointer to the entity's struct
//	Resident                         -> fixed-layout struct, program lifetime
//	Choice                           -> i32, whatever the case count
//	Variant                          -> a named struct whose body is never
//	                                    set: no tag and no payload union
//	Mutant                           -> a named struct with its fields laid
//	                                    out one after another, not overlapping
func (g *Generator) llvmType(info *types.TypeInfo) (llvm.Type, error) {
	if info == nil {
		return llvm.Type{}, fmt.Errorf("codegen: nil TypeInfo reached llvmType")
	}
	if info.IsSingleField && info.LLVMUnderlying != "" {
		return g.llvmUnderlying(info.LLVMUnderlying)
	}
	name := types.MangledName(info.Name)
	if t, ok := g.structTypes[name]; ok {
		return t, nil
	}
	switch info.Category {
	case types.CatEntity:
		elem := g.ctx.StructCreateNamed(name)
		g.structTypes[name] = llvm.PointerType(elem, 0)
		return g.structTypes[name], nil
	case types.CatRecord, types.CatResident, types.CatVariant, types.CatMutant:
		st := g.ctx.StructCreateNamed(name)
		g.structTypes[name] = st
		return st, nil
	case types.CatChoice:
		// Always 32 bits; the case count does not change the width.
		t := g.ctx.Int32Type()
		g.structTypes[name] = t
		return t, nil
	default:
		return llvm.Type{}, fmt.Errorf("codegen: unmappable type category for %q", info.Name)
	}
}

// llvmUnderlying parses one of the fixed LLVMUnderlying strings the type
// registry assigns to intrinsic/single-field records ("i32", "double",
// "ptr", ...) into the corresponding llvm.Type.
func (g *Generator) llvmUnderlying(name string) (llvm.Type, error) {
	switch name {
	case "i1":
		return g.ctx.Int1Type(), nil
	case "i8":
		return g.ctx.Int8Type(), nil
	case "i16":
		return g.ctx.Int16Type(), nil
	case "i32":
		return g.ctx.Int32Type(), nil
	case "i64":
		return g.ctx.Int64Type(), nil
	case "i128":
		return g.ctx.IntType(128), nil
	case "half":
		return g.ctx.HalfType(), nil
	case "float":
		return g.ctx.FloatType(), nil
	case "double":
		return g.ctx.DoubleType(), nil
	case "fp128":
		return g.ctx.FP128Type(), nil
	case "ptr":
		return llvm.PointerType(g.ctx.Int8Type(), 0), nil
	case "void":
		return g.ctx.VoidType(), nil
	default:
		return llvm.Type{}, fmt.Errorf("codegen: unknown LLVM underlying type %q", name)
	}
}

// declareAggregate forward-declares an opaque named struct for d, if it
// introduces one, so recursive/re-entrant aggregate references resolve
// during pass 1 without needing the field types yet (spec §4.7 "Re-entrant
// types use opaque pointer forward declarations").
func (g *Generator) declareAggregate(d ast.Declaration) error {
	info, ok := g.aggregateTypeInfo(d)
	if !ok {
		return nil
	}
	_, err := g.llvmType(info)
	return err
}

// defineAggregateBody fills in the field types of a previously
// forward-declared struct. Entities store their struct body behind the
// pointer created in declareAggregate.
func (g *Generator) defineAggregateBody(d ast.Declaration) error {
	info, ok := g.aggregateTypeInfo(d)
	if !ok {
		return nil
	}
	fields, ok := fieldsOf(d)
	if !ok {
		return nil
	}
	elems := make([]llvm.Type, 0, len(fields))
	for _, f := range fields {
		ft, ok := g.resolveFieldType(f.Type)
		if !ok {
			return fmt.Errorf("codegen: field %q of %q has unresolved type", f.Name, info.Name)
		}
		elems = append(elems, ft)
	}
	name := types.MangledName(info.Name)
	st, ok := g.structTypes[name]
	if !ok {
		return fmt.Errorf("codegen: %q was not forward-declared before body definition", info.Name)
	}
	if info.Category == types.CatEntity {
		st = st.ElementType() // unwrap the pointer created in declareAggregate
	}
	st.StructSetBody(elems, false)
	return nil
}

// resolveFieldType resolves a field/parameter/return TypeExpr to its LLVM
// representation. Inside an instantiated generic template's body (g.typeSubst
// set), t's name is first rendered through the active substitution so a bare
// placeholder ("T") or a type built from one ("List<T>") resolves to the
// concrete type this instantiation binds it to; outside a template body the
// substitution is a no-op (spec §4.5, §8 scenarios #1/#2). A name not yet in
// the registry is resolved through sema, which instantiates the template it
// names on demand.
func (g *Generator) resolveFieldType(t *ast.TypeExpr) (llvm.Type, bool) {
	if t == nil {
		return llvm.Type{}, false
	}
	name := g.substituteTypeName(t)
	info, ok := g.sema.Reg.Lookup(name)
	if !ok {
		info, ok = g.sema.ResolveTypeName(name)
		if !ok {
			return llvm.Type{}, false
		}
	}
	lt, err := g.llvmType(info)
	if err != nil {
		return llvm.Type{}, false
	}
	return lt, true
}

// substituteTypeName renders t's canonical name with the active generic
// instantiation's formal-to-concrete substitution applied, recursively
// through its type arguments (spec §4.5).
func (g *Generator) substituteTypeName(t *ast.TypeExpr) string {
	if g.typeSubst == nil {
		return typeExprCanonical(t)
	}
	if t == nil {
		return ""
	}
	if len(t.Args) == 0 {
		if concrete, ok := g.typeSubst[t.Name]; ok {
			return concrete
		}
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = g.substituteTypeName(a)
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}

// substType maps a generic template body's placeholder TypeInfo (the "T" in
// `value: T`) onto the concrete type the active instantiation binds it to
// (spec §4.5). Returns info unchanged outside an instantiation's body, or
// when info isn't itself a bare generic parameter.
func (g *Generator) substType(info *types.TypeInfo) *types.TypeInfo {
	if info == nil || g.typeSubst == nil || !info.IsGenericParameter {
		return info
	}
	concrete, ok := g.typeSubst[info.Name]
	if !ok {
		return info
	}
	if resolved, ok := g.sema.ResolveTypeName(concrete); ok {
		return resolved
	}
	return info
}

func (g *Generator) aggregateTypeInfo(d ast.Declaration) (*types.TypeInfo, bool) {
	name, ok := aggregateName(d)
	if !ok {
		return nil, false
	}
	return g.sema.Reg.Lookup(name)
}

// declareInstantiatedAggregate forward-declares the LLVM struct for one
// generic aggregate instantiation, keyed by its fully substituted name
// rather than the template's own (spec §4.5, §8 scenario #2).
func (g *Generator) declareInstantiatedAggregate(info *types.TypeInfo) error {
	_, err := g.llvmType(info)
	return err
}

// defineInstantiatedAggregateBody fills in an instantiation's struct body
// directly from its already-substituted Fields list; unlike a non-generic
// aggregate, an instantiation's field types never need re-resolving off the
// AST (spec §4.5, §8 scenario #2).
func (g *Generator) defineInstantiatedAggregateBody(info *types.TypeInfo) error {
	elems := make([]llvm.Type, 0, len(info.Fields))
	for _, f := range info.Fields {
		ft, err := g.llvmType(f.Type)
		if err != nil {
			return fmt.Errorf("codegen: field %q of %q has unresolved type: %w", f.Name, info.Name, err)
		}
		elems = append(elems, ft)
	}
	name := types.MangledName(info.Name)
	st, ok := g.structTypes[name]
	if !ok {
		return fmt.Errorf("codegen: %q was not forward-declared before body definition", info.Name)
	}
	if info.Category == types.CatEntity {
		st = st.ElementType()
	}
	st.StructSetBody(elems, false)
	return nil
}

func aggregateName(d ast.Declaration) (string, bool) {
	switch v := d.(type) {
	case *ast.RecordDecl:
		return v.Name, true
	case *ast.EntityDecl:
		return v.Name, true
	case *ast.ResidentDecl:
		return v.Name, true
	case *ast.ChoiceDecl:
		return v.Name, true
	case *ast.VariantDecl:
		return v.Name, true
	case *ast.MutantDecl:
		return v.Name, true
	default:
		return "", false
	}
}

func fieldsOf(d ast.Declaration) ([]ast.Field, bool) {
	switch v := d.(type) {
	case *ast.RecordDecl:
		return v.Fields, true
	case *ast.EntityDecl:
		return v.Fields, true
	case *ast.ResidentDecl:
		return v.Fields, true
	case *ast.MutantDecl:
		return v.Fields, true
	default:
		return nil, false
	}
}

// topoSortAggregates orders aggregate declarations so that a field
// referencing another aggregate type is emitted after that type is at
// least forward-declared, per spec §4.7's "build a dependency graph (record
// fields depend on other record types)".
func topoSortAggregates(prog *ast.Program) ([]ast.Declaration, error) {
	var aggs []ast.Declaration
	index := make(map[string]int)
	for _, d := range prog.Declarations {
		if name, ok := aggregateName(d); ok {
			index[name] = len(aggs)
			aggs = append(aggs, d)
		}
	}

	visited := make([]int, len(aggs)) // 0 unvisited, 1 in-progress, 2 done
	var order []ast.Declaration
	var visit func(i int) error
	visit = func(i int) error {
		switch visited[i] {
		case 1:
			name, _ := aggregateName(aggs[i])
			return fmt.Errorf("codegen: cyclic aggregate dependency involving %q", name)
		case 2:
			return nil
		}
		visited[i] = 1
		if fields, ok := fieldsOf(aggs[i]); ok {
			for _, f := range fields {
				if f.Type == nil {
					continue
				}
				if dep, ok := index[f.Type.Name]; ok && dep != i {
					if err := visit(dep); err != nil {
						return err
					}
				}
			}
		}
		visited[i] = 2
		order = append(order, aggs[i])
		return nil
	}
	for i := range aggs {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return order, nil
}
