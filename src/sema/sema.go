// Package sema implements the Semantic Analyzer (spec §4.3): symbol
// resolution, type resolution and inference, protocol conformance, generic
// template matching, naming-rule enforcement, and the fallible-function
// variant derivation table. It is the one stage that must see the whole
// program at once (every top-level declaration registered before any
// function body is checked), mirroring the teacher's two-pass
// ir.BuildSymbolTable-then-ir.ValidateTree staging in src/ir/symtab.go and
// src/ir/validate.go, generalized from VSL's single int/float distinction
// to the full protocol-based registry in src/types.
package sema

import (
	"strings"

	"razorforge/src/ast"
	"razorforge/src/diag"
	"razorforge/src/generics"
	"razorforge/src/memory"
	"razorforge/src/module"
	"razorforge/src/source"
	"razorforge/src/symbols"
	"razorforge/src/types"
)

// Analyzer holds the registries built up across both passes and the
// diagnostic sink they report to.
type Analyzer struct {
	diags *diag.Bag
	Types *symbols.Table
	Reg   *types.Registry

	danger int               // >0 while walking inside a danger block
	fn     *ast.FunctionDecl // innermost enclosing function, for Crashable/usurping checks
	mem    *memory.Analyzer

	// resolved is the side table backing ResolvedType: every Expression's
	// inferred type, keyed by NodeID rather than written into the node
	// itself (ast.go: "semantic analysis decorates them via side tables
	// keyed by NodeID instead of writing into the nodes"). The code
	// generator reads this and performs no type inference of its own
	// (spec §4.7).
	resolved map[ast.NodeID]*types.TypeInfo

	// resolvedCallee backs ResolvedCallee: the instantiated function/method
	// TypeInfo (Category CatFunction) a *ast.GenericCall or
	// *ast.GenericMethodCall node resolved to, keyed by NodeID. Recorded
	// separately from resolved because that side table holds each
	// expression's *value* type (the call's return type), not the callee
	// itself that codegen must mangle a name for (spec §4.5, §8 scenarios
	// #1/#2).
	resolvedCallee map[ast.NodeID]*types.TypeInfo

	// unitScopes holds each loaded unit's own top-level declaration scope,
	// keyed by its canonical import path, so a later unit's import overlay
	// can splice in exactly the symbols it names (see AnalyzeUnits, spec
	// §4.6).
	unitScopes map[string]*symbols.Scope
	pending    []pendingUnit
}

// pendingUnit is one unit registered by AnalyzeUnits, queued for the
// body-checking pass once every unit's own declarations are registered.
type pendingUnit struct {
	path    string
	prog    *ast.Program
	imports []module.ImportSpec
}

// NewAnalyzer returns an Analyzer with a fresh symbol table and type
// registry, reporting to diags.
func NewAnalyzer(diags *diag.Bag) *Analyzer {
	return &Analyzer{
		diags:          diags,
		Types:          symbols.NewTable(),
		Reg:            types.NewRegistry(),
		resolved:       make(map[ast.NodeID]*types.TypeInfo),
		resolvedCallee: make(map[ast.NodeID]*types.TypeInfo),
	}
}

// ResolvedType returns e's inferred type, as recorded during Analyze. Absent
// for expressions whose type could not be determined (already diagnosed).
func (a *Analyzer) ResolvedType(e ast.Expression) (*types.TypeInfo, bool) {
	t, ok := a.resolved[e.ID()]
	return t, ok
}

// ResolvedCallee returns the instantiated function/method TypeInfo a generic
// call expression (*ast.GenericCall, *ast.GenericMethodCall) resolved to,
// so the code generator can mangle its concrete instantiation name without
// re-deriving the substitution itself (spec §4.5, §8 scenarios #1/#2).
func (a *Analyzer) ResolvedCallee(e ast.Expression) (*types.TypeInfo, bool) {
	t, ok := a.resolvedCallee[e.ID()]
	return t, ok
}

// ResolveTypeName looks up (or instantiates) the TypeInfo denoted by a
// canonical type name, e.g. "TestType<s64>". Exported so the code generator
// can resolve a generic instantiation's field/parameter types without
// duplicating the generic-resolution logic that lives in this package
// (spec §4.5, §4.7).
func (a *Analyzer) ResolveTypeName(name string) (*types.TypeInfo, bool) {
	info := a.resolveTypeByName(name, source.Location{})
	return info, info != nil
}

// Analyze runs both passes over prog: declaration registration (including
// naming enforcement and fallible-variant derivation), then per-function
// body checking (type inference, memory analysis, danger gating).
func (a *Analyzer) Analyze(prog *ast.Program) {
	for _, d := range prog.Declarations {
		a.registerDecl(d)
	}
	for _, d := range prog.Declarations {
		if f, ok := d.(*ast.FunctionDecl); ok {
			a.checkFunctionBody(f)
		}
		if impl, ok := d.(*ast.ImplementationDecl); ok {
			for _, m := range impl.Methods {
				a.checkFunctionBody(m)
			}
		}
		a.checkMethodsOf(d)
	}
}

// AnalyzeUnits runs two-pass analysis across every unit module.Resolver
// loaded, scoping each unit's visible symbols to its own top-level
// declarations plus exactly what its own import declarations name —
// selectively and/or under an alias — rather than the whole transitively
// loaded closure (spec §4.6: "Symbols are not transitively re-exported;
// each importer must explicitly import what it uses"). The prelude unit
// (module.Unit.IsPrelude) registers straight into the shared global scope,
// so its names stay visible everywhere without an explicit import, matching
// module.Resolver's own "auto-loaded into every compilation's global scope"
// treatment of it.
func (a *Analyzer) AnalyzeUnits(units []*module.Unit) {
	for _, u := range units {
		a.registerUnit(u)
	}
	for _, u := range a.pending {
		a.checkUnit(u)
	}
}

// registerUnit enters one unit's own top-level declarations into a scope
// private to it (or the shared global scope, for the prelude), then queues
// it for body-checking once every unit has been registered.
func (a *Analyzer) registerUnit(u *module.Unit) {
	if a.unitScopes == nil {
		a.unitScopes = make(map[string]*symbols.Scope)
	}
	home := a.Types.Global()
	if !u.IsPrelude {
		home = symbols.NewDetachedScope(false)
	}
	prevTop := a.Types.Current()
	a.Types.SetTop(home)
	for _, d := range u.Program.Declarations {
		a.registerDecl(d)
	}
	a.Types.SetTop(prevTop)

	a.unitScopes[u.Path] = home
	a.pending = append(a.pending, pendingUnit{path: u.Path, prog: u.Program, imports: u.Imports})
}

// checkUnit splices u's import overlay in as its own scope's parent, then
// checks its function bodies against that chain: u's own declarations
// first, then exactly the symbols its imports name, then the prelude's
// global scope — never another unit's declarations it didn't itself import.
func (a *Analyzer) checkUnit(u pendingUnit) {
	home := a.unitScopes[u.path]
	if home != a.Types.Global() {
		overlay := symbols.NewDetachedScope(false)
		overlay.SetParent(a.Types.Global())
		for _, imp := range u.imports {
			src, ok := a.unitScopes[imp.Path]
			if !ok {
				continue
			}
			a.spliceImport(overlay, src, imp)
		}
		home.SetParent(overlay)
	}

	prevTop := a.Types.Current()
	a.Types.SetTop(home)
	for _, d := range u.prog.Declarations {
		if f, ok := d.(*ast.FunctionDecl); ok {
			a.checkFunctionBody(f)
		}
		if impl, ok := d.(*ast.ImplementationDecl); ok {
			for _, m := range impl.Methods {
				a.checkFunctionBody(m)
			}
		}
		a.checkMethodsOf(d)
	}
	a.Types.SetTop(prevTop)
}

// spliceImport copies the symbols src exports into overlay, honoring imp's
// selective list (only the named symbols become visible) and alias (the
// imported unit's own name for itself, not a per-symbol rename — spec §4.6
// `import A/B/C as X` binds the whole imported namespace to X while
// `import A/B/C/{Y, Z}` admits only Y and Z unqualified).
func (a *Analyzer) spliceImport(overlay, src *symbols.Scope, imp module.ImportSpec) {
	selective := make(map[string]bool, len(imp.Selective))
	for _, name := range imp.Selective {
		selective[name] = true
	}
	for name, sym := range src.Names() {
		if len(selective) > 0 && !selective[name] {
			continue
		}
		if sym.Vis == ast.VisPrivate {
			continue
		}
		overlay.Insert(sym)
	}
}

// checkMethodsOf walks the method lists of aggregate declarations, which
// registerDecl already entered into the symbol table as standalone
// FunctionDecl symbols but whose bodies still need checking.
func (a *Analyzer) checkMethodsOf(d ast.Declaration) {
	var methods []*ast.FunctionDecl
	switch v := d.(type) {
	case *ast.RecordDecl:
		methods = v.Methods
	case *ast.EntityDecl:
		methods = v.Methods
	case *ast.ResidentDecl:
		methods = v.Methods
	case *ast.ChoiceDecl:
		methods = v.Methods
	case *ast.VariantDecl:
		methods = v.Methods
	}
	for _, m := range methods {
		a.checkFunctionBody(m)
	}
}

func (a *Analyzer) errorf(kind diag.Kind, loc source.Location, format string, args ...interface{}) {
	a.diags.Add(diag.Errorf(kind, loc, format, args...))
}

// registerDecl enters one top-level declaration into the symbol table and
// type registry, enforcing naming rules, field-type nesting rules (spec §3
// Invariants, §4.3) and, for `!`-suffixed functions, deriving the safe
// try_/check_/find_ variants (spec §4.3).
func (a *Analyzer) registerDecl(d ast.Declaration) {
	switch v := d.(type) {
	case *ast.FunctionDecl:
		a.registerFunction(v)
	case *ast.RecordDecl:
		a.registerAggregate(v.Name, types.CatRecord, v.GenericParams, v.Follows, v.Vis, v, v.Location())
		for _, f := range v.Fields {
			a.checkFieldTypeNesting(f.Type)
		}
		for _, m := range v.Methods {
			a.registerFunction(m)
		}
	case *ast.EntityDecl:
		a.registerAggregate(v.Name, types.CatEntity, v.GenericParams, v.Follows, v.Vis, v, v.Location())
		for _, f := range v.Fields {
			a.checkFieldTypeNesting(f.Type)
		}
		for _, m := range v.Methods {
			a.registerFunction(m)
		}
	case *ast.ResidentDecl:
		a.registerAggregate(v.Name, types.CatResident, nil, nil, v.Vis, v, v.Location())
		for _, f := range v.Fields {
			a.checkFieldTypeNesting(f.Type)
		}
		for _, m := range v.Methods {
			a.registerFunction(m)
		}
	case *ast.ChoiceDecl:
		a.registerAggregate(v.Name, types.CatChoice, nil, nil, v.Vis, v, v.Location())
		for _, m := range v.Methods {
			a.registerFunction(m)
		}
	case *ast.VariantDecl:
		a.registerAggregate(v.Name, types.CatVariant, v.GenericParams, nil, v.Vis, v, v.Location())
		for _, c := range v.Cases {
			a.checkFieldTypeNesting(c.Payload)
		}
		for _, m := range v.Methods {
			a.registerFunction(m)
		}
	case *ast.MutantDecl:
		a.registerAggregate(v.Name, types.CatMutant, nil, nil, v.Vis, v, v.Location())
	case *ast.ProtocolDecl:
		a.registerAggregate(v.Name, types.CatProtocol, nil, nil, v.Vis, v, v.Location())
	case *ast.ImplementationDecl:
		for _, m := range v.Methods {
			a.registerFunction(m)
		}
	case *ast.PresetDecl:
		sym := &symbols.Symbol{Name: v.Name, Kind: symbols.KindVariable, Vis: v.Vis, Loc: v.Location(), Decl: v, VarType: v.Type}
		a.insert(sym)
	case *ast.VariableDecl:
		sym := &symbols.Symbol{Name: v.Name, Kind: symbols.KindVariable, Vis: v.Vis, Loc: v.Location(), Decl: v, VarType: v.Type, Mutable: v.Mutable}
		a.insert(sym)
	case *ast.ImportDecl, *ast.NamespaceDecl, *ast.ExternalDecl:
		// Module resolution (src/module) owns import/namespace wiring;
		// external declarations are not entered into the symbol table.
	}
}

// checkFieldTypeNesting enforces spec §3's invariants that Maybe/Result/
// Lookup never nest in each other, and spec §4.3(b)'s rule that Result<T>/
// Lookup<T> can never be a field or collection-element type (only returned
// from a fallible-variant call). t is the field/payload type being declared;
// nil (a payload-less variant case) is a no-op.
func (a *Analyzer) checkFieldTypeNesting(t *ast.TypeExpr) {
	if t == nil {
		return
	}
	if outer := types.ClassifyErrorHandlingGeneric(t.Name); outer == types.ResultGeneric || outer == types.LookupGeneric {
		a.errorf(diag.KindStoreResultOrLookup, t.Location(), "%q cannot appear as a field or collection-element type", typeExprName(t))
	}
	for _, arg := range t.Args {
		if inner := types.ClassifyErrorHandlingGeneric(arg.Name); inner != types.NotErrorHandling {
			a.errorf(diag.KindForbiddenNesting, arg.Location(), "%q cannot nest inside %q: Maybe/Result/Lookup can never nest", typeExprName(arg), t.Name)
		}
		a.checkFieldTypeNesting(arg)
	}
}

// joinGenericParamNames renders a generic-parameter list as its canonical,
// comma-joined template-key form, e.g. [T, U] -> "T, U".
func joinGenericParamNames(gp []ast.GenericParam) string {
	names := make([]string, len(gp))
	for i, g := range gp {
		names[i] = g.Name
	}
	return strings.Join(names, ", ")
}

func (a *Analyzer) registerAggregate(name string, cat types.Category, gp []ast.GenericParam, follows []string, vis ast.Visibility, decl ast.Declaration, loc source.Location) {
	var kind symbols.Kind
	switch cat {
	case types.CatRecord:
		kind = symbols.KindRecord
	case types.CatEntity:
		kind = symbols.KindEntity
	case types.CatResident:
		kind = symbols.KindResident
	case types.CatChoice:
		kind = symbols.KindChoice
	case types.CatVariant:
		kind = symbols.KindVariant
	case types.CatProtocol:
		kind = symbols.KindProtocol
	default:
		kind = symbols.KindRecord
	}
	if err := a.Types.Insert(&symbols.Symbol{Name: name, Kind: kind, Vis: vis, Loc: loc}); err != nil {
		a.errorf(diag.KindDuplicateDeclaration, loc, "%s", err)
	}
	ps := types.NewProtocolSet()
	for _, pr := range follows {
		if p, ok := protocolByName[pr]; ok {
			ps = ps.With(p)
		}
	}
	if len(gp) > 0 {
		params := make([]string, len(gp))
		for i, g := range gp {
			params[i] = g.Name
		}
		tmpl := a.Reg.RegisterTemplate(name+"<"+joinGenericParamNames(gp)+">", params)
		tmpl.Decl = decl
		return
	}
	a.Reg.Register(&types.TypeInfo{Name: name, Category: cat, Protocols: ps})
}

var protocolByName = map[string]types.Protocol{
	"Numeric": types.Numeric, "SignedInteger": types.SignedInteger,
	"UnsignedInteger": types.UnsignedInteger, "FloatingPoint": types.FloatingPoint,
	"FixedWidth": types.FixedWidth, "Equatable": types.Equatable,
	"Comparable": types.Comparable, "Hashable": types.Hashable,
	"Parsable": types.Parsable, "Printable": types.Printable,
	"Copyable": types.Copyable, "Movable": types.Movable,
	"Droppable": types.Droppable, "Crashable": types.Crashable,
	"Iterable": types.Iterable, "Indexable": types.Indexable,
	"Collection": types.Collection,
}

// registerFunction enforces the naming rules (spec §4.3), registers f
// itself in the symbol table, registers it as a generic template when it
// has its own or a receiver-bound generic parameter list (spec §4.5 Generic
// Resolver, §8 scenarios #1/#2), and — for a `!`-suffixed function whose
// body throws or goes absent — derives and registers its safe variants.
func (a *Analyzer) registerFunction(f *ast.FunctionDecl) {
	a.checkNaming(f)

	sym := &symbols.Symbol{
		Name: f.Name, Kind: symbols.KindFunction, Vis: f.Vis, Loc: f.Location(),
		Params: f.Params, ReturnType: f.ReturnType, GenericParams: f.GenericParams,
		ReceiverGeneric: f.ReceiverGeneric, Receiver: f.Receiver,
		Convention: f.Convention, IsExternal: f.IsExternal, IsUsurping: f.IsUsurping,
		Crashable: f.Crashable, Decl: f,
	}
	a.insert(sym)

	switch {
	case len(f.GenericParams) > 0:
		// Free generic routine, e.g. `routine identity<T>(x: T) -> T`.
		tmpl := a.Reg.RegisterTemplate(f.Name+"<"+joinGenericParamNames(f.GenericParams)+">", genericParamNames(f.GenericParams))
		tmpl.Decl = f
	case len(f.ReceiverGeneric) > 0 && f.Receiver != nil:
		// Generic method bound through its receiver's own type parameters,
		// e.g. `routine TestType<T>.get_value() -> T`.
		key := f.Receiver.Name + "<" + joinGenericParamNames(f.ReceiverGeneric) + ">." + f.Name
		tmpl := a.Reg.RegisterTemplate(key, genericParamNames(f.ReceiverGeneric))
		tmpl.Decl = f
	}

	if !f.Crashable || f.Body == nil {
		return
	}
	throws := blockThrows(f.Body)
	goesAbsent := blockAbsents(f.Body)
	a.deriveVariants(f, throws, goesAbsent)
}

// genericParamNames extracts the formal parameter names of gp, in order.
func genericParamNames(gp []ast.GenericParam) []string {
	names := make([]string, len(gp))
	for i, g := range gp {
		names[i] = g.Name
	}
	return names
}

func (a *Analyzer) insert(sym *symbols.Symbol) {
	if err := a.Types.Insert(sym); err != nil {
		a.errorf(diag.KindDuplicateDeclaration, sym.Loc, "%s", err)
	}
}

// typeExprName canonicalizes a parsed TypeExpr into the registry's
// canonical dotted/angle-bracket string form, nil-safe for an omitted
// (inferred/void) type.
func typeExprName(t *ast.TypeExpr) string {
	if t == nil {
		return ""
	}
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = typeExprName(a)
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}

// resolveTypeExpr looks up (or, for a generic instantiation, builds and
// caches) the TypeInfo a TypeExpr denotes.
func (a *Analyzer) resolveTypeExpr(t *ast.TypeExpr) *types.TypeInfo {
	if t == nil {
		return nil
	}
	return a.resolveTypeByName(typeExprName(t), t.Location())
}

// resolveTypeByName resolves a canonical type name to a TypeInfo,
// instantiating a registered generic aggregate/free-function template on
// demand with fully substituted field/parameter types (spec §4.5, §8
// scenarios #1/#2).
func (a *Analyzer) resolveTypeByName(name string, loc source.Location) *types.TypeInfo {
	if info, ok := a.Reg.Lookup(name); ok {
		return info
	}
	for _, key := range generics.GenerateTemplateCandidates(name, "") {
		key = strings.TrimSuffix(key, ".")
		tmpl, ok := a.Reg.Template(key)
		if !ok {
			continue
		}
		if key == name {
			// name is the template's own un-substituted generic name,
			// reached while self-checking the template's own body (e.g. a
			// method's `me: TestType<T>` receiver type, or a field of the
			// template's own generic parameter type). Defer resolution to
			// real call/instantiation sites rather than caching a bogus
			// self-instantiation.
			return nil
		}
		return a.instantiateTemplate(tmpl, name, loc)
	}
	a.errorf(diag.KindUnknownType, loc, "unknown type %q", name)
	return nil
}

// instantiateTemplate substitutes tmpl's generic parameters with the
// concrete arguments carried by concreteName and caches the result, keyed
// by the (template, concrete name) pair so the same instantiation is never
// built twice (spec §3 Invariants: idempotent instantiation).
func (a *Analyzer) instantiateTemplate(tmpl *types.Template, concreteName string, loc source.Location) *types.TypeInfo {
	subst, ok := generics.IsInstanceOf(concreteName, tmpl.Key)
	if !ok {
		a.errorf(diag.KindArityMismatch, loc, "%q is not a valid instantiation of template %q", concreteName, tmpl.Key)
		return nil
	}
	info, _ := a.Reg.Instantiate(tmpl.Key, concreteName, func() *types.TypeInfo {
		return a.buildInstantiation(tmpl, concreteName, subst)
	})
	return info
}

// buildInstantiation dispatches to the aggregate- or function-shaped
// builder depending on what kind of declaration tmpl was registered from.
func (a *Analyzer) buildInstantiation(tmpl *types.Template, concreteName string, subst generics.SubstitutionMap) *types.TypeInfo {
	switch d := tmpl.Decl.(type) {
	case *ast.RecordDecl:
		return a.buildAggregateInstantiation(concreteName, types.CatRecord, d.Fields, d.Follows, tmpl, subst)
	case *ast.EntityDecl:
		return a.buildAggregateInstantiation(concreteName, types.CatEntity, d.Fields, d.Follows, tmpl, subst)
	case *ast.ResidentDecl:
		return a.buildAggregateInstantiation(concreteName, types.CatResident, d.Fields, nil, tmpl, subst)
	case *ast.VariantDecl:
		return a.buildAggregateInstantiation(concreteName, types.CatVariant, nil, nil, tmpl, subst)
	case *ast.FunctionDecl:
		return a.buildFunctionInstantiation(concreteName, d, subst)
	default:
		return &types.TypeInfo{Name: concreteName, Category: types.CatRecord}
	}
}

// buildAggregateInstantiation resolves every field of a generic aggregate
// template against subst, producing a fully concrete TypeInfo the code
// generator can lay out directly (spec §8 scenario #2).
func (a *Analyzer) buildAggregateInstantiation(name string, cat types.Category, astFields []ast.Field, follows []string, tmpl *types.Template, subst generics.SubstitutionMap) *types.TypeInfo {
	fields := make([]types.Field, 0, len(astFields))
	for _, f := range astFields {
		fields = append(fields, types.Field{Name: f.Name, Type: a.resolveSubstitutedType(f.Type, subst)})
	}
	ps := types.NewProtocolSet()
	for _, pr := range follows {
		if p, ok := protocolByName[pr]; ok {
			ps = ps.With(p)
		}
	}
	return &types.TypeInfo{
		Name: name, Category: cat, Protocols: ps,
		Fields: fields, GenericArguments: a.genericArgumentsOf(tmpl, subst),
		Substitution: map[string]string(subst),
	}
}

// buildFunctionInstantiation resolves a generic free function's parameter
// and return types against subst (spec §8 scenario #1).
func (a *Analyzer) buildFunctionInstantiation(name string, f *ast.FunctionDecl, subst generics.SubstitutionMap) *types.TypeInfo {
	params := make([]types.Field, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, types.Field{Name: p.Name, Type: a.resolveSubstitutedType(p.Type, subst)})
	}
	var ret *types.TypeInfo
	if f.ReturnType != nil {
		ret = a.resolveSubstitutedType(f.ReturnType, subst)
	}
	return &types.TypeInfo{
		Name: name, Category: types.CatFunction,
		Params: params, Return: ret, Substitution: map[string]string(subst),
	}
}

// genericArgumentsOf resolves tmpl's formal parameters, in declared order,
// to the concrete TypeInfo each was bound to by subst. A generic method
// template instantiated against this aggregate later zips its own
// ReceiverGeneric list positionally against this slice (spec §4.5).
func (a *Analyzer) genericArgumentsOf(tmpl *types.Template, subst generics.SubstitutionMap) []*types.TypeInfo {
	args := make([]*types.TypeInfo, 0, len(tmpl.Params))
	for _, p := range tmpl.Params {
		concrete, ok := subst[p]
		if !ok {
			continue
		}
		args = append(args, a.resolveTypeByName(concrete, source.Location{}))
	}
	return args
}

// resolveSubstitutedType substitutes any bound generic parameter names in t
// per subst, then resolves the result, recursively instantiating any nested
// generic type this produces (spec §4.5).
func (a *Analyzer) resolveSubstitutedType(t *ast.TypeExpr, subst generics.SubstitutionMap) *types.TypeInfo {
	if t == nil {
		return nil
	}
	substituted := generics.Substitute(typeExprName(t), subst)
	return a.resolveTypeByName(substituted, t.Location())
}

// instantiateMethodTemplate substitutes a generic method template's own
// parameter/return types using the concrete generic arguments already
// resolved onto recvInfo (spec §4.5, §8 scenario #2: `TestType<s64>.
// get_value`). Method templates are keyed with a dotted concrete name that
// ExtractTypeArguments cannot re-split (it requires a trailing ">"), so the
// substitution map is built by positionally zipping the template's
// ReceiverGeneric parameters against recvInfo.GenericArguments instead of
// string-reparsing the concrete name.
func (a *Analyzer) instantiateMethodTemplate(tmpl *types.Template, recvInfo *types.TypeInfo, loc source.Location) *types.TypeInfo {
	f, ok := tmpl.Decl.(*ast.FunctionDecl)
	if !ok {
		return nil
	}
	subst := make(generics.SubstitutionMap, len(f.ReceiverGeneric))
	for i, gp := range f.ReceiverGeneric {
		if i < len(recvInfo.GenericArguments) && recvInfo.GenericArguments[i] != nil {
			subst[gp.Name] = recvInfo.GenericArguments[i].Name
		}
	}
	concreteName := recvInfo.Name + "." + f.Name
	info, _ := a.Reg.Instantiate(tmpl.Key, concreteName, func() *types.TypeInfo {
		return a.buildFunctionInstantiation(concreteName, f, subst)
	})
	return info
}

// resolveMethodCall resolves the concrete TypeInfo for a call to method on
// a receiver typed recvInfo, instantiating a generic method template from
// the pack's candidate-key convention when recvInfo is itself a generic
// instantiation (spec §4.3 step 2 Method resolution, §4.5).
func (a *Analyzer) resolveMethodCall(recvInfo *types.TypeInfo, method string, loc source.Location) *types.TypeInfo {
	if recvInfo == nil {
		return nil
	}
	for _, key := range generics.GenerateTemplateCandidates(recvInfo.Name, method) {
		if tmpl, ok := a.Reg.Template(key); ok {
			return a.instantiateMethodTemplate(tmpl, recvInfo, loc)
		}
	}
	return nil
}
