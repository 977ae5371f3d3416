// Package types implements the Type Registry design recommended by spec §9:
// a single directory of tagged type-registry entries replacing the
// historical tangle of ad hoc "temp types"/"symbol types" dictionaries.
// Every codegen lookup goes through this registry, which is built to
// completion by the semantic analyzer.
package types

import (
	"fmt"
	"strings"
)

// Protocol is a membership flag a TypeInfo may carry (spec §3).
type Protocol int

const (
	Numeric Protocol = iota
	SignedInteger
	UnsignedInteger
	FloatingPoint
	FixedWidth
	Equatable
	Comparable
	Hashable
	Parsable
	Printable
	Copyable
	Movable
	Droppable
	Crashable
	Iterable
	Indexable
	Collection
	protocolCount
)

var protocolNames = [...]string{
	"Numeric", "SignedInteger", "UnsignedInteger", "FloatingPoint", "FixedWidth",
	"Equatable", "Comparable", "Hashable", "Parsable", "Printable", "Copyable",
	"Movable", "Droppable", "Crashable", "Iterable", "Indexable", "Collection",
}

func (p Protocol) String() string {
	if int(p) < len(protocolNames) {
		return protocolNames[p]
	}
	return "Unknown"
}

// ProtocolSet is a membership bitset over Protocol.
type ProtocolSet uint32

func (s ProtocolSet) Has(p Protocol) bool { return s&(1<<uint(p)) != 0 }
func (s ProtocolSet) With(p Protocol) ProtocolSet { return s | (1 << uint(p)) }

func NewProtocolSet(ps ...Protocol) ProtocolSet {
	var s ProtocolSet
	for _, p := range ps {
		s = s.With(p)
	}
	return s
}

// WrapperKind distinguishes scoped tokens from storable handles among the
// memory wrapper kinds (spec §3 Type registry).
type WrapperKind int

const (
	NotWrapper WrapperKind = iota
	Viewed                 // scoped token, read-only
	Hijacked               // scoped token, exclusive
	Inspected              // scoped token, multi-reader
	Seized                 // scoped token, multi-writer
	Shared                 // storable handle, refcounted
	Tracked                // storable handle, weak
	Snatched               // storable handle, move-only
)

// IsScopedToken reports whether a WrapperKind is one of the four
// non-storable borrow kinds (spec invariant: never a return type or the
// type of any storable location).
func (w WrapperKind) IsScopedToken() bool {
	return w == Viewed || w == Hijacked || w == Inspected || w == Seized
}

// IsHandle reports whether a WrapperKind is one of the three storable,
// owning handle kinds.
func (w WrapperKind) IsHandle() bool {
	return w == Shared || w == Tracked || w == Snatched
}

// Category tags what kind of registry entry a Type is.
type Category int

const (
	CatIntrinsic Category = iota
	CatRecord
	CatEntity
	CatResident
	CatChoice
	CatVariant
	CatMutant
	CatProtocol
	CatTemplate // generic template, not yet instantiated
	CatFunction
)

// TypeInfo is the canonical description of a resolved type (spec §3).
type TypeInfo struct {
	Name               string // canonical, possibly generic-instantiated name
	Category           Category
	IsReference        bool
	GenericArguments   []*TypeInfo
	IsGenericParameter bool
	Protocols          ProtocolSet
	Wrapper            WrapperKind
	WrapperElem        *TypeInfo // element type for a memory wrapper kind

	// Single-field record wrapping (spec §9): a primitive-like record such
	// as s32 wraps exactly one LLVM intrinsic type, extracted/inserted at
	// every cross-boundary operation.
	IsSingleField   bool
	LLVMUnderlying  string // e.g. "i32", "double", "ptr"

	// Fields holds the substituted field list of an instantiated generic
	// aggregate (Category CatRecord/CatEntity/CatResident/CatVariant), each
	// already resolved to a concrete TypeInfo. Empty for a non-generic
	// aggregate, whose fields the code generator still reads straight off
	// the AST declaration.
	Fields []Field

	// Params and Return hold the substituted signature of an instantiated
	// generic routine (Category CatFunction). Both nil for anything else.
	Params []Field
	Return *TypeInfo

	// Substitution is the formal-parameter-name -> concrete-type-name map
	// that produced this instantiation, e.g. {"T": "s64"}. nil outside a
	// generic instantiation; the code generator consults it to resolve a
	// template body's bare placeholder types at emission time.
	Substitution map[string]string
}

// Field is one named, typed member of a resolved aggregate or the
// substituted parameter list of a resolved generic routine.
type Field struct {
	Name string
	Type *TypeInfo
}

// CanonicalName returns the canonical mangled-ready name of t, e.g.
// "List<s32>" or "Range<BackIndex<uaddr>>".
func (t *TypeInfo) CanonicalName() string { return t.Name }

// Is reports protocol membership.
func (t *TypeInfo) Is(p Protocol) bool { return t.Protocols.Has(p) }

// Registry is the unified type directory (spec §9). It owns intrinsic
// types, user-visible declared categories, generic templates with their
// instantiation cache, compiler-generated variants (Maybe/Result/Lookup),
// and memory wrapper kinds.
type Registry struct {
	byName    map[string]*TypeInfo
	templates map[string]*Template
}

// Template is a generic type or method awaiting substitution, keyed by its
// canonical template key (e.g. "List<T>", "List<T>.select").
type Template struct {
	Key             string
	Params          []string // formal type-parameter names, in order
	Instantiations  map[string]*TypeInfo // keyed by substituted arg tuple

	// Decl is the originating declaration: *ast.RecordDecl, *ast.EntityDecl,
	// *ast.ResidentDecl, *ast.VariantDecl or *ast.FunctionDecl. Left as
	// interface{} because types cannot import ast (ast has no dependency on
	// types, and types is meant to stay a leaf package); the code generator
	// and semantic analyzer type-assert it back to the concrete kind they
	// expect.
	Decl interface{}
}

// NewRegistry returns a Registry pre-populated with the intrinsic scalar
// types only; the error-handling generics are not registered here.
func NewRegistry() *Registry {
	r := &Registry{
		byName:    make(map[string]*TypeInfo),
		templates: make(map[string]*Template),
	}
	r.registerIntrinsics()
	return r
}

func (r *Registry) registerIntrinsics() {
	ints := []struct {
		name     string
		llvm     string
		bits     int
		unsigned bool
	}{
		{"s8", "i8", 8, false}, {"s16", "i16", 16, false}, {"s32", "i32", 32, false},
		{"s64", "i64", 64, false}, {"s128", "i128", 128, false},
		{"u8", "i8", 8, true}, {"u16", "i16", 16, true}, {"u32", "i32", 32, true},
		{"u64", "i64", 64, true}, {"u128", "i128", 128, true},
	}
	for _, e := range ints {
		ps := NewProtocolSet(Numeric, FixedWidth, Equatable, Comparable, Hashable, Parsable, Printable, Copyable)
		if e.unsigned {
			ps = ps.With(UnsignedInteger)
		} else {
			ps = ps.With(SignedInteger)
		}
		r.byName[e.name] = &TypeInfo{
			Name: e.name, Category: CatRecord, Protocols: ps,
			IsSingleField: true, LLVMUnderlying: e.llvm,
		}
	}
	floats := []struct {
		name, llvm string
	}{{"f16", "half"}, {"f32", "float"}, {"f64", "double"}, {"f128", "fp128"}}
	for _, e := range floats {
		ps := NewProtocolSet(Numeric, FloatingPoint, FixedWidth, Equatable, Comparable, Parsable, Printable, Copyable)
		r.byName[e.name] = &TypeInfo{
			Name: e.name, Category: CatRecord, Protocols: ps,
			IsSingleField: true, LLVMUnderlying: e.llvm,
		}
	}
	r.byName["bool"] = &TypeInfo{
		Name: "bool", Category: CatRecord,
		Protocols:      NewProtocolSet(Equatable, Comparable, Hashable, Printable, Copyable),
		IsSingleField:  true,
		LLVMUnderlying: "i1",
	}
	// Address-family types are finalized once a target platform is chosen
	// (spec §4.3 "Address types bind their width from the active target
	// platform"); registered here with a placeholder width, rebound by
	// BindAddressWidth.
	for _, name := range []string{"saddr", "uaddr"} {
		ps := NewProtocolSet(Numeric, Equatable, Comparable, Hashable, Printable, Copyable)
		if name == "uaddr" {
			ps = ps.With(UnsignedInteger)
		} else {
			ps = ps.With(SignedInteger)
		}
		r.byName[name] = &TypeInfo{Name: name, Category: CatRecord, Protocols: ps, IsSingleField: true, LLVMUnderlying: "i64"}
	}
}

// BindAddressWidth rebinds saddr/uaddr (and by extension any derived
// registry entries) to width bits, per the active target platform.
func (r *Registry) BindAddressWidth(bits int) {
	llvmTy := fmt.Sprintf("i%d", bits)
	for _, name := range []string{"saddr", "uaddr"} {
		if t, ok := r.byName[name]; ok {
			t.LLVMUnderlying = llvmTy
		}
	}
}

// Lookup returns the registered TypeInfo for a canonical name, if any.
func (r *Registry) Lookup(name string) (*TypeInfo, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Register adds or replaces a user-visible declared type.
func (r *Registry) Register(t *TypeInfo) {
	r.byName[t.Name] = t
}

// RegisterTemplate records a generic template under its canonical key.
func (r *Registry) RegisterTemplate(key string, params []string) *Template {
	t := &Template{Key: key, Params: params, Instantiations: make(map[string]*TypeInfo)}
	r.templates[key] = t
	return t
}

// Template returns the template registered under key, if any.
func (r *Registry) Template(key string) (*Template, bool) {
	t, ok := r.templates[key]
	return t, ok
}

// Templates returns every registered generic template, keyed by its
// canonical template key. The code generator walks this to emit one struct
// or function per concrete instantiation (spec §4.7, §8 scenarios #1/#2).
func (r *Registry) Templates() map[string]*Template {
	return r.templates
}

// Instantiate records (or returns the existing) instantiation of template
// key with the given argument-tuple key, guaranteeing the idempotence
// invariant: the same (template, type-arg tuple) always yields the same
// TypeInfo and is registered exactly once (spec §3 Invariants).
func (r *Registry) Instantiate(tmplKey string, argsKey string, make func() *TypeInfo) (*TypeInfo, bool) {
	tmpl, ok := r.templates[tmplKey]
	if !ok {
		return nil, false
	}
	if existing, ok := tmpl.Instantiations[argsKey]; ok {
		return existing, true
	}
	t := make()
	tmpl.Instantiations[argsKey] = t
	r.byName[t.Name] = t
	return t, true
}

// MangledName sanitizes a canonical generic name into the LLVM-safe form
// used for struct and function names (spec §4.7): "<", ">", "," all become
// "_", recursively for nested generics. "." also becomes "_" so a mangled
// method name built as "Receiver<Args>.method" (mangleFunction) collapses to
// one valid identifier, e.g. "TestType<s64>.get_value" -> "TestType_s64_get_value".
//
//	Range<BackIndex<uaddr>> -> Range_BackIndex_uaddr
func MangledName(canonical string) string {
	var b strings.Builder
	for _, r := range canonical {
		switch r {
		case '<', '>', ',', ' ', '.':
			if r == ' ' {
				continue
			}
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	// Collapse any run of underscores introduced by adjacent "<>, " runs,
	// e.g. "Dict<s32, Text>" -> "Dict_s32__Text_" -> "Dict_s32_Text".
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.TrimSuffix(s, "_")
}

// ErrorHandlingGeneric names the three compiler-generated variant wrappers
// that can never nest in each other and must be outermost (spec §3
// Invariants, §4.3).
type ErrorHandlingGeneric int

const (
	NotErrorHandling ErrorHandlingGeneric = iota
	MaybeGeneric
	ResultGeneric
	LookupGeneric
)

// ClassifyErrorHandlingGeneric reports whether name is one of Maybe/
// Result/Lookup.
func ClassifyErrorHandlingGeneric(baseName string) ErrorHandlingGeneric {
	switch baseName {
	case "Maybe":
		return MaybeGeneric
	case "Result":
		return ResultGeneric
	case "Lookup":
		return LookupGeneric
	default:
		return NotErrorHandling
	}
}
