package ast

import "razorforge/src/source"

// Visibility is the declaration visibility level (spec §3 Symbol table).
type Visibility int

const (
	VisPrivate Visibility = iota
	VisFamily
	VisModule
	VisPublic
	VisExternal
)

// GenericParam is one entry of a declaration's `<T>`/`<T: Comparable>`
// generic parameter list, optionally with a `where T follows Protocol`
// constraint recorded separately in Constraints.
type GenericParam struct {
	Name        string
	Constraints []string // protocol names this parameter must follow
	Loc         source.Location
}

// VariableDecl is `let`/`var`, with an optional explicit type and
// initializer.
type VariableDecl struct {
	Base
	Mutable     bool // true for `var`, false for `let`
	Name        string
	Type        *TypeExpr // nil when inferred from Init
	Init        Expression
	Vis         Visibility
}

func (*VariableDecl) declNode() {}
func (v *VariableDecl) Accept(vis Visitor) interface{} {
	return vis.VisitVariableDecl(v)
}

// CallingConvention names an external function's ABI.
type CallingConvention int

const (
	ConvDefault CallingConvention = iota
	ConvC
	ConvStdcall
)

// FunctionDecl is `routine name(params) -> ret { body }`, optionally with
// generic parameters, a receiver type (method-on-type syntax), modifiers,
// and attributes.
type FunctionDecl struct {
	Base
	Name            string
	Receiver        *TypeExpr // non-nil for `routine TypeName.method(...)`
	GenericParams   []GenericParam
	ReceiverGeneric []GenericParam // generic params bound on the receiver type, e.g. List<T>.select<U>
	Params          []Param
	ReturnType      *TypeExpr // nil for void
	Body            *Block    // nil for an external declaration's header
	Vis             Visibility
	Open            bool
	Sealed          bool
	Override        bool
	Common          bool // static/associated method
	IsExternal      bool
	IsUsurping      bool // authorized to return exclusive tokens (spec §4.4)
	Convention      CallingConvention
	Crashable       bool // name ends in "!"
}

func (*FunctionDecl) declNode() {}
func (f *FunctionDecl) Accept(v Visitor) interface{} {
	return v.VisitFunctionDecl(f)
}

// Field is one data member of a record/entity/resident.
type Field struct {
	Name string
	Type *TypeExpr
	Loc  source.Location
}

// RecordDecl is a value-semantics aggregate type.
type RecordDecl struct {
	Base
	Name          string
	GenericParams []GenericParam
	Fields        []Field
	Methods       []*FunctionDecl
	Follows       []string // protocols this record declares conformance to
	Vis           Visibility
}

func (*RecordDecl) declNode() {}
func (r *RecordDecl) Accept(v Visitor) interface{} {
	return v.VisitRecordDecl(r)
}

// EntityDecl is a reference-semantics aggregate type, optionally with a
// base entity and an interface (protocol) list.
type EntityDecl struct {
	Base
	Name          string
	GenericParams []GenericParam
	BaseType      *TypeExpr // the `from` base entity, nil if none
	Follows       []string
	Fields        []Field
	Methods       []*FunctionDecl
	Vis           Visibility
	Sealed        bool
	Open          bool
}

func (*EntityDecl) declNode() {}
func (e *EntityDecl) Accept(v Visitor) interface{} {
	return v.VisitEntityDecl(e)
}

// ResidentDecl is a reference type with a fixed, program-lifetime storage
// footprint. RazorForge only.
type ResidentDecl struct {
	Base
	Name    string
	Fields  []Field
	Methods []*FunctionDecl
	Vis     Visibility
}

func (*ResidentDecl) declNode() {}
func (r *ResidentDecl) Accept(v Visitor) interface{} {
	return v.VisitResidentDecl(r)
}

// ChoiceCase is one enumeration case, with an optional explicit numeric
// value.
type ChoiceCase struct {
	Name  string
	Value *int64 // nil when auto-assigned
	Loc   source.Location
}

// ChoiceDecl is an enumeration, which may carry methods.
type ChoiceDecl struct {
	Base
	Name    string
	Cases   []ChoiceCase
	Methods []*FunctionDecl
	Vis     Visibility
}

func (*ChoiceDecl) declNode() {}
func (c *ChoiceDecl) Accept(v Visitor) interface{} {
	return v.VisitChoiceDecl(c)
}

// VariantCase is one case of a tagged union; the payload is a single type,
// never a tuple (spec §3).
type VariantCase struct {
	Name    string
	Payload *TypeExpr // nil for a payload-less case
	Loc     source.Location
}

// VariantDecl is a tagged union.
type VariantDecl struct {
	Base
	Name          string
	GenericParams []GenericParam
	Cases         []VariantCase
	Methods       []*FunctionDecl
	Vis           Visibility
}

func (*VariantDecl) declNode() {}
func (v *VariantDecl) Accept(vis Visitor) interface{} {
	return vis.VisitVariantDecl(v)
}

// MutantDecl is an untagged union, legal only inside danger! (spec §3).
type MutantDecl struct {
	Base
	Name   string
	Fields []Field
	Vis    Visibility
}

func (*MutantDecl) declNode() {}
func (m *MutantDecl) Accept(v Visitor) interface{} {
	return v.VisitMutantDecl(m)
}

// ProtocolMethod is one method signature of a protocol declaration.
type ProtocolMethod struct {
	Name       string
	Params     []Param
	ReturnType *TypeExpr
	Loc        source.Location
}

// ProtocolDecl declares method signatures only, an interface-like type.
type ProtocolDecl struct {
	Base
	Name    string
	Methods []ProtocolMethod
	Vis     Visibility
}

func (*ProtocolDecl) declNode() {}
func (p *ProtocolDecl) Accept(v Visitor) interface{} {
	return v.VisitProtocolDecl(p)
}

// ImplementationDecl attaches methods to a type, optionally implementing a
// named protocol.
type ImplementationDecl struct {
	Base
	Target   *TypeExpr
	Protocol string // empty when this is an inherent/extension impl block
	Methods  []*FunctionDecl
}

func (*ImplementationDecl) declNode() {}
func (i *ImplementationDecl) Accept(v Visitor) interface{} {
	return v.VisitImplementationDecl(i)
}

// ImportDecl is `import A/B/C [as X] [/{B, C}]` (spec §6).
type ImportDecl struct {
	Base
	Path      []string // slash-separated segments
	Alias     string   // empty when absent
	Selective []string // empty when not a selective import
}

func (*ImportDecl) declNode() {}
func (i *ImportDecl) Accept(v Visitor) interface{} {
	return v.VisitImportDecl(i)
}

// NamespaceDecl is `namespace A/B`, overriding the folder-derived module
// path for the file it appears in.
type NamespaceDecl struct {
	Base
	Path []string
}

func (*NamespaceDecl) declNode() {}
func (n *NamespaceDecl) Accept(v Visitor) interface{} {
	return v.VisitNamespaceDecl(n)
}

// ExternalDecl is an FFI declaration with an explicit calling convention.
type ExternalDecl struct {
	Base
	Name       string
	Params     []Param
	ReturnType *TypeExpr
	Convention CallingConvention
}

func (*ExternalDecl) declNode() {}
func (e *ExternalDecl) Accept(v Visitor) interface{} {
	return v.VisitExternalDecl(e)
}

// PresetDecl is a compile-time constant.
type PresetDecl struct {
	Base
	Name  string
	Type  *TypeExpr
	Value Expression
	Vis   Visibility
}

func (*PresetDecl) declNode() {}
func (p *PresetDecl) Accept(v Visitor) interface{} {
	return v.VisitPresetDecl(p)
}
