// Package symbols implements the lexically scoped symbol table (spec §3):
// a stack of frames mapping names to a sum-typed Symbol, searched
// inner-to-outer, with same-scope duplicate insertion reported as failure.
package symbols

import (
	"razorforge/src/ast"
	"razorforge/src/source"
)

// Kind distinguishes the sum-typed Symbol variants.
type Kind int

const (
	KindVariable Kind = iota
	KindFunction
	KindTypeParameter
	KindRecord
	KindEntity
	KindResident
	KindChoice
	KindVariant
	KindProtocol
	KindNamespace
)

// Symbol is one entry of the symbol table.
type Symbol struct {
	Name string
	Kind Kind
	Vis  ast.Visibility
	Loc  source.Location

	// Function-specific fields; zero for other Kinds.
	Params        []ast.Param
	ReturnType    *ast.TypeExpr
	GenericParams []ast.GenericParam
	// ReceiverGeneric mirrors ast.FunctionDecl.ReceiverGeneric: the generic
	// parameters bound by the receiver type of a method declared
	// `routine TypeName<T>.method(...)`, non-empty only when this function
	// is a generic method template (spec §4.5 Generic Resolver).
	ReceiverGeneric []ast.GenericParam
	Receiver        *ast.TypeExpr
	Convention      ast.CallingConvention
	IsExternal      bool
	IsUsurping      bool
	Crashable       bool

	// Variable-specific.
	VarType *ast.TypeExpr
	Mutable bool

	// Declaration node this symbol was introduced by, for richer
	// diagnostics and for the memory/generic analyzers to walk back to
	// the AST.
	Decl ast.Node
}

// Scope is one frame of the symbol table stack.
type Scope struct {
	parent  *Scope
	names   map[string]*Symbol
	isFunc  bool // true for function-body scopes (tracks usurping flag lookups)
}

// Table is the full lexically scoped symbol table: global -> namespace/
// module -> function -> block (spec §4.3 Symbol resolution).
type Table struct {
	global *Scope
	top    *Scope
}

// NewTable returns a Table with an empty global scope.
func NewTable() *Table {
	g := &Scope{names: make(map[string]*Symbol)}
	return &Table{global: g, top: g}
}

// Push opens a new nested scope.
func (t *Table) Push(isFunc bool) *Scope {
	s := &Scope{parent: t.top, names: make(map[string]*Symbol), isFunc: isFunc}
	t.top = s
	return s
}

// Pop closes the innermost scope.
func (t *Table) Pop() {
	if t.top.parent != nil {
		t.top = t.top.parent
	}
}

// Current returns the innermost open scope.
func (t *Table) Current() *Scope { return t.top }

// SetTop forcibly repoints the table's active scope cursor to s, used when
// switching which unit's per-module scope chain name resolution should run
// against (module.Resolver / sema per-unit scoping, spec §4.6).
func (t *Table) SetTop(s *Scope) { t.top = s }

// NewDetachedScope returns a scope with no parent yet, not linked into any
// Table's active chain. Used to build one unit's own declaration scope
// before its import overlay (see SetParent) is spliced in.
func NewDetachedScope(isFunc bool) *Scope {
	return &Scope{names: make(map[string]*Symbol), isFunc: isFunc}
}

// SetParent rewires s's ancestor chain to p. Used once a unit's own
// top-level declarations are registered into a detached scope and its
// import-visibility overlay is ready to splice in as that scope's parent.
func (s *Scope) SetParent(p *Scope) { s.parent = p }

// Insert binds sym directly into s, bypassing whichever scope a Table
// currently has active. Used to assemble an import-visibility overlay scope
// from another unit's already-registered symbols.
func (s *Scope) Insert(sym *Symbol) { s.names[sym.Name] = sym }

// Lookup searches s and its ancestors for name.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for c := s; c != nil; c = c.parent {
		if sym, ok := c.names[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// Names returns the symbols bound directly in s, excluding its ancestors.
func (s *Scope) Names() map[string]*Symbol { return s.names }

// Global returns the outermost scope.
func (t *Table) Global() *Scope { return t.global }

// ErrDuplicate is returned by Insert when name is already bound in the
// current scope (spec §4.3: "Duplicate declarations in the same scope
// produce DuplicateSymbol errors").
type ErrDuplicate struct {
	Name     string
	Previous source.Location
}

func (e *ErrDuplicate) Error() string {
	return "duplicate symbol " + e.Name
}

// Insert binds name to sym in the current scope. Returns ErrDuplicate if
// name is already bound in this exact scope (shadowing an outer scope's
// binding is allowed).
func (t *Table) Insert(sym *Symbol) error {
	if existing, ok := t.top.names[sym.Name]; ok {
		return &ErrDuplicate{Name: sym.Name, Previous: existing.Loc}
	}
	t.top.names[sym.Name] = sym
	return nil
}

// Lookup searches the scope stack inner-to-outer for name.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	for s := t.top; s != nil; s = s.parent {
		if sym, ok := s.names[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupLocal searches only the current scope.
func (t *Table) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := t.top.names[name]
	return sym, ok
}

// InFunction reports whether the current scope is nested inside a
// function-body scope.
func (t *Table) InFunction() bool {
	for s := t.top; s != nil; s = s.parent {
		if s.isFunc {
			return true
		}
	}
	return false
}
