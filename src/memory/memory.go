// Package memory implements the RazorForge-only memory analyzer (spec
// §4.4): ownership tracking for reference-typed locals and enforcement of
// the token/handle rules. Suflae has no borrow checker, but this analyzer
// still rejects Suflae source that uses the RazorForge-only scoped-access
// keywords, since those keywords do not exist in Suflae's grammar.
//
// The teacher has no ownership model at all (VSL only has integers and
// floats); the scope-stack discipline here follows the same push/pop-per-
// block pattern src/util/stack.go gives the symbol table, applied to a
// second, parallel table of memory-object states keyed by declaration
// site.
package memory

import (
	"razorforge/src/diag"
	"razorforge/src/source"
)

// State is the lifecycle state of a memory object (spec §3 Memory objects).
type State int

const (
	Owned State = iota
	SharedHandle
	TrackedWeak
	Consumed
	InvalidatedByToken
	ScopedToken
)

// TokenKind names which of the four scoped-token operations produced a
// ScopedToken/InvalidatedByToken state.
type TokenKind int

const (
	NoToken TokenKind = iota
	TokenView
	TokenHijack
	TokenInspect
	TokenSeize
)

func (k TokenKind) String() string {
	switch k {
	case TokenView:
		return "view"
	case TokenHijack:
		return "hijack"
	case TokenInspect:
		return "inspect"
	case TokenSeize:
		return "seize"
	default:
		return "none"
	}
}

// Object is one registered memory object: a reference/resource-typed local
// tracked from its declaration onward.
type Object struct {
	Name          string
	TypeName      string
	State         State
	TokenKind     TokenKind // meaningful when State is ScopedToken/InvalidatedByToken
	HostScope     int       // scope depth the token is pinned to, for ScopedToken
	OriginLoc     source.Location
	InvalidatedAt *source.Location // where invalidation occurred, for diagnostics
}

// scope is one lexical frame of tracked objects.
type scope struct {
	depth   int
	objects map[string]*Object
}

// Analyzer tracks memory objects across nested lexical scopes for one
// function body at a time. A fresh Analyzer is used per function, mirroring
// the fact that ownership never crosses function boundaries except through
// parameters and return values.
type Analyzer struct {
	scopes     []*scope
	isUsurping bool // true while analyzing a function marked `usurping`
	diags      *diag.Bag
}

// NewAnalyzer returns an Analyzer for one function body. isUsurping must
// reflect whether the enclosing function is authorized to return exclusive
// tokens (spec §4.4 Return-value rules).
func NewAnalyzer(isUsurping bool, diags *diag.Bag) *Analyzer {
	a := &Analyzer{isUsurping: isUsurping, diags: diags}
	a.PushScope()
	return a
}

// PushScope opens a new lexical scope.
func (a *Analyzer) PushScope() {
	a.scopes = append(a.scopes, &scope{depth: len(a.scopes), objects: make(map[string]*Object)})
}

// PopScope closes the innermost scope. Any ScopedToken objects hosted in
// this scope cease to exist (their binding goes out of lexical reach); any
// InvalidatedByToken source object hosted in an enclosing scope whose token
// was bound here becomes usable again (spec §4.4 Invalidation).
func (a *Analyzer) PopScope() {
	closed := a.scopes[len(a.scopes)-1]
	a.scopes = a.scopes[:len(a.scopes)-1]
	for _, s := range a.scopes {
		for _, obj := range s.objects {
			if obj.State == InvalidatedByToken && obj.HostScope == closed.depth {
				obj.State = Owned
				obj.InvalidatedAt = nil
			}
		}
	}
}

// Register records a newly declared reference-typed local with its initial
// state (spec §3 Memory objects, §4.4 Registration).
func (a *Analyzer) Register(name, typeName string, initial State, loc source.Location) *Object {
	obj := &Object{Name: name, TypeName: typeName, State: initial, OriginLoc: loc}
	a.top().objects[name] = obj
	return obj
}

func (a *Analyzer) top() *scope { return a.scopes[len(a.scopes)-1] }

// Find returns the tracked memory object named name, searching every open
// scope innermost-first, or nil if name is not a tracked reference type.
func (a *Analyzer) Find(name string) *Object {
	return a.find(name)
}

// find searches every open scope, innermost first, for a registered
// object.
func (a *Analyzer) find(name string) *Object {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if obj, ok := a.scopes[i].objects[name]; ok {
			return obj
		}
	}
	return nil
}

// CreateToken models `x.view()`/`x.hijack()`/`x.inspect()`/`x.seize()`
// (spec §4.4 Operations that create tokens). It registers a ScopedToken
// pinned to the current scope and, for invalidating kinds (hijack),
// transitions the source object to InvalidatedByToken until the token's
// scope ends.
func (a *Analyzer) CreateToken(sourceName string, kind TokenKind, tokenTypeName string, loc source.Location) *Object {
	hostDepth := a.top().depth
	tok := &Object{
		Name: sourceName + ".token", TypeName: tokenTypeName,
		State: ScopedToken, TokenKind: kind, HostScope: hostDepth, OriginLoc: loc,
	}
	a.top().objects[tok.Name] = tok

	if src := a.find(sourceName); src != nil {
		switch kind {
		case TokenHijack:
			src.State = InvalidatedByToken
			src.TokenKind = kind
			src.HostScope = hostDepth
			l := loc
			src.InvalidatedAt = &l
		case TokenSeize, TokenInspect:
			src.State = SharedHandle
		case TokenView:
			// Read-only tokens do not invalidate the source.
		}
	}
	return tok
}

// Use checks whether name may legally be used at loc, reporting
// use-after-invalidation (spec §4.4 Invalidation, spec §7 Memory errors).
func (a *Analyzer) Use(name string, loc source.Location) {
	obj := a.find(name)
	if obj == nil {
		return // not a tracked reference type; nothing to check
	}
	if obj.State == InvalidatedByToken {
		msg := "use of " + name + " after its value was invalidated by a " + obj.TokenKind.String() + " token"
		a.diags.Add(diag.Errorf(diag.KindUseAfterInvalidation, loc, "%s", msg))
	}
}

// CheckReturn enforces that a scoped token can never be returned, and that
// a Shared/Tracked/Hijacked handle may only be returned from a usurping
// function (spec §4.4 Return-value rules).
func (a *Analyzer) CheckReturn(name string, loc source.Location) {
	obj := a.find(name)
	if obj == nil {
		return
	}
	if obj.State == ScopedToken {
		a.diags.Add(diag.Errorf(diag.KindReturnScopedToken, loc,
			"cannot return %s: scoped tokens can never be returned", name))
		return
	}
	if obj.State == SharedHandle && !a.isUsurping {
		a.diags.Add(diag.Errorf(diag.KindTokenOutsideUsurping, loc,
			"cannot return handle %s: enclosing function is not marked usurping", name))
	}
}

// CheckStorable enforces that a scoped token is never stored as a field,
// collection element, or global (spec §3 Invariants, §7 Memory errors).
func (a *Analyzer) CheckStorable(name string, loc source.Location) {
	obj := a.find(name)
	if obj != nil && obj.State == ScopedToken {
		a.diags.Add(diag.Errorf(diag.KindStoreScopedToken, loc,
			"cannot store %s: scoped tokens cannot be fields, collection elements, or globals", name))
	}
}

// RequireTokenInsideUsurping enforces that `x.hijack()` only appears inside
// a usurping function or through one of the scoped access forms (spec §4.4:
// "requires a usurping function or a scoped form"). bound reports whether
// this hijack was reached through a scoped-form binding (`hijacking expr as
// name { }`, or a plain `let`/`var` naming the result) rather than used
// inline as a bare sub-expression with no lexical scope pinning it.
func (a *Analyzer) RequireTokenInsideUsurping(bound bool, loc source.Location) {
	if a.isUsurping || bound {
		return
	}
	a.diags.Add(diag.Errorf(diag.KindTokenOutsideUsurping, loc,
		"hijack!() requires a usurping function or a scoped `... as ... { }` form"))
}

// PropagateScopedBinding marks a pattern-bound name as a scoped token even
// though it was extracted from a storable wrapper such as Maybe<Seized<T>>
// (spec §4.4 Failable scoped acquisitions): `try_seize`/`check_seize`
// return Maybe<Seized<T>>/Result<Seized<T>>, and on a successful match the
// bound inner value must still carry scoped-token status.
func (a *Analyzer) PropagateScopedBinding(name, tokenTypeName string, kind TokenKind, loc source.Location) {
	obj := a.Register(name, tokenTypeName, ScopedToken, loc)
	obj.TokenKind = kind
	obj.HostScope = a.top().depth
}
