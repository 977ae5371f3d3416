package ast

import "razorforge/src/source"

// OverflowMode distinguishes the four binary-arithmetic overflow variants
// (spec §3): wrapping, saturating, unchecked and checked.
type OverflowMode int

const (
	OverflowNone OverflowMode = iota // default, panics/traps on overflow
	OverflowWrap                     // %
	OverflowSaturate                  // ^
	OverflowUnchecked                 // !
	OverflowChecked                   // ?
)

// LiteralKind distinguishes the payload type of a Literal node.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitBool
	LitNone
	LitDuration
	LitMemorySize
)

// Literal is a literal expression: integers, floats, strings, booleans,
// none, duration literals (5w, 30m) and memory-size literals (64kib, 0b).
type Literal struct {
	Base
	LitKind LiteralKind
	Value   interface{}
	Suffix  string // explicit numeric type suffix, e.g. "s32"
	Unit    string // duration/memory-size unit, e.g. "ms", "kib"
}

func (*Literal) exprNode()                        {}
func (l *Literal) Accept(v Visitor) interface{}    { return v.VisitLiteral(l) }

// Identifier is a bare name reference, resolved by the semantic analyzer
// against the symbol table.
type Identifier struct {
	Base
	Name string
}

func (*Identifier) exprNode()                      {}
func (i *Identifier) Accept(v Visitor) interface{} { return v.VisitIdentifier(i) }

// Binary is a binary operator expression, including the four overflow
// variants on arithmetic operators.
type Binary struct {
	Base
	Op       string
	Overflow OverflowMode
	Left     Expression
	Right    Expression
}

func (*Binary) exprNode()                       {}
func (b *Binary) Accept(v Visitor) interface{}  { return v.VisitBinary(b) }

// Unary is a prefix unary operator expression (-, ~, not).
type Unary struct {
	Base
	Op      string
	Operand Expression
}

func (*Unary) exprNode()                      {}
func (u *Unary) Accept(v Visitor) interface{} { return v.VisitUnary(u) }

// ChainedComparison represents `a < b < c`-style chained relational
// expressions, evaluated left to right with implicit `and` between hops.
type ChainedComparison struct {
	Base
	Operands []Expression
	Ops      []string
}

func (*ChainedComparison) exprNode() {}
func (c *ChainedComparison) Accept(v Visitor) interface{} {
	return v.VisitChainedComparison(c)
}

// Call is a function or constructor call, `callee(args...)`.
type Call struct {
	Base
	Callee    Expression
	Args      []Expression
	Crashable bool // trailing "!" on the callee name, e.g. divide!(a, b)
}

func (*Call) exprNode()                      {}
func (c *Call) Accept(v Visitor) interface{} { return v.VisitCall(c) }

// Member is field/method access, `expr.name`.
type Member struct {
	Base
	Receiver Expression
	Name     string
}

func (*Member) exprNode()                      {}
func (m *Member) Accept(v Visitor) interface{} { return v.VisitMember(m) }

// Index is `expr[index]`.
type Index struct {
	Base
	Receiver Expression
	Index    Expression
}

func (*Index) exprNode()                      {}
func (i *Index) Accept(v Visitor) interface{} { return v.VisitIndex(i) }

// ConditionalExpr is the block-expression form of if/else, e.g.
// `let y = if cond { 1_s32 } else { 2_s32 }`. Cond is an Expression and
// each branch is a Block that may end in an expression statement whose
// value is the branch's result.
type ConditionalExpr struct {
	Base
	Cond   Expression
	Then   *Block
	Else   *Block // nil if there is no else branch
}

func (*ConditionalExpr) exprNode() {}
func (c *ConditionalExpr) Accept(v Visitor) interface{} {
	return v.VisitConditionalExpr(c)
}

// Range is `a to b` / `a downto b`, with an optional `step`.
type Range struct {
	Base
	From      Expression
	To        Expression
	Downto    bool
	Step      Expression // nil if absent
	Exclusive bool
}

func (*Range) exprNode()                      {}
func (r *Range) Accept(v Visitor) interface{} { return v.VisitRange(r) }

// Lambda is an anonymous function expression.
type Lambda struct {
	Base
	Params []Param
	Body   *Block
}

func (*Lambda) exprNode()                      {}
func (l *Lambda) Accept(v Visitor) interface{} { return v.VisitLambda(l) }

// Param is one function/lambda parameter.
type Param struct {
	Name string
	Type *TypeExpr // nil when inferred (lambda params may omit types)
	Loc  source.Location
}

// TypeExpr is a type reference: a name plus optional generic arguments,
// e.g. `List<s32>`, `Range<BackIndex<uaddr>>`.
type TypeExpr struct {
	Base
	Name string
	Args []*TypeExpr
}

func (*TypeExpr) exprNode()                      {}
func (t *TypeExpr) Accept(v Visitor) interface{} { return v.VisitTypeExpr(t) }

// ConversionForm distinguishes function-style T!(x) from method-style
// x.T!() type conversions.
type ConversionForm int

const (
	ConversionFunctionStyle ConversionForm = iota
	ConversionMethodStyle
)

// TypeConversion is a `!`-suffixed type conversion, either function-style
// (`T!(x)`) or method-style (`x.T!()`).
type TypeConversion struct {
	Base
	Form   ConversionForm
	Target *TypeExpr
	Source Expression
}

func (*TypeConversion) exprNode() {}
func (t *TypeConversion) Accept(v Visitor) interface{} {
	return v.VisitTypeConversion(t)
}

// SliceKind distinguishes DynamicSlice from TemporarySlice constructors.
type SliceKind int

const (
	DynamicSlice SliceKind = iota
	TemporarySlice
)

// SliceConstructor builds a slice value from element expressions.
type SliceConstructor struct {
	Base
	Kind     SliceKind
	Elements []Expression
}

func (*SliceConstructor) exprNode() {}
func (s *SliceConstructor) Accept(v Visitor) interface{} {
	return v.VisitSliceConstructor(s)
}

// GenericMethodCall is a method call with explicit type arguments, e.g.
// `bi.resolve<s64>(x)`.
type GenericMethodCall struct {
	Base
	Receiver  Expression
	Method    string
	TypeArgs  []*TypeExpr
	Args      []Expression
}

func (*GenericMethodCall) exprNode() {}
func (g *GenericMethodCall) Accept(v Visitor) interface{} {
	return v.VisitGenericMethodCall(g)
}

// GenericCall is a free (non-method) call with explicit type arguments, e.g.
// `identity<s64>(42)`.
type GenericCall struct {
	Base
	Callee   Expression
	TypeArgs []*TypeExpr
	Args     []Expression
}

func (*GenericCall) exprNode() {}
func (g *GenericCall) Accept(v Visitor) interface{} {
	return v.VisitGenericCall(g)
}

// MemoryOpKind enumerates the suffix-`!` memory operations (spec §3).
type MemoryOpKind int

const (
	OpSize MemoryOpKind = iota
	OpAddress
	OpHijack
	OpUnsafePtr
	OpView
	OpInspect
	OpSeize
)

// MemoryOp is a scoped-token / raw-memory operation such as `x.hijack!()`.
type MemoryOp struct {
	Base
	Kind     MemoryOpKind
	Receiver Expression
}

func (*MemoryOp) exprNode()                      {}
func (m *MemoryOp) Accept(v Visitor) interface{} { return v.VisitMemoryOp(m) }

// IntrinsicCall is `@intrinsic.NAME<T,...>(args)`, legal only inside a
// danger! block; enforced by the semantic analyzer, not the parser.
type IntrinsicCall struct {
	Base
	Path     string // dotted path after "@intrinsic."
	TypeArgs []*TypeExpr
	Args     []Expression
}

func (*IntrinsicCall) exprNode() {}
func (i *IntrinsicCall) Accept(v Visitor) interface{} {
	return v.VisitIntrinsicCall(i)
}
