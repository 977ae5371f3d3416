// Package ast defines the immutable syntax tree shared by RazorForge and
// Suflae. Unlike the teacher's single mutable Node{Typ, Children, Data}
// representation (src/ir/nodetype.go), the tree here is a genuine Go sum
// type: three category interfaces (Expression, Statement, Declaration) each
// implemented by concrete node structs, dispatched through a polymorphic
// Visitor. Nodes never mutate after parsing; semantic analysis decorates
// them via side tables keyed by NodeID instead of writing into the nodes.
package ast

import "razorforge/src/source"

// NodeID is a stable identity assigned during parsing, used to key semantic
// side tables (resolved types, symbol references, derived variants) without
// mutating the node itself.
type NodeID int

// Node is the capability every AST node provides: its source location, its
// identity, and the ability to accept a Visitor.
type Node interface {
	ID() NodeID
	Location() source.Location
	Accept(v Visitor) interface{}
}

// Base is embedded by every concrete node to provide ID/Location for free.
// It is exported, with an exported constructor, so that the parser package
// can stamp identity and source position onto nodes it builds without the
// ast package needing a per-node-type constructor function.
type Base struct {
	NodeID_ NodeID
	Loc_    source.Location
}

func (b Base) ID() NodeID                { return b.NodeID_ }
func (b Base) Location() source.Location { return b.Loc_ }

// NewBase returns a Base stamped with id and loc.
func NewBase(id NodeID, loc source.Location) Base {
	return Base{NodeID_: id, Loc_: loc}
}

// IDGen is a simple monotonic NodeID counter used by the parser to stamp
// every node it builds. It is not safe for concurrent parses of different
// files to share; each parser owns its own counter, matching the fact that
// parsing is sequential per compilation unit (spec §5).
type IDGen struct{ next NodeID }

// NewIDGen returns a fresh ID generator starting at 1.
func NewIDGen() *IDGen { return &IDGen{} }

// Take returns the next NodeID.
func (g *IDGen) Take() NodeID {
	g.next++
	return g.next
}

// Expression is any node that evaluates to a value.
type Expression interface {
	Node
	exprNode()
}

// Statement is any node executed for effect.
type Statement interface {
	Node
	stmtNode()
}

// Declaration is any top-level or block-scoped binding form.
type Declaration interface {
	Node
	declNode()
}

// Program is the AST root: an ordered sequence of declarations (spec §3).
type Program struct {
	Base
	Declarations []Declaration
}

func (p *Program) Accept(v Visitor) interface{} { return v.VisitProgram(p) }

// Visitor dispatches over every concrete node kind through each node's
// Accept method. No subsystem in this compiler implements it: the semantic
// analyzer and the code generator walk the tree with type switches.
type Visitor interface {
	VisitProgram(*Program) interface{}

	// Expressions
	VisitLiteral(*Literal) interface{}
	VisitIdentifier(*Identifier) interface{}
	VisitBinary(*Binary) interface{}
	VisitUnary(*Unary) interface{}
	VisitChainedComparison(*ChainedComparison) interface{}
	VisitCall(*Call) interface{}
	VisitMember(*Member) interface{}
	VisitIndex(*Index) interface{}
	VisitConditionalExpr(*ConditionalExpr) interface{}
	VisitRange(*Range) interface{}
	VisitLambda(*Lambda) interface{}
	VisitTypeExpr(*TypeExpr) interface{}
	VisitTypeConversion(*TypeConversion) interface{}
	VisitSliceConstructor(*SliceConstructor) interface{}
	VisitGenericMethodCall(*GenericMethodCall) interface{}
	VisitGenericCall(*GenericCall) interface{}
	VisitMemoryOp(*MemoryOp) interface{}
	VisitIntrinsicCall(*IntrinsicCall) interface{}

	// Statements
	VisitExprStatement(*ExprStatement) interface{}
	VisitDeclStatement(*DeclStatement) interface{}
	VisitAssignment(*Assignment) interface{}
	VisitReturnStatement(*ReturnStatement) interface{}
	VisitIfStatement(*IfStatement) interface{}
	VisitWhileStatement(*WhileStatement) interface{}
	VisitForStatement(*ForStatement) interface{}
	VisitBlock(*Block) interface{}
	VisitWhenStatement(*WhenStatement) interface{}
	VisitBreakStatement(*BreakStatement) interface{}
	VisitContinueStatement(*ContinueStatement) interface{}
	VisitDangerBlock(*DangerBlock) interface{}
	VisitThrowStatement(*ThrowStatement) interface{}
	VisitAbsentStatement(*AbsentStatement) interface{}

	// Declarations
	VisitVariableDecl(*VariableDecl) interface{}
	VisitFunctionDecl(*FunctionDecl) interface{}
	VisitRecordDecl(*RecordDecl) interface{}
	VisitEntityDecl(*EntityDecl) interface{}
	VisitResidentDecl(*ResidentDecl) interface{}
	VisitChoiceDecl(*ChoiceDecl) interface{}
	VisitVariantDecl(*VariantDecl) interface{}
	VisitMutantDecl(*MutantDecl) interface{}
	VisitProtocolDecl(*ProtocolDecl) interface{}
	VisitImplementationDecl(*ImplementationDecl) interface{}
	VisitImportDecl(*ImportDecl) interface{}
	VisitNamespaceDecl(*NamespaceDecl) interface{}
	VisitExternalDecl(*ExternalDecl) interface{}
	VisitPresetDecl(*PresetDecl) interface{}
}
