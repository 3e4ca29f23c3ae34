package compiler

import "fmt"

// Node is an AST node. The set of variants is closed: only types in this
// file implement the unexported marker, and evaluation switches over all of
// them.
//
// Several variants (VariableType, PreAssign, PreTerm, ...) only exist while
// the rewriter is folding the symbol stream; a finished tree never holds one.
type Node interface {
	Symbol
	node()
}

//  Statements

// Statement is a sequence of statements. A bare expression followed by a
// newline becomes a one-item Statement; an empty line becomes an empty one.
type Statement struct {
	Items []Node
}

// Block is a braced statement list.
//
//	while (a != 10) { a = a + 1 }
//	                ^^^^^^^^^^^^^  Block{Body: ...}
type Block struct {
	Body *Statement // nil for {}
}

// VariableType is the type keyword of a declaration.
type VariableType struct {
	Type ValueType
}

// VariableDecl is a type followed by a name, before the '='.
//
//	int a = 3
//	^^^^^  VariableDecl{Type: int, Name: "a"}
type VariableDecl struct {
	Type ValueType
	Name string
}

type PreAssign struct {
	Decl *VariableDecl
}

// Assign declares a variable and initialises it.
type Assign struct {
	Decl  *VariableDecl
	Value Node

	qualified string // storage name, set on first evaluation
}

type PreReAssign struct {
	Name string
}

// ReAssign stores into an existing variable.
type ReAssign struct {
	Name  string
	Value Node
}

type If struct {
	Cond Node
	Body *Block
}

type PreIfElse struct {
	If *If
}

type IfElse struct {
	Cond Node
	Then *Block
	Else *Block
}

type While struct {
	Cond Node
	Body *Block
}

type Break struct{}

type Continue struct{}

// Return moves a value into the accumulator and leaves the function body.
type Return struct {
	Value Node
}

// Param is one declared function parameter.
type Param struct {
	Name string
	Type ValueType
}

// FunctionDecl is a function definition. Its body is expanded at every call.
//
//	fun f(x: int) { return x }
//	    ^ ^^^^^^  FunctionDecl{Name: "f", Params: [{x int}]}
type FunctionDecl struct {
	Name   string
	Params []Param
	Body   *Block
}

// CallFunction is a call whose arguments are variable names.
type CallFunction struct {
	Name string
	Args []string
}

// Print writes each named variable using the format of its type.
type Print struct {
	Args []string
}

// PrintString writes a string literal.
type PrintString struct {
	Text string
}

//  Expressions

// FactorForm says which leaf a Factor holds.
type FactorForm int

const (
	FactorInt FactorForm = iota
	FactorFloat
	FactorIdent
	FactorString
	FactorParen
	FactorCall
)

var factorFormNames = [...]string{
	FactorInt:    "int",
	FactorFloat:  "float",
	FactorIdent:  "ident",
	FactorString: "string",
	FactorParen:  "paren",
	FactorCall:   "call",
}

func (f FactorForm) String() string {
	if int(f) < len(factorFormNames) {
		return factorFormNames[f]
	}
	return fmt.Sprintf("FactorForm(%d)", int(f))
}

// Factor is a leaf of an expression. Text holds the literal or identifier;
// Inner holds the parenthesised expression or the call.
type Factor struct {
	Form  FactorForm
	Text  string
	Inner Node
}

// The binary levels share one shape. An empty Op means the node only wraps
// Left, which is how a value is promoted from one level to the next.
//
//	3 + 10 * 2
//	Add{Left: Add{3}, Op: "+", Right: Add{Term{Left: Term{10}, Op: "*", Right: 2}}}

type PreTerm struct {
	Left Node
	Op   string
}

type Term struct {
	Left  Node
	Op    string
	Right Node
}

type PreAdd struct {
	Left Node
	Op   string
}

type Add struct {
	Left  Node
	Op    string
	Right Node
}

type PreComparing struct {
	Left Node
	Op   string
}

type Comparing struct {
	Left  Node
	Op    string
	Right Node
}

// Expression is the top expression level, either a Comparing or a
// LogicalOperator.
type Expression struct {
	Inner Node
}

type PreLogical struct {
	Left Node
	Op   string
}

type LogicalOperator struct {
	Left  Node
	Op    string
	Right Node
}

func (*Statement) node()       {}
func (*Block) node()           {}
func (*VariableType) node()    {}
func (*VariableDecl) node()    {}
func (*PreAssign) node()       {}
func (*Assign) node()          {}
func (*PreReAssign) node()     {}
func (*ReAssign) node()        {}
func (*If) node()              {}
func (*PreIfElse) node()       {}
func (*IfElse) node()          {}
func (*While) node()           {}
func (*Break) node()           {}
func (*Continue) node()        {}
func (*Return) node()          {}
func (*FunctionDecl) node()    {}
func (*CallFunction) node()    {}
func (*Print) node()           {}
func (*PrintString) node()     {}
func (*Factor) node()          {}
func (*PreTerm) node()         {}
func (*Term) node()            {}
func (*PreAdd) node()          {}
func (*Add) node()             {}
func (*PreComparing) node()    {}
func (*Comparing) node()       {}
func (*Expression) node()      {}
func (*PreLogical) node()      {}
func (*LogicalOperator) node() {}

func (*Statement) Kind() string       { return "Statement" }
func (*Block) Kind() string           { return "Block" }
func (*VariableType) Kind() string    { return "VariableType" }
func (*VariableDecl) Kind() string    { return "VariableDecl" }
func (*PreAssign) Kind() string       { return "PreAssign" }
func (*Assign) Kind() string          { return "Assign" }
func (*PreReAssign) Kind() string     { return "PreReAssign" }
func (*ReAssign) Kind() string        { return "ReAssign" }
func (*If) Kind() string              { return "If" }
func (*PreIfElse) Kind() string       { return "PreIfElse" }
func (*IfElse) Kind() string          { return "IfElse" }
func (*While) Kind() string           { return "While" }
func (*Break) Kind() string           { return "Break" }
func (*Continue) Kind() string        { return "Continue" }
func (*Return) Kind() string          { return "Return" }
func (*FunctionDecl) Kind() string    { return "FunctionDecl" }
func (*CallFunction) Kind() string    { return "CallFunction" }
func (*Print) Kind() string           { return "Print" }
func (*PrintString) Kind() string     { return "PrintString" }
func (*Factor) Kind() string          { return "Factor" }
func (*PreTerm) Kind() string         { return "PreTerm" }
func (*Term) Kind() string            { return "Term" }
func (*PreAdd) Kind() string          { return "PreAdd" }
func (*Add) Kind() string             { return "Add" }
func (*PreComparing) Kind() string    { return "PreComparing" }
func (*Comparing) Kind() string       { return "Comparing" }
func (*Expression) Kind() string      { return "Expression" }
func (*PreLogical) Kind() string      { return "PreLogical" }
func (*LogicalOperator) Kind() string { return "LogicalOperator" }

// partial reports whether n only exists mid-reduction and cannot be
// evaluated on its own.
func partial(n Node) bool {
	switch n.(type) {
	case *VariableType, *VariableDecl, *PreAssign, *PreReAssign, *PreIfElse,
		*PreTerm, *PreAdd, *PreComparing, *PreLogical, *Block:
		return true
	}
	return false
}
