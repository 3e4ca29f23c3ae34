package compiler

import (
	"fmt"
	"strings"
)

// Symbol is an element of the rewriter's working sequence: a Token or a Node.
type Symbol interface {
	Kind() string
}

// Rule folds a window of symbols whose kind-names equal Pattern into one
// node. A pattern element may list alternatives separated by '|'.
type Rule struct {
	Pattern []string
	Build   func(syms []Symbol) (Node, error)
}

// matches reports whether the window starting at syms[0] fits the pattern.
func (r Rule) matches(syms []Symbol) bool {
	if len(syms) < len(r.Pattern) {
		return false
	}
	for i, want := range r.Pattern {
		if !kindIn(syms[i].Kind(), want) {
			return false
		}
	}
	return true
}

func kindIn(kind, alts string) bool {
	for {
		alt, rest, more := strings.Cut(alts, "|")
		if alt == kind {
			return true
		}
		if !more {
			return false
		}
		alts = rest
	}
}

func (r Rule) String() string {
	return strings.Join(r.Pattern, " ")
}

// Rules is the grammar, highest priority first. The rewriter tries every rule
// at one position before moving right, so a value at some precedence level is
// only promoted to the next level once the rule that would attach a pending
// operator of its own level has failed. That single-symbol lookahead gives
// '* / div %' over '+ -' over comparisons over 'and or', all left-assoc.
var Rules = []Rule{
	{p("FUN_INIT INIT_FUN_PARAMS Block"), buildFunction},
	{p("FUN_INIT ) Block"), buildFunction},
	{p("FUN_CALL"), buildCall},
	{p("WHILE Expression Block"), func(s []Symbol) (Node, error) {
		return &While{Cond: s[1].(Node), Body: s[2].(*Block)}, nil
	}},
	{p("IF Expression Block"), func(s []Symbol) (Node, error) {
		return &If{Cond: s[1].(Node), Body: s[2].(*Block)}, nil
	}},
	{p("If ELSE"), func(s []Symbol) (Node, error) {
		return &PreIfElse{If: s[0].(*If)}, nil
	}},
	{p("PreIfElse Block"), func(s []Symbol) (Node, error) {
		pre := s[0].(*PreIfElse)
		return &IfElse{Cond: pre.If.Cond, Then: pre.If.Body, Else: s[1].(*Block)}, nil
	}},
	{p("{ Statement }"), func(s []Symbol) (Node, error) {
		return &Block{Body: s[1].(*Statement)}, nil
	}},
	{p("{ }"), func(s []Symbol) (Node, error) {
		return &Block{}, nil
	}},
	{p("STRING|INT|FLOAT"), func(s []Symbol) (Node, error) {
		t, err := ParseValueType(s[0].(Token).Value)
		if err != nil {
			return nil, err
		}
		return &VariableType{Type: t}, nil
	}},
	{p("VariableType VARIABLE"), func(s []Symbol) (Node, error) {
		return &VariableDecl{Type: s[0].(*VariableType).Type, Name: s[1].(Token).Value}, nil
	}},
	{p("VariableDecl ASSIGN"), func(s []Symbol) (Node, error) {
		return &PreAssign{Decl: s[0].(*VariableDecl)}, nil
	}},
	{p("VARIABLE ASSIGN"), func(s []Symbol) (Node, error) {
		return &PreReAssign{Name: s[0].(Token).Value}, nil
	}},
	{p("PreAssign Expression NEWLINE"), func(s []Symbol) (Node, error) {
		return &Assign{Decl: s[0].(*PreAssign).Decl, Value: s[1].(Node)}, nil
	}},
	{p("PreReAssign Expression NEWLINE"), func(s []Symbol) (Node, error) {
		return &ReAssign{Name: s[0].(*PreReAssign).Name, Value: s[1].(Node)}, nil
	}},
	{p("RETURN Expression NEWLINE"), func(s []Symbol) (Node, error) {
		return &Return{Value: s[1].(Node)}, nil
	}},
	{p("PRINT"), func(s []Symbol) (Node, error) {
		_, args := splitCall(s[0].(Token).Value)
		return &Print{Args: args}, nil
	}},
	{p("PRINT_STRING"), func(s []Symbol) (Node, error) {
		v := s[0].(Token).Value
		return &PrintString{Text: decodeString(v[len("print(") : len(v)-1])}, nil
	}},
	{p("( Expression )"), func(s []Symbol) (Node, error) {
		return &Factor{Form: FactorParen, Inner: s[1].(Node)}, nil
	}},
	{p("NUMBER|FLOAT_NUMBER|VARIABLE|STRING_CONST|CallFunction"), buildFactor},
	{p("PreTerm Factor"), func(s []Symbol) (Node, error) {
		pre := s[0].(*PreTerm)
		return &Term{Left: pre.Left, Op: pre.Op, Right: s[1].(Node)}, nil
	}},
	{p("Factor"), func(s []Symbol) (Node, error) {
		return &Term{Left: s[0].(Node)}, nil
	}},
	{p("Term STAR|SLASH|DIV|%"), func(s []Symbol) (Node, error) {
		return &PreTerm{Left: s[0].(Node), Op: s[1].(Token).Value}, nil
	}},
	{p("PreAdd Add"), func(s []Symbol) (Node, error) {
		pre := s[0].(*PreAdd)
		return &Add{Left: pre.Left, Op: pre.Op, Right: s[1].(Node)}, nil
	}},
	{p("Term"), func(s []Symbol) (Node, error) {
		return &Add{Left: s[0].(Node)}, nil
	}},
	{p("Add PLUS|MINUS"), func(s []Symbol) (Node, error) {
		return &PreAdd{Left: s[0].(Node), Op: s[1].(Token).Value}, nil
	}},
	{p("PreComparing Comparing"), func(s []Symbol) (Node, error) {
		pre := s[0].(*PreComparing)
		return &Comparing{Left: pre.Left, Op: pre.Op, Right: s[1].(Node)}, nil
	}},
	{p("Add"), func(s []Symbol) (Node, error) {
		return &Comparing{Left: s[0].(Node)}, nil
	}},
	{p("Comparing LT|GT|GTE|LTE|EQUAL|NOT_EQUAL"), func(s []Symbol) (Node, error) {
		return &PreComparing{Left: s[0].(Node), Op: s[1].(Token).Value}, nil
	}},
	{p("PreLogical Expression"), func(s []Symbol) (Node, error) {
		pre := s[0].(*PreLogical)
		return &LogicalOperator{Left: pre.Left, Op: pre.Op, Right: s[1].(Node)}, nil
	}},
	{p("Comparing"), func(s []Symbol) (Node, error) {
		return &Expression{Inner: s[0].(Node)}, nil
	}},
	{p("LogicalOperator"), func(s []Symbol) (Node, error) {
		return &Expression{Inner: s[0].(Node)}, nil
	}},
	{p("Expression AND|OR"), func(s []Symbol) (Node, error) {
		return &PreLogical{Left: s[0].(Node), Op: s[1].(Token).Value}, nil
	}},
	{p("BREAK|CONTINUE"), func(s []Symbol) (Node, error) {
		if s[0].(Token).Type == BREAK {
			return &Break{}, nil
		}
		return &Continue{}, nil
	}},
	{p("Expression NEWLINE"), func(s []Symbol) (Node, error) {
		return &Statement{Items: []Node{s[0].(Node)}}, nil
	}},
	{p("Break|Continue|FunctionDecl|Assign|ReAssign|Return|While|IfElse|If|Print|PrintString"), func(s []Symbol) (Node, error) {
		return &Statement{Items: []Node{s[0].(Node)}}, nil
	}},
	{p("Statement Statement"), func(s []Symbol) (Node, error) {
		a, b := s[0].(*Statement), s[1].(*Statement)
		items := make([]Node, 0, len(a.Items)+len(b.Items))
		items = append(items, a.Items...)
		items = append(items, b.Items...)
		return &Statement{Items: items}, nil
	}},
	{p("NEWLINE"), func(s []Symbol) (Node, error) {
		return &Statement{}, nil
	}},
}

func p(pattern string) []string { return strings.Fields(pattern) }

func buildFactor(s []Symbol) (Node, error) {
	if call, ok := s[0].(*CallFunction); ok {
		return &Factor{Form: FactorCall, Inner: call}, nil
	}
	tok := s[0].(Token)
	switch tok.Type {
	case NUMBER:
		return &Factor{Form: FactorInt, Text: tok.Value}, nil
	case FLOAT_NUMBER:
		return &Factor{Form: FactorFloat, Text: tok.Value}, nil
	case STRING_CONST:
		return &Factor{Form: FactorString, Text: tok.Value}, nil
	}
	return &Factor{Form: FactorIdent, Text: tok.Value}, nil
}

func buildCall(s []Symbol) (Node, error) {
	name, args := splitCall(s[0].(Token).Value)
	return &CallFunction{Name: name, Args: args}, nil
}

// buildFunction handles both header shapes: with a parameter list token and
// with a bare ')'.
func buildFunction(s []Symbol) (Node, error) {
	head := s[0].(Token).Value
	name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(head, "fun"), "("))
	decl := &FunctionDecl{Name: name, Body: s[2].(*Block)}

	tok := s[1].(Token)
	if tok.Type != INIT_FUN_PARAMS {
		return decl, nil
	}
	list := strings.TrimSuffix(strings.TrimSpace(tok.Value), ")")
	for _, item := range strings.Split(list, ",") {
		pname, ptype, _ := strings.Cut(item, ":")
		t, err := ParseValueType(strings.TrimSpace(ptype))
		if err != nil {
			return nil, fmt.Errorf("parameter %q of %s: %w", strings.TrimSpace(pname), name, err)
		}
		decl.Params = append(decl.Params, Param{Name: strings.TrimSpace(pname), Type: t})
	}
	return decl, nil
}

// splitCall splits "name(a, b)" into its name and argument names.
func splitCall(text string) (string, []string) {
	name, rest, _ := strings.Cut(text, "(")
	rest = strings.TrimSpace(strings.TrimSuffix(rest, ")"))
	if rest == "" {
		return name, nil
	}
	args := strings.Split(rest, ",")
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	return name, args
}
