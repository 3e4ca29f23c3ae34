package compiler

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func parseSource(t *testing.T, src string) *Statement {
	t.Helper()
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex() error = %v", err)
	}
	root, err := Parse(tokens)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	st, ok := root.(*Statement)
	if !ok {
		t.Fatalf("root is %T, want *Statement", root)
	}
	return st
}

// sexpr renders an expression with the promotion wrappers removed.
func sexpr(n Node) string {
	bin := func(op string, l, r Node) string {
		if r == nil {
			return sexpr(l)
		}
		return "(" + op + " " + sexpr(l) + " " + sexpr(r) + ")"
	}
	switch n := n.(type) {
	case *Expression:
		return sexpr(n.Inner)
	case *LogicalOperator:
		return bin(n.Op, n.Left, n.Right)
	case *Comparing:
		return bin(n.Op, n.Left, n.Right)
	case *Add:
		return bin(n.Op, n.Left, n.Right)
	case *Term:
		return bin(n.Op, n.Left, n.Right)
	case *Factor:
		if n.Inner != nil {
			return sexpr(n.Inner)
		}
		return n.Text
	case *CallFunction:
		return n.Name + "(" + strings.Join(n.Args, ",") + ")"
	}
	return n.Kind()
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Precedence", "a = 3 + 10 * 2\n", "(+ 3 (* 10 2))"},
		{"Left associative add", "a = 1 - 2 - 3\n", "(- (- 1 2) 3)"},
		{"Left associative term", "a = 8 / 4 * 2\n", "(* (/ 8 4) 2)"},
		{"Parentheses", "a = (1 + 2) * 3\n", "(* (+ 1 2) 3)"},
		{"Modulo and div", "a = 7 % 3 + 9 div 2\n", "(+ (% 7 3) (div 9 2))"},
		{"Comparison below add", "a = b + 1 < c\n", "(< (+ b 1) c)"},
		{"Logical", "a = 1 < 2 and 3 == 3 or 0\n", "(or (and (< 1 2) (== 3 3)) 0)"},
		{"Float and call", "a = f(x, y) * 2.5\n", "(* f(x,y) 2.5)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := parseSource(t, tt.input)
			if len(st.Items) != 1 {
				t.Fatalf("got %d statements, want 1", len(st.Items))
			}
			ra, ok := st.Items[0].(*ReAssign)
			if !ok {
				t.Fatalf("statement is %T, want *ReAssign", st.Items[0])
			}
			if got := sexpr(ra.Value); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseDeclaration(t *testing.T) {
	st := parseSource(t, "float f = 2.5\nstring s = 'hi'\n")
	if len(st.Items) != 2 {
		t.Fatalf("got %d statements, want 2", len(st.Items))
	}
	a := st.Items[0].(*Assign)
	if a.Decl.Type != TypeFloat || a.Decl.Name != "f" || sexpr(a.Value) != "2.5" {
		t.Errorf("first assign = %+v", a.Decl)
	}
	b := st.Items[1].(*Assign)
	if b.Decl.Type != TypeString {
		t.Errorf("second assign type = %s", b.Decl.Type)
	}
	if text, ok := stringLiteral(b.Value); !ok || text != "hi" {
		t.Errorf("string literal = %q, %v", text, ok)
	}
}

func TestParseIfElse(t *testing.T) {
	st := parseSource(t, "if (a > 1) {\n b = 1\n} else {\n b = 2\n}\n")
	ie, ok := st.Items[0].(*IfElse)
	if !ok {
		t.Fatalf("statement is %T, want *IfElse", st.Items[0])
	}
	if got := sexpr(ie.Cond); got != "(> a 1)" {
		t.Errorf("condition = %s", got)
	}
	then := ie.Then.Body.Items[0].(*ReAssign)
	els := ie.Else.Body.Items[0].(*ReAssign)
	if sexpr(then.Value) != "1" || sexpr(els.Value) != "2" {
		t.Errorf("branches = %s / %s", sexpr(then.Value), sexpr(els.Value))
	}
}

func TestParseWhile(t *testing.T) {
	st := parseSource(t, "while (i < 10) { i = i + 1 }\n")
	w, ok := st.Items[0].(*While)
	if !ok {
		t.Fatalf("statement is %T, want *While", st.Items[0])
	}
	if got := sexpr(w.Cond); got != "(< i 10)" {
		t.Errorf("condition = %s", got)
	}
	if len(w.Body.Body.Items) != 1 {
		t.Errorf("body has %d statements", len(w.Body.Body.Items))
	}
}

func TestParseFunction(t *testing.T) {
	st := parseSource(t, "fun add(x: int, y: float) {\n return x + y\n}\nfun g() {\n print('x')\n}\n")
	if len(st.Items) != 2 {
		t.Fatalf("got %d statements, want 2", len(st.Items))
	}

	f := st.Items[0].(*FunctionDecl)
	if f.Name != "add" {
		t.Errorf("name = %q", f.Name)
	}
	want := []Param{{Name: "x", Type: TypeInt}, {Name: "y", Type: TypeFloat}}
	if !reflect.DeepEqual(f.Params, want) {
		t.Errorf("params = %+v, want %+v", f.Params, want)
	}
	ret := f.Body.Body.Items[0].(*Return)
	if got := sexpr(ret.Value); got != "(+ x y)" {
		t.Errorf("return value = %s", got)
	}

	g := st.Items[1].(*FunctionDecl)
	if g.Name != "g" || len(g.Params) != 0 {
		t.Errorf("g = %q with %d params", g.Name, len(g.Params))
	}
	if ps, ok := g.Body.Body.Items[0].(*PrintString); !ok || ps.Text != "x" {
		t.Errorf("g body = %#v", g.Body.Body.Items[0])
	}
}

func TestParsePrint(t *testing.T) {
	st := parseSource(t, "print(a, b,c)")
	p, ok := st.Items[0].(*Print)
	if !ok {
		t.Fatalf("statement is %T, want *Print", st.Items[0])
	}
	if !reflect.DeepEqual(p.Args, []string{"a", "b", "c"}) {
		t.Errorf("args = %q", p.Args)
	}
}

func TestParseEmpty(t *testing.T) {
	st := parseSource(t, "")
	if len(st.Items) != 0 {
		t.Errorf("empty input gave %d statements", len(st.Items))
	}
	st = parseSource(t, "\n\n// nothing\n")
	if len(st.Items) != 0 {
		t.Errorf("blank input gave %d statements", len(st.Items))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		target  error
		message string
	}{
		{"Missing value", "int a = \n", ErrSyntax, "PreAssign Statement"},
		{"Dangling operator", "a = 1 +\n", ErrSyntax, "PreAdd"},
		{"Unclosed block", "while (a) {\n a = 1\n", ErrSyntax, "cannot reduce"},
		{"Unknown parameter type", "fun f(x: bool) {\n}\n", ErrTypeMismatch, `"bool"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex() error = %v", err)
			}
			_, err = Parse(tokens)
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not contain %q", err, tt.message)
			}
		})
	}
}

func TestParserReductions(t *testing.T) {
	tokens, err := Lex("a = 1\n")
	if err != nil {
		t.Fatal(err)
	}
	p := NewParser(tokens, nil)
	if _, err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	// PreReAssign Factor Term Add Comparing Expression ReAssign Statement
	if p.Reductions() != 8 {
		t.Errorf("Reductions() = %d, want 8", p.Reductions())
	}
}
