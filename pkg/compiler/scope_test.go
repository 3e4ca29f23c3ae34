package compiler

import (
	"errors"
	"strings"
	"testing"
)

func TestScopeQualify(t *testing.T) {
	root := NewScope()
	f := root.Child("f")
	g := f.Child("g")

	tests := []struct {
		scope *Scope
		want  string
	}{
		{root, "x"},
		{f, "f__x"},
		{g, "f__g__x"},
	}
	for _, tt := range tests {
		if got := tt.scope.Qualify("x"); got != tt.want {
			t.Errorf("Qualify(x) = %q, want %q", got, tt.want)
		}
	}
	if f.Child("g") != g {
		t.Error("Child returned a new scope for an existing name")
	}
	if g.Parent() != f || g.Name() != "g" {
		t.Error("child scope has the wrong parent or name")
	}
}

func TestScopeDeclareLookup(t *testing.T) {
	root := NewScope()
	f := root.Child("f")

	a, err := root.Declare("a", TypeInt)
	if err != nil {
		t.Fatalf("Declare() error = %v", err)
	}
	if a.Name != "a" || !a.Indirect() {
		t.Errorf("Declare() = %v", a)
	}
	if _, err := root.Declare("a", TypeFloat); !errors.Is(err, ErrRedeclared) {
		t.Errorf("expected ErrRedeclared, got %v", err)
	}

	// Shadowing an outer name is allowed.
	inner, err := f.Declare("a", TypeFloat)
	if err != nil {
		t.Fatalf("shadowing Declare() error = %v", err)
	}
	if inner.Name != "f__a" {
		t.Errorf("shadowed name = %q", inner.Name)
	}

	got, ok := f.Lookup("a")
	if !ok || got.Name != "f__a" || got.Type != TypeFloat {
		t.Errorf("Lookup(a) in f = %v, %v", got, ok)
	}
	if _, err := root.Declare("b", TypeInt); err != nil {
		t.Fatal(err)
	}
	got, ok = f.Lookup("b")
	if !ok || got.Name != "b" {
		t.Errorf("Lookup(b) through parent = %v, %v", got, ok)
	}
	if _, ok := f.LookupDirect("b"); ok {
		t.Error("LookupDirect found a parent variable")
	}
	if _, ok := root.Lookup("missing"); ok {
		t.Error("Lookup found an undeclared name")
	}
}

func TestScopeNaming(t *testing.T) {
	root := NewScope()
	for _, name := range []string{"a__b", "eax", "printf", "dword"} {
		if _, err := root.Declare(name, TypeInt); !errors.Is(err, ErrNaming) {
			t.Errorf("Declare(%q): expected ErrNaming, got %v", name, err)
		}
	}
}

func TestScopeLabels(t *testing.T) {
	root := NewScope()
	f := root.Child("f")

	if l := root.NewLabel("if"); l != "if__1" {
		t.Errorf("NewLabel = %q", l)
	}
	if l := f.NewLabel("whilelb"); l != "f__whilelb__1" {
		t.Errorf("NewLabel = %q", l)
	}
	if l := f.NewLabel("whilelb"); l != "f__whilelb__2" {
		t.Errorf("NewLabel = %q", l)
	}
	cur, ok := f.Label("whilelb")
	if !ok || cur != "f__whilelb__2" {
		t.Errorf("Label(whilelb) = %q, %v", cur, ok)
	}
	if _, ok := root.Label("whilelb"); ok {
		t.Error("labels leaked into the parent scope")
	}
	if n := f.NewTempName(); n != "f__ts__1" {
		t.Errorf("NewTempName = %q", n)
	}
}

func TestScopeFunctions(t *testing.T) {
	root := NewScope()
	decl := &FunctionDecl{Name: "f", Params: []Param{{Name: "x", Type: TypeInt}}}

	q, err := root.DefineFunc(decl)
	if err != nil || q != "f" {
		t.Fatalf("DefineFunc() = %q, %v", q, err)
	}
	if _, err := root.DefineFunc(decl); err != nil {
		t.Errorf("re-registering the same declaration failed: %v", err)
	}
	if _, err := root.DefineFunc(&FunctionDecl{Name: "f"}); !errors.Is(err, ErrRedeclared) {
		t.Errorf("expected ErrRedeclared, got %v", err)
	}

	fn, ok := root.Child("g").LookupFunc("f")
	if !ok || fn.decl != decl || fn.owner != root {
		t.Errorf("LookupFunc through parent failed")
	}
}

func TestScopeString(t *testing.T) {
	root := NewScope()
	root.Declare("b", TypeInt)
	root.Declare("a", TypeFloat)
	root.DefineFunc(&FunctionDecl{Name: "f", Params: []Param{{Name: "x", Type: TypeInt}}})
	root.Child("f").Declare("x", TypeInt)

	dump := root.String()
	assertContains(t, dump, `Scope <root> (prefix "")`)
	assertContains(t, dump, `  Scope f (prefix "f__")`)
	assertContains(t, dump, "(1 params)")
	assertContains(t, dump, "f__x")
	if strings.Index(dump, "var  a") > strings.Index(dump, "var  b") {
		t.Errorf("variables not sorted:\n%s", dump)
	}
	if dump != root.String() {
		t.Error("String() is not deterministic")
	}
}
