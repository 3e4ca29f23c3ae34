package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// Separator joins scope names into qualified storage names. The target has a
// single flat namespace, so "x" inside function "f" is stored as "f__x".
const Separator = "__"

// reserved holds names that would be read as registers or assembler syntax.
var reserved = map[string]bool{
	"eax": true, "ebx": true, "ecx": true, "edx": true,
	"esi": true, "edi": true, "esp": true, "ebp": true,
	"ah": true, "al": true,
	"db": true, "dd": true, "dup": true, "dword": true, "byte": true,
	"format": true, "entry": true, "section": true, "include": true,
	"invoke": true, "cinvoke": true,
	"formatint": true, "formatfloat": true, "formatstr": true, "printf": true,
	"mov": true, "add": true, "sub": true, "imul": true, "idiv": true,
	"cdq": true, "lahf": true, "cmp": true, "neg": true, "sbb": true,
	"shr": true, "xor": true, "push": true, "pop": true,
	"jmp": true, "je": true, "jne": true,
}

// checkName rejects identifiers that would corrupt qualified-name lookup or
// collide with target syntax.
func checkName(name string) error {
	if strings.Contains(name, Separator) {
		return fmt.Errorf("%w: identifier %q contains %q", ErrNaming, name, Separator)
	}
	if reserved[name] {
		return fmt.Errorf("%w: identifier %q is reserved by the target", ErrNaming, name)
	}
	return nil
}

// funcEntry is a callable registered in a scope.
type funcEntry struct {
	decl      *FunctionDecl
	owner     *Scope // scope the function was declared in
	qualified string
}

// Scope is one level of the namespace tree. Every name is qualified with the
// scope's prefix before it is stored or looked up.
type Scope struct {
	name     string
	parent   *Scope
	vars     map[string]Operand
	funcs    map[string]*funcEntry
	labels   map[string]string
	children map[string]*Scope

	lastLabel int
	lastTemp  int
}

// NewScope returns an empty root scope.
func NewScope() *Scope {
	return newScope("", nil)
}

func newScope(name string, parent *Scope) *Scope {
	return &Scope{
		name:     name,
		parent:   parent,
		vars:     make(map[string]Operand),
		funcs:    make(map[string]*funcEntry),
		labels:   make(map[string]string),
		children: make(map[string]*Scope),
	}
}

func (s *Scope) Name() string   { return s.name }
func (s *Scope) Parent() *Scope { return s.parent }

// Prefix is the chain of enclosing scope names, each followed by Separator.
// The root scope has an empty prefix.
func (s *Scope) Prefix() string {
	if s.parent == nil {
		return ""
	}
	return s.parent.Prefix() + s.name + Separator
}

// Qualify prefixes name with this scope's prefix.
func (s *Scope) Qualify(name string) string {
	return s.Prefix() + name
}

// Child returns the child scope called name, creating it on first use. The
// same child is returned for every later call, so all invocations of a
// function share one storage scope.
func (s *Scope) Child(name string) *Scope {
	if c, ok := s.children[name]; ok {
		return c
	}
	c := newScope(name, s)
	s.children[name] = c
	return c
}

// Declare registers a variable in this scope and returns its storage operand.
// It fails if the qualified name already exists here; shadowing a variable
// of an enclosing scope is allowed.
func (s *Scope) Declare(name string, t ValueType) (Operand, error) {
	if err := checkName(name); err != nil {
		return Operand{}, err
	}
	q := s.Qualify(name)
	if _, ok := s.vars[q]; ok {
		return Operand{}, fmt.Errorf("%w: variable %q already defined", ErrRedeclared, name)
	}
	op := Variable(q, t)
	s.vars[q] = op
	return op, nil
}

// LookupDirect finds name in this scope only.
func (s *Scope) LookupDirect(name string) (Operand, bool) {
	op, ok := s.vars[s.Qualify(name)]
	return op, ok
}

// Lookup finds name in this scope or the nearest ancestor that has it. The
// qualified name is rebuilt at every level since prefixes differ.
func (s *Scope) Lookup(name string) (Operand, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if op, ok := sc.vars[sc.Qualify(name)]; ok {
			return op, true
		}
	}
	return Operand{}, false
}

// DefineFunc registers decl as callable in this scope. Registering the same
// declaration again is a no-op.
func (s *Scope) DefineFunc(decl *FunctionDecl) (string, error) {
	if err := checkName(decl.Name); err != nil {
		return "", err
	}
	q := s.Qualify(decl.Name)
	if prev, ok := s.funcs[q]; ok {
		if prev.decl != decl {
			return "", fmt.Errorf("%w: function %q already defined", ErrRedeclared, decl.Name)
		}
		return q, nil
	}
	s.funcs[q] = &funcEntry{decl: decl, owner: s, qualified: q}
	return q, nil
}

// LookupFunc resolves a function name through the scope chain.
func (s *Scope) LookupFunc(name string) (*funcEntry, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if f, ok := sc.funcs[sc.Qualify(name)]; ok {
			return f, true
		}
	}
	return nil, false
}

// NewLabel mints a unique label of the given kind and remembers it as the
// current label for that kind, replacing any earlier one.
func (s *Scope) NewLabel(kind string) string {
	s.lastLabel++
	l := fmt.Sprintf("%s%s%s%d", s.Prefix(), kind, Separator, s.lastLabel)
	s.labels[kind] = l
	return l
}

// EndLabel and ElseLabel derive the companion labels of a minted label. A
// minted label always ends in its counter, so a suffix after the separator can
// never equal another minted label.
func EndLabel(label string) string  { return label + Separator + "end" }
func ElseLabel(label string) string { return label + Separator + "else" }

// Label returns the label most recently minted for kind in this scope.
func (s *Scope) Label(kind string) (string, bool) {
	l, ok := s.labels[kind]
	return l, ok
}

// NewTempName returns a fresh name for a hoisted string constant.
func (s *Scope) NewTempName() string {
	s.lastTemp++
	return fmt.Sprintf("%sts%s%d", s.Prefix(), Separator, s.lastTemp)
}

// String returns a deterministically ordered dump of the scope tree.
func (s *Scope) String() string {
	var sb strings.Builder
	s.dump(&sb, 0)
	return sb.String()
}

func (s *Scope) dump(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	name := s.name
	if s.parent == nil {
		name = "<root>"
	}
	fmt.Fprintf(sb, "%sScope %s (prefix %q)\n", indent, name, s.Prefix())

	names := make([]string, 0, len(s.vars))
	for n := range s.vars {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(sb, "%s  var  %-20s %s\n", indent, n, s.vars[n].Type)
	}

	names = names[:0]
	for n := range s.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(sb, "%s  fun  %-20s (%d params)\n", indent, n, len(s.funcs[n].decl.Params))
	}

	names = names[:0]
	for n := range s.children {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		s.children[n].dump(sb, depth+1)
	}
}
