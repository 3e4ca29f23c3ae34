package compiler

import (
	"fmt"
	"strings"

	"aplc/pkg/asm"
)

// Result is the output of a successful compilation.
type Result struct {
	Tokens []Token
	AST    Node
	Code   string // instruction section
	Data   string // data section
	Scopes string // dump of the scope tree
	Check  asm.Summary
}

// Compile runs the whole pipeline on src: lex, parse, evaluate and, unless
// WithoutCheck is given, validate the emitted assembly. On error no partial
// output is returned.
func Compile(src string, opts ...Option) (*Result, error) {
	cg := NewCodeGen(opts...)

	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}

	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	cg.log.Debug("lexed", "tokens", len(tokens))

	p := NewParser(tokens, cg.log)
	root, err := p.Parse()
	if err != nil {
		return nil, err
	}
	cg.log.Debug("parsed", "reductions", p.Reductions())

	if err := cg.Evaluate(root); err != nil {
		return nil, err
	}

	res := &Result{
		Tokens: tokens,
		AST:    root,
		Code:   cg.Code(),
		Data:   cg.Data(),
		Scopes: cg.Scopes(),
	}
	if cg.check {
		sum, err := asm.Check(res.Code, res.Data)
		if err != nil {
			return nil, fmt.Errorf("assembly check: %w", err)
		}
		res.Check = sum
	}
	return res, nil
}
