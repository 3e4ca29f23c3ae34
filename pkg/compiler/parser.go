package compiler

import (
	"fmt"
	"log/slog"
	"strings"
)

// Parser rewrites a flat symbol sequence into a single AST root using Rules.
//
// Each step scans positions left to right and, at every position, tries the
// rules in list order. The first match is spliced into the sequence and the
// scan restarts from position 0. Parsing succeeds once one symbol remains.
type Parser struct {
	syms       []Symbol
	rules      []Rule
	log        *slog.Logger
	reductions int
}

// NewParser returns a parser over tokens. A nil logger discards debug output.
func NewParser(tokens []Token, log *slog.Logger) *Parser {
	syms := make([]Symbol, len(tokens))
	for i, t := range tokens {
		syms[i] = t
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Parser{syms: syms, rules: Rules, log: log}
}

// Reductions is the number of rewrites performed so far.
func (p *Parser) Reductions() int { return p.reductions }

// step applies the highest-priority rule at the leftmost position where any
// rule matches. It reports false when no rule matches anywhere.
func (p *Parser) step() (bool, error) {
	for i := range p.syms {
		window := p.syms[i:]
		for _, r := range p.rules {
			if !r.matches(window) {
				continue
			}
			n, err := r.Build(window[:len(r.Pattern)])
			if err != nil {
				return false, p.fmtError(window[0], "%w", err)
			}
			p.log.Debug("reduce", "rule", r.String(), "pos", i, "node", n.Kind())
			p.splice(i, len(r.Pattern), n)
			p.reductions++
			return true, nil
		}
	}
	return false, nil
}

// splice replaces syms[i:i+n] with node.
func (p *Parser) splice(i, n int, node Node) {
	p.syms[i] = node
	p.syms = append(p.syms[:i+1], p.syms[i+n:]...)
}

// Parse runs the rewriter to a fixed point and returns the program root,
// always a *Statement.
func (p *Parser) Parse() (Node, error) {
	if len(p.syms) == 0 {
		return &Statement{}, nil
	}
	for {
		ok, err := p.step()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}

	if len(p.syms) != 1 {
		return nil, fmt.Errorf("%w: cannot reduce %s", ErrSyntax, p.kinds())
	}
	root, isNode := p.syms[0].(Node)
	if !isNode || partial(root) {
		return nil, fmt.Errorf("%w: incomplete program %s", ErrSyntax, p.kinds())
	}
	if st, ok := root.(*Statement); ok {
		return st, nil
	}
	return &Statement{Items: []Node{root}}, nil
}

// kinds renders the remaining sequence for error messages.
func (p *Parser) kinds() string {
	names := make([]string, len(p.syms))
	for i, s := range p.syms {
		names[i] = s.Kind()
	}
	return "[" + strings.Join(names, " ") + "]"
}

// fmtError prefixes err with the source position of the first token of
// the window when there is one.
func (p *Parser) fmtError(at Symbol, format string, args ...any) error {
	if tok, ok := at.(Token); ok {
		return fmt.Errorf("line %d:%d: "+format, append([]any{tok.Line, tok.Col}, args...)...)
	}
	return fmt.Errorf(format, args...)
}

// Parse rewrites tokens into a program. It is shorthand for
// NewParser(tokens, nil).Parse().
func Parse(tokens []Token) (Node, error) {
	return NewParser(tokens, nil).Parse()
}
