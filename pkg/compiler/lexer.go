package compiler

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	identPattern = `[a-z_][a-z0-9_]*`
	argsPattern  = identPattern + `(\s*,\s*` + identPattern + `)*`
	paramPattern = identPattern + `\s*:\s*[a-z]+`
)

// tokenRule pairs a token type with the regex that recognises it.
// Patterns are anchored at the current position when compiled.
type tokenRule struct {
	typ  TokenType
	re   *regexp.Regexp
	skip bool
}

func rule(tt TokenType, pattern string) tokenRule {
	return tokenRule{typ: tt, re: regexp.MustCompile(`^(?:` + pattern + `)`)}
}

func skipRule(tt TokenType, pattern string) tokenRule {
	r := rule(tt, pattern)
	r.skip = true
	return r
}

// tokenRules is tried top to bottom; the first pattern that matches at the
// current position wins, so keywords must precede VARIABLE and the composite
// call/print forms must precede both.
var tokenRules = []tokenRule{
	rule(NEWLINE, `\n`),
	skipRule(SPACE, `[ \t\r\f\v]`),
	skipRule(MULTI_COMMENT, `//![\s\S]*?!//`),
	skipRule(COMMENT, `//[^\n]*`),
	rule(FLOAT_NUMBER, `[0-9]*\.[0-9]+`),
	rule(NUMBER, `[0-9]+`),
	rule(COMMA, `,`),
	rule(DOT, `\.`),
	rule(GTE, `>=`),
	rule(LTE, `<=`),
	rule(GT, `>`),
	rule(LT, `<`),
	rule(OR, `or\b`),
	rule(AND, `and\b`),
	rule(EQUAL, `==`),
	rule(NOT_EQUAL, `!=`),
	rule(STRING, `string\b`),
	rule(INT, `int\b`),
	rule(FLOAT, `float\b`),
	rule(ASSIGN, `=`),
	rule(PLUS, `\+`),
	rule(MINUS, `-`),
	rule(STAR, `\*`),
	rule(DIV, `div\b`),
	rule(SLASH, `/`),
	rule(PERCENT, `%`),
	rule(RETURN, `return\b`),
	rule(BREAK, `break\b`),
	rule(CONTINUE, `continue\b`),
	rule(WHILE, `while\b`),
	rule(IF, `if\b`),
	rule(ELSE, `else\b`),
	rule(FUN_INIT, `fun\s+`+identPattern+`\(`),
	rule(PRINT_STRING, `print\('[^'\n]*'\)`),
	rule(PRINT, `print\(\s*`+argsPattern+`\s*\)`),
	rule(FUN_CALL, identPattern+`\(\s*(`+argsPattern+`)?\s*\)`),
	rule(INIT_FUN_PARAMS, paramPattern+`(\s*,\s*`+paramPattern+`)*\s*\)`),
	rule(LPAREN, `\(`),
	rule(RPAREN, `\)`),
	rule(LBRACE, `\{`),
	rule(RBRACE, `\}`),
	rule(STRING_CONST, `'[^'\n]*'`),
	rule(VARIABLE, identPattern),
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src    string
	pos    int // byte offset of the next unread character
	line   int // current 1-based source line
	col    int // current 1-based column
	tokens []Token
}

func newLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// match returns the first rule matching at the current position and the
// matched text.
func (l *Lexer) match() (tokenRule, string, bool) {
	rest := l.src[l.pos:]
	for _, r := range tokenRules {
		if m := r.re.FindString(rest); m != "" {
			return r, m, true
		}
	}
	return tokenRule{}, "", false
}

// advance moves the cursor over text, keeping line and column current.
func (l *Lexer) advance(text string) {
	for _, r := range text {
		if r == '\n' {
			l.line++
			l.col = 1
			continue
		}
		l.col++
	}
	l.pos += len(text)
}

// currentLine returns the remainder of the line being scanned.
func (l *Lexer) currentLine() string {
	rest := l.src[l.pos:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func (l *Lexer) emit(tt TokenType, value string, line, col int) {
	// A closing brace also terminates the statement before it, which lets
	// one-line bodies such as `{ a = a + 1 }` reduce.
	if tt == RBRACE && len(l.tokens) > 0 {
		prev := l.tokens[len(l.tokens)-1].Type
		if prev != NEWLINE && prev != LBRACE {
			l.tokens = append(l.tokens, Token{Type: NEWLINE, Value: "\n", Line: line, Col: col})
		}
	}
	if tt == STRING_CONST {
		value = decodeString(value)
	}
	l.tokens = append(l.tokens, Token{Type: tt, Value: value, Line: line, Col: col})
}

func (l *Lexer) run() ([]Token, error) {
	for l.pos < len(l.src) {
		r, text, ok := l.match()
		if !ok {
			return l.tokens, fmt.Errorf("%w: line %d:%d near %q", ErrLexical, l.line, l.col, l.currentLine())
		}
		line, col := l.line, l.col
		l.advance(text)
		if !r.skip {
			l.emit(r.typ, text, line, col)
		}
	}
	return l.tokens, nil
}

// decodeString strips the surrounding quotes from a string literal.
func decodeString(raw string) string {
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return raw[1 : len(raw)-1]
	}
	return raw
}

// Lex tokenises src. Whitespace and comments are dropped. It returns the
// tokens scanned so far and an ErrLexical error when no rule matches.
func Lex(src string) ([]Token, error) {
	return newLexer(src).run()
}
