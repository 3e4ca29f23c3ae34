package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	NEWLINE TokenType = iota

	// Skipped by the lexer; never reach the rewriter.
	SPACE
	MULTI_COMMENT
	COMMENT

	// Literals
	FLOAT_NUMBER // 3.14, .5
	NUMBER       // 42

	// Punctuation
	COMMA // ,
	DOT   // .
	GTE   // >=
	LTE   // <=
	GT    // >
	LT    // <

	// Logical keywords
	OR  // or
	AND // and

	EQUAL     // ==
	NOT_EQUAL // !=

	// Type keywords
	STRING // string
	INT    // int
	FLOAT  // float

	// Arithmetic (order matters: ASSIGN after EQUAL)
	ASSIGN  // =
	PLUS    // +
	MINUS   // -
	STAR    // *
	DIV     // div (integer quotient)
	SLASH   // /
	PERCENT // %

	// Statement keywords
	RETURN
	BREAK
	CONTINUE
	WHILE
	IF
	ELSE

	// Composite tokens: a name glued to its parenthesised list.
	FUN_INIT        // fun name(
	PRINT_STRING    // print('text')
	PRINT           // print(a, b)
	FUN_CALL        // name(a, b)
	INIT_FUN_PARAMS // a: int, b: float)

	// Paired delimiters
	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }

	STRING_CONST // 'text'
	VARIABLE     // identifier
)

// tokenNames doubles as the kind-name table the grammar rules match against,
// so punctuation keeps its literal spelling.
var tokenNames = [...]string{
	NEWLINE:         "NEWLINE",
	SPACE:           "SPACE",
	MULTI_COMMENT:   "MULTI_COMMENT",
	COMMENT:         "COMMENT",
	FLOAT_NUMBER:    "FLOAT_NUMBER",
	NUMBER:          "NUMBER",
	COMMA:           "COMMA",
	DOT:             "DOT",
	GTE:             "GTE",
	LTE:             "LTE",
	GT:              "GT",
	LT:              "LT",
	OR:              "OR",
	AND:             "AND",
	EQUAL:           "EQUAL",
	NOT_EQUAL:       "NOT_EQUAL",
	STRING:          "STRING",
	INT:             "INT",
	FLOAT:           "FLOAT",
	ASSIGN:          "ASSIGN",
	PLUS:            "PLUS",
	MINUS:           "MINUS",
	STAR:            "STAR",
	DIV:             "DIV",
	SLASH:           "SLASH",
	PERCENT:         "%",
	RETURN:          "RETURN",
	BREAK:           "BREAK",
	CONTINUE:        "CONTINUE",
	WHILE:           "WHILE",
	IF:              "IF",
	ELSE:            "ELSE",
	FUN_INIT:        "FUN_INIT",
	PRINT_STRING:    "PRINT_STRING",
	PRINT:           "PRINT",
	FUN_CALL:        "FUN_CALL",
	INIT_FUN_PARAMS: "INIT_FUN_PARAMS",
	LPAREN:          "(",
	RPAREN:          ")",
	LBRACE:          "{",
	RBRACE:          "}",
	STRING_CONST:    "STRING_CONST",
	VARIABLE:        "VARIABLE",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer. Tokens are never
// mutated once created.
type Token struct {
	Type  TokenType
	Value string // the exact source text that was matched
	Line  int    // 1-based source line
	Col   int    // 1-based column of the first character
}

// Kind implements Symbol.
func (t Token) Kind() string { return t.Type.String() }

func (t Token) String() string {
	return fmt.Sprintf("%-16s %-14q  %d:%d", t.Type, t.Value, t.Line, t.Col)
}
