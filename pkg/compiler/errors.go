package compiler

import "errors"

// Error kinds. Every compile error wraps exactly one of these, so callers can
// classify failures with errors.Is. None of them is recoverable.
var (
	ErrLexical    = errors.New("lexical error")
	ErrSyntax     = errors.New("syntax error")
	ErrRedeclared = errors.New("redeclaration")
	ErrUndefined  = errors.New("undefined reference")
	ErrNaming     = errors.New("naming convention violation")

	ErrTypeMismatch      = errors.New("type mismatch")
	ErrArity             = errors.New("argument count mismatch")
	ErrRecursion         = errors.New("recursive call not supported")
	ErrControlFlow       = errors.New("misplaced control statement")
	ErrRegisterExhausted = errors.New("register pool exhausted")
)
