// Package compiler translates APL, a small typed imperative language, into
// FASM x86 assembly for a Windows console program.
//
// Pipeline: source → Lex → Parse (rule rewriting) → CodeGen → code and data
// text, which pkg/translator splices into the program template.
package compiler
