// Command aplc prints every stage of a compilation: tokens, AST, scopes and
// the generated assembly.
package main

import (
	"fmt"
	"os"
	"strings"

	"aplc/pkg/compiler"
	"aplc/pkg/logger"
)

const testSource = `int a = 3 + 10 * 2
fun twice(x: int) {
    return x * 2
}
int b = twice(a)
print(a, b)
`

func main() {
	src, name := testSource, "<builtin>"
	if len(os.Args) > 1 {
		name = os.Args[1]
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	fmt.Printf("Source:\n%s\n", src)

	logger.LogPhase("lex")
	tokens, err := compiler.Lex(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lex error:", err)
		os.Exit(1)
	}
	logger.LogLexing(name, len(tokens))
	fmt.Printf("Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	logger.LogPhase("parse")
	p := compiler.NewParser(tokens, logger.Get())
	root, err := p.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}
	logger.LogParsing(name, p.Reductions())
	fmt.Printf("AST (%d reductions)\n", p.Reductions())
	if err := compiler.DumpAST(os.Stdout, root); err != nil {
		fmt.Fprintln(os.Stderr, "dump error:", err)
		os.Exit(1)
	}
	fmt.Println()

	logger.LogPhase("codegen")
	cg := compiler.NewCodeGen()
	if err := cg.Evaluate(root); err != nil {
		fmt.Fprintln(os.Stderr, "codegen error:", err)
		os.Exit(1)
	}
	logger.LogPhaseComplete("codegen")

	fmt.Println("Code")
	fmt.Print(cg.Code())
	fmt.Println()
	fmt.Println("Data")
	fmt.Print(cg.Data())
	fmt.Println()
	fmt.Print(cg.Scopes())
}
