package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"aplc/pkg/compiler"
	"aplc/pkg/logger"
	"aplc/pkg/translator"
	"aplc/pkg/utils"
)

func main() {
	inPath := flag.String("in", "", "input APL source file path")
	outPath := flag.String("out", "", "output assembly file path (default: input with .asm extension)")
	astOut := flag.Bool("ast", false, "also write the AST as JSON next to the output (.ast.json)")
	showAsm := flag.Bool("show-asm", false, "print the generated program to stdout")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn or error")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	noCheck := flag.Bool("no-check", false, "skip validating the generated assembly")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in <file.apl>")
		flag.Usage()
		os.Exit(2)
	}

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := logger.Init(logger.Config{Level: level, Format: *logFormat, Output: os.Stderr}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(*inPath, *outPath, *astOut, *showAsm, *noCheck); err != nil {
		fmt.Fprintf(os.Stderr, "compilation failed: %v\n", err)
		os.Exit(1)
	}
}

func run(inPath, outPath string, astOut, showAsm, noCheck bool) error {
	start := time.Now()
	fullPath, _, err := utils.GetPathInfo(inPath)
	if err != nil {
		return err
	}
	logger.LogFileProcessing(fullPath)

	source, err := os.ReadFile(fullPath)
	if err != nil {
		return fmt.Errorf("failed to read input file %q: %w", inPath, err)
	}

	var opts []compiler.Option
	if noCheck {
		opts = append(opts, compiler.WithoutCheck())
	}
	res, err := compiler.Compile(string(source), opts...)
	if err != nil {
		logger.LogError("compile", fullPath, err)
		logger.LogCompilerComplete(false, "", time.Since(start).String())
		return err
	}
	logger.LogLexing(fullPath, len(res.Tokens))
	logger.LogCodeGen(fullPath, len(res.Code), len(res.Data))

	output := outPath
	if output == "" {
		output = utils.ReplaceExt(inPath, ".asm")
	}
	if err := translator.WriteFile(output, res.Code, res.Data); err != nil {
		return err
	}

	if astOut {
		if err := writeAST(utils.ReplaceExt(output, ".ast.json"), res.AST); err != nil {
			return err
		}
	}

	if showAsm {
		fmt.Print(translator.Render(res.Code, res.Data))
	}

	fmt.Printf("compiled %s -> %s (%d instructions)\n", inPath, output, res.Check.Instructions)
	logger.LogCompilerComplete(true, output, time.Since(start).String())
	return nil
}

func writeAST(path string, root compiler.Node) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := compiler.DumpAST(f, root); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
