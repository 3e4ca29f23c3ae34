// Command console is an interactive front end to the compiler. Lines are
// collected until an empty line, then the buffer is compiled and the
// generated sections are printed.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"aplc/pkg/compiler"
	"aplc/pkg/logger"
	"aplc/pkg/translator"
)

const (
	historyFile = ".aplc_history"
	promptMain  = "apl> "
	promptCont  = "...> "
	banner      = "APL console. Finish a program with an empty line; :help lists commands."
)

// session keeps the last successful compilation for the inspection commands.
type session struct {
	last *compiler.Result
}

func main() {
	if err := logger.Init(logger.Config{Level: logger.LevelWarn, Format: "text", Output: os.Stderr}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	os.Exit(repl())
}

func repl() int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	s := &session{}
	for {
		src, ok := readProgram(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if s.command(trimmed) {
				return 0
			}
			continue
		}

		res, err := compiler.Compile(src)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		s.last = res
		fmt.Print(res.Code)
		if res.Data != "" {
			fmt.Println("; data")
			fmt.Print(res.Data)
		}
		for _, line := range strings.Split(strings.TrimRight(src, "\n"), "\n") {
			ln.AppendHistory(line)
		}
	}
}

// readProgram reads lines until an empty one. A line starting with ':' is a
// command and is returned alone. It reports false once input has ended or
// can no longer be read.
func readProgram(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "error reading line:", err)
			return "", false
		}
		if b.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			ln.AppendHistory(line)
			return line, true
		}
		if strings.TrimSpace(line) == "" {
			return b.String(), true
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// command runs a ':' command and reports whether the console should exit.
func (s *session) command(cmd string) bool {
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Println(":ast      JSON AST of the last program")
		fmt.Println(":scopes   scope table of the last program")
		fmt.Println(":program  last program inside the output template")
		fmt.Println(":quit     exit")
	case ":ast", ":scopes", ":program":
		if s.last == nil {
			fmt.Println("nothing compiled yet")
			return false
		}
		switch strings.ToLower(cmd) {
		case ":ast":
			if err := compiler.DumpAST(os.Stdout, s.last.AST); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		case ":scopes":
			fmt.Print(s.last.Scopes)
		default:
			fmt.Print(translator.Render(s.last.Code, s.last.Data))
		}
	default:
		fmt.Println("unknown command. Type :help for a list.")
	}
	return false
}
