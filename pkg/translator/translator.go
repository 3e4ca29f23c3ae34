// Package translator packages the compiler's code and data text into a
// complete FASM source file for a Windows console program.
package translator

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Placeholders in the template that receive the two sections.
const (
	CodeMarker = ";;code;;"
	DataMarker = ";;data;;"
)

//go:embed template.asm
var template string

// Render splices code and data into the template. Trailing newlines are
// trimmed so the sections sit flush against the template text.
func Render(code, data string) string {
	r := strings.NewReplacer(
		CodeMarker, strings.TrimRight(code, "\n"),
		DataMarker, strings.TrimRight(data, "\n"),
	)
	return r.Replace(template)
}

// WriteFile renders the program and writes it to path, creating the parent
// directory if needed.
func WriteFile(path, code, data string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(Render(code, data)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
