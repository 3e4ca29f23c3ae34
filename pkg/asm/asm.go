// Package asm validates the FASM x86 subset the compiler emits.
//
// It does not encode anything. Check runs two passes over the instruction
// and data text: the first collects every label, the second verifies each
// instruction's mnemonic, operand count, operand shapes and references.
package asm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Symbols the output template defines around the emitted text.
var TemplateSymbols = []string{
	"formatint", "formatfloat", "formatstr",
	"printf", "ExitProcess", "BeginCode",
}

// operand shapes
type shape int

const (
	shapeReg   shape = 1 << iota // eax
	shapeMem                     // [name] or dword [name]
	shapeImm                     // 42
	shapeLabel                   // code label
	shapeSym                     // data or template symbol by address
)

const (
	shapeSrc = shapeReg | shapeMem | shapeImm
	shapeDst = shapeReg | shapeMem
)

// opSpec lists the accepted shape for each operand. A variadic spec accepts
// any number of trailing operands of the last shape.
type opSpec struct {
	operands []shape
	variadic bool
}

var instructions = map[string]opSpec{
	"CDQ":  {},
	"LAHF": {},

	"PUSH": {operands: []shape{shapeSrc}},
	"POP":  {operands: []shape{shapeDst}},
	"IDIV": {operands: []shape{shapeDst}},
	"NEG":  {operands: []shape{shapeReg}},

	"MOV":  {operands: []shape{shapeDst, shapeSrc}},
	"ADD":  {operands: []shape{shapeDst, shapeSrc}},
	"SUB":  {operands: []shape{shapeDst, shapeSrc}},
	"AND":  {operands: []shape{shapeDst, shapeSrc}},
	"OR":   {operands: []shape{shapeDst, shapeSrc}},
	"XOR":  {operands: []shape{shapeDst, shapeSrc}},
	"SBB":  {operands: []shape{shapeDst, shapeSrc}},
	"CMP":  {operands: []shape{shapeDst, shapeSrc}},
	"SHR":  {operands: []shape{shapeDst, shapeImm}},
	"IMUL": {operands: []shape{shapeReg, shapeSrc}},

	"JMP": {operands: []shape{shapeLabel}},
	"JE":  {operands: []shape{shapeLabel}},
	"JNE": {operands: []shape{shapeLabel}},

	"INVOKE":  {operands: []shape{shapeSym, shapeSrc | shapeSym}, variadic: true},
	"CINVOKE": {operands: []shape{shapeSym, shapeSrc | shapeSym}, variadic: true},
}

var registers = map[string]bool{
	"eax": true, "ebx": true, "ecx": true, "edx": true,
	"esi": true, "edi": true, "esp": true, "ebp": true,
	"ah": true, "al": true,
}

// Summary counts what a successful check saw.
type Summary struct {
	Instructions int
	Labels       int
	DataEntries  int
}

// Checker holds the symbol tables built by the first pass.
type Checker struct {
	labels map[string]int // code label -> line
	data   map[string]int // data symbol -> line
	extern map[string]bool
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewChecker(predefined ...string) *Checker {
	c := &Checker{
		labels: make(map[string]int),
		data:   make(map[string]int),
		extern: make(map[string]bool),
	}
	for _, s := range predefined {
		c.extern[s] = true
	}
	return c
}

// Check validates code and data against the template's symbols.
func Check(code, data string) (Summary, error) {
	return NewChecker(TemplateSymbols...).Check(code, data)
}

func (c *Checker) Check(code, data string) (Summary, error) {
	codeLines := strings.Split(code, "\n")

	if err := c.pass1(codeLines, strings.Split(data, "\n")); err != nil {
		return Summary{}, err
	}
	n, err := c.pass2(codeLines)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Instructions: n, Labels: len(c.labels), DataEntries: len(c.data)}, nil
}

func (c *Checker) pass1(code, data []string) error {
	for i, raw := range code {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}
		for _, lbl := range p.labels {
			if err := c.define(lbl, lineNo, "code"); err != nil {
				return err
			}
			c.labels[lbl] = lineNo
		}
	}

	for i, raw := range data {
		lineNo := i + 1
		name, ok, err := parseDataLine(raw, lineNo)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := c.define(name, lineNo, "data"); err != nil {
			return err
		}
		c.data[name] = lineNo
	}
	return nil
}

func (c *Checker) define(name string, lineNo int, section string) error {
	if _, exists := c.labels[name]; exists {
		return fmt.Errorf("duplicate label '%s' in %s section line %d", name, section, lineNo)
	}
	if _, exists := c.data[name]; exists {
		return fmt.Errorf("duplicate label '%s' in %s section line %d", name, section, lineNo)
	}
	if c.extern[name] {
		return fmt.Errorf("label '%s' on %s line %d shadows a template symbol", name, section, lineNo)
	}
	return nil
}

func (c *Checker) pass2(lines []string) (int, error) {
	count := 0
	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return 0, err
		}
		if p.mnemonic == "" {
			continue
		}

		spec, ok := instructions[p.mnemonic]
		if !ok {
			return 0, fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
		}
		want := len(spec.operands)
		if spec.variadic && len(p.operands) < want-1 || !spec.variadic && len(p.operands) != want {
			return 0, fmt.Errorf("%s expects %d operands on line %d", p.mnemonic, want, lineNo)
		}

		for j, op := range p.operands {
			allowed := spec.operands[min(j, want-1)]
			got, err := c.classify(op, lineNo)
			if err != nil {
				return 0, err
			}
			if got&allowed == 0 {
				return 0, fmt.Errorf("operand %d of %s on line %d has the wrong form: %s", j+1, p.mnemonic, lineNo, op)
			}
		}
		if len(p.operands) == 2 && isMemory(p.operands[0]) && isMemory(p.operands[1]) {
			return 0, fmt.Errorf("%s on line %d has two memory operands", p.mnemonic, lineNo)
		}
		count++
	}
	return count, nil
}

// classify resolves an operand to its shape, failing on unknown names.
func (c *Checker) classify(op string, lineNo int) (shape, error) {
	if registers[op] {
		return shapeReg, nil
	}
	if v, err := strconv.ParseInt(op, 0, 64); err == nil {
		if v < math.MinInt32 || v > math.MaxUint32 {
			return 0, fmt.Errorf("immediate out of range '%s' on line %d", op, lineNo)
		}
		return shapeImm, nil
	}
	if isMemory(op) {
		name := strings.TrimPrefix(op, "dword")
		name = strings.TrimSpace(name)
		name = strings.TrimSuffix(strings.TrimPrefix(name, "["), "]")
		if _, ok := c.data[name]; !ok {
			return 0, fmt.Errorf("undefined data label '%s' on line %d", name, lineNo)
		}
		return shapeMem, nil
	}
	if _, ok := c.labels[op]; ok {
		return shapeLabel, nil
	}
	if _, ok := c.data[op]; ok {
		return shapeSym, nil
	}
	if c.extern[op] {
		return shapeSym, nil
	}
	if isIdentifier(op) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", op, lineNo)
	}
	return 0, fmt.Errorf("invalid operand '%s' on line %d", op, lineNo)
}

func isMemory(op string) bool {
	return strings.HasSuffix(op, "]") && strings.Contains(op, "[")
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}
		before := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(before, " \t") {
			break
		}
		if !isIdentifier(before) {
			return p, fmt.Errorf("invalid label '%s' on line %d", before, lineNo)
		}
		p.labels = append(p.labels, before)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	mnemonic, rest, _ := strings.Cut(line, " ")
	p.mnemonic = strings.ToUpper(mnemonic)
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return p, nil
	}
	for _, op := range strings.Split(rest, ",") {
		op = strings.TrimSpace(op)
		if op == "" {
			return p, fmt.Errorf("empty operand on line %d", lineNo)
		}
		p.operands = append(p.operands, op)
	}
	return p, nil
}

// parseDataLine accepts "name dd 0" and "name db 'text', 0" and returns the
// defined name.
func parseDataLine(raw string, lineNo int) (string, bool, error) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, ";") {
		return "", false, nil
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", false, fmt.Errorf("malformed data definition on line %d: %s", lineNo, line)
	}
	name, directive := fields[0], strings.ToLower(fields[1])
	if !isIdentifier(name) {
		return "", false, fmt.Errorf("invalid data label '%s' on line %d", name, lineNo)
	}
	switch directive {
	case "dd":
		if _, err := strconv.ParseInt(fields[2], 0, 64); err != nil || len(fields) != 3 {
			return "", false, fmt.Errorf("dd expects one integer on line %d", lineNo)
		}
	case "db":
		rest := strings.TrimSpace(line[len(name):])
		body := strings.TrimSpace(rest[len(fields[1]):])
		if !strings.HasSuffix(body, "0") {
			return "", false, fmt.Errorf("db string on line %d is not zero-terminated", lineNo)
		}
		if strings.Count(body, "'")%2 != 0 {
			return "", false, fmt.Errorf("unterminated string on line %d", lineNo)
		}
	default:
		return "", false, fmt.Errorf("unknown data directive on line %d: %s", lineNo, fields[1])
	}
	return name, true, nil
}

func stripComments(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
