package compiler

import (
	"fmt"
	"strings"
)

// Emitter accumulates the two output sections. Both are append-only for the
// lifetime of a compilation.
type Emitter struct {
	code strings.Builder
	data strings.Builder
}

// line appends one instruction line to the code section.
func (e *Emitter) line(format string, args ...any) {
	e.code.WriteString("    ")
	fmt.Fprintf(&e.code, format, args...)
	e.code.WriteByte('\n')
}

func (e *Emitter) Label(name string) {
	e.code.WriteString(name)
	e.code.WriteString(":\n")
}

func (e *Emitter) Mov(dst, src Operand) { e.line("mov %s, %s", dst.Text(), src.Text()) }
func (e *Emitter) Add(dst, src Operand) { e.line("add %s, %s", dst.Text(), src.Text()) }
func (e *Emitter) Sub(dst, src Operand) { e.line("sub %s, %s", dst.Text(), src.Text()) }
func (e *Emitter) Imul(dst, src Operand) {
	e.line("imul %s, %s", dst.Text(), src.Text())
}
func (e *Emitter) And(dst, src Operand) { e.line("and %s, %s", dst.Text(), src.Text()) }
func (e *Emitter) Or(dst, src Operand)  { e.line("or %s, %s", dst.Text(), src.Text()) }
func (e *Emitter) Cmp(a, b Operand)     { e.line("cmp %s, %s", a.Text(), b.Text()) }
func (e *Emitter) Push(op Operand) {
	if op.Indirect() {
		e.line("push dword %s", op.Text())
		return
	}
	e.line("push %s", op.Text())
}
func (e *Emitter) Pop(op Operand) {
	if op.Indirect() {
		e.line("pop dword %s", op.Text())
		return
	}
	e.line("pop %s", op.Text())
}
func (e *Emitter) Jmp(label string) { e.line("jmp %s", label) }
func (e *Emitter) Je(label string)  { e.line("je %s", label) }

// Idiv divides edx:eax by divisor after sign-extending eax; the quotient lands
// in eax and the remainder in edx.
func (e *Emitter) Idiv(divisor Operand) {
	e.line("cdq")
	e.line("idiv %s", divisor.Text())
}

// Raw emits an instruction that has no helper shape.
func (e *Emitter) Raw(format string, args ...any) { e.line(format, args...) }

// Invoke emits a cdecl call through the import table.
func (e *Emitter) Invoke(fn string, args ...string) {
	if len(args) == 0 {
		e.line("cinvoke %s", fn)
		return
	}
	e.line("cinvoke %s, %s", fn, strings.Join(args, ", "))
}

// DataCell reserves one zeroed 32-bit cell.
func (e *Emitter) DataCell(name string) {
	fmt.Fprintf(&e.data, "%s dd 0\n", name)
}

// DataString emits a zero-terminated byte string.
func (e *Emitter) DataString(name, text string) {
	if text == "" {
		fmt.Fprintf(&e.data, "%s db 0\n", name)
		return
	}
	fmt.Fprintf(&e.data, "%s db '%s', 0\n", name, text)
}

func (e *Emitter) Code() string { return e.code.String() }
func (e *Emitter) Data() string { return e.data.String() }
