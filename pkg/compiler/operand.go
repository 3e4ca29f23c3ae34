package compiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FixedScale is the fixed-point factor for float values: a float is stored as
// an integer with exactly three fractional digits.
const FixedScale = 1000

const fixedDigits = 3

// ValueType is the semantic type carried by every operand.
type ValueType int

const (
	TypeInt ValueType = iota
	TypeFloat
	TypeString
)

func (t ValueType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// ParseValueType maps a source type name to its ValueType.
func ParseValueType(name string) (ValueType, error) {
	switch name {
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "string":
		return TypeString, nil
	}
	return 0, fmt.Errorf("%w: unknown type %q", ErrTypeMismatch, name)
}

func (t ValueType) numeric() bool { return t == TypeInt || t == TypeFloat }

// OperandKind tells where an operand's value lives.
type OperandKind int

const (
	KindRegister OperandKind = iota
	KindVariable
	KindConstant
)

// Operand is a typed handle on a value: a register, a variable's storage or
// an immediate constant.
//
//	Register: Name is the physical register ("ebx")
//	Variable: Name is the scope-qualified storage name ("f__x")
//	Constant: Name is the literal text ("42", "hello")
type Operand struct {
	Name string
	Type ValueType
	Kind OperandKind
}

func Register(name string, t ValueType) Operand { return Operand{Name: name, Type: t, Kind: KindRegister} }
func Variable(name string, t ValueType) Operand { return Operand{Name: name, Type: t, Kind: KindVariable} }
func Constant(text string, t ValueType) Operand { return Operand{Name: text, Type: t, Kind: KindConstant} }

// Accumulator is the fixed return-value register.
func Accumulator(t ValueType) Operand { return Register("eax", t) }

// scratch holds the high half of the dividend and the remainder of idiv.
var scratch = Register("edx", TypeInt)

// Indirect reports whether the operand addresses memory.
func (o Operand) Indirect() bool { return o.Kind == KindVariable }

// Valid reports whether o refers to anything; statements yield the zero Operand.
func (o Operand) Valid() bool { return o.Name != "" }

// WithType returns a copy of o carrying t.
func (o Operand) WithType(t ValueType) Operand {
	o.Type = t
	return o
}

// Text renders the operand as it appears in an instruction.
func (o Operand) Text() string {
	if o.Indirect() {
		return "[" + o.Name + "]"
	}
	return o.Name
}

func (o Operand) String() string {
	return fmt.Sprintf("%s:%s", o.Text(), o.Type)
}

// IntLiteral validates an integer literal against the 32-bit registers it is
// loaded into.
func IntLiteral(literal string) (int64, error) {
	v, err := strconv.ParseInt(literal, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: integer literal %q does not fit 32 bits", ErrLexical, literal)
	}
	return v, nil
}

// EncodeFixed converts a float literal into its fixed-point integer. The
// fraction is right-padded or truncated to exactly three digits, so "2.5"
// encodes as 2500 and "0.12345" as 123. The encoded value must fit 32 bits.
func EncodeFixed(literal string) (int64, error) {
	whole, frac, _ := strings.Cut(literal, ".")
	var w int64
	if whole != "" {
		v, err := strconv.ParseInt(whole, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: bad float literal %q", ErrLexical, literal)
		}
		w = v
	}
	if len(frac) > fixedDigits {
		frac = frac[:fixedDigits]
	}
	frac += strings.Repeat("0", fixedDigits-len(frac))
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad float literal %q", ErrLexical, literal)
	}
	v := w*FixedScale + f
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: float literal %q does not fit 32 bits", ErrLexical, literal)
	}
	return v, nil
}
