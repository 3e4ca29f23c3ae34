package compiler

import (
	"fmt"
	"slices"
)

// DefaultRegisters are the general-purpose registers handed out for
// temporaries. All three are callee-saved under cdecl, so a printf call in
// the middle of an expression cannot clobber them.
var DefaultRegisters = []string{"ebx", "esi", "edi"}

// RegisterPool is a LIFO free list of temporary registers.
type RegisterPool struct {
	all  []string
	free []string
}

// NewRegisterPool returns a pool that hands out names in the order given.
func NewRegisterPool(names ...string) *RegisterPool {
	if len(names) == 0 {
		names = DefaultRegisters
	}
	free := slices.Clone(names)
	slices.Reverse(free)
	return &RegisterPool{all: slices.Clone(names), free: free}
}

// Get takes a register from the pool and tags it with t.
func (p *RegisterPool) Get(t ValueType) (Operand, error) {
	if len(p.free) == 0 {
		return Operand{}, fmt.Errorf("%w: expression needs more than %d temporaries", ErrRegisterExhausted, len(p.all))
	}
	name := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return Register(name, t), nil
}

// Free returns op to the pool. Anything that is not a pooled register, or is
// already free, is ignored.
func (p *RegisterPool) Free(op Operand) {
	if op.Kind != KindRegister || !slices.Contains(p.all, op.Name) {
		return
	}
	if slices.Contains(p.free, op.Name) {
		return
	}
	p.free = append(p.free, op.Name)
}

// Available is the number of registers currently free.
func (p *RegisterPool) Available() int { return len(p.free) }

// Size is the number of registers the pool manages.
func (p *RegisterPool) Size() int { return len(p.all) }
