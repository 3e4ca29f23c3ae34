package compiler

import (
	"errors"
	"testing"
)

func TestRegisterPoolOrder(t *testing.T) {
	pool := NewRegisterPool()
	var got []string
	for range DefaultRegisters {
		r, err := pool.Get(TypeInt)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		got = append(got, r.Name)
	}
	want := []string{"ebx", "esi", "edi"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("allocation order = %v, want %v", got, want)
		}
	}
	if _, err := pool.Get(TypeInt); !errors.Is(err, ErrRegisterExhausted) {
		t.Errorf("expected ErrRegisterExhausted, got %v", err)
	}
}

func TestRegisterPoolLIFO(t *testing.T) {
	pool := NewRegisterPool()
	a, _ := pool.Get(TypeInt)
	b, _ := pool.Get(TypeFloat)
	if b.Type != TypeFloat {
		t.Errorf("register type = %s, want float", b.Type)
	}
	pool.Free(b)
	c, _ := pool.Get(TypeInt)
	if c.Name != b.Name {
		t.Errorf("got %s after freeing %s", c.Name, b.Name)
	}
	pool.Free(c)
	pool.Free(a)
	if pool.Available() != pool.Size() {
		t.Errorf("Available() = %d, want %d", pool.Available(), pool.Size())
	}
}

func TestRegisterPoolFreeIgnoresForeign(t *testing.T) {
	pool := NewRegisterPool("ebx", "esi")
	r, _ := pool.Get(TypeInt)

	pool.Free(Accumulator(TypeInt))
	pool.Free(Variable("a", TypeInt))
	pool.Free(Constant("1", TypeInt))
	pool.Free(Operand{})
	if pool.Available() != 1 {
		t.Fatalf("Available() = %d after foreign frees, want 1", pool.Available())
	}

	pool.Free(r)
	pool.Free(r)
	if pool.Available() != 2 {
		t.Errorf("double free changed the pool: Available() = %d", pool.Available())
	}
}
