package refbackend

import (
	"fmt"
	"math/big"
)

// Call records one backend callback invocation for assertions in tests
// (spec.md §8 property 1's "identical sequences of backend callback
// invocations", and the end-to-end scenarios in spec.md §8).
type Call struct {
	Op   string
	Args []string
}

func arg(v *big.Int) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}

// CaptureBackend wraps a FieldBackend/RingBackend and records every callback
// invocation in order, alongside delegating to the wrapped backend so the
// captured trace reflects real arithmetic results too.
type CaptureBackend struct {
	*FieldBackend
	Calls []Call
}

// NewCaptureBackend wraps inner, which must not be nil.
func NewCaptureBackend(inner *FieldBackend) *CaptureBackend {
	return &CaptureBackend{FieldBackend: inner}
}

func (b *CaptureBackend) record(op string, args ...*big.Int) {
	strs := make([]string, len(args))
	for i, a := range args {
		strs[i] = arg(a)
	}
	b.Calls = append(b.Calls, Call{Op: op, Args: strs})
}

func (b *CaptureBackend) AddGate(out, l, r *big.Int) {
	b.FieldBackend.AddGate(out, l, r)
	b.record("add", l, r, out)
}

func (b *CaptureBackend) MulGate(out, l, r *big.Int) {
	b.FieldBackend.MulGate(out, l, r)
	b.record("mul", l, r, out)
}

func (b *CaptureBackend) AddcGate(out, l *big.Int, c *big.Int) {
	b.FieldBackend.AddcGate(out, l, c)
	b.record("addc", l, c, out)
}

func (b *CaptureBackend) MulcGate(out, l *big.Int, c *big.Int) {
	b.FieldBackend.MulcGate(out, l, c)
	b.record("mulc", l, c, out)
}

func (b *CaptureBackend) Copy(out, l *big.Int) {
	b.FieldBackend.Copy(out, l)
	b.record("copy", l, out)
}

func (b *CaptureBackend) Assign(out *big.Int, c *big.Int) {
	b.FieldBackend.Assign(out, c)
	b.record("assign", c, out)
}

func (b *CaptureBackend) AssertZero(l *big.Int) {
	b.FieldBackend.AssertZero(l)
	b.record("assert_zero", l)
}

func (b *CaptureBackend) PublicIn(out *big.Int, c *big.Int) {
	b.FieldBackend.PublicIn(out, c)
	b.record("public_in", c, out)
}

func (b *CaptureBackend) PrivateIn(out *big.Int, c *big.Int) {
	b.FieldBackend.PrivateIn(out, c)
	b.record("private_in", c, out)
}

// String renders the captured trace as "op(args...)" lines, for readable
// test failure output.
func (b *CaptureBackend) String() string {
	s := ""
	for _, c := range b.Calls {
		s += fmt.Sprintf("%s(%v)\n", c.Op, c.Args)
	}
	return s
}
