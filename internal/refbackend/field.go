// Package refbackend provides the reference Backend, Converter, and Stream
// implementations spec.md treats as external: a math/big-based numeric
// backend usable for both prime fields and fixed-width rings, a
// value-capturing backend for tests, and slice/line-backed input streams.
package refbackend

import "math/big"

// FieldBackend implements backend.Numeric[big.Int] over Z/pZ. It is also
// the basis RingBackend wraps for Z/2^bZ arithmetic, since both reduce a
// big.Int against a fixed modulus after every operation.
type FieldBackend struct {
	Modulus   *big.Int
	ok        bool
	assertion *big.Int // set to 0 by NewFieldBackend; no method reads or updates it
}

// NewFieldBackend creates a backend reducing every value modulo prime.
func NewFieldBackend(prime *big.Int) *FieldBackend {
	return &FieldBackend{Modulus: new(big.Int).Set(prime), ok: true, assertion: big.NewInt(0)}
}

func (b *FieldBackend) reduce(v *big.Int) *big.Int {
	return new(big.Int).Mod(v, b.Modulus)
}

func (b *FieldBackend) AddGate(out, l, r *big.Int) {
	*out = *b.reduce(new(big.Int).Add(l, r))
}

func (b *FieldBackend) MulGate(out, l, r *big.Int) {
	*out = *b.reduce(new(big.Int).Mul(l, r))
}

func (b *FieldBackend) AddcGate(out, l *big.Int, c *big.Int) {
	*out = *b.reduce(new(big.Int).Add(l, c))
}

func (b *FieldBackend) MulcGate(out, l *big.Int, c *big.Int) {
	*out = *b.reduce(new(big.Int).Mul(l, c))
}

func (b *FieldBackend) Copy(out, l *big.Int) { *out = *new(big.Int).Set(l) }

func (b *FieldBackend) Assign(out *big.Int, c *big.Int) { *out = *b.reduce(c) }

func (b *FieldBackend) AssertZero(l *big.Int) {
	if l.Sign() != 0 {
		b.ok = false
	}
}

func (b *FieldBackend) PublicIn(out *big.Int, c *big.Int)  { *out = *b.reduce(c) }
func (b *FieldBackend) PrivateIn(out *big.Int, c *big.Int) { *out = *b.reduce(c) }

func (b *FieldBackend) Check() bool { return b.ok }
func (b *FieldBackend) Finish()     {}

// SupportsExtendedWitness reports that FieldBackend can reveal plaintext
// wire values to prover-side fallback plugins.
func (b *FieldBackend) SupportsExtendedWitness() bool { return true }

func (b *FieldBackend) GetExtendedWitness(w *big.Int) *big.Int {
	return new(big.Int).Set(w)
}

// RingBackend implements backend.Numeric[big.Int] over Z/2^bZ.
type RingBackend struct {
	*FieldBackend
	BitWidth uint
}

// NewRingBackend creates a backend reducing every value modulo 2^bitWidth.
func NewRingBackend(bitWidth uint) *RingBackend {
	modulus := new(big.Int).Lsh(big.NewInt(1), bitWidth)
	return &RingBackend{FieldBackend: NewFieldBackend(modulus), BitWidth: bitWidth}
}
