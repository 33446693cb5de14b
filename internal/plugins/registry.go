// Package plugins holds the shared scaffolding the fallback plugin
// implementations (mux, ram, vectors, extarith) and the iteration plugin
// build on: a Registry giving each Plugin.Create access to the declared
// type table, plus arithmetic helpers common to more than one of them
// (Fermat's little theorem equality indicator, bit decomposition). Every
// helper here that touches a wire value drives it through a
// backend.Numeric[big.Int] rather than computing a result in plain Go and
// writing it into a slot directly, the same way the original plugins close
// over a TypeBackend pointer and only ever act through its gate callbacks.
package plugins

import (
	"math/big"

	"zkir/internal/backend"
	"zkir/internal/types"
)

// Registry is passed to every fallback plugin constructor so it can look up
// a type_idx's modulus and kind without the Interpreter exposing anything
// wider.
type Registry struct {
	Types *types.Table
}

// NewRegistry wraps a type table for plugin construction.
func NewRegistry(t *types.Table) *Registry {
	return &Registry{Types: t}
}

// Modulus returns the field prime or ring modulus backing typeIdx, or nil
// if typeIdx does not name a field/ring type.
func (r *Registry) Modulus(typeIdx uint64) *big.Int {
	spec := r.Types.Get(typeIdx)
	if spec == nil {
		return nil
	}
	return spec.MaxValue()
}

// Exponentiate computes base^exp by square-and-multiply, driving every
// multiplication through nb.MulGate so the power is a constrained wire
// value rather than a plaintext computation handed to the backend after
// the fact. Grounded on Multiplexer.t.h's exponentiate (simplified here to
// plain successive squaring rather than the original's ping-pong buffer
// reuse, which only exists there to avoid reallocating Wire_T scratch).
func Exponentiate(nb backend.Numeric[big.Int], base, exp *big.Int) *big.Int {
	result := new(big.Int)
	nb.Assign(result, big.NewInt(1))
	b := new(big.Int).Set(base)
	e := new(big.Int).Set(exp)
	for e.Sign() > 0 {
		if e.Bit(0) == 1 {
			next := new(big.Int)
			nb.MulGate(next, result, b)
			result = next
		}
		sq := new(big.Int)
		nb.MulGate(sq, b, b)
		b = sq
		e.Rsh(e, 1)
	}
	return result
}

// FLTIndicator computes Fermat's little theorem's equality/inequality
// indicators for in == c (mod modulus): eq is 1 when in equals c and 0
// otherwise, ne is its complement. Grounded on Multiplexer.t.h's
// FLT_equality_const/FLT_inequality_const, which both build the same
// addcGate/exponentiate/mulcGate/addcGate chain through a TypeBackend.
func FLTIndicator(nb backend.Numeric[big.Int], in, c, modulus *big.Int) (eq, ne *big.Int) {
	negC := new(big.Int).Sub(modulus, c)
	base := new(big.Int)
	nb.AddcGate(base, in, negC)

	expMinus1 := new(big.Int).Sub(modulus, big.NewInt(1))
	ne = Exponentiate(nb, base, expMinus1)

	scaled := new(big.Int)
	nb.MulcGate(scaled, ne, expMinus1)
	eq = new(big.Int)
	nb.AddcGate(eq, scaled, big.NewInt(1))
	return eq, ne
}

// BitDecompose returns the bitWidth-bit little-endian binary expansion of v,
// the shared helper behind the Boolean case of the multiplexer/RAM
// plugins and extarith's comparator. It is plaintext arithmetic, not a
// constraint: AssertBitDecompose is what commits the result to the circuit.
func BitDecompose(v *big.Int, bitWidth int) []*big.Int {
	bits := make([]*big.Int, bitWidth)
	tmp := new(big.Int).Set(v)
	for i := 0; i < bitWidth; i++ {
		bit := new(big.Int).And(tmp, big.NewInt(1))
		bits[i] = bit
		tmp.Rsh(tmp, 1)
	}
	return bits
}

// Recompose is BitDecompose's inverse: sum bits[i] * 2^i, again plaintext.
func Recompose(bits []*big.Int) *big.Int {
	sum := new(big.Int)
	for i, b := range bits {
		term := new(big.Int).Lsh(b, uint(i))
		sum.Add(sum, term)
	}
	return sum
}

// AssertBitDecompose commits bits as value's little-endian binary expansion
// to the circuit: each bit is asserted boolean (bit*(bit-1) == 0) and the
// high-to-low recomposition is asserted equal to value. Grounded on
// ExtendedArithmetic.t.h's bit_decompose, whose dcmp/recomp loop asserts
// the same two invariants through addGate/mulGate/mulcGate/assertZero.
func AssertBitDecompose(nb backend.Numeric[big.Int], value *big.Int, bits []*big.Int) {
	for _, bit := range bits {
		bitMinus1 := new(big.Int)
		nb.AddcGate(bitMinus1, bit, big.NewInt(-1))
		product := new(big.Int)
		nb.MulGate(product, bit, bitMinus1)
		nb.AssertZero(product)
	}

	recomp := new(big.Int)
	nb.Assign(recomp, big.NewInt(0))
	for i := len(bits) - 1; i >= 0; i-- {
		doubled := new(big.Int)
		nb.MulcGate(doubled, recomp, big.NewInt(2))
		next := new(big.Int)
		nb.AddGate(next, doubled, bits[i])
		recomp = next
	}

	negValue := new(big.Int)
	nb.MulcGate(negValue, value, big.NewInt(-1))
	diff := new(big.Int)
	nb.AddGate(diff, recomp, negValue)
	nb.AssertZero(diff)
}

// AssertNoOverflow asserts that a bitWidth-bit decomposition cannot exceed
// modulus: it commits modulus's own bit pattern as constants and asserts
// that pattern is not strictly less than bits. Grounded on
// ExtendedArithmetic.t.h's bit_decomp, whose final check calls
// bits_ltc_comparator(prime_bits, dcmp) and asserts the result zero.
func AssertNoOverflow(nb backend.Numeric[big.Int], modulus *big.Int, bits []*big.Int) {
	modBits := BitDecompose(modulus, len(bits))
	modWires := make([]*big.Int, len(modBits))
	for i, b := range modBits {
		modWires[i] = new(big.Int)
		nb.Assign(modWires[i], b)
	}
	over := BitsCompare(nb, reverseBits(modWires), reverseBits(bits), false)
	nb.AssertZero(over)
}

// BitsCompare implements ExtendedArithmetic.t.h's bits_lt_comparator (when
// orEqual is false) and bits_lte_comparator (when true): a bit-serial
// lexicographic scan of two MSB-first bit sequences, returning an indicator
// wire that is 1 exactly when l < r (or l <= r). Every step is a not/and/xor
// built from real gate calls, folding a running less-than and still-equal
// indicator from the most significant bit down.
func BitsCompare(nb backend.Numeric[big.Int], l, r []*big.Int, orEqual bool) *big.Int {
	lt := andGate(nb, notGate(nb, l[0]), r[0])
	eq := notGate(nb, xorGate(nb, l[0], r[0]))

	for i := 1; i < len(l)-1; i++ {
		step := andGate(nb, andGate(nb, notGate(nb, l[i]), r[i]), eq)
		next := new(big.Int)
		nb.AddGate(next, step, lt)
		lt = next
		eq = andGate(nb, eq, notGate(nb, xorGate(nb, l[i], r[i])))
	}

	last := len(l) - 1
	finalStep := andGate(nb, andGate(nb, notGate(nb, l[last]), r[last]), eq)
	finalLt := new(big.Int)
	nb.AddGate(finalLt, finalStep, lt)
	if !orEqual {
		return finalLt
	}

	finalEq := andGate(nb, eq, notGate(nb, xorGate(nb, l[last], r[last])))
	out := new(big.Int)
	nb.AddGate(out, finalLt, finalEq)
	return out
}

func notGate(nb backend.Numeric[big.Int], in *big.Int) *big.Int {
	out := new(big.Int)
	nb.MulcGate(out, in, big.NewInt(-1))
	nb.AddcGate(out, out, big.NewInt(1))
	return out
}

func andGate(nb backend.Numeric[big.Int], l, r *big.Int) *big.Int {
	out := new(big.Int)
	nb.MulGate(out, l, r)
	return out
}

func xorGate(nb backend.Numeric[big.Int], l, r *big.Int) *big.Int {
	add := new(big.Int)
	nb.AddGate(add, l, r)
	mul := new(big.Int)
	nb.MulGate(mul, l, r)
	negMul := new(big.Int)
	nb.MulcGate(negMul, mul, big.NewInt(-2))
	out := new(big.Int)
	nb.AddGate(out, add, negMul)
	return out
}

// reverseBits flips a little-endian (BitDecompose's order) bit slice into
// the MSB-first order BitsCompare expects, matching bit_decomp's storage
// convention where index 0 holds the most significant bit.
func reverseBits(bits []*big.Int) []*big.Int {
	out := make([]*big.Int, len(bits))
	for i, b := range bits {
		out[len(bits)-1-i] = b
	}
	return out
}
