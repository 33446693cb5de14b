// Package extarith implements the extended-arithmetic fallback plugin:
// less_than, less_than_equal, division, and bit_decompose, grounded
// on original_source/.../wtk/plugins/ExtendedArithmetic.t.h's bit_decomp/
// bits_lt_comparator/bits_lte_comparator and FallbackDivisionOperation. The
// plaintext value on a wire is decomposed into witness bits, the
// decomposition is committed and range-checked against the type's modulus,
// and the comparison or division identity is asserted through the type's
// backend.Numeric[big.Int] rather than written to the output slot directly.
package extarith

import (
	"math/big"

	"zkir/internal/backend"
	"zkir/internal/errors"
	"zkir/internal/function"
	"zkir/internal/gate"
	"zkir/internal/plugins"
)

// Plugin implements pluginmgr.Plugin for plugin_name "extarith".
type Plugin struct {
	reg *plugins.Registry
}

// New builds the extarith plugin against reg.
func New(reg *plugins.Registry) *Plugin {
	return &Plugin{reg: reg}
}

func (p *Plugin) Create(operationName string, sig *gate.Signature, binding gate.PluginBinding) (function.Operation, error) {
	switch operationName {
	case "less_than", "less_than_equal":
		return p.createComparison(operationName, sig)
	case "division":
		return p.createDivision(sig)
	case "bit_decompose":
		return p.createBitDecompose(sig)
	default:
		return nil, errors.PluginSignatureRejected("extarith", operationName, "unknown operation", 0)
	}
}

// bitWidth returns modulus.BitLen(), i.e. floor(log2(modulus))+1, the type's
// bit length for the comparator/decomposition algorithms. For an odd prime
// this equals ceil(log2(modulus)); for a power-of-two modulus it is one more.
func bitWidth(modulus *big.Int) int {
	return modulus.BitLen()
}

// commitBits assigns each bit of value's little-endian decomposition to the
// backend (bit_decomp's privateIn loop) and asserts it is a genuine,
// in-range decomposition of value.
func commitBits(nb backend.Numeric[big.Int], value, modulus *big.Int, bits int) []*big.Int {
	decomp := plugins.BitDecompose(value, bits)
	committed := make([]*big.Int, bits)
	for i, b := range decomp {
		w := new(big.Int)
		nb.Assign(w, b)
		committed[i] = w
	}
	plugins.AssertBitDecompose(nb, value, committed)
	plugins.AssertNoOverflow(nb, modulus, committed)
	return committed
}

func (p *Plugin) createComparison(op string, sig *gate.Signature) (function.Operation, error) {
	if len(sig.Outputs) != 1 || sig.Outputs[0].Length != 1 || len(sig.Inputs) != 2 ||
		sig.Inputs[0].Length != 1 || sig.Inputs[1].Length != 1 {
		return nil, errors.PluginSignatureRejected("extarith", op, "expected a length-1 output and two length-1 inputs", 0)
	}
	typeIdx := sig.Outputs[0].Type
	if sig.Inputs[0].Type != typeIdx || sig.Inputs[1].Type != typeIdx {
		return nil, errors.PluginSignatureRejected("extarith", op, "inputs must match the output's type", 0)
	}
	modulus := p.reg.Modulus(typeIdx)
	if modulus == nil {
		return nil, errors.PluginSignatureRejected("extarith", op, "type has no numeric domain", 0)
	}
	bits := bitWidth(modulus)
	orEqual := op == "less_than_equal"

	return &function.SimpleOperation[big.Int]{
		Eval: func(e function.Evaluator, outputs, inputs [][]big.Int, sig *gate.Signature, binding gate.PluginBinding) error {
			nb, err := function.NumericOf[big.Int](e, typeIdx, 0)
			if err != nil {
				return err
			}
			l, r := &inputs[0][0], &inputs[1][0]
			if err := checkBounded(l, modulus); err != nil {
				return err
			}
			if err := checkBounded(r, modulus); err != nil {
				return err
			}

			lBits := commitBits(nb, l, modulus, bits)
			rBits := commitBits(nb, r, modulus, bits)
			out := plugins.BitsCompare(nb, reverse(lBits), reverse(rBits), orEqual)
			outputs[0][0] = *out
			return nil
		},
	}, nil
}

func (p *Plugin) createDivision(sig *gate.Signature) (function.Operation, error) {
	if len(sig.Outputs) != 2 || sig.Outputs[0].Length != 1 || sig.Outputs[1].Length != 1 ||
		len(sig.Inputs) != 2 || sig.Inputs[0].Length != 1 || sig.Inputs[1].Length != 1 {
		return nil, errors.PluginSignatureRejected("extarith", "division", "expected two length-1 outputs and two length-1 inputs", 0)
	}
	typeIdx := sig.Outputs[0].Type
	if sig.Outputs[1].Type != typeIdx || sig.Inputs[0].Type != typeIdx || sig.Inputs[1].Type != typeIdx {
		return nil, errors.PluginSignatureRejected("extarith", "division", "outputs and inputs must share a type", 0)
	}
	modulus := p.reg.Modulus(typeIdx)
	if modulus == nil {
		return nil, errors.PluginSignatureRejected("extarith", "division", "type has no numeric domain", 0)
	}
	bits := bitWidth(modulus)

	return &function.SimpleOperation[big.Int]{
		Eval: func(e function.Evaluator, outputs, inputs [][]big.Int, sig *gate.Signature, binding gate.PluginBinding) error {
			nb, err := function.NumericOf[big.Int](e, typeIdx, 0)
			if err != nil {
				return err
			}
			l, r := &inputs[0][0], &inputs[1][0]
			if r.Sign() == 0 {
				return errors.PluginBindingMalformed("extarith", "division", "division by zero", 0)
			}
			q, m := new(big.Int), new(big.Int)
			q.QuoRem(l, r, m)
			if m.Sign() < 0 {
				m.Add(m, r)
				q.Sub(q, big.NewInt(1))
			}

			quotient, remainder := new(big.Int), new(big.Int)
			nb.Assign(quotient, q)
			nb.Assign(remainder, m)

			// Assert quotient*right + remainder - left == 0, mirroring
			// FallbackDivisionOperation::evaluateDiv's mulGate/addGate/
			// mulcGate(-1)/addGate/assertZero chain.
			mul := new(big.Int)
			nb.MulGate(mul, quotient, r)
			add := new(big.Int)
			nb.AddGate(add, mul, remainder)
			neg := new(big.Int)
			nb.MulcGate(neg, add, big.NewInt(-1))
			total := new(big.Int)
			nb.AddGate(total, neg, l)
			nb.AssertZero(total)

			// Assert remainder < divisor: decompose both and assert that
			// divisor <= remainder is false.
			rBits := commitBits(nb, r, modulus, bits)
			mBits := commitBits(nb, remainder, modulus, bits)
			notLess := plugins.BitsCompare(nb, reverse(rBits), reverse(mBits), true)
			nb.AssertZero(notLess)

			outputs[0][0] = *quotient
			outputs[1][0] = *remainder
			return nil
		},
	}, nil
}

func (p *Plugin) createBitDecompose(sig *gate.Signature) (function.Operation, error) {
	if len(sig.Outputs) != 1 || len(sig.Inputs) != 1 || sig.Inputs[0].Length != 1 {
		return nil, errors.PluginSignatureRejected("extarith", "bit_decompose", "expected one output range and a length-1 input", 0)
	}
	typeIdx := sig.Outputs[0].Type
	if sig.Inputs[0].Type != typeIdx {
		return nil, errors.PluginSignatureRejected("extarith", "bit_decompose", "input must match the output's type", 0)
	}
	modulus := p.reg.Modulus(typeIdx)
	if modulus == nil {
		return nil, errors.PluginSignatureRejected("extarith", "bit_decompose", "type has no numeric domain", 0)
	}
	bits := bitWidth(modulus)
	if int(sig.Outputs[0].Length) != bits {
		return nil, errors.PluginSignatureRejected("extarith", "bit_decompose", "output length must equal the type's bit length", 0)
	}

	return &function.SimpleOperation[big.Int]{
		Eval: func(e function.Evaluator, outputs, inputs [][]big.Int, sig *gate.Signature, binding gate.PluginBinding) error {
			nb, err := function.NumericOf[big.Int](e, typeIdx, 0)
			if err != nil {
				return err
			}
			v := &inputs[0][0]
			committed := commitBits(nb, v, modulus, bits)
			for i, b := range committed {
				outputs[0][i] = *b
			}
			return nil
		},
	}, nil
}

// checkBounded rejects an operand that cannot be safely bit-decomposed
// against modulus, ruling out overflow before a comparison or division
// ever reaches the gate-level bit decomposition.
func checkBounded(v, modulus *big.Int) error {
	if v.Sign() < 0 || v.Cmp(modulus) >= 0 {
		return errors.PluginBindingMalformed("extarith", "compare", "operand is out of the type's domain", 0)
	}
	return nil
}

func reverse(bits []*big.Int) []*big.Int {
	out := make([]*big.Int, len(bits))
	for i, b := range bits {
		out[len(bits)-1-i] = b
	}
	return out
}
