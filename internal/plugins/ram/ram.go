// Package ram implements the RAM fallback plugin: a naive
// linear-scan arithmetic RAM and a Boolean-selector variant, grounded on
// original_source/.../wtk/plugins/ArithmeticRAM.t.h and BooleanRAM.t.h. Read
// and write both drive their per-cell equality indicator and accumulation
// through the index type's backend.Numeric[big.Int] — real AddGate/MulGate/
// AddcGate/AssertZero calls, the same way FLTRAMReadOperation::read and
// FLTRAMWriteOperation::write drive theirs through a wtk::TypeBackend.
//
// A RAM buffer is represented on the wire level as a single handle value (a
// small integer) held in an ordinary field-typed wire; the buffer contents
// live in the Plugin's own buffers table, not in any backend — "init"
// allocates a fresh buffer and writes its handle, "read"/"write" take that
// handle as their first input.
package ram

import (
	"math/big"

	"zkir/internal/backend"
	"zkir/internal/errors"
	"zkir/internal/function"
	"zkir/internal/gate"
	"zkir/internal/plugins"
)

// Plugin implements pluginmgr.Plugin for plugin_name "ram".
type Plugin struct {
	reg     *plugins.Registry
	buffers [][]big.Int // indexed by handle
}

// New builds the ram plugin against reg.
func New(reg *plugins.Registry) *Plugin {
	return &Plugin{reg: reg}
}

func (p *Plugin) Create(operationName string, sig *gate.Signature, binding gate.PluginBinding) (function.Operation, error) {
	switch operationName {
	case "init":
		return p.createInit(sig, binding)
	case "read":
		return p.createRead(sig, binding)
	case "write":
		return p.createWrite(sig, binding)
	default:
		return nil, errors.PluginSignatureRejected("ram", operationName, "unknown operation, expected 'init', 'read', or 'write'", 0)
	}
}

func (p *Plugin) createInit(sig *gate.Signature, binding gate.PluginBinding) (function.Operation, error) {
	if len(sig.Outputs) != 1 || sig.Outputs[0].Length != 1 || len(sig.Inputs) != 1 || sig.Inputs[0].Length != 1 {
		return nil, errors.PluginSignatureRejected("ram", "init", "expects one buffer-handle output and one fill input", 0)
	}
	if len(binding.Parameters) != 1 || !binding.Parameters[0].IsNumber {
		return nil, errors.PluginBindingMalformed("ram", "init", "expected one numeric size parameter", 0)
	}
	size := int(binding.Parameters[0].Number.Int64())
	if size <= 0 {
		return nil, errors.PluginBindingMalformed("ram", "init", "buffer size must be positive", 0)
	}

	return &function.SimpleOperation[big.Int]{
		Eval: func(e function.Evaluator, outputs, inputs [][]big.Int, sig *gate.Signature, binding gate.PluginBinding) error {
			fill := inputs[0][0]
			buf := make([]big.Int, size)
			for i := range buf {
				buf[i] = *new(big.Int).Set(&fill)
			}
			handle := len(p.buffers)
			p.buffers = append(p.buffers, buf)
			outputs[0][0] = *big.NewInt(int64(handle))
			return nil
		},
	}, nil
}

func (p *Plugin) createRead(sig *gate.Signature, binding gate.PluginBinding) (function.Operation, error) {
	if len(sig.Outputs) != 1 || len(sig.Inputs) != 2 {
		return nil, errors.PluginSignatureRejected("ram", "read", "expects one value output and buffer/index inputs", 0)
	}
	idxType := sig.Inputs[1].Type
	modulus := p.reg.Modulus(idxType)
	if modulus == nil {
		return nil, errors.PluginSignatureRejected("ram", "read", "index type has no numeric domain", 0)
	}
	boolean := p.reg.Types.Get(idxType).IsBooleanField()

	return &function.SimpleOperation[big.Int]{
		Eval: func(e function.Evaluator, outputs, inputs [][]big.Int, sig *gate.Signature, binding gate.PluginBinding) error {
			buf, err := p.lookup(&inputs[0][0], "read")
			if err != nil {
				return err
			}
			idx := inputs[1]

			if len(buf) == 1 {
				outputs[0][0] = *new(big.Int).Set(&buf[0])
				return nil
			}

			nb, err := function.NumericOf[big.Int](e, idxType, 0)
			if err != nil {
				return err
			}

			sum := new(big.Int)
			eqSum := new(big.Int)
			for i := range buf {
				eq := indicatorGate(nb, boolean, idx, i, modulus)
				term := new(big.Int)
				nb.MulGate(term, eq, &buf[i])
				nextSum := new(big.Int)
				nb.AddGate(nextSum, sum, term)
				sum = nextSum
				nextEq := new(big.Int)
				nb.AddGate(nextEq, eqSum, eq)
				eqSum = nextEq
			}
			check := new(big.Int)
			nb.AddcGate(check, eqSum, big.NewInt(-1))
			nb.AssertZero(check)

			outputs[0][0] = *sum
			return nil
		},
	}, nil
}

func (p *Plugin) createWrite(sig *gate.Signature, binding gate.PluginBinding) (function.Operation, error) {
	if len(sig.Outputs) != 0 || len(sig.Inputs) != 3 {
		return nil, errors.PluginSignatureRejected("ram", "write", "expects buffer/index/value inputs and no outputs", 0)
	}
	idxType := sig.Inputs[1].Type
	modulus := p.reg.Modulus(idxType)
	if modulus == nil {
		return nil, errors.PluginSignatureRejected("ram", "write", "index type has no numeric domain", 0)
	}
	boolean := p.reg.Types.Get(idxType).IsBooleanField()

	return &function.SimpleOperation[big.Int]{
		Eval: func(e function.Evaluator, outputs, inputs [][]big.Int, sig *gate.Signature, binding gate.PluginBinding) error {
			handle := &inputs[0][0]
			buf, err := p.lookup(handle, "write")
			if err != nil {
				return err
			}
			idx := inputs[1]
			in := &inputs[2][0]

			if len(buf) == 1 {
				buf[0] = *new(big.Int).Set(in)
				p.buffers[handle.Int64()] = buf
				return nil
			}

			nb, err := function.NumericOf[big.Int](e, idxType, 0)
			if err != nil {
				return err
			}

			eqSum := new(big.Int)
			for i := range buf {
				eq := indicatorGate(nb, boolean, idx, i, modulus)
				ne := new(big.Int)
				nb.AddcGate(ne, eq, big.NewInt(-1))
				nb.MulcGate(ne, ne, big.NewInt(-1))

				viaEq := new(big.Int)
				nb.MulGate(viaEq, eq, in)
				viaNe := new(big.Int)
				nb.MulGate(viaNe, ne, &buf[i])
				nb.AddGate(&buf[i], viaEq, viaNe)

				nextEq := new(big.Int)
				nb.AddGate(nextEq, eqSum, eq)
				eqSum = nextEq
			}
			check := new(big.Int)
			nb.AddcGate(check, eqSum, big.NewInt(-1))
			nb.AssertZero(check)

			p.buffers[handle.Int64()] = buf
			return nil
		},
	}, nil
}

func (p *Plugin) lookup(handle *big.Int, op string) ([]big.Int, error) {
	h := handle.Int64()
	if h < 0 || h >= int64(len(p.buffers)) {
		return nil, errors.PluginBindingMalformed("ram", op, "buffer handle does not name an initialized buffer", 0)
	}
	return p.buffers[h], nil
}

// indicatorGate computes the per-cell equality indicator through nb: a
// Fermat indicator for an arithmetic index (FLT_equality_const), or the
// product of per-bit XNORs against i's binary expansion for a Boolean index
// (BooleanRAM.t.h's bit-matching indicator), so that ArithmeticRAM's and
// BooleanRAM's constraints both land on real gate calls.
func indicatorGate(nb backend.Numeric[big.Int], boolean bool, idx []big.Int, i int, modulus *big.Int) *big.Int {
	if !boolean {
		eq, _ := plugins.FLTIndicator(nb, &idx[0], big.NewInt(int64(i)), modulus)
		return eq
	}
	acc := new(big.Int)
	nb.Assign(acc, big.NewInt(1))
	for j := range idx {
		bit := (i >> uint(j)) & 1
		var xnor *big.Int
		if bit == 1 {
			xnor = &idx[j]
		} else {
			xnor = new(big.Int)
			nb.AddcGate(xnor, &idx[j], big.NewInt(-1))
			nb.MulcGate(xnor, xnor, big.NewInt(-1))
		}
		next := new(big.Int)
		nb.MulGate(next, acc, xnor)
		acc = next
	}
	return acc
}
