// Package vectors implements the vector fallback plugin: add,
// mul (elementwise pairwise operations), sum, product (single-input folds),
// and dotproduct (interleaved multiply-accumulate), grounded on
// original_source/.../wtk/plugins/Vectors.t.h's PairwiseOperation/
// UniFoldOperation/BiFoldOperation signature contracts. Every element
// combination is driven through the element type's backend.Numeric[big.Int]
// via AddGate/MulGate, rather than computed in plain math/big and written
// straight into the output slot.
package vectors

import (
	"math/big"

	"zkir/internal/errors"
	"zkir/internal/function"
	"zkir/internal/gate"
	"zkir/internal/plugins"
)

// Plugin implements pluginmgr.Plugin for plugin_name "vectors".
type Plugin struct {
	reg *plugins.Registry
}

// New builds the vectors plugin against reg, which it uses only to check
// that a call's element type lies in the plugin's domain.
func New(reg *plugins.Registry) *Plugin {
	return &Plugin{reg: reg}
}

func (p *Plugin) Create(operationName string, sig *gate.Signature, binding gate.PluginBinding) (function.Operation, error) {
	switch operationName {
	case "add", "mul":
		return p.createPairwise(operationName, sig)
	case "sum", "product":
		return p.createFold(operationName, sig)
	case "dotproduct":
		return p.createDotproduct(sig)
	default:
		return nil, errors.PluginSignatureRejected("vectors", operationName, "unknown operation", 0)
	}
}

func (p *Plugin) checkDomain(typeIdx uint64, op string) error {
	if p.reg.Modulus(typeIdx) == nil {
		return errors.PluginSignatureRejected("vectors", op, "element type has no numeric domain", 0)
	}
	return nil
}

func (p *Plugin) createPairwise(op string, sig *gate.Signature) (function.Operation, error) {
	if len(sig.Outputs) != 1 || len(sig.Inputs) != 2 {
		return nil, errors.PluginSignatureRejected("vectors", op, "expected one output range and two input ranges", 0)
	}
	typeIdx := sig.Outputs[0].Type
	size := sig.Outputs[0].Length
	if sig.Inputs[0].Type != typeIdx || sig.Inputs[0].Length != size ||
		sig.Inputs[1].Type != typeIdx || sig.Inputs[1].Length != size {
		return nil, errors.PluginSignatureRejected("vectors", op, "input ranges must match the output's type and length", 0)
	}
	if err := p.checkDomain(typeIdx, op); err != nil {
		return nil, err
	}
	mul := op == "mul"

	return &function.SimpleOperation[big.Int]{
		Eval: func(e function.Evaluator, outputs, inputs [][]big.Int, sig *gate.Signature, binding gate.PluginBinding) error {
			nb, err := function.NumericOf[big.Int](e, typeIdx, 0)
			if err != nil {
				return err
			}
			a, b := inputs[0], inputs[1]
			for i := range outputs[0] {
				if mul {
					nb.MulGate(&outputs[0][i], &a[i], &b[i])
				} else {
					nb.AddGate(&outputs[0][i], &a[i], &b[i])
				}
			}
			return nil
		},
	}, nil
}

func (p *Plugin) createFold(op string, sig *gate.Signature) (function.Operation, error) {
	if len(sig.Outputs) != 1 || sig.Outputs[0].Length != 1 || len(sig.Inputs) != 1 {
		return nil, errors.PluginSignatureRejected("vectors", op, "expected a length-1 output and one input range", 0)
	}
	typeIdx := sig.Outputs[0].Type
	if sig.Inputs[0].Type != typeIdx {
		return nil, errors.PluginSignatureRejected("vectors", op, "input range must match the output's type", 0)
	}
	if err := p.checkDomain(typeIdx, op); err != nil {
		return nil, err
	}
	identity := int64(0)
	mul := op == "product"
	if mul {
		identity = 1
	}

	return &function.SimpleOperation[big.Int]{
		Eval: func(e function.Evaluator, outputs, inputs [][]big.Int, sig *gate.Signature, binding gate.PluginBinding) error {
			nb, err := function.NumericOf[big.Int](e, typeIdx, 0)
			if err != nil {
				return err
			}
			acc := new(big.Int)
			nb.Assign(acc, big.NewInt(identity))
			for i := range inputs[0] {
				next := new(big.Int)
				if mul {
					nb.MulGate(next, acc, &inputs[0][i])
				} else {
					nb.AddGate(next, acc, &inputs[0][i])
				}
				acc = next
			}
			outputs[0][0] = *acc
			return nil
		},
	}, nil
}

func (p *Plugin) createDotproduct(sig *gate.Signature) (function.Operation, error) {
	if len(sig.Outputs) != 1 || sig.Outputs[0].Length != 1 || len(sig.Inputs) != 2 {
		return nil, errors.PluginSignatureRejected("vectors", "dotproduct", "expected a length-1 output and two input ranges", 0)
	}
	typeIdx := sig.Outputs[0].Type
	if sig.Inputs[0].Type != typeIdx || sig.Inputs[1].Type != typeIdx || sig.Inputs[0].Length != sig.Inputs[1].Length {
		return nil, errors.PluginSignatureRejected("vectors", "dotproduct", "input ranges must match the output's type and share a length", 0)
	}
	if err := p.checkDomain(typeIdx, "dotproduct"); err != nil {
		return nil, err
	}

	return &function.SimpleOperation[big.Int]{
		Eval: func(e function.Evaluator, outputs, inputs [][]big.Int, sig *gate.Signature, binding gate.PluginBinding) error {
			nb, err := function.NumericOf[big.Int](e, typeIdx, 0)
			if err != nil {
				return err
			}
			a, b := inputs[0], inputs[1]
			acc := new(big.Int)
			nb.Assign(acc, big.NewInt(0))
			for i := range a {
				term := new(big.Int)
				nb.MulGate(term, &a[i], &b[i])
				next := new(big.Int)
				nb.AddGate(next, acc, term)
				acc = next
			}
			outputs[0][0] = *acc
			return nil
		},
	}, nil
}
