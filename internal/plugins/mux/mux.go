// Package mux implements the multiplexer fallback plugin:
// arithmetic and Boolean, strict and permissive, built from the
// Fermat-indicator and balanced-tree techniques and
// grounded on original_source/.../wtk/plugins/Multiplexer.t.h's
// checkSignature/evaluateMux shape (selector-first input, cases grouped
// round-robin across outputs). Every indicator and accumulation below is
// driven through the selector type's backend.Numeric[big.Int] via real
// AddGate/MulGate/AddcGate/MulcGate/AssertZero calls, exactly as the
// original drives its Wire_T scratch through a wtk::TypeBackend pointer —
// a non-capturing proving backend sees the actual constraints, not a
// plaintext result written straight into the output slot.
package mux

import (
	"math/big"

	"zkir/internal/backend"
	"zkir/internal/errors"
	"zkir/internal/function"
	"zkir/internal/gate"
	"zkir/internal/plugins"
)

// Plugin implements pluginmgr.Plugin for plugin_name "mux".
type Plugin struct {
	reg *plugins.Registry
}

// New builds the mux plugin against reg, used to resolve a call's selector
// type to its modulus and Boolean-ness.
func New(reg *plugins.Registry) *Plugin {
	return &Plugin{reg: reg}
}

// Create validates sig against Multiplexer.t.h's shape — one selector
// input, then K groups of len(outputs) case inputs, round-robin matched to
// outputs by length, all sharing the plugin's one declared type — and
// returns an Operation for operationName ("strict" or "permissive").
func (p *Plugin) Create(operationName string, sig *gate.Signature, binding gate.PluginBinding) (function.Operation, error) {
	strict := operationName == "strict"
	if !strict && operationName != "permissive" {
		return nil, errors.PluginSignatureRejected("mux", operationName, "unknown operation, expected 'strict' or 'permissive'", 0)
	}
	if len(sig.Outputs) == 0 {
		return nil, errors.PluginSignatureRejected("mux", operationName, "expected at least one output", 0)
	}
	if len(sig.Inputs) < 1 || (len(sig.Inputs)-1) < len(sig.Outputs) || (len(sig.Inputs)-1)%len(sig.Outputs) != 0 {
		return nil, errors.PluginSignatureRejected("mux", operationName, "input count must be one more than a multiple of the output count", 0)
	}
	selType := sig.Inputs[0].Type
	outType := sig.Outputs[0].Type
	if selType != outType {
		return nil, errors.PluginSignatureRejected("mux", operationName, "selector and outputs must share the plugin's declared type", 0)
	}
	spec := p.reg.Types.Get(selType)
	if spec == nil {
		return nil, errors.PluginSignatureRejected("mux", operationName, "selector type is not declared", 0)
	}
	boolean := spec.IsBooleanField()
	if !boolean && sig.Inputs[0].Length != 1 {
		return nil, errors.PluginSignatureRejected("mux", operationName, "selector input must have length 1", 0)
	}
	for _, o := range sig.Outputs {
		if o.Type != outType {
			return nil, errors.PluginSignatureRejected("mux", operationName, "all outputs must share a type", 0)
		}
	}
	outPlace := 0
	for i := 1; i < len(sig.Inputs); i++ {
		in := sig.Inputs[i]
		if in.Type != outType {
			return nil, errors.PluginSignatureRejected("mux", operationName, "case inputs must match the output type", 0)
		}
		if in.Length != sig.Outputs[outPlace].Length {
			return nil, errors.PluginSignatureRejected("mux", operationName, "case input length must match its output's length", 0)
		}
		outPlace = (outPlace + 1) % len(sig.Outputs)
	}
	cases := (len(sig.Inputs) - 1) / len(sig.Outputs)
	modulus := p.reg.Modulus(selType)
	if modulus == nil {
		return nil, errors.PluginSignatureRejected("mux", operationName, "selector type has no numeric domain", 0)
	}
	if boolean {
		maxSel := new(big.Int).Lsh(big.NewInt(1), uint(sig.Inputs[0].Length))
		if big.NewInt(int64(cases)).Cmp(maxSel) > 0 {
			return nil, errors.PluginSignatureRejected("mux", operationName, "case count exceeds selector bit-width", 0)
		}
	} else if big.NewInt(int64(cases)).Cmp(modulus) > 0 {
		return nil, errors.PluginSignatureRejected("mux", operationName, "case count exceeds the field's modulus", 0)
	}

	return &function.SimpleOperation[big.Int]{
		Eval: func(e function.Evaluator, outputs, inputs [][]big.Int, sig *gate.Signature, binding gate.PluginBinding) error {
			nb, err := function.NumericOf[big.Int](e, selType, 0)
			if err != nil {
				return err
			}
			groups := groupCases(outputs, inputs)
			if boolean {
				evaluateBoolean(nb, outputs, inputs[0], groups, strict)
				return nil
			}
			return evaluateArithmetic(nb, outputs, inputs[0], groups, strict, modulus)
		},
	}, nil
}

// groupCases reassembles the flat inputs[1:] list into one []big.Int slice
// per (case, output) pair, matching MuxOperation::evaluate's out_place/
// in_group round-robin walk.
func groupCases(outputs, inputs [][]big.Int) [][][]big.Int {
	numOut := len(outputs)
	cases := make([][][]big.Int, (len(inputs)-1)/numOut)
	outPlace, group := 0, 0
	for i := 1; i < len(inputs); i++ {
		if len(cases[group]) <= outPlace {
			cases[group] = append(cases[group], inputs[i])
		}
		outPlace++
		if outPlace == numOut {
			outPlace = 0
			group++
		}
	}
	return cases
}

// evaluateArithmetic implements StrictFLTMuxOperation/PermissiveFLTMuxOperation
// ::evaluateMux: a per-case Fermat indicator, a strict-only assertion that the
// indicators sum to 1, and an output accumulation of indicator*case summed
// across cases — all driven through nb.
func evaluateArithmetic(nb backend.Numeric[big.Int], outputs [][]big.Int, selector []big.Int, cases [][][]big.Int, strict bool, modulus *big.Int) error {
	sel := &selector[0]
	indicators := make([]*big.Int, len(cases))
	for k := range cases {
		eq, _ := plugins.FLTIndicator(nb, sel, big.NewInt(int64(k)), modulus)
		indicators[k] = eq
	}

	if strict {
		sum := new(big.Int)
		nb.AddcGate(sum, indicators[0], big.NewInt(-1))
		for _, ind := range indicators[1:] {
			next := new(big.Int)
			nb.AddGate(next, sum, ind)
			sum = next
		}
		nb.AssertZero(sum)
	}

	for oi := range outputs {
		for wi := range outputs[oi] {
			acc := new(big.Int)
			nb.MulGate(acc, indicators[0], &cases[0][oi][wi])
			for k := 1; k < len(cases); k++ {
				term := new(big.Int)
				nb.MulGate(term, indicators[k], &cases[k][oi][wi])
				next := new(big.Int)
				nb.AddGate(next, acc, term)
				acc = next
			}
			outputs[oi][wi] = *acc
		}
	}
	return nil
}

// evaluateBoolean implements PermissiveTreedBooleanMuxOperation and
// StrictTreedBooleanMuxOperation::evaluateMux: a balanced binary tree over
// the selector's bits. The strict variant appends a synthetic length-1
// "check" output and a matching check input valued 1 in every case, runs it
// through the same tree, and asserts check+1 == 0 — an out-of-range
// selector leaves the check output unset to 1, tripping the assertion.
func evaluateBoolean(nb backend.Numeric[big.Int], outputs [][]big.Int, selector []big.Int, cases [][][]big.Int, strict bool) {
	if !strict {
		treeMux(nb, outputs, selector, cases)
		return
	}

	checkIn := new(big.Int)
	nb.Assign(checkIn, big.NewInt(1))

	extOutputs := append(append([][]big.Int{}, outputs...), []big.Int{{}})
	extCases := make([][][]big.Int, len(cases))
	for k := range cases {
		extCases[k] = append(append([][]big.Int{}, cases[k]...), []big.Int{*checkIn})
	}

	treeMux(nb, extOutputs, selector, extCases)

	checkPlusOne := new(big.Int)
	nb.AddcGate(checkPlusOne, &extOutputs[len(extOutputs)-1][0], big.NewInt(1))
	nb.AssertZero(checkPlusOne)
}

// treeMux recurses on the selector's remaining bits (most significant
// consumed first), splitting the case list in half at each level and
// combining the two zero-initialized branch results with twoMux. Grounded
// on Multiplexer.t.h's treeMux.
func treeMux(nb backend.Numeric[big.Int], outputs [][]big.Int, selectorBits []big.Int, cases [][][]big.Int) {
	numCases := len(cases)
	if len(selectorBits) == 1 {
		sel := &selectorBits[0]
		if numCases == 1 {
			oneMux(nb, outputs, cases[0], sel)
		} else {
			twoMux(nb, outputs, cases[0], cases[1], sel)
		}
		return
	}

	half := 1 << uint(len(selectorBits)-1)
	left := zeroLike(nb, outputs)
	right := zeroLike(nb, outputs)

	if numCases <= half {
		treeMux(nb, left, selectorBits[1:], cases)
	} else {
		treeMux(nb, left, selectorBits[1:], cases[:half])
		treeMux(nb, right, selectorBits[1:], cases[half:])
	}

	twoMux(nb, outputs, left, right, &selectorBits[0])
}

// oneMux is the tree's leaf case when only one case remains: output =
// case0 * (selector+1), i.e. select case0 when selector's remaining bit is
// 0 ("not selector" in the Boolean field).
func oneMux(nb backend.Numeric[big.Int], outputs, in0 [][]big.Int, selector *big.Int) {
	selPlusOne := new(big.Int)
	nb.AddcGate(selPlusOne, selector, big.NewInt(1))
	for i := range outputs {
		for j := range outputs[i] {
			nb.MulGate(&outputs[i][j], &in0[i][j], selPlusOne)
		}
	}
}

// twoMux is the tree's leaf case with two remaining cases: output =
// in0*(selector+1) + in1*selector.
func twoMux(nb backend.Numeric[big.Int], outputs, in0, in1 [][]big.Int, selector *big.Int) {
	selPlusOne := new(big.Int)
	nb.AddcGate(selPlusOne, selector, big.NewInt(1))
	for i := range outputs {
		for j := range outputs[i] {
			a := new(big.Int)
			nb.MulGate(a, &in0[i][j], selPlusOne)
			b := new(big.Int)
			nb.MulGate(b, &in1[i][j], selector)
			nb.AddGate(&outputs[i][j], a, b)
		}
	}
}

// zeroLike allocates a fresh output-shaped buffer and commits every wire to
// 0 via nb.Assign, mirroring treeMux's temp_out_wires initialization.
func zeroLike(nb backend.Numeric[big.Int], outputs [][]big.Int) [][]big.Int {
	out := make([][]big.Int, len(outputs))
	for i := range outputs {
		out[i] = make([]big.Int, len(outputs[i]))
		for j := range out[i] {
			nb.Assign(&out[i][j], big.NewInt(0))
		}
	}
	return out
}
