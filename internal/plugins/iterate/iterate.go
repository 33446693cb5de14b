// Package iterate implements the map/map_enumerated plugin: it
// invokes a named body function N times, slicing the plugin call's own
// caller-visible ranges across iterations and, when enumerated, synthesizing
// a loop-counter input. Grounded on
// original_source/.../wtk/nails/IterPlugin.t.h's MapOperation::evaluate.
//
// Unlike the fallback plugins (mux, ram, vectors, extarith), this one needs
// more than value slices: it must re-run the Interpreter's own push/map/
// evaluate/checkout/pop orchestration against sliced sub-ranges, so it is
// built directly against function.Operation (not function.SimpleOperation)
// and calls Evaluator.Invoke recursively instead of touching wire values.
package iterate

import (
	"math/big"

	"zkir/internal/errors"
	"zkir/internal/function"
	"zkir/internal/gate"
)

// Plugin implements pluginmgr.Plugin for plugin_name "iterate".
type Plugin struct{}

// New builds the iteration plugin. It needs no registry: all type
// information it requires comes from the body function's own signature,
// looked up through the Evaluator at evaluation time.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) Create(operationName string, sig *gate.Signature, binding gate.PluginBinding) (function.Operation, error) {
	enumerated := operationName == "map_enumerated"
	if !enumerated && operationName != "map" {
		return nil, errors.PluginSignatureRejected("iterate", operationName, "unknown operation, expected 'map' or 'map_enumerated'", 0)
	}
	if len(binding.Parameters) != 3 || binding.Parameters[0].IsNumber ||
		!binding.Parameters[1].IsNumber || !binding.Parameters[2].IsNumber {
		return nil, errors.PluginBindingMalformed("iterate", operationName, "expected (function name, env count, iteration count) parameters", 0)
	}
	bodyName := binding.Parameters[0].Text
	envCount := int(binding.Parameters[1].Number.Int64())
	iterCount := int(binding.Parameters[2].Number.Int64())
	if envCount < 0 || iterCount < 0 {
		return nil, errors.PluginBindingMalformed("iterate", operationName, "env count and iteration count must be non-negative", 0)
	}

	return &operation{
		enumerated: enumerated,
		bodyName:   bodyName,
		envCount:   envCount,
		iterCount:  iterCount,
		counterTop: ^uint64(0),
	}, nil
}

type operation struct {
	enumerated bool
	bodyName   string
	envCount   int
	iterCount  int

	// counterTop is the next free high address to carve the synthesized
	// enumerator range from, descending by enum_length each iteration.
	// IterPlugin.t.h does the same (starting from UINT64_MAX and working
	// down) rather than hunting for a free low address, since the wire
	// index space is sparse and this guarantees no collision with any
	// range a real program could plausibly use.
	counterTop uint64
}

// Evaluate runs the map/map_enumerated loop. frame gives this call's own
// ranges (in signature order: outputs, then inputs) in the scope the
// iteration plugin function itself was just invoked against — exactly the
// ranges e.Invoke needs as its own outs/ins arguments for each iteration's
// nested call.
func (o *operation) Evaluate(e function.Evaluator, frame function.Frame, sig *gate.Signature, binding gate.PluginBinding) error {
	bodySig, ok := e.FunctionSignature(o.bodyName)
	if !ok {
		return errors.UnknownFunction(o.bodyName, nil, 0)
	}
	if len(frame.Outputs) != len(bodySig.Outputs) {
		return errors.PluginBindingMalformed("iterate", binding.OperationName, "output count must match the body function's", 0)
	}
	wantIns := len(bodySig.Inputs) - o.envCount
	if o.enumerated {
		wantIns--
	}
	if len(frame.Inputs) != o.envCount+wantIns {
		return errors.PluginBindingMalformed("iterate", binding.OperationName, "input count does not match env count plus body's remaining inputs", 0)
	}

	var enumType uint64
	var enumLen uint64
	if o.enumerated {
		enumType = bodySig.Inputs[o.envCount].Type
		enumLen = bodySig.Inputs[o.envCount].Length
	}

	if o.iterCount == 0 {
		// original_source's N == 0 special case: no iterations means no
		// scopes are pushed and every output range must already be empty.
		for _, s := range frame.Outputs {
			if s.Last >= s.First {
				return errors.PluginBindingMalformed("iterate", binding.OperationName, "zero iterations requires empty output ranges", 0)
			}
		}
		return nil
	}

	// bodyIdx tracks the body input slot each remaining plugin input slices
	// against; it runs past the enumerator slot (if any) once allocated.
	for j := 0; j < o.iterCount; j++ {
		outs := make([]gate.Range, len(frame.Outputs))
		for i, s := range frame.Outputs {
			bodyLen := bodySig.Outputs[i].Length
			outs[i] = gate.Range{
				First: s.First + uint64(j)*bodyLen,
				Last:  s.First + uint64(j+1)*bodyLen - 1,
			}
		}

		ins := make([]gate.Range, 0, len(bodySig.Inputs))
		for i := 0; i < o.envCount; i++ {
			s := frame.Inputs[i]
			ins = append(ins, gate.Range{First: s.First, Last: s.Last})
		}

		var enumFirst, enumLast uint64
		bodyIdx := o.envCount
		if o.enumerated {
			var err error
			enumFirst, enumLast, err = o.allocateCounter(e, enumType, enumLen, j, 0)
			if err != nil {
				return err
			}
			ins = append(ins, gate.Range{First: enumFirst, Last: enumLast})
			bodyIdx++
		}

		for i := o.envCount; i < len(frame.Inputs); i++ {
			s := frame.Inputs[i]
			bodyLen := bodySig.Inputs[bodyIdx].Length
			ins = append(ins, gate.Range{
				First: s.First + uint64(j)*bodyLen,
				Last:  s.First + uint64(j+1)*bodyLen - 1,
			})
			bodyIdx++
		}

		if err := e.Invoke(o.bodyName, outs, ins, 0); err != nil {
			return err
		}
		if o.enumerated {
			if err := e.DeleteRange(enumType, enumFirst, enumLast, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

// allocateCounter synthesizes the enumerator range: a direct assign when
// the counter is a single wire, otherwise a fresh
// range bit-decomposed from the most-significant bit down, matching
// IterPlugin.t.h's "for i = enum_last downTo enum_first" ordering. The
// range is carved from the top of the address space downward, descending
// by enum_length each call, mirroring IterPlugin.t.h's own
// UINT64_MAX-and-down placement rather than hunting for a free low address.
func (o *operation) allocateCounter(e function.Evaluator, enumType, enumLen uint64, j int, line int) (first, last uint64, err error) {
	last = o.counterTop
	first = last - enumLen + 1
	o.counterTop = first - 1

	if enumLen == 1 {
		spec, err := e.TypeSpec(enumType, line)
		if err != nil {
			return 0, 0, err
		}
		alt := new(big.Int).Mod(big.NewInt(int64(j)), spec.MaxValue())
		if err := e.Assign(enumType, first, alt, line); err != nil {
			return 0, 0, err
		}
		return first, last, nil
	}
	if err := e.NewRange(enumType, first, last, line); err != nil {
		return 0, 0, err
	}
	alt := j
	for i := int64(last); i >= int64(first); i-- {
		if err := e.Assign(enumType, uint64(i), big.NewInt(int64(alt&1)), line); err != nil {
			return 0, 0, err
		}
		alt >>= 1
	}
	return first, last, nil
}
