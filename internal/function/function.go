// Package function implements spec.md §4.E's Function abstraction: a
// tagged variant over RegularFunction (replay a recorded gate list) and
// PluginFunction (dispatch to an Operation), both carrying an immutable
// Signature.
package function

import (
	"math/big"

	"zkir/internal/backend"
	"zkir/internal/errors"
	"zkir/internal/gate"
	"zkir/internal/types"
)

// SlotRef is one signature slot's callee-local wire range, computed by the
// Interpreter's invoke orchestration (spec.md §4.D step 4) and handed to
// Function.Evaluate so a PluginFunction can build WiresRef handles without
// re-deriving the map_output/map_input accumulation itself.
type SlotRef struct {
	Type  uint64
	First uint64
	Last  uint64
}

// Frame carries the callee-local slot layout for one invocation, in
// signature order.
type Frame struct {
	Outputs []SlotRef
	Inputs  []SlotRef
}

// Evaluator is the narrow surface a Function needs from the Interpreter to
// run its body: the same gate-dispatch calls a top-level directive producer
// would make (so replay and live execution share one code path), plus the
// two WiresRef accessors a plugin Operation needs. Interpreter implements
// this structurally; this package never imports it, which is what lets
// Interpreter import function without a cycle.
type Evaluator interface {
	AddGate(typeIdx, out, l, r uint64, line int) error
	MulGate(typeIdx, out, l, r uint64, line int) error
	AddcGate(typeIdx, out, l uint64, c *big.Int, line int) error
	MulcGate(typeIdx, out, l uint64, c *big.Int, line int) error
	Copy(typeIdx, out, l uint64, line int) error
	CopyMulti(typeIdx uint64, outFirst, outLast uint64, ins []gate.Range, line int) error
	Assign(typeIdx, out uint64, c *big.Int, line int) error
	AssertZero(typeIdx, l uint64, line int) error
	PublicIn(typeIdx, out uint64, line int) error
	PublicInMulti(typeIdx, first, last uint64, line int) error
	PrivateIn(typeIdx, out uint64, line int) error
	PrivateInMulti(typeIdx, first, last uint64, line int) error
	Convert(outType, outFirst, outLast, inType, inFirst, inLast uint64, modulus bool, line int) error
	NewRange(typeIdx, first, last uint64, line int) error
	DeleteRange(typeIdx, first, last uint64, line int) error
	Invoke(name string, outs, ins []gate.Range, line int) error

	FindInputsRef(typeIdx, first, last uint64, line int) (backend.WiresRef, error)
	PluginOutputRef(typeIdx, first, last uint64, line int) (backend.WiresRef, error)

	// NumericBackend hands back typeIdx's backend.Numeric[V], type-erased as
	// any, so a fallback plugin Operation can drive scratch arithmetic
	// through real AddGate/MulGate/AddcGate/MulcGate/AssertZero calls
	// (spec.md §4.H) instead of computing results outside the backend. Use
	// NumericOf to downcast the result to the concrete backend.Numeric[V].
	NumericBackend(typeIdx uint64, line int) (any, error)

	// TypeSpec looks up a declared type's Spec, used by the iteration plugin
	// to reduce a synthesized loop counter modulo the enumerator type's
	// modulus (spec.md §4.G).
	TypeSpec(typeIdx uint64, line int) (*types.Spec, error)

	// FunctionSignature looks up a declared function by name, used by the
	// iteration plugin to learn its body's exact input/output shape (the
	// environment count and the enumerator slot's type and length) without
	// duplicating the arity bookkeeping Invoke already performs.
	FunctionSignature(name string) (*gate.Signature, bool)
}

// Function is spec.md §4.E's tagged variant: Regular or Plugin.
type Function interface {
	Signature() *gate.Signature
	Evaluate(e Evaluator, frame Frame) error
}

// Operation is a callable implementation of one plugin function (spec.md
// §4.F). It receives the full Evaluator rather than bare value slices so
// that a plugin needing to re-invoke another function against sliced
// sub-ranges — the iteration plugin's map/map_enumerated — can call
// e.Invoke directly instead of duplicating the Interpreter's own push/
// map/checkout/pop orchestration. frame gives the callee-local ranges for
// this invocation, in signature order, exactly as Invoke computed them.
type Operation interface {
	Evaluate(e Evaluator, frame Frame, sig *gate.Signature, binding gate.PluginBinding) error
}

// SimpleOperation adapts a function operating on a single concrete wire
// value type V into an Operation: it builds WiresRef handles from frame via
// e.PluginOutputRef/e.FindInputsRef and downcasts each with backend.AsSlots
// before delegating. This is the convenience spec.md §4.F names for
// operations that don't themselves need type erasure or a nested Invoke —
// the fallback plugins (mux, ram, vectors, extarith) all use it. Eval
// receives e itself (not just the downcast slices) so it can fetch the
// backend.Numeric[V] for any type it touches via NumericOf and drive its
// arithmetic through real gate callbacks, the same way the original
// plugins' evaluateMux/evaluateCmp helpers drive theirs through a
// wtk::TypeBackend pointer.
type SimpleOperation[V any] struct {
	Eval func(e Evaluator, outputs, inputs [][]V, sig *gate.Signature, binding gate.PluginBinding) error
}

func (o *SimpleOperation[V]) Evaluate(e Evaluator, frame Frame, sig *gate.Signature, binding gate.PluginBinding) error {
	outputs := make([]backend.WiresRef, len(frame.Outputs))
	for i, s := range frame.Outputs {
		ref, err := e.PluginOutputRef(s.Type, s.First, s.Last, 0)
		if err != nil {
			return err
		}
		outputs[i] = ref
	}
	inputs := make([]backend.WiresRef, len(frame.Inputs))
	for i, s := range frame.Inputs {
		ref, err := e.FindInputsRef(s.Type, s.First, s.Last, 0)
		if err != nil {
			return err
		}
		inputs[i] = ref
	}

	outs, err := downcastAll[V](outputs)
	if err != nil {
		return err
	}
	ins, err := downcastAll[V](inputs)
	if err != nil {
		return err
	}
	return o.Eval(e, outs, ins, sig, binding)
}

// NumericOf fetches typeIdx's backend through e.NumericBackend and
// downcasts it to backend.Numeric[V], the same shape AsSlots downcasts a
// WiresRef to. It returns a rejected-signature error if the type's backend
// does not carry value representation V.
func NumericOf[V any](e Evaluator, typeIdx uint64, line int) (backend.Numeric[V], error) {
	raw, err := e.NumericBackend(typeIdx, line)
	if err != nil {
		return nil, err
	}
	nb, ok := raw.(backend.Numeric[V])
	if !ok {
		return nil, errors.PluginSignatureRejected("", "", "wire value type does not match this operation", line)
	}
	return nb, nil
}

func downcastAll[V any](refs []backend.WiresRef) ([][]V, error) {
	out := make([][]V, len(refs))
	for i, r := range refs {
		_, slots, ok := backend.AsSlots[V](r)
		if !ok {
			return nil, errors.PluginSignatureRejected("", "", "wire value type does not match this operation", 0)
		}
		out[i] = slots
	}
	return out, nil
}

// RegularFunction replays a flat, recorded Gate list against an Evaluator.
type RegularFunction struct {
	sig   *gate.Signature
	gates []gate.Gate
}

// NewRegularFunction builds a RegularFunction from its signature and the
// gate list recorded between regular_function() and end_function().
func NewRegularFunction(sig *gate.Signature, gates []gate.Gate) *RegularFunction {
	return &RegularFunction{sig: sig, gates: gates}
}

func (f *RegularFunction) Signature() *gate.Signature { return f.sig }

func (f *RegularFunction) Evaluate(e Evaluator, _ Frame) error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, g := range f.gates {
		switch g.Kind {
		case gate.Add:
			record(e.AddGate(g.Type, g.Out.First, g.In.First, g.Right.First, g.Line))
		case gate.Mul:
			record(e.MulGate(g.Type, g.Out.First, g.In.First, g.Right.First, g.Line))
		case gate.Addc:
			record(e.AddcGate(g.Type, g.Out.First, g.In.First, g.Const, g.Line))
		case gate.Mulc:
			record(e.MulcGate(g.Type, g.Out.First, g.In.First, g.Const, g.Line))
		case gate.Copy:
			record(e.Copy(g.Type, g.Out.First, g.In.First, g.Line))
		case gate.CopyMulti:
			record(e.CopyMulti(g.Type, g.Out.First, g.Out.Last, g.Ins, g.Line))
		case gate.Assign:
			record(e.Assign(g.Type, g.Out.First, g.Const, g.Line))
		case gate.AssertZero:
			record(e.AssertZero(g.Type, g.In.First, g.Line))
		case gate.PublicIn:
			record(e.PublicIn(g.Type, g.Out.First, g.Line))
		case gate.PublicInMulti:
			record(e.PublicInMulti(g.Type, g.Out.First, g.Out.Last, g.Line))
		case gate.PrivateIn:
			record(e.PrivateIn(g.Type, g.Out.First, g.Line))
		case gate.PrivateInMulti:
			record(e.PrivateInMulti(g.Type, g.Out.First, g.Out.Last, g.Line))
		case gate.Convert:
			record(e.Convert(g.Type, g.Out.First, g.Out.Last, g.ConvInType, g.In.First, g.In.Last, g.ConvModulus, g.Line))
		case gate.NewRange:
			record(e.NewRange(g.Type, g.Out.First, g.Out.Last, g.Line))
		case gate.DeleteRange:
			record(e.DeleteRange(g.Type, g.Out.First, g.Out.Last, g.Line))
		case gate.Call:
			record(e.Invoke(g.CallTarget, g.Outs, g.Ins, g.Line))
		}
	}
	return firstErr
}

// PluginFunction holds a reference to an Operation obtained from the
// PluginsManager at declaration time, plus the original PluginBinding.
type PluginFunction struct {
	sig     *gate.Signature
	op      Operation
	binding gate.PluginBinding
}

// NewPluginFunction constructs a PluginFunction around an already-created
// Operation.
func NewPluginFunction(sig *gate.Signature, op Operation, binding gate.PluginBinding) *PluginFunction {
	return &PluginFunction{sig: sig, op: op, binding: binding}
}

func (f *PluginFunction) Signature() *gate.Signature { return f.sig }

func (f *PluginFunction) Evaluate(e Evaluator, frame Frame) error {
	return f.op.Evaluate(e, frame, f.sig, f.binding)
}
