// Package backend declares the contracts a circuit interpreter drives: the
// per-type numeric backend, the cross-type Converter, and the input-stream
// interface that satisfies @public/@private directives. Concrete
// implementations live in internal/refbackend. A plugin cannot register a
// backend for a plugin-defined wire type: internal/pluginmgr only creates
// Operations.
package backend

import "math/big"

// Numeric is the per-type backend contract from spec.md §6. Every method
// receives pointers to already-validated wire slots of this backend's own
// value representation V.
type Numeric[V any] interface {
	AddGate(out, l, r *V)
	MulGate(out, l, r *V)
	AddcGate(out, l *V, c *big.Int)
	MulcGate(out, l *V, c *big.Int)
	Copy(out, l *V)
	Assign(out *V, c *big.Int)
	AssertZero(l *V)
	PublicIn(out *V, c *big.Int)
	PrivateIn(out *V, c *big.Int)

	// Check finalizes aggregated assertions and reports overall validity.
	Check() bool
	// Finish releases any resources held by the backend.
	Finish()
}

// ExtendedWitness is implemented by backends that can reveal the plaintext
// value of a wire to prover-side fallback plugins (extarith, mux, ram).
type ExtendedWitness[V any] interface {
	SupportsExtendedWitness() bool
	GetExtendedWitness(w *V) *big.Int
}

// Converter bridges two declared types for a @convert directive with a fixed
// (out_length, in_length). It is implemented against type-erased WiresRef
// handles since the two sides may have unrelated value representations V.
type Converter interface {
	Convert(out Slots, in Slots, modulus bool) error
	Check() bool
}

// Slots is the minimal type-erased view a Converter needs of a wire range;
// it is satisfied by TypedWires below, the same handle plugin Operations use.
type Slots interface {
	Len() int
	TypeIdx() uint64
}

// StreamStatus is the outcome of pulling one value from an input stream.
type StreamStatus int

const (
	StreamOK StreamStatus = iota
	StreamEnd
	StreamError
)

// Stream is the input-stream contract from spec.md §6: a lazily-drained
// source of public or private values for one declared type.
type Stream interface {
	Next() (*big.Int, StreamStatus)
	LineNum() int
}

// WiresRef is the type-erased wire-range handle spec.md §4.F calls
// WiresRefEraser: a (size, type, raw_slots) triple that a plugin Operation or
// a Converter downcasts to the concrete value representation it expects.
type WiresRef = Slots

// TypedWires is the concrete, generic implementation behind a WiresRef: a
// slice of a known value type V tagged with the declared type_idx it came
// from. SimpleOperation and the refbackend Converters downcast to this via
// AsSlots instead of exposing V on the WiresRef interface itself.
type TypedWires[V any] struct {
	Type  uint64
	Slots []V
}

func (t *TypedWires[V]) Len() int        { return len(t.Slots) }
func (t *TypedWires[V]) TypeIdx() uint64 { return t.Type }

// AsSlots downcasts a type-erased WiresRef to the []V it was built from. It
// returns ok=false if w does not carry value representation V, which a
// caller should treat as a rejected signature (spec.md's
// PluginSignatureRejected).
func AsSlots[V any](w WiresRef) (typ uint64, slots []V, ok bool) {
	t, ok := w.(*TypedWires[V])
	if !ok {
		return 0, nil, false
	}
	return t.Type, t.Slots, true
}
