package function

import "zkir/internal/gate"

// Factory builds the in-memory representation of a regular function's
// recorded body. GatesFunctionFactory is the default, flat-slice kind;
// spec.md §4.E allows alternative factories to specialize the
// representation (e.g. a bytecode-compiling factory) behind the same
// Function interface.
type Factory interface {
	Build(sig *gate.Signature, gates []gate.Gate) Function
}

// GatesFunctionFactory builds plain RegularFunction values.
type GatesFunctionFactory struct{}

func (GatesFunctionFactory) Build(sig *gate.Signature, gates []gate.Gate) Function {
	return NewRegularFunction(sig, gates)
}
