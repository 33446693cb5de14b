package interpreter

import (
	"math/big"

	"zkir/internal/backend"
	"zkir/internal/types"
)

// Dispatcher is the type-erased surface the multi-type Interpreter drives.
// A generic TypeInterpreter[V] implements it so the Interpreter can hold a
// slice of interpreters with unrelated wire value representations V without
// itself becoming generic (spec.md §9's "parametric module plus a
// type-erased handle", applied to the interpreter boundary rather than just
// to plugin WiresRef handles).
type Dispatcher interface {
	TypeIdx() uint64
	Spec() *types.Spec

	AddGate(out, l, r uint64, line int) error
	MulGate(out, l, r uint64, line int) error
	AddcGate(out, l uint64, c *big.Int, line int) error
	MulcGate(out, l uint64, c *big.Int, line int) error
	Copy(out, l uint64, line int) error
	CopyMulti(outFirst, outLast uint64, ins []Span, line int) error
	Assign(out uint64, c *big.Int, line int) error
	AssertZero(l uint64, line int) error
	PublicIn(out uint64, line int) error
	PublicInMulti(first, last uint64, line int) error
	PrivateIn(out uint64, line int) error
	PrivateInMulti(first, last uint64, line int) error
	NewRangeDirective(first, last uint64, line int) error
	DeleteRangeDirective(first, last uint64, line int) error

	// Function-call frame helpers, operating on this TypeInterpreter's own
	// scope stack (spec.md §4.C).
	Push()
	Pop()
	MapOutput(callerFirst, callerLast uint64, line int) (calleeFirst uint64, err error)
	MapInput(callerFirst, callerLast uint64, line int) (calleeFirst uint64, err error)
	CheckOutput(calleeFirst, calleeLast, callerFirst, callerLast uint64, line int) error

	// Plugin/converter support: type-erased views over the current scope.
	FindInputsRef(first, last uint64, line int) (backend.WiresRef, error)
	PluginOutputRef(first, last uint64, line int) (backend.WiresRef, error)

	// Numeric exposes this type's backend.Numeric[V], type-erased as any, so
	// a fallback plugin Operation can drive its own scratch arithmetic
	// through the same gate callbacks a regular function replays (spec.md
	// §4.H). A caller type-asserts the result to backend.Numeric[V] for the
	// V it already downcast WiresRef handles to.
	Numeric() any

	Check() bool
	Finish()
}

// Span is a (first,last) wire reference within one TypeInterpreter's current
// scope, used for copy_multi's flattened list of input ranges.
type Span struct {
	First uint64
	Last  uint64
}
