package interpreter

import (
	"math/big"

	"zkir/internal/backend"
	"zkir/internal/errors"
	"zkir/internal/scope"
	"zkir/internal/types"
)

// TypeInterpreter is spec.md §4.C's per-type gate dispatcher: it owns a
// stack of Scope[V] (one per live call frame, top is current) and forwards
// validated gate callbacks to a backend.Numeric[V]. V is the backend's own
// wire value representation (e.g. big.Int for the reference field/ring
// backends); it never crosses the Dispatcher interface boundary, which is
// why TypeInterpreter can be generic while Interpreter itself is not.
type TypeInterpreter[V any] struct {
	idx     uint64
	spec    *types.Spec
	backend backend.Numeric[V]

	public  backend.Stream
	private backend.Stream

	scopes []*scope.Scope[V]
}

// NewTypeInterpreter constructs a TypeInterpreter with one top-level scope
// already pushed.
func NewTypeInterpreter[V any](idx uint64, spec *types.Spec, be backend.Numeric[V], public, private backend.Stream) *TypeInterpreter[V] {
	return &TypeInterpreter[V]{
		idx:     idx,
		spec:    spec,
		backend: be,
		public:  public,
		private: private,
		scopes:  []*scope.Scope[V]{scope.New[V]()},
	}
}

func (ti *TypeInterpreter[V]) TypeIdx() uint64   { return ti.idx }
func (ti *TypeInterpreter[V]) Spec() *types.Spec { return ti.spec }

// Numeric implements Dispatcher.Numeric by returning this type's backend,
// type-erased as any.
func (ti *TypeInterpreter[V]) Numeric() any { return ti.backend }

func (ti *TypeInterpreter[V]) top() *scope.Scope[V] { return ti.scopes[len(ti.scopes)-1] }

func (ti *TypeInterpreter[V]) retrieve(wire uint64, line int) (*V, error) {
	v, err := ti.top().Retrieve(wire)
	if err == nil {
		return v, nil
	}
	return nil, scopeToDiag(err, wire, wire, line)
}

func (ti *TypeInterpreter[V]) outputSlot(wire uint64, line int) (*V, error) {
	v, err := ti.top().Assign(wire)
	if err == nil {
		return v, nil
	}
	return nil, scopeToDiag(err, wire, wire, line)
}

func (ti *TypeInterpreter[V]) checkConst(c *big.Int, line int) error {
	if !ti.spec.FitsValue(c) {
		return errors.ConstantOverflow(c.String(), ti.spec.MaxValue().String(), line)
	}
	return nil
}

func checkAlias(line int, out uint64, ins ...uint64) error {
	for _, in := range ins {
		if in == out {
			return errors.AliasedOperands(out, line)
		}
	}
	return nil
}

func (ti *TypeInterpreter[V]) AddGate(out, l, r uint64, line int) error {
	if err := checkAlias(line, out, l, r); err != nil {
		return err
	}
	lv, err := ti.retrieve(l, line)
	if err != nil {
		return err
	}
	rv, err := ti.retrieve(r, line)
	if err != nil {
		return err
	}
	ov, err := ti.outputSlot(out, line)
	if err != nil {
		return err
	}
	ti.backend.AddGate(ov, lv, rv)
	return nil
}

func (ti *TypeInterpreter[V]) MulGate(out, l, r uint64, line int) error {
	if err := checkAlias(line, out, l, r); err != nil {
		return err
	}
	lv, err := ti.retrieve(l, line)
	if err != nil {
		return err
	}
	rv, err := ti.retrieve(r, line)
	if err != nil {
		return err
	}
	ov, err := ti.outputSlot(out, line)
	if err != nil {
		return err
	}
	ti.backend.MulGate(ov, lv, rv)
	return nil
}

func (ti *TypeInterpreter[V]) AddcGate(out, l uint64, c *big.Int, line int) error {
	if err := checkAlias(line, out, l); err != nil {
		return err
	}
	if err := ti.checkConst(c, line); err != nil {
		return err
	}
	lv, err := ti.retrieve(l, line)
	if err != nil {
		return err
	}
	ov, err := ti.outputSlot(out, line)
	if err != nil {
		return err
	}
	ti.backend.AddcGate(ov, lv, c)
	return nil
}

func (ti *TypeInterpreter[V]) MulcGate(out, l uint64, c *big.Int, line int) error {
	if err := checkAlias(line, out, l); err != nil {
		return err
	}
	if err := ti.checkConst(c, line); err != nil {
		return err
	}
	lv, err := ti.retrieve(l, line)
	if err != nil {
		return err
	}
	ov, err := ti.outputSlot(out, line)
	if err != nil {
		return err
	}
	ti.backend.MulcGate(ov, lv, c)
	return nil
}

func (ti *TypeInterpreter[V]) Copy(out, l uint64, line int) error {
	if err := checkAlias(line, out, l); err != nil {
		return err
	}
	lv, err := ti.retrieve(l, line)
	if err != nil {
		return err
	}
	ov, err := ti.outputSlot(out, line)
	if err != nil {
		return err
	}
	ti.backend.Copy(ov, lv)
	return nil
}

// CopyMulti implements spec.md §4.C's multi-wire copy law: inputs are
// resolved with find_inputs (each span must be contiguous and live),
// outputs via find_outputs, then the backend's single-wire copy is applied
// element-wise before assigned/active is marked on the output range.
func (ti *TypeInterpreter[V]) CopyMulti(outFirst, outLast uint64, ins []Span, line int) error {
	var inputs []V
	for _, sp := range ins {
		vs, err := ti.top().FindInputs(sp.First, sp.Last)
		if err != nil {
			return scopeToDiag(err, sp.First, sp.Last, line)
		}
		inputs = append(inputs, vs...)
	}
	wantLen := outLast - outFirst + 1
	if uint64(len(inputs)) != wantLen {
		return errors.LengthMismatch("copy_multi", 0, int(wantLen), len(inputs), line)
	}

	outs, err := ti.top().FindOutputs(outFirst, outLast)
	if err != nil {
		return scopeToDiag(err, outFirst, outLast, line)
	}
	for i := range outs {
		ti.backend.Copy(&outs[i], &inputs[i])
	}
	ti.top().MarkAssigned(outFirst, outLast)
	return nil
}

func (ti *TypeInterpreter[V]) Assign(out uint64, c *big.Int, line int) error {
	if err := ti.checkConst(c, line); err != nil {
		return err
	}
	ov, err := ti.outputSlot(out, line)
	if err != nil {
		return err
	}
	ti.backend.Assign(ov, c)
	return nil
}

func (ti *TypeInterpreter[V]) AssertZero(l uint64, line int) error {
	lv, err := ti.retrieve(l, line)
	if err != nil {
		return err
	}
	ti.backend.AssertZero(lv)
	return nil
}

func (ti *TypeInterpreter[V]) pullStream(s backend.Stream, line int) (*big.Int, error) {
	v, status := s.Next()
	switch status {
	case backend.StreamOK:
		if !ti.spec.FitsValue(v) {
			return nil, errors.StreamOutOfRange(line)
		}
		return v, nil
	case backend.StreamEnd:
		return nil, errors.StreamUnderflow(line)
	default:
		return nil, errors.StreamUnderflow(line)
	}
}

func (ti *TypeInterpreter[V]) PublicIn(out uint64, line int) error {
	v, err := ti.pullStream(ti.public, line)
	if err != nil {
		return err
	}
	ov, err := ti.outputSlot(out, line)
	if err != nil {
		return err
	}
	ti.backend.PublicIn(ov, v)
	return nil
}

func (ti *TypeInterpreter[V]) PrivateIn(out uint64, line int) error {
	v, err := ti.pullStream(ti.private, line)
	if err != nil {
		return err
	}
	ov, err := ti.outputSlot(out, line)
	if err != nil {
		return err
	}
	ti.backend.PrivateIn(ov, v)
	return nil
}

// multiIn implements spec.md §4.C's multi-wire public/private input: the
// output range is allocated up front via find_outputs, then stream values
// are pulled in order; on partial failure only the slots that succeeded are
// marked assigned.
func (ti *TypeInterpreter[V]) multiIn(first, last uint64, line int, s backend.Stream, in func(out *V, c *big.Int)) error {
	outs, err := ti.top().FindOutputs(first, last)
	if err != nil {
		return scopeToDiag(err, first, last, line)
	}
	for i := range outs {
		v, err := ti.pullStream(s, line)
		if err != nil {
			if i > 0 {
				ti.top().MarkAssigned(first, first+uint64(i)-1)
			}
			return err
		}
		in(&outs[i], v)
	}
	ti.top().MarkAssigned(first, last)
	return nil
}

func (ti *TypeInterpreter[V]) PublicInMulti(first, last uint64, line int) error {
	return ti.multiIn(first, last, line, ti.public, ti.backend.PublicIn)
}

func (ti *TypeInterpreter[V]) PrivateInMulti(first, last uint64, line int) error {
	return ti.multiIn(first, last, line, ti.private, ti.backend.PrivateIn)
}

func (ti *TypeInterpreter[V]) NewRangeDirective(first, last uint64, line int) error {
	_, err := ti.top().NewRangeAlloc(first, last)
	if err != nil {
		return scopeToDiag(err, first, last, line)
	}
	return nil
}

func (ti *TypeInterpreter[V]) DeleteRangeDirective(first, last uint64, line int) error {
	err := ti.top().DeleteRange(first, last, nil)
	if err != nil {
		return scopeToDiag(err, first, last, line)
	}
	return nil
}

func (ti *TypeInterpreter[V]) Push() {
	ti.scopes = append(ti.scopes, scope.New[V]())
}

func (ti *TypeInterpreter[V]) Pop() {
	n := len(ti.scopes)
	ti.scopes[n-1].Teardown(nil)
	ti.scopes = ti.scopes[:n-1]
}

// MapOutput carves the caller's output range via find_outputs and remaps it
// into the just-pushed callee scope, returning the callee-local first index.
func (ti *TypeInterpreter[V]) MapOutput(callerFirst, callerLast uint64, line int) (uint64, error) {
	n := len(ti.scopes)
	caller := ti.scopes[n-2]
	callee := ti.scopes[n-1]

	slots, err := caller.FindOutputs(callerFirst, callerLast)
	if err != nil {
		return 0, scopeToDiag(err, callerFirst, callerLast, line)
	}
	return callee.MapOutputs(slots), nil
}

// MapInput resolves the caller's input range via find_inputs and remaps it
// into the callee scope, marking it assigned/active there immediately.
func (ti *TypeInterpreter[V]) MapInput(callerFirst, callerLast uint64, line int) (uint64, error) {
	n := len(ti.scopes)
	caller := ti.scopes[n-2]
	callee := ti.scopes[n-1]

	slots, err := caller.FindInputs(callerFirst, callerLast)
	if err != nil {
		return 0, scopeToDiag(err, callerFirst, callerLast, line)
	}
	return callee.MapInputs(slots), nil
}

// CheckOutput verifies the callee fully assigned [calleeFirst,calleeLast]
// and, if so, promotes assigned/active for the corresponding caller range
// (the backing memory is already shared via the remap, so no copy occurs).
func (ti *TypeInterpreter[V]) CheckOutput(calleeFirst, calleeLast, callerFirst, callerLast uint64, line int) error {
	callee := ti.scopes[len(ti.scopes)-1]
	if !callee.Active.HasAll(calleeFirst, calleeLast) {
		return errors.NotAssigned(callerFirst, line)
	}
	caller := ti.scopes[len(ti.scopes)-2]
	caller.MarkAssigned(callerFirst, callerLast)
	return nil
}

func (ti *TypeInterpreter[V]) FindInputsRef(first, last uint64, line int) (backend.WiresRef, error) {
	slots, err := ti.top().FindInputs(first, last)
	if err != nil {
		return nil, scopeToDiag(err, first, last, line)
	}
	return &backend.TypedWires[V]{Type: ti.idx, Slots: slots}, nil
}

// PluginOutputRef is spec.md §4.F's plugin_output hook: it allocates and
// marks assigned/active in one step so a plugin Operation need not call back
// into scope bookkeeping itself.
func (ti *TypeInterpreter[V]) PluginOutputRef(first, last uint64, line int) (backend.WiresRef, error) {
	slots, err := ti.top().FindOutputs(first, last)
	if err != nil {
		return nil, scopeToDiag(err, first, last, line)
	}
	ti.top().MarkAssigned(first, last)
	return &backend.TypedWires[V]{Type: ti.idx, Slots: slots}, nil
}

func (ti *TypeInterpreter[V]) Check() bool  { return ti.backend.Check() }
func (ti *TypeInterpreter[V]) Finish()      { ti.backend.Finish() }

// scopeToDiag translates a *scope.Error into the matching errors.Diagnostic,
// filling in whichever wire-range context the specific error kind reports.
func scopeToDiag(err error, first, last uint64, line int) error {
	se, ok := err.(*scope.Error)
	if !ok {
		return err
	}
	switch se.Code {
	case errors.ErrorAlreadyExists:
		return errors.AlreadyExists(first, line)
	case errors.ErrorNotAssigned:
		return errors.NotAssigned(first, line)
	case errors.ErrorDeleted:
		return errors.Deleted(first, line)
	case errors.ErrorOutOfMem:
		return errors.OutOfMem(first, last, line)
	case errors.ErrorCannotDeleteRemap:
		return errors.CannotDeleteRemap(first, last, line)
	case errors.ErrorUnmatchedDelete:
		return errors.UnmatchedDelete(first, last, line)
	case errors.ErrorDiscontiguous:
		return errors.Discontiguous(first, last, line)
	case errors.ErrorInvalidRange:
		return errors.InvalidRange(first, last, line)
	default:
		return err
	}
}
