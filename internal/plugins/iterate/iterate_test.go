package iterate

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkir/internal/backend"
	"zkir/internal/function"
	"zkir/internal/gate"
	"zkir/internal/types"
)

// fakeEvaluator is a minimal function.Evaluator double recording Invoke calls
// and the assign/new_range/delete_range traffic the iteration plugin issues
// while synthesizing an enumerator range, enough to check map/map_enumerated
// without a real Interpreter.
type fakeEvaluator struct {
	sigs    map[string]*gate.Signature
	invokes []invokeCall
	assigns map[uint64]*big.Int // wire -> value, across the one type this test uses
	ranges  map[uint64]bool     // wire -> currently live
	spec    *types.Spec         // enumerator type's spec, for TypeSpec
}

type invokeCall struct {
	name string
	outs []gate.Range
	ins  []gate.Range
}

func newFakeEvaluator(bodySig *gate.Signature) *fakeEvaluator {
	return &fakeEvaluator{
		sigs:    map[string]*gate.Signature{bodySig.Name: bodySig},
		assigns: map[uint64]*big.Int{},
		ranges:  map[uint64]bool{},
	}
}

func (f *fakeEvaluator) FunctionSignature(name string) (*gate.Signature, bool) {
	s, ok := f.sigs[name]
	return s, ok
}

func (f *fakeEvaluator) Invoke(name string, outs, ins []gate.Range, line int) error {
	f.invokes = append(f.invokes, invokeCall{name: name, outs: outs, ins: ins})
	return nil
}

func (f *fakeEvaluator) Assign(typeIdx, out uint64, c *big.Int, line int) error {
	f.assigns[out] = new(big.Int).Set(c)
	f.ranges[out] = true
	return nil
}

func (f *fakeEvaluator) NewRange(typeIdx, first, last uint64, line int) error {
	for w := first; w <= last; w++ {
		f.ranges[w] = true
	}
	return nil
}

func (f *fakeEvaluator) DeleteRange(typeIdx, first, last uint64, line int) error {
	for w := first; w <= last; w++ {
		delete(f.ranges, w)
	}
	return nil
}

// The remaining Evaluator methods are unused by the iteration plugin.
func (f *fakeEvaluator) AddGate(uint64, uint64, uint64, uint64, int) error   { panic("unused") }
func (f *fakeEvaluator) MulGate(uint64, uint64, uint64, uint64, int) error   { panic("unused") }
func (f *fakeEvaluator) AddcGate(uint64, uint64, uint64, *big.Int, int) error { panic("unused") }
func (f *fakeEvaluator) MulcGate(uint64, uint64, uint64, *big.Int, int) error { panic("unused") }
func (f *fakeEvaluator) Copy(uint64, uint64, uint64, int) error              { panic("unused") }
func (f *fakeEvaluator) CopyMulti(uint64, uint64, uint64, []gate.Range, int) error {
	panic("unused")
}
func (f *fakeEvaluator) AssertZero(uint64, uint64, int) error { panic("unused") }
func (f *fakeEvaluator) PublicIn(uint64, uint64, int) error   { panic("unused") }
func (f *fakeEvaluator) PublicInMulti(uint64, uint64, uint64, int) error  { panic("unused") }
func (f *fakeEvaluator) PrivateIn(uint64, uint64, int) error              { panic("unused") }
func (f *fakeEvaluator) PrivateInMulti(uint64, uint64, uint64, int) error { panic("unused") }
func (f *fakeEvaluator) Convert(uint64, uint64, uint64, uint64, uint64, uint64, bool, int) error {
	panic("unused")
}
func (f *fakeEvaluator) FindInputsRef(uint64, uint64, uint64, int) (backend.WiresRef, error) {
	panic("unused")
}
func (f *fakeEvaluator) PluginOutputRef(uint64, uint64, uint64, int) (backend.WiresRef, error) {
	panic("unused")
}
func (f *fakeEvaluator) NumericBackend(uint64, int) (any, error) { panic("unused") }

func (f *fakeEvaluator) TypeSpec(typeIdx uint64, line int) (*types.Spec, error) {
	if f.spec == nil {
		panic("unused")
	}
	return f.spec, nil
}

var _ function.Evaluator = (*fakeEvaluator)(nil)

// map(inc, env=0, iters=3) over a body taking one length-1 input and
// producing one length-1 output, three iterations.
func TestMapInvokesBodyOncePerIteration(t *testing.T) {
	bodySig := &gate.Signature{
		Name:    "inc",
		Outputs: []gate.TypeLen{{Type: 0, Length: 1}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}},
	}
	ev := newFakeEvaluator(bodySig)

	op, err := New().Create("map", &gate.Signature{}, gate.PluginBinding{
		Parameters: []gate.Param{
			{IsNumber: false, Text: "inc"},
			{IsNumber: true, Number: big.NewInt(0)},
			{IsNumber: true, Number: big.NewInt(3)},
		},
	})
	require.NoError(t, err)

	frame := function.Frame{
		Outputs: []function.SlotRef{{Type: 0, First: 100, Last: 102}},
		Inputs:  []function.SlotRef{{Type: 0, First: 200, Last: 202}},
	}
	require.NoError(t, op.Evaluate(ev, frame, &gate.Signature{}, gate.PluginBinding{}))

	require.Len(t, ev.invokes, 3)
	for j, call := range ev.invokes {
		assert.Equal(t, "inc", call.name)
		assert.Equal(t, []gate.Range{{First: 100 + uint64(j), Last: 100 + uint64(j)}}, call.outs)
		assert.Equal(t, []gate.Range{{First: 200 + uint64(j), Last: 200 + uint64(j)}}, call.ins)
	}
}

// Scenario: map_enumerated synthesizes a fresh counter range per iteration
// and deletes it again once the body call returns.
func TestMapEnumeratedSynthesizesAndReclaimsCounter(t *testing.T) {
	bodySig := &gate.Signature{
		Name:    "withidx",
		Outputs: []gate.TypeLen{{Type: 0, Length: 1}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}, {Type: 0, Length: 1}}, // env=0: none; enum; remaining
	}
	ev := newFakeEvaluator(bodySig)
	ev.spec = types.NewField(big.NewInt(97))

	op, err := New().Create("map_enumerated", &gate.Signature{}, gate.PluginBinding{
		Parameters: []gate.Param{
			{IsNumber: false, Text: "withidx"},
			{IsNumber: true, Number: big.NewInt(0)},
			{IsNumber: true, Number: big.NewInt(2)},
		},
	})
	require.NoError(t, err)

	frame := function.Frame{
		Outputs: []function.SlotRef{{Type: 0, First: 10, Last: 11}},
		Inputs:  []function.SlotRef{{Type: 0, First: 20, Last: 21}},
	}
	require.NoError(t, op.Evaluate(ev, frame, &gate.Signature{}, gate.PluginBinding{}))

	require.Len(t, ev.invokes, 2)
	// Each call's enumerator range must have been live during Invoke and
	// freed immediately after, leaving no counter wires live afterward.
	for _, call := range ev.invokes {
		require.Len(t, call.ins, 2)
	}
	assert.Empty(t, ev.ranges)

	// The enumerator is carved from the top of the address space down, never
	// colliding with the caller's own low-numbered wires.
	first := ev.invokes[0].ins[0].First
	assert.Greater(t, first, uint64(1<<32))
}

// The synthesized single-wire counter must be reduced modulo the
// enumerator type's modulus, not assigned the raw loop index: running more
// iterations than the type's modulus would otherwise hand checkConst an
// out-of-range constant.
func TestMapEnumeratedReducesSingleWireCounterModuloType(t *testing.T) {
	bodySig := &gate.Signature{
		Name:    "withidx",
		Outputs: []gate.TypeLen{{Type: 0, Length: 1}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}, {Type: 0, Length: 1}},
	}
	ev := newFakeEvaluator(bodySig)
	ev.spec = types.NewField(big.NewInt(5))

	op, err := New().Create("map_enumerated", &gate.Signature{}, gate.PluginBinding{
		Parameters: []gate.Param{
			{IsNumber: false, Text: "withidx"},
			{IsNumber: true, Number: big.NewInt(0)},
			{IsNumber: true, Number: big.NewInt(8)},
		},
	})
	require.NoError(t, err)

	frame := function.Frame{
		Outputs: []function.SlotRef{{Type: 0, First: 10, Last: 17}},
		Inputs:  []function.SlotRef{{Type: 0, First: 20, Last: 27}},
	}
	require.NoError(t, op.Evaluate(ev, frame, &gate.Signature{}, gate.PluginBinding{}))

	require.Len(t, ev.invokes, 8)
	for j, call := range ev.invokes {
		counter := call.ins[0]
		require.Equal(t, counter.First, counter.Last)
		v, ok := ev.assigns[counter.First]
		require.True(t, ok)
		assert.Equal(t, int64(j%5), v.Int64())
	}
}

func TestMapZeroIterationsRequiresEmptyOutputs(t *testing.T) {
	bodySig := &gate.Signature{
		Name:    "inc",
		Outputs: []gate.TypeLen{{Type: 0, Length: 1}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}},
	}
	ev := newFakeEvaluator(bodySig)

	op, err := New().Create("map", &gate.Signature{}, gate.PluginBinding{
		Parameters: []gate.Param{
			{IsNumber: false, Text: "inc"},
			{IsNumber: true, Number: big.NewInt(0)},
			{IsNumber: true, Number: big.NewInt(0)},
		},
	})
	require.NoError(t, err)

	emptyFrame := function.Frame{
		Outputs: []function.SlotRef{{Type: 0, First: 1, Last: 0}}, // Last < First: empty
		Inputs:  []function.SlotRef{{Type: 0, First: 1, Last: 0}},
	}
	assert.NoError(t, op.Evaluate(ev, emptyFrame, &gate.Signature{}, gate.PluginBinding{}))
	assert.Empty(t, ev.invokes)

	nonEmptyFrame := function.Frame{
		Outputs: []function.SlotRef{{Type: 0, First: 0, Last: 0}},
		Inputs:  []function.SlotRef{{Type: 0, First: 1, Last: 0}},
	}
	assert.Error(t, op.Evaluate(ev, nonEmptyFrame, &gate.Signature{}, gate.PluginBinding{}))
}
