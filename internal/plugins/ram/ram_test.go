package ram

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkir/internal/backend"
	"zkir/internal/function"
	"zkir/internal/gate"
	"zkir/internal/plugins"
	"zkir/internal/refbackend"
	"zkir/internal/types"
)

func newRegistry(specs ...*types.Spec) *plugins.Registry {
	table := types.NewTable()
	for _, s := range specs {
		table.Declare(s)
	}
	return plugins.NewRegistry(table)
}

func asSimple(t *testing.T, op function.Operation) *function.SimpleOperation[big.Int] {
	t.Helper()
	s, ok := op.(*function.SimpleOperation[big.Int])
	require.True(t, ok)
	return s
}

// fakeEvaluator serves NumericBackend for the index type against a real
// refbackend.FieldBackend, so a multi-slot read/write's indicator and
// eq-sum assertion land on a backend whose Check() reflects them.
type fakeEvaluator struct {
	typeIdx uint64
	nb      *refbackend.FieldBackend
}

func newFakeEvaluator(typeIdx uint64, modulus *big.Int) *fakeEvaluator {
	return &fakeEvaluator{typeIdx: typeIdx, nb: refbackend.NewFieldBackend(modulus)}
}

func (f *fakeEvaluator) NumericBackend(typeIdx uint64, line int) (any, error) {
	if typeIdx != f.typeIdx {
		panic("unexpected type")
	}
	return f.nb, nil
}

// The remaining Evaluator methods are unused by the ram plugin.
func (f *fakeEvaluator) AddGate(uint64, uint64, uint64, uint64, int) error    { panic("unused") }
func (f *fakeEvaluator) MulGate(uint64, uint64, uint64, uint64, int) error    { panic("unused") }
func (f *fakeEvaluator) AddcGate(uint64, uint64, uint64, *big.Int, int) error { panic("unused") }
func (f *fakeEvaluator) MulcGate(uint64, uint64, uint64, *big.Int, int) error { panic("unused") }
func (f *fakeEvaluator) Copy(uint64, uint64, uint64, int) error               { panic("unused") }
func (f *fakeEvaluator) CopyMulti(uint64, uint64, uint64, []gate.Range, int) error {
	panic("unused")
}
func (f *fakeEvaluator) Assign(uint64, uint64, *big.Int, int) error      { panic("unused") }
func (f *fakeEvaluator) AssertZero(uint64, uint64, int) error           { panic("unused") }
func (f *fakeEvaluator) PublicIn(uint64, uint64, int) error             { panic("unused") }
func (f *fakeEvaluator) PublicInMulti(uint64, uint64, uint64, int) error { panic("unused") }
func (f *fakeEvaluator) PrivateIn(uint64, uint64, int) error             { panic("unused") }
func (f *fakeEvaluator) PrivateInMulti(uint64, uint64, uint64, int) error { panic("unused") }
func (f *fakeEvaluator) Convert(uint64, uint64, uint64, uint64, uint64, uint64, bool, int) error {
	panic("unused")
}
func (f *fakeEvaluator) NewRange(uint64, uint64, uint64, int) error    { panic("unused") }
func (f *fakeEvaluator) DeleteRange(uint64, uint64, uint64, int) error { panic("unused") }
func (f *fakeEvaluator) Invoke(string, []gate.Range, []gate.Range, int) error {
	panic("unused")
}
func (f *fakeEvaluator) FindInputsRef(uint64, uint64, uint64, int) (backend.WiresRef, error) {
	panic("unused")
}
func (f *fakeEvaluator) PluginOutputRef(uint64, uint64, uint64, int) (backend.WiresRef, error) {
	panic("unused")
}
func (f *fakeEvaluator) TypeSpec(uint64, int) (*types.Spec, error) { panic("unused") }
func (f *fakeEvaluator) FunctionSignature(string) (*gate.Signature, bool) {
	panic("unused")
}

var _ function.Evaluator = (*fakeEvaluator)(nil)

// init(size=4, fill=0); write(buf, idx=2, in=9);
// read(out, buf, idx=2) — out must equal 9.
func TestInitWriteReadRoundTrip(t *testing.T) {
	reg := newRegistry(types.NewField(big.NewInt(101)))
	plugin := New(reg)
	ev := newFakeEvaluator(0, big.NewInt(101))

	initSig := &gate.Signature{
		Outputs: []gate.TypeLen{{Type: 0, Length: 1}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}},
	}
	initOp, err := plugin.Create("init", initSig, gate.PluginBinding{
		Parameters: []gate.Param{{IsNumber: true, Number: big.NewInt(4)}},
	})
	require.NoError(t, err)
	initOuts := [][]big.Int{{{}}}
	initIns := [][]big.Int{{*big.NewInt(0)}}
	require.NoError(t, asSimple(t, initOp).Eval(ev, initOuts, initIns, initSig, gate.PluginBinding{}))
	handle := initOuts[0][0]

	writeSig := &gate.Signature{
		Inputs: []gate.TypeLen{{Type: 0, Length: 1}, {Type: 0, Length: 1}, {Type: 0, Length: 1}},
	}
	writeOp, err := plugin.Create("write", writeSig, gate.PluginBinding{})
	require.NoError(t, err)
	writeIns := [][]big.Int{{handle}, {*big.NewInt(2)}, {*big.NewInt(9)}}
	require.NoError(t, asSimple(t, writeOp).Eval(ev, nil, writeIns, writeSig, gate.PluginBinding{}))

	readSig := &gate.Signature{
		Outputs: []gate.TypeLen{{Type: 0, Length: 1}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}, {Type: 0, Length: 1}},
	}
	readOp, err := plugin.Create("read", readSig, gate.PluginBinding{})
	require.NoError(t, err)
	readOuts := [][]big.Int{{{}}}
	readIns := [][]big.Int{{handle}, {*big.NewInt(2)}}
	require.NoError(t, asSimple(t, readOp).Eval(ev, readOuts, readIns, readSig, gate.PluginBinding{}))

	assert.Zero(t, readOuts[0][0].Cmp(big.NewInt(9)))
	assert.True(t, ev.nb.Check())
}

func TestReadRejectsUnknownHandle(t *testing.T) {
	reg := newRegistry(types.NewField(big.NewInt(101)))
	plugin := New(reg)
	ev := newFakeEvaluator(0, big.NewInt(101))

	readSig := &gate.Signature{
		Outputs: []gate.TypeLen{{Type: 0, Length: 1}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}, {Type: 0, Length: 1}},
	}
	readOp, err := plugin.Create("read", readSig, gate.PluginBinding{})
	require.NoError(t, err)
	readOuts := [][]big.Int{{{}}}
	readIns := [][]big.Int{{*big.NewInt(42)}, {*big.NewInt(0)}}
	assert.Error(t, asSimple(t, readOp).Eval(ev, readOuts, readIns, readSig, gate.PluginBinding{}))
}

func TestSingleSlotBufferSkipsIndicatorScan(t *testing.T) {
	reg := newRegistry(types.NewField(big.NewInt(101)))
	plugin := New(reg)
	ev := newFakeEvaluator(0, big.NewInt(101))

	initSig := &gate.Signature{
		Outputs: []gate.TypeLen{{Type: 0, Length: 1}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}},
	}
	initOp, err := plugin.Create("init", initSig, gate.PluginBinding{
		Parameters: []gate.Param{{IsNumber: true, Number: big.NewInt(1)}},
	})
	require.NoError(t, err)
	initOuts := [][]big.Int{{{}}}
	require.NoError(t, asSimple(t, initOp).Eval(ev, initOuts, [][]big.Int{{*big.NewInt(7)}}, initSig, gate.PluginBinding{}))
	handle := initOuts[0][0]

	readSig := &gate.Signature{
		Outputs: []gate.TypeLen{{Type: 0, Length: 1}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}, {Type: 0, Length: 1}},
	}
	readOp, err := plugin.Create("read", readSig, gate.PluginBinding{})
	require.NoError(t, err)
	readOuts := [][]big.Int{{{}}}
	require.NoError(t, asSimple(t, readOp).Eval(ev, readOuts, [][]big.Int{{handle}, {*big.NewInt(0)}}, readSig, gate.PluginBinding{}))
	assert.Zero(t, readOuts[0][0].Cmp(big.NewInt(7)))
}

func TestReadRejectsIndexSelectingNoCell(t *testing.T) {
	reg := newRegistry(types.NewField(big.NewInt(101)))
	plugin := New(reg)
	ev := newFakeEvaluator(0, big.NewInt(101))

	initSig := &gate.Signature{
		Outputs: []gate.TypeLen{{Type: 0, Length: 1}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}},
	}
	initOp, err := plugin.Create("init", initSig, gate.PluginBinding{
		Parameters: []gate.Param{{IsNumber: true, Number: big.NewInt(4)}},
	})
	require.NoError(t, err)
	initOuts := [][]big.Int{{{}}}
	require.NoError(t, asSimple(t, initOp).Eval(ev, initOuts, [][]big.Int{{*big.NewInt(0)}}, initSig, gate.PluginBinding{}))
	handle := initOuts[0][0]

	readSig := &gate.Signature{
		Outputs: []gate.TypeLen{{Type: 0, Length: 1}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}, {Type: 0, Length: 1}},
	}
	readOp, err := plugin.Create("read", readSig, gate.PluginBinding{})
	require.NoError(t, err)
	readOuts := [][]big.Int{{{}}}
	// index 9 is out of bounds for a size-4 buffer: no cell's indicator fires.
	readIns := [][]big.Int{{handle}, {*big.NewInt(9)}}
	require.NoError(t, asSimple(t, readOp).Eval(ev, readOuts, readIns, readSig, gate.PluginBinding{}))
	assert.False(t, ev.nb.Check(), "an index selecting no cell must fail the backend's assertion, not return a Go error")
}
