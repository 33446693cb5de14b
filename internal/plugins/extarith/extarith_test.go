package extarith

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

func newRegistry() *plugins.Registry {
	table := types.NewTable()
	table.Declare(types.NewField(big.NewInt(101)))
	return plugins.NewRegistry(table)
}

func asSimple(t *testing.T, op function.Operation) *function.SimpleOperation[big.Int] {
	t.Helper()
	s, ok := op.(*function.SimpleOperation[big.Int])
	require.True(t, ok)
	return s
}

// fakeEvaluator serves NumericBackend for type 0 against a real
// refbackend.FieldBackend, so a comparison or division's range-proof and
// identity assertions land on a backend whose Check() reflects them.
type fakeEvaluator struct {
	nb *refbackend.FieldBackend
}

func newFakeEvaluator(modulus *big.Int) *fakeEvaluator {
	return &fakeEvaluator{nb: refbackend.NewFieldBackend(modulus)}
}

func (f *fakeEvaluator) NumericBackend(typeIdx uint64, line int) (any, error) {
	return f.nb, nil
}

// The remaining Evaluator methods are unused by the extarith plugin.
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

func comparisonSig() *gate.Signature {
	return &gate.Signature{
		Outputs: []gate.TypeLen{{Type: 0, Length: 1}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}, {Type: 0, Length: 1}},
	}
}

func TestLessThan(t *testing.T) {
	sig := comparisonSig()
	op, err := New(newRegistry()).Create("less_than", sig, gate.PluginBinding{})
	require.NoError(t, err)
	simple := asSimple(t, op)

	cases := []struct{ l, r, want int64 }{
		{3, 5, 1},
		{5, 3, 0},
		{5, 5, 0},
	}
	for _, c := range cases {
		ev := newFakeEvaluator(big.NewInt(101))
		outputs := [][]big.Int{{{}}}
		inputs := [][]big.Int{{*big.NewInt(c.l)}, {*big.NewInt(c.r)}}
		require.NoError(t, simple.Eval(ev, outputs, inputs, sig, gate.PluginBinding{}))
		assert.Zero(t, outputs[0][0].Cmp(big.NewInt(c.want)), "less_than(%d,%d)", c.l, c.r)
		assert.True(t, ev.nb.Check())
	}
}

func TestLessThanEqual(t *testing.T) {
	sig := comparisonSig()
	op, err := New(newRegistry()).Create("less_than_equal", sig, gate.PluginBinding{})
	require.NoError(t, err)
	simple := asSimple(t, op)
	ev := newFakeEvaluator(big.NewInt(101))

	outputs := [][]big.Int{{{}}}
	inputs := [][]big.Int{{*big.NewInt(5)}, {*big.NewInt(5)}}
	require.NoError(t, simple.Eval(ev, outputs, inputs, sig, gate.PluginBinding{}))
	assert.Zero(t, outputs[0][0].Cmp(big.NewInt(1)))
	assert.True(t, ev.nb.Check())
}

func TestComparisonRejectsOutOfDomainOperand(t *testing.T) {
	sig := comparisonSig()
	op, err := New(newRegistry()).Create("less_than", sig, gate.PluginBinding{})
	require.NoError(t, err)
	simple := asSimple(t, op)
	ev := newFakeEvaluator(big.NewInt(101))

	outputs := [][]big.Int{{{}}}
	inputs := [][]big.Int{{*big.NewInt(1000)}, {*big.NewInt(1)}}
	assert.Error(t, simple.Eval(ev, outputs, inputs, sig, gate.PluginBinding{}))
}

func TestDivisionTruncatesTowardNegativeInfinity(t *testing.T) {
	sig := &gate.Signature{
		Outputs: []gate.TypeLen{{Type: 0, Length: 1}, {Type: 0, Length: 1}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}, {Type: 0, Length: 1}},
	}
	op, err := New(newRegistry()).Create("division", sig, gate.PluginBinding{})
	require.NoError(t, err)
	simple := asSimple(t, op)
	ev := newFakeEvaluator(big.NewInt(101))

	outputs := [][]big.Int{{{}}, {{}}}
	inputs := [][]big.Int{{*big.NewInt(17)}, {*big.NewInt(5)}}
	require.NoError(t, simple.Eval(ev, outputs, inputs, sig, gate.PluginBinding{}))
	assert.Zero(t, outputs[0][0].Cmp(big.NewInt(3)))
	assert.Zero(t, outputs[1][0].Cmp(big.NewInt(2)))
	assert.True(t, ev.nb.Check())
}

func TestDivisionRejectsDivisionByZero(t *testing.T) {
	sig := &gate.Signature{
		Outputs: []gate.TypeLen{{Type: 0, Length: 1}, {Type: 0, Length: 1}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}, {Type: 0, Length: 1}},
	}
	op, err := New(newRegistry()).Create("division", sig, gate.PluginBinding{})
	require.NoError(t, err)
	simple := asSimple(t, op)
	ev := newFakeEvaluator(big.NewInt(101))

	outputs := [][]big.Int{{{}}, {{}}}
	inputs := [][]big.Int{{*big.NewInt(17)}, {*big.NewInt(0)}}
	assert.Error(t, simple.Eval(ev, outputs, inputs, sig, gate.PluginBinding{}))
}

func TestBitDecomposeRoundTrips(t *testing.T) {
	reg := newRegistry()
	bits := bitWidth(reg.Modulus(0)) // ceil(log2(101)) = 7
	sig := &gate.Signature{
		Outputs: []gate.TypeLen{{Type: 0, Length: uint64(bits)}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}},
	}
	op, err := New(reg).Create("bit_decompose", sig, gate.PluginBinding{})
	require.NoError(t, err)
	simple := asSimple(t, op)
	ev := newFakeEvaluator(big.NewInt(101))

	outputs := [][]big.Int{make([]big.Int, bits)}
	inputs := [][]big.Int{{*big.NewInt(53)}}
	require.NoError(t, simple.Eval(ev, outputs, inputs, sig, gate.PluginBinding{}))

	got := new(big.Int)
	for i := bits - 1; i >= 0; i-- {
		got.Lsh(got, 1)
		got.Add(got, &outputs[0][i])
	}
	assert.Zero(t, got.Cmp(big.NewInt(53)))
	assert.True(t, ev.nb.Check())
}

func TestCreateRejectsWrongBitDecomposeOutputLength(t *testing.T) {
	reg := newRegistry()
	sig := &gate.Signature{
		Outputs: []gate.TypeLen{{Type: 0, Length: 3}},
		Inputs:  []gate.TypeLen{{Type: 0, Length: 1}},
	}
	_, err := New(reg).Create("bit_decompose", sig, gate.PluginBinding{})
	assert.Error(t, err)
}
