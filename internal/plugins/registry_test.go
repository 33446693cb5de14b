package plugins

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkir/internal/refbackend"
)

func assertBigEqual(t *testing.T, want int64, got *big.Int) {
	t.Helper()
	assert.Zero(t, got.Cmp(big.NewInt(want)), "want %d, got %s", want, got.String())
}

func TestFLTIndicator(t *testing.T) {
	p7 := big.NewInt(7)
	nb := refbackend.NewFieldBackend(p7)

	eq, ne := FLTIndicator(nb, big.NewInt(3), big.NewInt(3), p7)
	assertBigEqual(t, 1, eq)
	assertBigEqual(t, 0, ne)

	eq, ne = FLTIndicator(nb, big.NewInt(3), big.NewInt(10), p7) // 10 mod 7 == 3
	assertBigEqual(t, 1, eq)
	assertBigEqual(t, 0, ne)

	eq, ne = FLTIndicator(nb, big.NewInt(3), big.NewInt(4), p7)
	assertBigEqual(t, 0, eq)
	assertBigEqual(t, 1, ne)
	require.True(t, nb.Check())
}

func TestFLTIndicatorEqPlusNeIsOne(t *testing.T) {
	p7 := big.NewInt(7)
	nb := refbackend.NewFieldBackend(p7)
	for a := int64(0); a < 7; a++ {
		for b := int64(0); b < 7; b++ {
			eq, ne := FLTIndicator(nb, big.NewInt(a), big.NewInt(b), p7)
			assertBigEqual(t, 1, new(big.Int).Add(eq, ne))
		}
	}
	require.True(t, nb.Check())
}

func TestAssertBitDecomposeAcceptsCorrectBits(t *testing.T) {
	nb := refbackend.NewFieldBackend(big.NewInt(97))
	bits := BitDecompose(big.NewInt(0b10110), 8)
	AssertBitDecompose(nb, big.NewInt(0b10110), bits)
	assert.True(t, nb.Check())
}

func TestAssertBitDecomposeRejectsMismatchedValue(t *testing.T) {
	nb := refbackend.NewFieldBackend(big.NewInt(97))
	bits := BitDecompose(big.NewInt(0b10110), 8)
	AssertBitDecompose(nb, big.NewInt(0b10111), bits)
	assert.False(t, nb.Check())
}

func TestAssertBitDecomposeRejectsNonBooleanBit(t *testing.T) {
	nb := refbackend.NewFieldBackend(big.NewInt(97))
	bits := []*big.Int{big.NewInt(2), big.NewInt(0), big.NewInt(0)}
	AssertBitDecompose(nb, big.NewInt(2), bits)
	assert.False(t, nb.Check())
}

func TestBitDecomposeRecomposeRoundTrip(t *testing.T) {
	v := big.NewInt(0b10110)
	bits := BitDecompose(v, 8)
	assertBigEqual(t, 0b10110, Recompose(bits))

	assertBigEqual(t, 0, bits[0])
	assertBigEqual(t, 1, bits[1])
	assertBigEqual(t, 1, bits[2])
	assertBigEqual(t, 0, bits[3])
	assertBigEqual(t, 1, bits[4])
}

func TestBitDecomposeZero(t *testing.T) {
	bits := BitDecompose(big.NewInt(0), 4)
	for _, b := range bits {
		assertBigEqual(t, 0, b)
	}
	assertBigEqual(t, 0, Recompose(bits))
}

// commitBitsLE commits v's little-endian decomposition (BitDecompose's own
// order, index 0 = LSB) to nb, the representation AssertBitDecompose and
// AssertNoOverflow expect.
func commitBitsLE(nb *refbackend.FieldBackend, v *big.Int, bits int) []*big.Int {
	decomp := BitDecompose(v, bits)
	out := make([]*big.Int, bits)
	for i, b := range decomp {
		out[i] = new(big.Int)
		nb.Assign(out[i], b)
	}
	return out
}

func TestBitsCompareStrictLessThan(t *testing.T) {
	nb := refbackend.NewFieldBackend(big.NewInt(101))
	l := reverseBits(commitBitsLE(nb, big.NewInt(3), 7))
	r := reverseBits(commitBitsLE(nb, big.NewInt(5), 7))
	out := BitsCompare(nb, l, r, false)
	assertBigEqual(t, 1, out)

	l = reverseBits(commitBitsLE(nb, big.NewInt(5), 7))
	r = reverseBits(commitBitsLE(nb, big.NewInt(5), 7))
	out = BitsCompare(nb, l, r, false)
	assertBigEqual(t, 0, out)
	require.True(t, nb.Check())
}

func TestBitsCompareOrEqual(t *testing.T) {
	nb := refbackend.NewFieldBackend(big.NewInt(101))
	l := reverseBits(commitBitsLE(nb, big.NewInt(5), 7))
	r := reverseBits(commitBitsLE(nb, big.NewInt(5), 7))
	out := BitsCompare(nb, l, r, true)
	assertBigEqual(t, 1, out)

	l = reverseBits(commitBitsLE(nb, big.NewInt(6), 7))
	r = reverseBits(commitBitsLE(nb, big.NewInt(5), 7))
	out = BitsCompare(nb, l, r, true)
	assertBigEqual(t, 0, out)
	require.True(t, nb.Check())
}

func TestAssertNoOverflowAcceptsInRangeValue(t *testing.T) {
	modulus := big.NewInt(101)
	nb := refbackend.NewFieldBackend(modulus)
	bits := commitBitsLE(nb, big.NewInt(53), 7)
	AssertNoOverflow(nb, modulus, bits)
	assert.True(t, nb.Check())
}
