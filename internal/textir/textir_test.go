package textir_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkir/internal/backend"
	"zkir/internal/program"
	"zkir/internal/refbackend"
	"zkir/internal/textir"
	"zkir/internal/types"
)

const source = `
type t0 = field 7;

function f(out: t0:1, t0:1; in: t0:1) {
    t0.$0 <- @add(t0.$2, t0.$2);
    t0.$1 <- @mulc(t0.$2, <3>);
}

t0.$0 <- @public();
t0.$1 <- @public();
t0.$2 <- @add(t0.$0, t0.$1);
@assert_zero(t0.$2);
t0.$3 <- <2>;
t0.$4..$5 <- @invoke(f, t0.$3);
`

// Parsing the spec.md §8-shaped source, declaring its type into a table,
// and running it through program.Build drives a full textir -> interpreter
// pipeline the way a CLI entry point would.
func TestRunDrivesAnInterpreterEndToEnd(t *testing.T) {
	prog, err := textir.Parse("test.zkir", source)
	require.NoError(t, err)

	specs, names, err := textir.CollectTypes(prog)
	require.NoError(t, err)
	require.Equal(t, uint64(0), names["t0"])

	table := types.NewTable()
	for _, s := range specs {
		table.Declare(s)
	}
	streams := map[uint64]program.Streams{
		0: {Public: refbackend.NewSliceStream(big.NewInt(3), big.NewInt(4))},
	}
	ip, err := program.Build(table, streams, false)
	require.NoError(t, err)

	require.NoError(t, textir.Run(prog, names, ip))
	assert.True(t, ip.Finish())

	ref, err := ip.FindInputsRef(0, 4, 4, 0)
	require.NoError(t, err)
	_, s, ok := backend.AsSlots[big.Int](ref)
	require.True(t, ok)
	assert.Equal(t, "4", s[0].String())

	ref, err = ip.FindInputsRef(0, 5, 5, 0)
	require.NoError(t, err)
	_, s, ok = backend.AsSlots[big.Int](ref)
	require.True(t, ok)
	assert.Equal(t, "6", s[0].String())
}

func TestParseRejectsMalformedSource(t *testing.T) {
	_, err := textir.Parse("bad.zkir", "type t0 = field;")
	assert.Error(t, err)
}

func TestPrinterRoundTripsParsedStructure(t *testing.T) {
	prog, err := textir.Parse("test.zkir", source)
	require.NoError(t, err)

	reparsed, err := textir.Parse("test.zkir", prog.String())
	require.NoError(t, err)

	specs, names, err := textir.CollectTypes(reparsed)
	require.NoError(t, err)
	assert.Len(t, specs, 1)
	assert.Equal(t, uint64(0), names["t0"])
}
