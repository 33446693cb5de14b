// Package program wires together one complete interpreter instance: a
// TypeInterpreter (backed by refbackend) per declared field/ring type and a
// pluginmgr.Manager carrying every fallback and iteration plugin this module
// implements. It registers no converters. It is the concrete analogue of
// the teacher's cmd-level wiring, generalized from "one source-language
// compilation pipeline" to "one configured ZK-IR evaluation session" per
// spec.md §4.D's component table.
package program

import (
	"math/big"

	"zkir/internal/backend"
	"zkir/internal/errors"
	"zkir/internal/interpreter"
	"zkir/internal/plugins"
	"zkir/internal/plugins/extarith"
	"zkir/internal/plugins/iterate"
	"zkir/internal/plugins/mux"
	"zkir/internal/plugins/ram"
	"zkir/internal/plugins/vectors"
	"zkir/internal/pluginmgr"
	"zkir/internal/refbackend"
	"zkir/internal/types"
)

// Streams supplies the @public/@private input sources for one type_idx.
type Streams struct {
	Public  backend.Stream
	Private backend.Stream
}

// Build constructs a ready-to-drive Interpreter over table, wiring a
// refbackend.FieldBackend or RingBackend (wrapped in CaptureBackend when
// capture is true, for test assertions against spec.md §8's callback-trace
// properties) for each declared field/ring type, and registering every
// fallback plugin (mux, ram, vectors, extarith) plus the iteration plugin
// under their conventional plugin_name. KindPlugin type declarations get no
// dispatcher of their own: every fallback plugin in this module represents
// its values (RAM buffer handles included) as ordinary field elements of an
// already-declared field type, so no gate dispatch ever targets a
// KindPlugin type_idx directly.
func Build(table *types.Table, streams map[uint64]Streams, capture bool) (*interpreter.Interpreter, error) {
	dispatchers := make([]interpreter.Dispatcher, table.Len())
	for idx := 0; idx < table.Len(); idx++ {
		spec := table.Get(uint64(idx))
		switch spec.Kind {
		case types.KindField, types.KindRing:
			d, err := buildFieldDispatcher(uint64(idx), spec, streams[uint64(idx)], capture)
			if err != nil {
				return nil, err
			}
			dispatchers[idx] = d
		case types.KindPlugin:
			dispatchers[idx] = nil
		}
	}

	reg := plugins.NewRegistry(table)
	mgr := pluginmgr.NewManager()
	mgr.Register("mux", mux.New(reg))
	mgr.Register("ram", ram.New(reg))
	mgr.Register("vectors", vectors.New(reg))
	mgr.Register("extarith", extarith.New(reg))
	mgr.Register("iterate", iterate.New())

	return interpreter.New(dispatchers, mgr), nil
}

func buildFieldDispatcher(idx uint64, spec *types.Spec, s Streams, capture bool) (interpreter.Dispatcher, error) {
	var fb *refbackend.FieldBackend
	switch spec.Kind {
	case types.KindField:
		fb = refbackend.NewFieldBackend(spec.Prime)
	case types.KindRing:
		fb = refbackend.NewRingBackend(spec.BitWidth).FieldBackend
	default:
		return nil, errors.UnknownType(idx, 0)
	}

	var be backend.Numeric[big.Int] = fb
	if capture {
		be = refbackend.NewCaptureBackend(fb)
	}

	public, private := s.Public, s.Private
	if public == nil {
		public = refbackend.NewSliceStream()
	}
	if private == nil {
		private = refbackend.NewSliceStream()
	}

	return interpreter.NewTypeInterpreter(idx, spec, be, public, private), nil
}
