package refbackend

import (
	"math/big"

	"zkir/internal/backend"
	"zkir/internal/errors"
)

// IdentityConverter implements backend.Converter for two *big.Int-backed
// types of equal length: it copies values across element-wise, reducing
// against the output type's modulus when modulus is true. With
// out_length = in_length = 1 over identical types this degenerates exactly
// to copy, satisfying spec.md §8 property 7.
type IdentityConverter struct {
	OutModulus *big.Int
	ok         bool
}

// NewIdentityConverter builds a converter that reduces outputs mod
// outModulus when the caller asks for modular reduction.
func NewIdentityConverter(outModulus *big.Int) *IdentityConverter {
	return &IdentityConverter{OutModulus: outModulus, ok: true}
}

func (c *IdentityConverter) Convert(out, in backend.Slots, modulus bool) error {
	_, outSlots, ok := backend.AsSlots[big.Int](out)
	if !ok {
		return errors.PluginBindingMalformed("identity", "convert", "output wires are not big.Int-backed", 0)
	}
	_, inSlots, ok := backend.AsSlots[big.Int](in)
	if !ok {
		return errors.PluginBindingMalformed("identity", "convert", "input wires are not big.Int-backed", 0)
	}
	if len(outSlots) != len(inSlots) {
		c.ok = false
		return errors.PluginBindingMalformed("identity", "convert", "mismatched lengths", 0)
	}
	for i := range outSlots {
		v := new(big.Int).Set(&inSlots[i])
		if modulus && c.OutModulus != nil {
			v.Mod(v, c.OutModulus)
		}
		outSlots[i] = *v
	}
	return nil
}

func (c *IdentityConverter) Check() bool { return c.ok }
