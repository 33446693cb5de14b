// Package types describes the declared wire types of a ZK-IR program: prime
// fields, fixed-width rings, and plugin-defined value types (RAM buffers,
// vector views). It plays the role the teacher's internal/types package
// plays for source-language types, but the type universe here is small and
// fixed per spec.md §3 rather than open-ended.
package types

import "math/big"

// Kind discriminates the three ways a type may be declared.
type Kind int

const (
	// KindField names a prime field Z/pZ.
	KindField Kind = iota
	// KindRing names a fixed-width ring Z/2^bZ.
	KindRing
	// KindPlugin names a value type introduced by a plugin (e.g. a RAM
	// buffer or a vector view) rather than by arithmetic.
	KindPlugin
)

func (k Kind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindRing:
		return "ring"
	case KindPlugin:
		return "plugin"
	default:
		return "unknown"
	}
}

// PluginBinding names the plugin-defined operation backing a KindPlugin type.
type PluginBinding struct {
	PluginName    string
	OperationName string
	Parameters    []string
}

// Spec is a discriminated description of one declared type, as in
// spec.md §3: {field: prime}, {ring: bit_width}, or
// {plugin_binding: name, operation, parameters}.
type Spec struct {
	Kind Kind

	// Valid when Kind == KindField.
	Prime *big.Int

	// Valid when Kind == KindRing.
	BitWidth uint

	// Valid when Kind == KindPlugin.
	Plugin PluginBinding

	maxValue *big.Int // memoized
}

// NewField declares a prime field type.
func NewField(prime *big.Int) *Spec {
	return &Spec{Kind: KindField, Prime: new(big.Int).Set(prime)}
}

// NewRing declares a fixed-width ring type.
func NewRing(bitWidth uint) *Spec {
	return &Spec{Kind: KindRing, BitWidth: bitWidth}
}

// NewPlugin declares a plugin-defined value type.
func NewPlugin(binding PluginBinding) *Spec {
	return &Spec{Kind: KindPlugin, Plugin: binding}
}

// MaxValue returns the prime (for a field) or 2^bit_width (for a ring), used
// to validate constants. Plugin types have no numeric domain and MaxValue
// returns nil.
func (s *Spec) MaxValue() *big.Int {
	if s.maxValue != nil {
		return s.maxValue
	}
	switch s.Kind {
	case KindField:
		s.maxValue = new(big.Int).Set(s.Prime)
	case KindRing:
		s.maxValue = new(big.Int).Lsh(big.NewInt(1), s.BitWidth)
	default:
		return nil
	}
	return s.maxValue
}

// IsBooleanField reports whether this type is the 2-element field, the
// domain the Boolean fallback plugins (mux, RAM) are written against.
func (s *Spec) IsBooleanField() bool {
	return s.Kind == KindField && s.Prime != nil && s.Prime.Cmp(big.NewInt(2)) == 0
}

// FitsValue reports whether value is a legal constant for this type, i.e.
// 0 <= value < max_value.
func (s *Spec) FitsValue(value *big.Int) bool {
	if value.Sign() < 0 {
		return false
	}
	max := s.MaxValue()
	if max == nil {
		return false
	}
	return value.Cmp(max) < 0
}

// Table is the interpreter's name-free list of declared types, indexed by
// type_idx.
type Table struct {
	specs []*Spec
}

// NewTable creates an empty type table.
func NewTable() *Table { return &Table{} }

// Declare appends a new type and returns its type_idx.
func (t *Table) Declare(spec *Spec) uint64 {
	t.specs = append(t.specs, spec)
	return uint64(len(t.specs) - 1)
}

// Get returns the Spec for typeIdx, or nil if typeIdx is out of range.
func (t *Table) Get(typeIdx uint64) *Spec {
	if typeIdx >= uint64(len(t.specs)) {
		return nil
	}
	return t.specs[typeIdx]
}

// Len returns the number of declared types.
func (t *Table) Len() int { return len(t.specs) }
