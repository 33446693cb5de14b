// Package gate defines the tagged-union directive record recorded by a
// RegularFunction and replayed on invoke (spec.md §4.E), plus the function
// signature and plugin-binding shapes shared by the interpreter, the
// function table, and the plugin framework.
package gate

import "math/big"

// Kind discriminates the directive variants a Gate may hold.
type Kind int

const (
	Add Kind = iota
	Mul
	Addc
	Mulc
	Copy
	CopyMulti
	Assign
	AssertZero
	PublicIn
	PublicInMulti
	PrivateIn
	PrivateInMulti
	Convert
	NewRange
	DeleteRange
	Call
)

// Range is an inclusive wire reference [First, Last] within one
// declared type's current scope.
type Range struct {
	First uint64
	Last  uint64
}

// Len reports the number of wires a Range covers.
func (r Range) Len() uint64 { return r.Last - r.First + 1 }

// Gate is a single recorded directive. Only the fields relevant to Kind are
// populated; this mirrors the discriminated union spec.md §9 calls out as
// implementation-defined representation.
type Gate struct {
	Kind Kind
	Line int

	Type   uint64 // type_idx this directive operates on
	Out    Range
	In     Range // single binary/unary operand, or copy_multi's flattened concatenation source is in Ins
	Right  Range // second binary operand (add/mul)
	Const  *big.Int
	Ins    []Range // copy_multi / call input ranges, in order
	Outs   []Range // call output ranges, in order

	// Convert-only fields.
	ConvOutType uint64
	ConvInType  uint64
	ConvModulus bool

	// Call-only field.
	CallTarget string
}

// Signature is the immutable (outputs, inputs) shape of a declared function,
// each entry naming a declared type_idx and a fixed range length.
type Signature struct {
	Name    string
	Outputs []TypeLen
	Inputs  []TypeLen
}

// TypeLen names one output or input slot's declared type and wire count.
type TypeLen struct {
	Type   uint64
	Length uint64
}

// Param is one plugin-binding parameter: either a numeric literal or a bare
// identifier/text token, per spec.md §4.F's {Number|text} union.
type Param struct {
	IsNumber bool
	Number   *big.Int
	Text     string
}

// PluginBinding ties a function (or a plugin-defined type) to a named
// plugin operation, as in spec.md §4.F.
type PluginBinding struct {
	PluginName      string
	OperationName   string
	Parameters      []Param
	PublicInCounts  []uint64
	PrivateInCounts []uint64
}
