// Package interpreter implements spec.md §4.D: the multi-type coordinator
// that dispatches directives by type_idx, routes function calls, and holds
// the function and converter tables. It is also the Handler this module's
// "directive producer" contract (spec.md §6) is written against, and it
// structurally satisfies function.Evaluator so RegularFunction/PluginFunction
// bodies replay through the exact same dispatch path top-level directives do.
package interpreter

import (
	"math/big"

	"zkir/internal/backend"
	"zkir/internal/errors"
	"zkir/internal/function"
	"zkir/internal/gate"
	"zkir/internal/pluginmgr"
	"zkir/internal/types"
)

// ConversionSpec identifies a registered Converter by the fixed shape of its
// two sides, as in spec.md §4.D.
type ConversionSpec struct {
	OutType uint64
	OutLen  uint64
	InType  uint64
	InLen   uint64
}

// recorder accumulates the Gate list for a function currently being built
// between RegularFunction() and EndFunction().
type recorder struct {
	sig   *gate.Signature
	gates []gate.Gate
}

// Interpreter is the top-level coordinator. It owns one Dispatcher per
// declared type (indexed by type_idx), a converter table, a function table,
// and the plugin manager used to create PluginFunction operations.
type Interpreter struct {
	types       []Dispatcher
	converters  map[ConversionSpec]backend.Converter
	functions   map[string]function.Function
	factory     function.Factory
	plugins     *pluginmgr.Manager
	diagnostics []errors.Diagnostic

	recording *recorder
	line      int
	ok        bool
}

// New creates an Interpreter over the given per-type dispatchers, indexed by
// type_idx in declaration order.
func New(dispatchers []Dispatcher, plugins *pluginmgr.Manager) *Interpreter {
	return &Interpreter{
		types:      dispatchers,
		converters: make(map[ConversionSpec]backend.Converter),
		functions:  make(map[string]function.Function),
		factory:    function.GatesFunctionFactory{},
		plugins:    plugins,
		ok:         true,
	}
}

// RegisterConverter installs a Converter for a fixed (out,in) type/length
// pair, used by @convert directives.
func (ip *Interpreter) RegisterConverter(spec ConversionSpec, c backend.Converter) {
	ip.converters[spec] = c
}

// SetLineNum is the Handler side channel used for diagnostics.
func (ip *Interpreter) SetLineNum(n int) { ip.line = n }

// Ok reports the cumulative AND of every directive's success so far.
func (ip *Interpreter) Ok() bool { return ip.ok }

// Diagnostics returns every Diagnostic collected so far, in directive order.
func (ip *Interpreter) Diagnostics() []errors.Diagnostic { return ip.diagnostics }

func (ip *Interpreter) report(err error) error {
	if err == nil {
		return nil
	}
	ip.ok = false
	if d, ok := err.(errors.Diagnostic); ok {
		ip.diagnostics = append(ip.diagnostics, d)
	}
	return err
}

func (ip *Interpreter) dispatcher(typeIdx uint64, line int) (Dispatcher, error) {
	if typeIdx >= uint64(len(ip.types)) || ip.types[typeIdx] == nil {
		return nil, ip.report(errors.UnknownType(typeIdx, line))
	}
	return ip.types[typeIdx], nil
}

// StartFunction begins ingestion of a new function declaration.
func (ip *Interpreter) StartFunction(sig *gate.Signature) error {
	if _, exists := ip.functions[sig.Name]; exists {
		return ip.report(errors.DuplicateFunction(sig.Name, ip.line))
	}
	ip.recording = &recorder{sig: sig}
	return nil
}

// RegularFunction marks the function under construction as a gate-recording
// (as opposed to plugin-bound) function; subsequent gate callbacks append to
// its body until EndFunction.
func (ip *Interpreter) RegularFunction() error { return nil }

// PluginFunction finishes the function under construction as a
// plugin-bound function, asking the PluginsManager to create its Operation.
func (ip *Interpreter) PluginFunction(binding gate.PluginBinding) error {
	sig := ip.recording.sig
	op, err := ip.plugins.Create(sig, binding, ip.line)
	if err != nil {
		ip.recording = nil
		return ip.report(err)
	}
	ip.functions[sig.Name] = function.NewPluginFunction(sig, op, binding)
	ip.recording = nil
	return nil
}

// EndFunction finishes ingestion of a regular function, committing its
// recorded gate list.
func (ip *Interpreter) EndFunction() error {
	r := ip.recording
	ip.recording = nil
	if r == nil {
		return nil
	}
	ip.functions[r.sig.Name] = ip.factory.Build(r.sig, r.gates)
	return nil
}

func (ip *Interpreter) functionNames() []string {
	names := make([]string, 0, len(ip.functions))
	for n := range ip.functions {
		names = append(names, n)
	}
	return names
}

// FunctionSignature implements function.Evaluator.
func (ip *Interpreter) FunctionSignature(name string) (*gate.Signature, bool) {
	fn, ok := ip.functions[name]
	if !ok {
		return nil, false
	}
	return fn.Signature(), true
}

// The methods below implement both the Handler gate-callback contract
// (spec.md §6) for top-level directives and function.Evaluator for replay:
// when a function is being recorded they append a Gate; otherwise they
// dispatch live to the appropriate TypeInterpreter.

func (ip *Interpreter) AddGate(typeIdx, out, l, r uint64, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.Add, Type: typeIdx, Out: gate.Range{First: out, Last: out}, In: gate.Range{First: l, Last: l}, Right: gate.Range{First: r, Last: r}, Line: line})
		return nil
	}
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return err
	}
	return ip.report(d.AddGate(out, l, r, line))
}

func (ip *Interpreter) MulGate(typeIdx, out, l, r uint64, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.Mul, Type: typeIdx, Out: gate.Range{First: out, Last: out}, In: gate.Range{First: l, Last: l}, Right: gate.Range{First: r, Last: r}, Line: line})
		return nil
	}
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return err
	}
	return ip.report(d.MulGate(out, l, r, line))
}

func (ip *Interpreter) AddcGate(typeIdx, out, l uint64, c *big.Int, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.Addc, Type: typeIdx, Out: gate.Range{First: out, Last: out}, In: gate.Range{First: l, Last: l}, Const: c, Line: line})
		return nil
	}
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return err
	}
	return ip.report(d.AddcGate(out, l, c, line))
}

func (ip *Interpreter) MulcGate(typeIdx, out, l uint64, c *big.Int, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.Mulc, Type: typeIdx, Out: gate.Range{First: out, Last: out}, In: gate.Range{First: l, Last: l}, Const: c, Line: line})
		return nil
	}
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return err
	}
	return ip.report(d.MulcGate(out, l, c, line))
}

func (ip *Interpreter) Copy(typeIdx, out, l uint64, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.Copy, Type: typeIdx, Out: gate.Range{First: out, Last: out}, In: gate.Range{First: l, Last: l}, Line: line})
		return nil
	}
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return err
	}
	return ip.report(d.Copy(out, l, line))
}

func (ip *Interpreter) CopyMulti(typeIdx uint64, outFirst, outLast uint64, ins []gate.Range, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.CopyMulti, Type: typeIdx, Out: gate.Range{First: outFirst, Last: outLast}, Ins: ins, Line: line})
		return nil
	}
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return err
	}
	spans := make([]Span, len(ins))
	for i, r := range ins {
		spans[i] = Span{First: r.First, Last: r.Last}
	}
	return ip.report(d.CopyMulti(outFirst, outLast, spans, line))
}

func (ip *Interpreter) Assign(typeIdx, out uint64, c *big.Int, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.Assign, Type: typeIdx, Out: gate.Range{First: out, Last: out}, Const: c, Line: line})
		return nil
	}
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return err
	}
	return ip.report(d.Assign(out, c, line))
}

func (ip *Interpreter) AssertZero(typeIdx, l uint64, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.AssertZero, Type: typeIdx, In: gate.Range{First: l, Last: l}, Line: line})
		return nil
	}
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return err
	}
	return ip.report(d.AssertZero(l, line))
}

func (ip *Interpreter) PublicIn(typeIdx, out uint64, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.PublicIn, Type: typeIdx, Out: gate.Range{First: out, Last: out}, Line: line})
		return nil
	}
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return err
	}
	return ip.report(d.PublicIn(out, line))
}

func (ip *Interpreter) PublicInMulti(typeIdx, first, last uint64, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.PublicInMulti, Type: typeIdx, Out: gate.Range{First: first, Last: last}, Line: line})
		return nil
	}
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return err
	}
	return ip.report(d.PublicInMulti(first, last, line))
}

func (ip *Interpreter) PrivateIn(typeIdx, out uint64, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.PrivateIn, Type: typeIdx, Out: gate.Range{First: out, Last: out}, Line: line})
		return nil
	}
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return err
	}
	return ip.report(d.PrivateIn(out, line))
}

func (ip *Interpreter) PrivateInMulti(typeIdx, first, last uint64, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.PrivateInMulti, Type: typeIdx, Out: gate.Range{First: first, Last: last}, Line: line})
		return nil
	}
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return err
	}
	return ip.report(d.PrivateInMulti(first, last, line))
}

func (ip *Interpreter) NewRange(typeIdx, first, last uint64, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.NewRange, Type: typeIdx, Out: gate.Range{First: first, Last: last}, Line: line})
		return nil
	}
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return err
	}
	return ip.report(d.NewRangeDirective(first, last, line))
}

func (ip *Interpreter) DeleteRange(typeIdx, first, last uint64, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.DeleteRange, Type: typeIdx, Out: gate.Range{First: first, Last: last}, Line: line})
		return nil
	}
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return err
	}
	return ip.report(d.DeleteRangeDirective(first, last, line))
}

// Convert implements spec.md §4.D's @convert dispatch: resolve the
// ConversionSpec, fail if no Converter is registered, otherwise delegate
// wire lookup to the two type dispatchers and invoke the Converter.
func (ip *Interpreter) Convert(outType, outFirst, outLast, inType, inFirst, inLast uint64, modulus bool, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{
			Kind: gate.Convert, Type: outType,
			Out: gate.Range{First: outFirst, Last: outLast},
			In:  gate.Range{First: inFirst, Last: inLast},
			ConvOutType: outType, ConvInType: inType, ConvModulus: modulus, Line: line,
		})
		return nil
	}

	outLen := outLast - outFirst + 1
	inLen := inLast - inFirst + 1
	spec := ConversionSpec{OutType: outType, OutLen: outLen, InType: inType, InLen: inLen}
	conv, ok := ip.converters[spec]
	if !ok {
		return ip.report(errors.UnknownConverter(outType, inType, line))
	}

	outD, err := ip.dispatcher(outType, line)
	if err != nil {
		return err
	}
	inD, err := ip.dispatcher(inType, line)
	if err != nil {
		return err
	}

	inRef, err := inD.FindInputsRef(inFirst, inLast, line)
	if err != nil {
		return ip.report(err)
	}
	outRef, err := outD.PluginOutputRef(outFirst, outLast, line)
	if err != nil {
		return ip.report(err)
	}
	return ip.report(conv.Convert(outRef, inRef, modulus))
}

func (ip *Interpreter) appendGate(g gate.Gate) {
	ip.recording.gates = append(ip.recording.gates, g)
}

func (ip *Interpreter) FindInputsRef(typeIdx, first, last uint64, line int) (backend.WiresRef, error) {
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return nil, err
	}
	ref, err := d.FindInputsRef(first, last, line)
	return ref, ip.report(err)
}

func (ip *Interpreter) PluginOutputRef(typeIdx, first, last uint64, line int) (backend.WiresRef, error) {
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return nil, err
	}
	ref, err := d.PluginOutputRef(first, last, line)
	return ref, ip.report(err)
}

// NumericBackend implements function.Evaluator: it hands a fallback plugin
// Operation the raw backend.Numeric[V] for typeIdx, type-erased, so the
// plugin can drive its own scratch arithmetic through AddGate/MulGate/
// AssertZero rather than computing results outside the backend.
func (ip *Interpreter) NumericBackend(typeIdx uint64, line int) (any, error) {
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return nil, err
	}
	return d.Numeric(), nil
}

// TypeSpec implements function.Evaluator.
func (ip *Interpreter) TypeSpec(typeIdx uint64, line int) (*types.Spec, error) {
	d, err := ip.dispatcher(typeIdx, line)
	if err != nil {
		return nil, err
	}
	return d.Spec(), nil
}

// Invoke implements spec.md §4.D's invoke(call) algorithm.
func (ip *Interpreter) Invoke(name string, outs, ins []gate.Range, line int) error {
	if ip.recording != nil {
		ip.appendGate(gate.Gate{Kind: gate.Call, CallTarget: name, Outs: outs, Ins: ins, Line: line})
		return nil
	}

	fn, ok := ip.functions[name]
	if !ok {
		return ip.report(errors.UnknownFunction(name, ip.functionNames(), line))
	}
	sig := fn.Signature()

	if len(outs) != len(sig.Outputs) || len(ins) != len(sig.Inputs) {
		return ip.report(errors.ArityMismatch(name, len(sig.Outputs)+len(sig.Inputs), len(outs)+len(ins), line))
	}
	for i, r := range outs {
		if r.Len() != sig.Outputs[i].Length {
			return ip.report(errors.LengthMismatch(name, i, int(sig.Outputs[i].Length), int(r.Len()), line))
		}
	}
	for i, r := range ins {
		if r.Len() != sig.Inputs[i].Length {
			return ip.report(errors.LengthMismatch(name, i, int(sig.Inputs[i].Length), int(r.Len()), line))
		}
	}

	// spec.md §4.D step 3: every type interpreter gets a fresh scope, not
	// just the ones this signature mentions, so a function body may use
	// scratch wires of a type it neither takes as input nor returns.
	for _, d := range ip.types {
		if d != nil {
			d.Push()
		}
	}
	defer func() {
		for _, d := range ip.types {
			if d != nil {
				d.Pop()
			}
		}
	}()

	frame := function.Frame{
		Outputs: make([]function.SlotRef, len(sig.Outputs)),
		Inputs:  make([]function.SlotRef, len(sig.Inputs)),
	}

	for i, slot := range sig.Outputs {
		d, err := ip.dispatcher(slot.Type, line)
		if err != nil {
			return err
		}
		calleeFirst, err := d.MapOutput(outs[i].First, outs[i].Last, line)
		if err != nil {
			return ip.report(err)
		}
		frame.Outputs[i] = function.SlotRef{Type: slot.Type, First: calleeFirst, Last: calleeFirst + slot.Length - 1}
	}
	for i, slot := range sig.Inputs {
		d, err := ip.dispatcher(slot.Type, line)
		if err != nil {
			return err
		}
		calleeFirst, err := d.MapInput(ins[i].First, ins[i].Last, line)
		if err != nil {
			return ip.report(err)
		}
		frame.Inputs[i] = function.SlotRef{Type: slot.Type, First: calleeFirst, Last: calleeFirst + slot.Length - 1}
	}

	if err := fn.Evaluate(ip, frame); err != nil {
		ip.report(err)
	}

	for i, slot := range sig.Outputs {
		d, err := ip.dispatcher(slot.Type, line)
		if err != nil {
			return err
		}
		if err := d.CheckOutput(frame.Outputs[i].First, frame.Outputs[i].Last, outs[i].First, outs[i].Last, line); err != nil {
			ip.report(err)
		}
	}
	return nil
}

// Finish runs Check/Finish on every type's backend and ANDs their results
// into the overall verdict, as spec.md §7 describes for the exit status.
func (ip *Interpreter) Finish() bool {
	ok := ip.ok
	for _, d := range ip.types {
		if d == nil {
			continue
		}
		ok = d.Check() && ok
		d.Finish()
	}
	return ok
}
