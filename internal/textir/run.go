package textir

import (
	"fmt"
	"math/big"
	"strconv"

	"zkir/internal/gate"
	"zkir/internal/types"
)

// Handler is the subset of *interpreter.Interpreter's directive API that
// Run drives, mirroring the teacher's ir.Handler contract for AST-to-IR
// lowering. *interpreter.Interpreter satisfies this interface structurally;
// textir doesn't import internal/interpreter to avoid a dependency a test
// double shouldn't need either.
type Handler interface {
	StartFunction(sig *gate.Signature) error
	RegularFunction() error
	PluginFunction(binding gate.PluginBinding) error
	EndFunction() error

	AddGate(typeIdx, out, l, r uint64, line int) error
	MulGate(typeIdx, out, l, r uint64, line int) error
	AddcGate(typeIdx, out, l uint64, c *big.Int, line int) error
	MulcGate(typeIdx, out, l uint64, c *big.Int, line int) error
	Copy(typeIdx, out, l uint64, line int) error
	CopyMulti(typeIdx uint64, outFirst, outLast uint64, ins []gate.Range, line int) error
	Assign(typeIdx, out uint64, c *big.Int, line int) error
	AssertZero(typeIdx, l uint64, line int) error
	PublicIn(typeIdx, out uint64, line int) error
	PublicInMulti(typeIdx, first, last uint64, line int) error
	PrivateIn(typeIdx, out uint64, line int) error
	PrivateInMulti(typeIdx, first, last uint64, line int) error
	Convert(outType, outFirst, outLast, inType, inFirst, inLast uint64, modulus bool, line int) error
	NewRange(typeIdx, first, last uint64, line int) error
	DeleteRange(typeIdx, first, last uint64, line int) error
	Invoke(name string, outs, ins []gate.Range, line int) error
}

// CollectTypes walks prog's top-level type declarations in order and
// builds the types.Spec list in declaration order, plus a name -> type_idx
// table Run's wire references resolve against. The caller declares these
// into a types.Table (and builds whatever Handler it wants, typically
// program.Build) before calling Run.
func CollectTypes(prog *Program) ([]*types.Spec, map[string]uint64, error) {
	var specs []*types.Spec
	names := map[string]uint64{}
	for _, item := range prog.Items {
		if item.TypeDecl == nil {
			continue
		}
		d := item.TypeDecl
		if _, exists := names[d.Name]; exists {
			return nil, nil, fmt.Errorf("type %q declared twice", d.Name)
		}

		var spec *types.Spec
		switch {
		case d.Field != nil:
			prime, ok := new(big.Int).SetString(d.Field.Prime, 0)
			if !ok {
				return nil, nil, fmt.Errorf("type %q: invalid prime %q", d.Name, d.Field.Prime)
			}
			spec = types.NewField(prime)
		case d.Ring != nil:
			bits, err := strconv.ParseUint(d.Ring.BitWidth, 0, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("type %q: invalid bit width: %w", d.Name, err)
			}
			spec = types.NewRing(uint(bits))
		case d.Plugin != nil:
			params, err := paramStrings(d.Plugin.Params)
			if err != nil {
				return nil, nil, fmt.Errorf("type %q: %w", d.Name, err)
			}
			spec = types.NewPlugin(types.PluginBinding{
				PluginName:    d.Plugin.PluginName,
				OperationName: d.Plugin.OperationName,
				Parameters:    params,
			})
		default:
			return nil, nil, fmt.Errorf("type %q: declaration has no body", d.Name)
		}

		names[d.Name] = uint64(len(specs))
		specs = append(specs, spec)
	}
	return specs, names, nil
}

func paramStrings(args []*Arg) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		switch {
		case a.Const != nil:
			out[i] = a.Const.Value
		case a.Name != nil:
			out[i] = *a.Name
		default:
			return nil, fmt.Errorf("plugin parameter %d must be a name or constant", i)
		}
	}
	return out, nil
}

// Run walks prog's function declarations and top-level directives in order,
// issuing Handler calls. names must already resolve every type a directive
// references (see CollectTypes). The line number passed to each Handler
// call counts the function declaration headers and directives seen so far,
// the same role set_line_num plays for
// a parsed source program.
func Run(prog *Program, names map[string]uint64, h Handler) error {
	line := 0
	for _, item := range prog.Items {
		switch {
		case item.Function != nil:
			if err := runFunction(item.Function, names, h, &line); err != nil {
				return err
			}
		case item.Directive != nil:
			line++
			if err := runDirective(item.Directive, names, h, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func runFunction(fn *FunctionDecl, names map[string]uint64, h Handler, line *int) error {
	sig, err := buildSignature(fn, names)
	if err != nil {
		return err
	}
	*line++
	if err := h.StartFunction(sig); err != nil {
		return err
	}

	if fn.Plugin != nil {
		params, err := pluginParams(fn.Plugin.Params)
		if err != nil {
			return err
		}
		return h.PluginFunction(gate.PluginBinding{
			PluginName:    fn.Plugin.PluginName,
			OperationName: fn.Plugin.OperationName,
			Parameters:    params,
		})
	}

	if err := h.RegularFunction(); err != nil {
		return err
	}
	for _, d := range fn.Body {
		*line++
		if err := runDirective(d, names, h, *line); err != nil {
			return err
		}
	}
	return h.EndFunction()
}

func buildSignature(fn *FunctionDecl, names map[string]uint64) (*gate.Signature, error) {
	outs, err := typeLens(fn.Outputs, names)
	if err != nil {
		return nil, err
	}
	ins, err := typeLens(fn.Inputs, names)
	if err != nil {
		return nil, err
	}
	return &gate.Signature{Name: fn.Name, Outputs: outs, Inputs: ins}, nil
}

func typeLens(tls []*TypeLen, names map[string]uint64) ([]gate.TypeLen, error) {
	out := make([]gate.TypeLen, len(tls))
	for i, tl := range tls {
		idx, ok := names[tl.Type]
		if !ok {
			return nil, fmt.Errorf("unknown type %q", tl.Type)
		}
		out[i] = gate.TypeLen{Type: idx, Length: tl.Length}
	}
	return out, nil
}

func pluginParams(args []*Arg) ([]gate.Param, error) {
	out := make([]gate.Param, len(args))
	for i, a := range args {
		switch {
		case a.Const != nil:
			n, ok := new(big.Int).SetString(a.Const.Value, 0)
			if !ok {
				return nil, fmt.Errorf("plugin parameter %d: invalid constant %q", i, a.Const.Value)
			}
			out[i] = gate.Param{IsNumber: true, Number: n}
		case a.Name != nil:
			out[i] = gate.Param{Text: *a.Name}
		default:
			return nil, fmt.Errorf("plugin parameter %d must be a name or constant", i)
		}
	}
	return out, nil
}

func resolveWire(w *WireRef, names map[string]uint64) (typeIdx, first, last uint64, err error) {
	idx, ok := names[w.Type]
	if !ok {
		return 0, 0, 0, fmt.Errorf("unknown type %q", w.Type)
	}
	last = w.First
	if w.Last != nil {
		last = *w.Last
	}
	return idx, w.First, last, nil
}

func wireArg(a *Arg, names map[string]uint64) (typeIdx, first, last uint64, err error) {
	if a == nil || a.Wire == nil {
		return 0, 0, 0, fmt.Errorf("expected a wire reference argument")
	}
	return resolveWire(a.Wire, names)
}

func constArg(a *Arg) (*big.Int, error) {
	if a == nil || a.Const == nil {
		return nil, fmt.Errorf("expected a constant argument")
	}
	n, ok := new(big.Int).SetString(a.Const.Value, 0)
	if !ok {
		return nil, fmt.Errorf("invalid constant %q", a.Const.Value)
	}
	return n, nil
}

func runDirective(d *Directive, names map[string]uint64, h Handler, line int) error {
	if d.Op == nil {
		return runConstAssign(d, names, h, line)
	}

	switch *d.Op {
	case "add":
		return runBinGate(h.AddGate, d, names, line)
	case "mul":
		return runBinGate(h.MulGate, d, names, line)
	case "addc":
		return runConstGate(h.AddcGate, d, names, line)
	case "mulc":
		return runConstGate(h.MulcGate, d, names, line)
	case "copy":
		return runCopy(d, names, h, line)
	case "copy_multi":
		return runCopyMulti(d, names, h, line)
	case "assert_zero":
		return runAssertZero(d, names, h, line)
	case "public":
		return runStreamIn(h.PublicIn, h.PublicInMulti, d, names, line)
	case "private":
		return runStreamIn(h.PrivateIn, h.PrivateInMulti, d, names, line)
	case "convert":
		return runConvert(d, names, h, line)
	case "new_range":
		return runRangeOp(h.NewRange, d, names, line)
	case "delete_range":
		return runRangeOp(h.DeleteRange, d, names, line)
	case "invoke":
		return runInvoke(d, names, h, line)
	default:
		return fmt.Errorf("line %d: unknown directive @%s", line, *d.Op)
	}
}

func runConstAssign(d *Directive, names map[string]uint64, h Handler, line int) error {
	if len(d.Outputs) != 1 || d.ConstAssign == nil {
		return fmt.Errorf("line %d: expected \"out <- <const>;\"", line)
	}
	typeIdx, out, _, err := resolveWire(d.Outputs[0], names)
	if err != nil {
		return err
	}
	c, ok := new(big.Int).SetString(d.ConstAssign.Value, 0)
	if !ok {
		return fmt.Errorf("line %d: invalid constant %q", line, d.ConstAssign.Value)
	}
	return h.Assign(typeIdx, out, c, line)
}

func runBinGate(fn func(typeIdx, out, l, r uint64, line int) error, d *Directive, names map[string]uint64, line int) error {
	if len(d.Outputs) != 1 || len(d.Args) != 2 {
		return fmt.Errorf("line %d: @%s expects one output and two wire arguments", line, *d.Op)
	}
	typeIdx, out, _, err := resolveWire(d.Outputs[0], names)
	if err != nil {
		return err
	}
	_, l, _, err := wireArg(d.Args[0], names)
	if err != nil {
		return err
	}
	_, r, _, err := wireArg(d.Args[1], names)
	if err != nil {
		return err
	}
	return fn(typeIdx, out, l, r, line)
}

func runConstGate(fn func(typeIdx, out, l uint64, c *big.Int, line int) error, d *Directive, names map[string]uint64, line int) error {
	if len(d.Outputs) != 1 || len(d.Args) != 2 {
		return fmt.Errorf("line %d: @%s expects one output, a wire, and a constant", line, *d.Op)
	}
	typeIdx, out, _, err := resolveWire(d.Outputs[0], names)
	if err != nil {
		return err
	}
	_, l, _, err := wireArg(d.Args[0], names)
	if err != nil {
		return err
	}
	c, err := constArg(d.Args[1])
	if err != nil {
		return err
	}
	return fn(typeIdx, out, l, c, line)
}

func runCopy(d *Directive, names map[string]uint64, h Handler, line int) error {
	if len(d.Outputs) != 1 || len(d.Args) != 1 {
		return fmt.Errorf("line %d: @copy expects one output and one input", line)
	}
	typeIdx, out, _, err := resolveWire(d.Outputs[0], names)
	if err != nil {
		return err
	}
	_, l, _, err := wireArg(d.Args[0], names)
	if err != nil {
		return err
	}
	return h.Copy(typeIdx, out, l, line)
}

func runCopyMulti(d *Directive, names map[string]uint64, h Handler, line int) error {
	if len(d.Outputs) != 1 {
		return fmt.Errorf("line %d: @copy_multi expects one output range", line)
	}
	typeIdx, outFirst, outLast, err := resolveWire(d.Outputs[0], names)
	if err != nil {
		return err
	}
	ins := make([]gate.Range, len(d.Args))
	for i, a := range d.Args {
		_, first, last, err := wireArg(a, names)
		if err != nil {
			return err
		}
		ins[i] = gate.Range{First: first, Last: last}
	}
	return h.CopyMulti(typeIdx, outFirst, outLast, ins, line)
}

func runAssertZero(d *Directive, names map[string]uint64, h Handler, line int) error {
	if len(d.Outputs) != 0 || len(d.Args) != 1 {
		return fmt.Errorf("line %d: @assert_zero expects exactly one wire argument", line)
	}
	typeIdx, l, _, err := wireArg(d.Args[0], names)
	if err != nil {
		return err
	}
	return h.AssertZero(typeIdx, l, line)
}

func runStreamIn(single func(typeIdx, out uint64, line int) error, multi func(typeIdx, first, last uint64, line int) error, d *Directive, names map[string]uint64, line int) error {
	if len(d.Outputs) != 1 {
		return fmt.Errorf("line %d: @%s expects one output", line, *d.Op)
	}
	typeIdx, first, last, err := resolveWire(d.Outputs[0], names)
	if err != nil {
		return err
	}
	if first == last {
		return single(typeIdx, first, line)
	}
	return multi(typeIdx, first, last, line)
}

func runConvert(d *Directive, names map[string]uint64, h Handler, line int) error {
	if len(d.Outputs) != 1 || len(d.Args) < 1 {
		return fmt.Errorf("line %d: @convert expects one output range and one input range", line)
	}
	outType, outFirst, outLast, err := resolveWire(d.Outputs[0], names)
	if err != nil {
		return err
	}
	inType, inFirst, inLast, err := wireArg(d.Args[0], names)
	if err != nil {
		return err
	}
	modulus := false
	if len(d.Args) > 1 && d.Args[1].Name != nil && *d.Args[1].Name == "mod" {
		modulus = true
	}
	return h.Convert(outType, outFirst, outLast, inType, inFirst, inLast, modulus, line)
}

func runRangeOp(fn func(typeIdx, first, last uint64, line int) error, d *Directive, names map[string]uint64, line int) error {
	if len(d.Outputs) != 0 || len(d.Args) != 1 {
		return fmt.Errorf("line %d: @%s expects exactly one range argument", line, *d.Op)
	}
	typeIdx, first, last, err := wireArg(d.Args[0], names)
	if err != nil {
		return err
	}
	return fn(typeIdx, first, last, line)
}

func runInvoke(d *Directive, names map[string]uint64, h Handler, line int) error {
	if len(d.Args) < 1 || d.Args[0].Name == nil {
		return fmt.Errorf("line %d: @invoke expects a function name as its first argument", line)
	}
	name := *d.Args[0].Name

	outs := make([]gate.Range, len(d.Outputs))
	for i, w := range d.Outputs {
		_, first, last, err := resolveWire(w, names)
		if err != nil {
			return err
		}
		outs[i] = gate.Range{First: first, Last: last}
	}

	ins := make([]gate.Range, 0, len(d.Args)-1)
	for _, a := range d.Args[1:] {
		_, first, last, err := wireArg(a, names)
		if err != nil {
			return err
		}
		ins = append(ins, gate.Range{First: first, Last: last})
	}

	return h.Invoke(name, outs, ins, line)
}
