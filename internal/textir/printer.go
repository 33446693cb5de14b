package textir

import (
	"fmt"
	"strings"
)

// String renders prog back to the textual directive format, the textir
// analogue of grammar.Program's pretty-printer.
func (p *Program) String() string {
	var b strings.Builder
	for _, item := range p.Items {
		b.WriteString(item.String())
	}
	return b.String()
}

func (t *TopLevel) String() string {
	switch {
	case t.TypeDecl != nil:
		return t.TypeDecl.String() + "\n"
	case t.Function != nil:
		return t.Function.String() + "\n"
	case t.Directive != nil:
		return t.Directive.String() + "\n"
	default:
		return ""
	}
}

func (d *TypeDecl) String() string {
	switch {
	case d.Field != nil:
		return fmt.Sprintf("type %s = field %s;", d.Name, d.Field.Prime)
	case d.Ring != nil:
		return fmt.Sprintf("type %s = ring %s;", d.Name, d.Ring.BitWidth)
	case d.Plugin != nil:
		return fmt.Sprintf("type %s = plugin(%s);", d.Name, d.Plugin.String())
	default:
		return fmt.Sprintf("type %s = <?>;", d.Name)
	}
}

func (p *PluginBindingSyntax) String() string {
	parts := []string{p.PluginName, p.OperationName}
	for _, a := range p.Params {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

func (tl *TypeLen) String() string {
	return fmt.Sprintf("%s:%d", tl.Type, tl.Length)
}

func typeLenList(tls []*TypeLen) string {
	parts := make([]string, len(tls))
	for i, tl := range tls {
		parts[i] = tl.String()
	}
	return strings.Join(parts, ", ")
}

func (fn *FunctionDecl) String() string {
	header := fmt.Sprintf("function %s(out: %s; in: %s)", fn.Name, typeLenList(fn.Outputs), typeLenList(fn.Inputs))
	if fn.Plugin != nil {
		return fmt.Sprintf("%s = @plugin(%s);", header, fn.Plugin.String())
	}
	var b strings.Builder
	b.WriteString(header + " {\n")
	for _, d := range fn.Body {
		b.WriteString("    " + d.String() + "\n")
	}
	b.WriteString("}")
	return b.String()
}

func (w *WireRef) String() string {
	if w.Last != nil {
		return fmt.Sprintf("%s.$%d..$%d", w.Type, w.First, *w.Last)
	}
	return fmt.Sprintf("%s.$%d", w.Type, w.First)
}

func (c *Const) String() string {
	return fmt.Sprintf("<%s>", c.Value)
}

func (a *Arg) String() string {
	switch {
	case a.Wire != nil:
		return a.Wire.String()
	case a.Const != nil:
		return a.Const.String()
	case a.Name != nil:
		return *a.Name
	default:
		return "?"
	}
}

func (d *Directive) String() string {
	var b strings.Builder
	if len(d.Outputs) > 0 {
		parts := make([]string, len(d.Outputs))
		for i, w := range d.Outputs {
			parts[i] = w.String()
		}
		b.WriteString(strings.Join(parts, ", ") + " <- ")
	}
	if d.ConstAssign != nil {
		b.WriteString(d.ConstAssign.String() + ";")
		return b.String()
	}
	args := make([]string, len(d.Args))
	for i, a := range d.Args {
		args[i] = a.String()
	}
	b.WriteString(fmt.Sprintf("@%s(%s);", *d.Op, strings.Join(args, ", ")))
	return b.String()
}
