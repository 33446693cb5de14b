// Package textir implements spec.md §4.I's textual directive format: the
// wire-reference syntax shown in spec.md §8 ("type.$index <- @op(args);"),
// parsed with github.com/alecthomas/participle/v2 the way grammar.Program
// parses the teacher's source language, and walked by Run to drive an
// interpreter.Interpreter (or any Handler) the way ir.BuildProgram walks
// the teacher's AST.
package textir

// Program is a textir source file: an ordered list of type declarations,
// function declarations, and top-level wire directives. Order matters —
// a type must be declared before anything references it, and top-level
// directives execute in file order.
type Program struct {
	Items []*TopLevel `@@*`
}

// TopLevel is one of the three things that can appear outside a function
// body. Comments are elided at the lexer level (see Lexer's Elide list)
// and never reach the grammar.
type TopLevel struct {
	TypeDecl  *TypeDecl     `  @@`
	Function  *FunctionDecl `| @@`
	Directive *Directive    `| @@`
}

// TypeDecl declares one entry of the type table: "type t0 = field 7;",
// "type t1 = ring 32;", or "type t2 = plugin(ram, buffer);".
type TypeDecl struct {
	Name   string               `"type" @Ident "="`
	Field  *FieldSpec           `( @@`
	Ring   *RingSpec            `| @@`
	Plugin *PluginBindingSyntax `| "plugin" "(" @@ ")" ) ";"`
}

// FieldSpec is the "field <prime>" alternative of a TypeDecl.
type FieldSpec struct {
	Prime string `"field" @Integer`
}

// RingSpec is the "ring <bit_width>" alternative of a TypeDecl.
type RingSpec struct {
	BitWidth string `"ring" @Integer`
}

// PluginBindingSyntax is the "plugin_name, operation_name[, params...]"
// shape shared by a plugin-typed TypeDecl and a plugin-bound FunctionDecl.
type PluginBindingSyntax struct {
	PluginName    string `@Ident ","`
	OperationName string `@Ident`
	Params        []*Arg `[ "," @@ { "," @@ } ]`
}

// TypeLen is a "type:length" pair in a function's out/in list.
type TypeLen struct {
	Type   string `@Ident ":"`
	Length uint64 `@Integer`
}

// FunctionDecl is either a gate-recording function with a directive body,
// or a plugin-bound function declared with "= @plugin(name, op, ...)".
type FunctionDecl struct {
	Name    string               `"function" @Ident "("`
	Outputs []*TypeLen           `"out" ":" [ @@ { "," @@ } ] ";" "in" ":"`
	Inputs  []*TypeLen           `[ @@ { "," @@ } ] ")"`
	Plugin  *PluginBindingSyntax `( "=" "@" "plugin" "(" @@ ")" ";"`
	Body    []*Directive         `| "{" @@* "}" )`
}

// WireRef names a single wire "t.$5" or a contiguous range "t.$5..$9".
type WireRef struct {
	Type  string  `@Ident "."`
	First uint64  `"$" @Integer`
	Last  *uint64 `[ "." "." "$" @Integer ]`
}

// Const is a bracketed numeric literal, "<3>".
type Const struct {
	Value string `"<" @Integer ">"`
}

// Arg is one argument to an @op(...) call or a plugin parameter list: a
// wire reference, a bracketed constant, or a bare name (a function or
// plugin/operation name).
type Arg struct {
	Wire  *WireRef `  @@`
	Const *Const   `| @@`
	Name  *string  `| @Ident`
}

// Directive is one executable statement: "outs <- @op(args);" (gates,
// public/private in, invoke, convert), a bare
// "@op(args);" with no outputs (assert_zero, new_range, delete_range), or
// a plain constant assignment "out <- <const>;".
type Directive struct {
	Outputs     []*WireRef `[ @@ { "," @@ } "<" "-" ]`
	Op          *string    `( "@" @Ident`
	Args        []*Arg     `  "(" [ @@ { "," @@ } ] ")"`
	ConstAssign *Const     `| @@ ) ";"`
}
