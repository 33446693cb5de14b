package textir

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes the textual directive format spec.md §4.I shows:
// type declarations, function declarations, and wire directives of the
// shape "type.$index <- @op(args);". Grounded on grammar.KansoLexer's
// stateful-rules shape, with a token set cut down to this format's
// punctuation (no source-language operators).
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `0x[0-9a-fA-F]+|[0-9]+`, nil},
		{"Punctuation", `[{}()\[\],;:.<>=@$!]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
