package textir

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
)

var parser = participle.MustBuild[Program](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(3),
)

// Parse parses source (named filename for diagnostics) into a Program,
// printing a caret-style error to stderr on failure. Callers that need
// the raw participle.Error instead of console output (internal/lsp, in
// particular, since its process talks JSON-RPC over stdout) should call
// ParseQuiet.
func Parse(filename, source string) (*Program, error) {
	prog, err := ParseQuiet(filename, source)
	if err != nil {
		reportParseError(source, err)
		return nil, err
	}
	return prog, nil
}

// ParseQuiet parses source without printing anything, returning the raw
// error (typically a participle.Error) for the caller to render itself.
func ParseQuiet(filename, source string) (*Program, error) {
	return parser.ParseString(filename, source)
}

// ParseFile reads and parses a textir source file.
func ParseFile(path string) (*Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(path, string(source))
}

// reportParseError prints a caret-style parse error, the same rendering
// grammar.ParseFile uses for the source language.
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	color.Red("syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("-> %s\n", pe.Message())
}
