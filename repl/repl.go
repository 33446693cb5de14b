// Package repl SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bufio"
	"fmt"
	"io"

	"zkir/internal/program"
	"zkir/internal/textir"
	"zkir/internal/types"
)

const PROMPT = ">> "

// Start runs an interactive textir session: each line is appended to a
// growing source buffer, which is re-parsed, re-declared into a fresh
// type table, and re-run against a fresh interpreter after every line.
// Re-running from scratch keeps this REPL as simple as the line-at-a-time
// one it replaces, at the cost of redoing earlier gates on every line —
// fine for the short sessions a REPL is for.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	var buf string

	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			return
		}

		buf += scanner.Text() + "\n"

		prog, err := textir.ParseQuiet("<repl>", buf)
		if err != nil {
			fmt.Fprintf(out, "parse error: %s\n", err)
			continue
		}

		specs, names, err := textir.CollectTypes(prog)
		if err != nil {
			fmt.Fprintf(out, "type error: %s\n", err)
			continue
		}

		table := types.NewTable()
		for _, s := range specs {
			table.Declare(s)
		}

		ip, err := program.Build(table, nil, false)
		if err != nil {
			fmt.Fprintf(out, "build error: %s\n", err)
			continue
		}

		if err := textir.Run(prog, names, ip); err != nil {
			fmt.Fprintf(out, "run error: %s\n", err)
			continue
		}

		fmt.Fprintf(out, "ok (satisfied=%v)\n", ip.Finish())
	}
}
