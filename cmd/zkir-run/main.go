// SPDX-License-Identifier: Apache-2.0
package main

import (
	"bufio"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/fatih/color"

	"zkir/internal/program"
	"zkir/internal/refbackend"
	"zkir/internal/textir"
	"zkir/internal/types"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: zkir-run <file.zkir> [inputs file]")
		os.Exit(1)
	}

	prog, err := textir.ParseFile(os.Args[1])
	if err != nil {
		os.Exit(1)
	}

	specs, names, err := textir.CollectTypes(prog)
	if err != nil {
		color.Red("type error: %s", err)
		os.Exit(1)
	}

	table := types.NewTable()
	for _, s := range specs {
		table.Declare(s)
	}

	var streams map[uint64]program.Streams
	if len(os.Args) > 2 {
		streams, err = loadStreams(os.Args[2], names)
		if err != nil {
			color.Red("failed to load inputs: %s", err)
			os.Exit(1)
		}
	}

	ip, err := program.Build(table, streams, false)
	if err != nil {
		color.Red("failed to build interpreter: %s", err)
		os.Exit(1)
	}

	if err := textir.Run(prog, names, ip); err != nil {
		color.Red("run error: %s", err)
		os.Exit(1)
	}

	if !ip.Finish() {
		color.Red("constraints not satisfied")
		os.Exit(1)
	}

	color.Green("constraints satisfied for %s", os.Args[1])
}

// loadStreams reads an inputs file of lines "public <type> <values...>" or
// "private <type> <values...>", one stream-append per line, in the order
// @public/@private directives will consume them.
func loadStreams(path string, names map[string]uint64) (map[uint64]program.Streams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	public := map[uint64][]*big.Int{}
	private := map[uint64][]*big.Int{}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed inputs line: %q", line)
		}

		typeIdx, ok := names[fields[1]]
		if !ok {
			return nil, fmt.Errorf("unknown type %q", fields[1])
		}

		values := make([]*big.Int, 0, len(fields)-2)
		for _, s := range fields[2:] {
			v, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return nil, fmt.Errorf("malformed value %q", s)
			}
			values = append(values, v)
		}

		switch fields[0] {
		case "public":
			public[typeIdx] = append(public[typeIdx], values...)
		case "private":
			private[typeIdx] = append(private[typeIdx], values...)
		default:
			return nil, fmt.Errorf("unknown stream kind %q", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	streams := map[uint64]program.Streams{}
	for idx, vs := range public {
		s := streams[idx]
		s.Public = refbackend.NewSliceStream(vs...)
		streams[idx] = s
	}
	for idx, vs := range private {
		s := streams[idx]
		s.Private = refbackend.NewSliceStream(vs...)
		streams[idx] = s
	}
	return streams, nil
}
