// SPDX-License-Identifier: Apache-2.0
package main

import (
	"os"

	"zkir/repl"
)

func main() {
	repl.Start(os.Stdin, os.Stdout)
}
