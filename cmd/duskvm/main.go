// Command duskvm exercises the virtual memory subsystem from the
// command line, grounded on the opm command-tree convention (a
// cobra root command delegating to one subcommand per concern).
// See cmd/duskvm/root/cmd.go.
package main

import (
	"os"

	"duskos/cmd/duskvm/root"
)

func main() {
	if err := root.NewCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
