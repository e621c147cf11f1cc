// Command murk builds block-structured markup documents, mirroring the
// original binary's CLI surface (index/build/graph) over a cobra command
// tree instead of clap.
package main

import (
	"fmt"
	"os"

	"github.com/ritamzico/murk/internal/cliapp"
)

func main() {
	root := cliapp.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
