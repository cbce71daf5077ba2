// Command auditview renders degree-audit results as requirement trees.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/auditview/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
