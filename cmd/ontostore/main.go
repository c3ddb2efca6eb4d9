// Command ontostore inspects table schemas, runs store scenarios and reads
// change journals.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ontostore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
