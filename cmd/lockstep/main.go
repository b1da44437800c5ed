// cmd/lockstep/main.go
//
// Entry point for the lockstep CLI. All commands live in internal/cli;
// this file only maps their errors to a process exit code.

package main

import (
	"fmt"
	"os"

	"github.com/roach88/lockstep/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
