// Package main is the entry point for the jobwatch CLI.
// The CLI is the terminal tool for inspecting the job scheduler.
package main

import (
	"os"

	"jobwatch/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
