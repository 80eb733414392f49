// Package main provides the pype command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/pype/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
