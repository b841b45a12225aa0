// Package main provides the paramimport CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/paramimport/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
