// Package main provides the brix CLI.
package main

import (
	"os"

	"github.com/Spycner/brix/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
