// Package main is the entry point for the brag CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/brag/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
