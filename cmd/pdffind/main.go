// Package main provides the entry point for the pdffind CLI.
package main

import (
	"os"

	"github.com/pdffind/pdffind/cmd/pdffind/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
