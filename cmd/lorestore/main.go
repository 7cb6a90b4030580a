// Package main provides the entry point for the lorestore CLI.
package main

import (
	"os"

	"github.com/lorekit/lorestore/cmd/lorestore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
