// Package main is the entry point for the property listing API.
package main

import (
	"fmt"
	"os"

	"property-listing/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
