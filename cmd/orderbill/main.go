// Package main is the entry point for the orderbill CLI.
package main

import (
	"os"

	"github.com/smallbiznis/orderbill/cmd/orderbill/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
