// Package main is the entry point for the expensed CLI.
package main

import (
	"os"

	"github.com/ledgerline/expensed/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
