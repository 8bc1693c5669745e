// Package main is the entry point for fc-commerce.
package main

import (
	"fmt"
	"os"

	"github.com/fourthcoffee/fc-commerce/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
