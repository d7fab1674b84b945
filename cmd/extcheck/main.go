package main

import (
	"extcheck/internal/ui/cli"
	"fmt"
	"os"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "extcheck: %v\n", err)
		os.Exit(1)
	}
}
