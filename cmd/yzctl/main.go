// Package main provides yzctl, the command line client of the yangtze API
// server.
package main

import (
	"fmt"
	"os"

	"github.com/dtomasi/yangtze/cmd/yzctl/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
