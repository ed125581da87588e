// Package main provides yangtze-controller, which runs the fabric and switch
// controllers against a yangtze API server.
package main

import (
	"fmt"
	"os"

	"github.com/dtomasi/yangtze/cmd/yangtze-controller/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
