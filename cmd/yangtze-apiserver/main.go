// Package main provides yangtze-apiserver, the HTTP front of the object
// store.
package main

import (
	"fmt"
	"os"

	"github.com/dtomasi/yangtze/cmd/yangtze-apiserver/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
