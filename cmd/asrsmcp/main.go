// Package main provides the entry point for the asrsmcp CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/asrsmcp/cmd/asrsmcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
