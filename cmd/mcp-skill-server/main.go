// Package main provides the entry point for the MCP skill server CLI.
package main

import (
	"fmt"
	"os"

	"github.com/jcc-ne/mcp-skill-server/cmd/mcp-skill-server/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
