// Package commands provides the CLI commands for the MCP skill server.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "mcp-skill-server",
	Short: "MCP server for local skill development and testing",
	Long: `mcp-skill-server turns a directory of skills into an MCP server.

Each skill is a directory with a SKILL.md manifest and an executable entry
command; the server infers command schemas from the entry command's --help
output and exposes the skills as MCP tools.

Run 'mcp-skill-server serve <skills-dir>' to start serving, or
'mcp-skill-server init <path>' to scaffold a new skill.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.SetVersionTemplate(fmt.Sprintf("mcp-skill-server %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
