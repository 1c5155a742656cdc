package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the google-calendar application
var rootCmd = &cobra.Command{
	Use:   "google-calendar",
	Short: "Google Calendar MCP server and command-line client",
	Long: `google-calendar exposes Google Calendar to AI assistants as a Model Context
Protocol (MCP) server: list upcoming meetings, create meetings from explicit or
free-text times, auto-schedule a meeting and delete events.

It can run as:
  - An MCP server over stdio or streamable HTTP (default: serve over stdio)
  - An interactive command-line client (chat)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "google-calendar version %s\n" .Version}}`)

	// If no subcommand is provided, run the MCP server over stdio
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
