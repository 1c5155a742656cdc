// Package cmd implements the command-line interface for google-calendar.
//
// This package provides the following commands:
//   - serve: Start the MCP server (stdio or streamable-http)
//   - chat: Run calendar commands typed on standard input, in process or through a spawned server
//   - auth: Authorize, inspect or revoke the stored OAuth token
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
