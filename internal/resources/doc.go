// Package resources provides read-only MCP resources. config://calendar
// describes how the server is set up and what a client operator must do to
// provide credentials.
package resources
