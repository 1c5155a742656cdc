// Package client drives calendar operations from free-text input.
//
// Session is the read-parse-dispatch loop behind the chat command. It hands
// each intent to an Executor: either a *dispatch.Dispatcher running in
// process, or a *Remote that forwards the intent as an MCP tool call to a
// google-calendar server it spawns over stdio.
package client
