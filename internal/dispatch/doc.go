// Package dispatch executes calendar intents and wraps every outcome in the
// response Envelope shared by the CLI and the MCP tools.
//
// Each operation validates its input, fetches the current credential, makes
// exactly one Calendar Port call and converts the result. Nothing it calls can
// make an error escape: credential, validation and backend failures all
// become failure envelopes.
package dispatch
