// Package logging holds the slog conventions of the google-calendar server.
//
// All logs go to stderr; under the stdio transport stdout carries the MCP
// stream and must stay clean.
//
//	logger := logging.New(os.Stderr, debug)
//	logger.Info("created event",
//	    logging.Operation("create"),
//	    logging.Attendees(emails))
//
// Attendee addresses are hashed by Attendees and AnonymizeEmail, and OAuth
// tokens are only ever logged through SanitizeToken.
package logging
