// Package calendar_tools exposes the calendar operations as MCP tools:
// create_meeting, list_meetings, delete_meeting and auto_schedule_meeting.
//
// Every tool answers with the indented JSON envelope produced by the
// dispatcher. Failures are returned as tool results flagged isError, never as
// protocol errors, so the calling agent can read the message.
package calendar_tools
