package common

import (
	"strings"
)

// SplitList splits a comma separated argument into trimmed, non-empty items.
// Order and duplicates are kept.
func SplitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// AttendeesFromArgs reads the attendees argument, which MCP clients send
// either as a comma separated string or as a JSON array of strings.
func AttendeesFromArgs(args map[string]any) []string {
	switch v := args["attendees"].(type) {
	case string:
		return SplitList(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case []string:
		return SplitList(strings.Join(v, ","))
	}
	return nil
}

// EventIDFromArgs reads the trimmed event_id argument.
func EventIDFromArgs(args map[string]any) string {
	id, _ := args["event_id"].(string)
	return strings.TrimSpace(id)
}
