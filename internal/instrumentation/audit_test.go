package instrumentation

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

func TestToolInvocation_Complete(t *testing.T) {
	ti := NewToolInvocation("delete_meeting").
		WithService(ServiceCalendar, OperationDelete).
		WithEvent("evt-1")

	if ti.StartTime.IsZero() {
		t.Fatal("StartTime not set")
	}

	ti.Complete(false, errors.New("not found"))
	if ti.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusError)
	}
	if ti.Error != "not found" {
		t.Errorf("Error = %q", ti.Error)
	}

	ti.Complete(true, nil)
	if ti.Status() != StatusSuccess {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusSuccess)
	}
}

func TestToolInvocation_AttendeeDomains(t *testing.T) {
	ti := NewToolInvocation("create_meeting").
		WithAttendees([]string{"a@Example.com", "b@example.com", "c@corp.io", "broken"})

	want := []string{"corp.io", "example.com", "unknown"}
	if got := ti.AttendeeDomains(); !reflect.DeepEqual(got, want) {
		t.Errorf("AttendeeDomains() = %v, want %v", got, want)
	}
}

func TestToolInvocation_WithAttendeesCopies(t *testing.T) {
	attendees := []string{"a@x.com"}
	ti := NewToolInvocation("create_meeting").WithAttendees(attendees)
	attendees[0] = "changed@x.com"

	if ti.Attendees[0] != "a@x.com" {
		t.Errorf("Attendees aliased the caller's slice: %v", ti.Attendees)
	}
}

func TestEmailDomain(t *testing.T) {
	tests := map[string]string{
		"jane@example.com": "example.com",
		"x@Sub.Corp.IO":    "sub.corp.io",
		"invalid":          "unknown",
		"trailing@":        "unknown",
		"":                 "unknown",
	}
	for in, want := range tests {
		if got := EmailDomain(in); got != want {
			t.Errorf("EmailDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func logRecord(t *testing.T, includePII bool, ti *ToolInvocation) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	al := NewAuditLoggerWithConfig(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{
		Enabled:    true,
		IncludePII: includePII,
	})
	al.LogToolInvocation(ti)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log output %q: %v", buf.String(), err)
	}
	return rec
}

func TestAuditLogger_PII(t *testing.T) {
	ti := NewToolInvocation("create_meeting").
		WithService(ServiceCalendar, OperationCreate).
		WithAttendees([]string{"jane@example.com", "joe@example.com"}).
		Complete(true, nil)

	t.Run("anonymized", func(t *testing.T) {
		rec := logRecord(t, false, ti)
		if rec["msg"] != "tool_executed" {
			t.Errorf("msg = %v", rec["msg"])
		}
		if _, ok := rec["attendees"]; ok {
			t.Error("attendees must not be logged without IncludePII")
		}
		if rec["attendee_count"] != float64(2) {
			t.Errorf("attendee_count = %v", rec["attendee_count"])
		}
	})

	t.Run("full", func(t *testing.T) {
		rec := logRecord(t, true, ti)
		got, _ := json.Marshal(rec["attendees"])
		if !strings.Contains(string(got), "jane@example.com") {
			t.Errorf("attendees = %s", got)
		}
	})
}

func TestAuditLogger_FailureIsWarn(t *testing.T) {
	ti := NewToolInvocation("delete_meeting").Complete(false, errors.New("boom"))
	rec := logRecord(t, false, ti)

	if rec["level"] != "WARN" || rec["msg"] != "tool_failed" || rec["error"] != "boom" {
		t.Errorf("record = %v", rec)
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLoggerWithConfig(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})
	al.LogToolInvocation(NewToolInvocation("list_meetings").Complete(true, nil))

	var nilLogger *AuditLogger
	nilLogger.LogToolInvocation(NewToolInvocation("list_meetings"))

	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
}
