package dispatch

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dorisashehi/google-calendar/internal/calendar"
)

// Envelope is the single result shape of every operation. Payload is set only
// on success and Error only on failure.
type Envelope struct {
	Success bool   `json:"success"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

// CreatePayload is returned by create and auto-schedule.
type CreatePayload struct {
	EventID   string    `json:"event_id"`
	EventLink string    `json:"event_link"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// ListPayload is returned by list.
type ListPayload struct {
	Events []calendar.EventSummary `json:"events"`
	Count  int                     `json:"count"`
}

// DeletePayload is returned by delete.
type DeletePayload struct {
	EventID string `json:"event_id"`
}

// JSON renders the envelope indented, as returned to MCP clients.
func (e Envelope) JSON() string {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		// Payloads are plain structs; this only happens on programmer error.
		return `{"success":false,"error":"failed to encode response","message":"failed to encode response"}`
	}
	return string(data)
}

func success(payload any, message string) Envelope {
	return Envelope{Success: true, Payload: payload, Message: message}
}

func failure(errText, message string) Envelope {
	return Envelope{Success: false, Error: errText, Message: message}
}

// Reject returns the failure envelope for a request rejected before any
// backend call. A *ValidationError contributes its user-facing message.
func Reject(err error) Envelope {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return failure(verr.Message, verr.Message)
	}
	return failure(err.Error(), err.Error())
}
