package command

const (
	// DefaultMaxResults is the number of events a bare "list" asks for.
	DefaultMaxResults = 10

	// DefaultDurationMinutes is the meeting length when none is given.
	DefaultDurationMinutes = 60

	// ScheduledMeetingSummary is the title given to meetings created with "schedule".
	ScheduledMeetingSummary = "Scheduled Meeting"

	// AutoScheduleDescriptionPrefix prefixes the description of auto-scheduled meetings.
	AutoScheduleDescriptionPrefix = "Auto-scheduled meeting: "
)

// Intent is the structured form of one line of user input. The concrete
// types below are the only implementations.
type Intent interface {
	// Name identifies the intent kind in logs and traces.
	Name() string

	isIntent()
}

// ListIntent asks for upcoming events.
type ListIntent struct {
	MaxResults int
}

// CreateIntent asks for a meeting at a time described in free text.
type CreateIntent struct {
	Summary     string
	Description string
	Attendees   []string
	RawTimeText string
}

// AutoScheduleIntent asks for a meeting at the next placeholder slot.
type AutoScheduleIntent struct {
	Summary         string
	Description     string
	DurationMinutes int
}

// DeleteIntent asks for an event to be removed. EventID may be empty, which
// the dispatcher rejects.
type DeleteIntent struct {
	EventID string
}

// UnknownIntent carries input that matched no command.
type UnknownIntent struct {
	OriginalText string
}

func (ListIntent) Name() string         { return "list" }
func (CreateIntent) Name() string       { return "create" }
func (AutoScheduleIntent) Name() string { return "auto_schedule" }
func (DeleteIntent) Name() string       { return "delete" }
func (UnknownIntent) Name() string      { return "unknown" }

func (ListIntent) isIntent()         {}
func (CreateIntent) isIntent()       {}
func (AutoScheduleIntent) isIntent() {}
func (DeleteIntent) isIntent()       {}
func (UnknownIntent) isIntent()      {}
