package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultDurationMinutes applies when no positive duration is given.
	DefaultDurationMinutes = 60

	// TomorrowHour is the UTC hour used for text that only says "tomorrow".
	TomorrowHour = 14

	// PlaceholderLead is how far ahead a meeting without a usable time starts.
	PlaceholderLead = time.Hour
)

// ErrInvalidWindow is returned when an explicit window does not end after it starts.
var ErrInvalidWindow = errors.New("end time must be after start time")

// Tier selects how much effort goes into reading time text.
type Tier string

const (
	TierNatural Tier = "natural"
	TierBasic   Tier = "basic"
)

// ParseTier validates a tier name. The empty string selects TierNatural.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case "", TierNatural:
		return TierNatural, nil
	case TierBasic:
		return TierBasic, nil
	default:
		return "", fmt.Errorf("invalid time parsing tier %q (expected %q or %q)", s, TierNatural, TierBasic)
	}
}

// TimeWindow is a UTC meeting slot. End is always after Start.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Duration returns the window length.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// TimeParser finds a start time in free text. It reports false when the text
// holds nothing it can read.
type TimeParser interface {
	ParseTime(text string, ref time.Time) (time.Time, bool)
}

// Resolver builds TimeWindows from time text and durations.
type Resolver struct {
	tier   Tier
	parser TimeParser
	now    func() time.Time
}

// NewResolver creates a resolver for tier. now may be nil to use time.Now.
func NewResolver(tier Tier, now func() time.Time) *Resolver {
	r := &Resolver{tier: tier, now: now}
	if r.now == nil {
		r.now = time.Now
	}
	if tier == TierNatural {
		r.parser = NaturalParser{}
	}
	return r
}

// WithParser replaces the natural tier parser. It is used by tests and by
// callers that bring their own language handling.
func (r *Resolver) WithParser(p TimeParser) *Resolver {
	r.parser = p
	return r
}

// Tier returns the configured tier.
func (r *Resolver) Tier() Tier {
	return r.tier
}

// Resolve picks a start from rawTimeText and returns a window of
// durationMinutes. A non-positive duration means DefaultDurationMinutes.
func (r *Resolver) Resolve(rawTimeText string, durationMinutes int) TimeWindow {
	now := r.now().UTC()
	return r.window(r.start(rawTimeText, now), durationMinutes)
}

// Next returns the placeholder slot used by auto-scheduling: one hour from now.
func (r *Resolver) Next(durationMinutes int) TimeWindow {
	now := r.now().UTC()
	return r.window(now.Add(PlaceholderLead), durationMinutes)
}

// Explicit builds a window from caller supplied instants.
func (r *Resolver) Explicit(start, end time.Time) (TimeWindow, error) {
	start = start.UTC().Truncate(time.Second)
	end = end.UTC().Truncate(time.Second)
	if !end.After(start) {
		return TimeWindow{}, fmt.Errorf("%w: start %s, end %s", ErrInvalidWindow,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return TimeWindow{Start: start, End: end}, nil
}

func (r *Resolver) start(text string, now time.Time) time.Time {
	if r.parser != nil {
		if t, ok := r.parser.ParseTime(text, now); ok {
			return t
		}
	}

	if strings.Contains(strings.ToLower(text), "tomorrow") {
		d := now.AddDate(0, 0, 1)
		return time.Date(d.Year(), d.Month(), d.Day(), TomorrowHour, 0, 0, 0, time.UTC)
	}

	return now.Add(PlaceholderLead)
}

func (r *Resolver) window(start time.Time, durationMinutes int) TimeWindow {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	start = start.UTC().Truncate(time.Second)
	return TimeWindow{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}
}
