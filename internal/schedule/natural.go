package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"
)

// maxWindowWords bounds the phrase length handed to the natural language parser.
const maxWindowWords = 6

var (
	emailPattern     = regexp.MustCompile(`[\w.-]+@[\w.-]+`)
	clockPattern     = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(am|pm)$|^(\d{1,2}):(\d{2})$`)
	dayNumberPattern = regexp.MustCompile(`^\d{1,2}(st|nd|rd|th)?$`)

	isoLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
	isoDateLayout = "2006-01-02"

	// dayWords name a day on their own.
	dayWords = map[string]bool{
		"today": true, "tomorrow": true, "tonight": true,
		"noon": true, "midnight": true,
		"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
		"friday": true, "saturday": true, "sunday": true,
	}

	// hintWords are also ordinary English ("may", "next", "march") and only
	// count next to a day number.
	hintWords = map[string]bool{
		"next": true, "morning": true, "afternoon": true, "evening": true,
		"january": true, "february": true, "march": true, "april": true, "may": true, "june": true,
		"july": true, "august": true, "september": true, "october": true, "november": true, "december": true,
		"am": true, "pm": true,
	}
)

// NaturalParser reads ISO dates and English date phrases such as
// "tomorrow at 2pm" or "next friday 10:00". Phrases are searched in word
// windows, longest first, so surrounding words like a meeting title or
// attendee emails do not prevent a match. A date without a clock time is
// placed at TomorrowHour, or at a clock time found elsewhere in the text.
type NaturalParser struct{}

// ParseTime implements TimeParser. Clock times without a zone are read in
// the location of ref.
func (NaturalParser) ParseTime(text string, ref time.Time) (time.Time, bool) {
	words := strings.Fields(emailPattern.ReplaceAllString(text, " "))
	if len(words) == 0 {
		return time.Time{}, false
	}

	for _, w := range words {
		w = trimWord(w)
		for _, layout := range isoLayouts {
			if t, err := time.ParseInLocation(layout, w, ref.Location()); err == nil {
				return t, true
			}
		}
		if d, err := time.ParseInLocation(isoDateLayout, w, ref.Location()); err == nil {
			return atClock(d, words), true
		}
	}

	for size := min(len(words), maxWindowWords); size > 0; size-- {
		for i := 0; i+size <= len(words); i++ {
			window := words[i : i+size]
			if !namesDate(window) {
				continue
			}
			t, err := naturaldate.Parse(strings.Join(window, " "), ref, naturaldate.WithDirection(naturaldate.Future))
			if err != nil || t.Equal(ref) {
				continue
			}
			if isMidnight(t) && !hasClock(window) {
				t = atClock(t, words)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// namesDate reports whether window holds a day word, a clock time, or a hint
// word next to a day number.
func namesDate(window []string) bool {
	var hint, number bool
	for _, w := range window {
		w = strings.ToLower(trimWord(w))
		switch {
		case dayWords[w], clockPattern.MatchString(w):
			return true
		case hintWords[w]:
			hint = true
		case dayNumberPattern.MatchString(w):
			number = true
		}
	}
	return hint && number
}

func hasClock(window []string) bool {
	for _, w := range window {
		w = strings.ToLower(trimWord(w))
		if w == "midnight" || clockPattern.MatchString(w) {
			return true
		}
	}
	return false
}

// atClock moves day to the first clock time in words, or to TomorrowHour
// when there is none.
func atClock(day time.Time, words []string) time.Time {
	hour, minute := TomorrowHour, 0
	if h, m, ok := findClock(words); ok {
		hour, minute = h, m
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// findClock accepts "14:30", "2pm", "2:30pm", "2 pm" and "at 10".
func findClock(words []string) (hour, minute int, ok bool) {
	for i, w := range words {
		w = strings.ToLower(trimWord(w))
		if m := clockPattern.FindStringSubmatch(w); m != nil {
			if m[3] != "" {
				return meridiem(m[1], m[2], m[3])
			}
			return clockValue(m[4], m[5])
		}
		if !dayNumberPattern.MatchString(w) || strings.IndexFunc(w, isLetter) >= 0 {
			continue
		}
		if i+1 < len(words) {
			if next := strings.ToLower(trimWord(words[i+1])); next == "am" || next == "pm" {
				return meridiem(w, "", next)
			}
		}
		if i > 0 && strings.EqualFold(trimWord(words[i-1]), "at") {
			return clockValue(w, "")
		}
	}
	return 0, 0, false
}

func meridiem(h, m, suffix string) (int, int, bool) {
	hour, minute, ok := clockValue(h, m)
	if !ok || hour < 1 || hour > 12 {
		return 0, 0, false
	}
	hour %= 12
	if suffix == "pm" {
		hour += 12
	}
	return hour, minute, true
}

func clockValue(h, m string) (int, int, bool) {
	hour, err := strconv.Atoi(h)
	if err != nil || hour > 23 {
		return 0, 0, false
	}
	minute := 0
	if m != "" {
		if minute, err = strconv.Atoi(m); err != nil || minute > 59 {
			return 0, 0, false
		}
	}
	return hour, minute, true
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z'
}

func trimWord(w string) string {
	return strings.Trim(w, ",.;()")
}
