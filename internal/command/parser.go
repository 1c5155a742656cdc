package command

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

var (
	emailPattern    = regexp.MustCompile(`[\w.-]+@[\w.-]+`)
	durationPattern = regexp.MustCompile(`for (\d+)`)
)

// Parser turns one line of free text into an Intent. It is stateless and
// safe for concurrent use.
type Parser struct {
	dialect Dialect
	rules   []Rule
}

// NewParser creates a parser for dialect.
func NewParser(dialect Dialect) *Parser {
	rules := slices.Clone(dialect.Rules)
	for i := range rules {
		rules[i].Keyword = cases.Fold().String(rules[i].Keyword)
	}
	// Longest keyword first so a longer literal always wins over its prefix.
	slices.SortStableFunc(rules, func(a, b Rule) int {
		return cmp.Compare(len(b.Keyword), len(a.Keyword))
	})
	return &Parser{dialect: dialect, rules: rules}
}

// Dialect returns the dialect the parser was built with.
func (p *Parser) Dialect() Dialect {
	return p.dialect
}

// Parse never fails. Input that matches no rule becomes an UnknownIntent.
func (p *Parser) Parse(text string) Intent {
	input := strings.TrimLeftFunc(text, unicode.IsSpace)
	trimmed := strings.TrimRightFunc(input, unicode.IsSpace)
	folded := cases.Fold().String(trimmed)

	for _, r := range p.rules {
		if !r.Prefix {
			if folded == r.Keyword {
				return build(r.Kind, "", text)
			}
			continue
		}
		if rest, ok := foldPrefix(input, r.Keyword); ok {
			return build(r.Kind, rest, text)
		}
	}

	return UnknownIntent{OriginalText: text}
}

func build(kind Kind, rest, original string) Intent {
	switch kind {
	case KindList:
		arg := strings.TrimSpace(rest)
		if arg == "" {
			return ListIntent{MaxResults: DefaultMaxResults}
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return UnknownIntent{OriginalText: original}
		}
		return ListIntent{MaxResults: n}

	case KindCreate:
		return CreateIntent{
			Summary:     ScheduledMeetingSummary,
			Description: rest,
			Attendees:   emailPattern.FindAllString(rest, -1),
			RawTimeText: rest,
		}

	case KindAutoSchedule:
		rest = strings.TrimRightFunc(rest, unicode.IsSpace)
		duration := DefaultDurationMinutes
		if m := durationPattern.FindStringSubmatch(rest); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				duration = n
			}
		}
		return AutoScheduleIntent{
			Summary:         rest,
			Description:     AutoScheduleDescriptionPrefix + rest,
			DurationMinutes: duration,
		}

	case KindDelete:
		return DeleteIntent{EventID: strings.TrimSpace(rest)}
	}

	return UnknownIntent{OriginalText: original}
}

// foldPrefix reports whether text starts with keyword under Unicode case
// folding, and returns the rest of text after the matched runes. Folding may
// change byte lengths, so the match is grown one rune at a time.
func foldPrefix(text, keyword string) (string, bool) {
	caser := cases.Fold()
	end := 0
	for end < len(text) {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size

		folded := caser.String(text[:end])
		if folded == keyword {
			return text[end:], true
		}
		if !strings.HasPrefix(keyword, folded) {
			return "", false
		}
	}
	return "", false
}
