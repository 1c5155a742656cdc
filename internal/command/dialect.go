package command

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Kind is the operation a keyword selects.
type Kind int

const (
	KindList Kind = iota
	KindCreate
	KindAutoSchedule
	KindDelete
)

// Rule maps a keyword to an operation. Exact rules match the whole trimmed
// input. Prefix rules match the start of the input and include their trailing
// space, so "auto" on its own is not an auto-schedule command.
type Rule struct {
	Keyword string
	Kind    Kind
	Prefix  bool
}

// Dialect is a keyword table for one client style.
type Dialect struct {
	Name      string
	Rules     []Rule
	ExitWords []string
}

// Menu is the numbered-menu dialect. Every command has a numeric alias and
// "5" exits.
var Menu = Dialect{
	Name: "menu",
	Rules: []Rule{
		{Keyword: "list", Kind: KindList},
		{Keyword: "1", Kind: KindList},
		{Keyword: "list ", Kind: KindList, Prefix: true},
		{Keyword: "schedule ", Kind: KindCreate, Prefix: true},
		{Keyword: "2 ", Kind: KindCreate, Prefix: true},
		{Keyword: "auto ", Kind: KindAutoSchedule, Prefix: true},
		{Keyword: "3 ", Kind: KindAutoSchedule, Prefix: true},
		{Keyword: "delete ", Kind: KindDelete, Prefix: true},
		{Keyword: "4 ", Kind: KindDelete, Prefix: true},
	},
	ExitWords: []string{"quit", "exit", "5"},
}

// Agent is the conversational dialect. It has no delete command and no
// numeric aliases.
var Agent = Dialect{
	Name: "agent",
	Rules: []Rule{
		{Keyword: "list", Kind: KindList},
		{Keyword: "list ", Kind: KindList, Prefix: true},
		{Keyword: "schedule ", Kind: KindCreate, Prefix: true},
		{Keyword: "auto ", Kind: KindAutoSchedule, Prefix: true},
	},
	ExitWords: []string{"quit"},
}

// Dialects lists the built-in dialects by name.
var Dialects = map[string]Dialect{
	Menu.Name:  Menu,
	Agent.Name: Agent,
}

// DialectByName looks up a built-in dialect.
func DialectByName(name string) (Dialect, error) {
	d, ok := Dialects[strings.ToLower(name)]
	if !ok {
		names := make([]string, 0, len(Dialects))
		for n := range Dialects {
			names = append(names, n)
		}
		slices.Sort(names)
		return Dialect{}, fmt.Errorf("unknown dialect %q (available: %s)", name, strings.Join(names, ", "))
	}
	return d, nil
}

// IsExit reports whether text is one of the dialect's exit words.
func (d Dialect) IsExit(text string) bool {
	folded := cases.Fold().String(strings.TrimSpace(text))
	for _, w := range d.ExitWords {
		if folded == w {
			return true
		}
	}
	return false
}

// Help returns a short usage text for the dialect.
func (d Dialect) Help() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, r := range d.Rules {
		var usage string
		switch r.Kind {
		case KindList:
			if r.Prefix {
				usage = "<n>"
			}
		case KindCreate:
			usage = "<time and attendee emails>"
		case KindAutoSchedule:
			usage = "<title> [for <minutes>]"
		case KindDelete:
			usage = "<event id>"
		}
		fmt.Fprintf(&b, "  %s%s\n", r.Keyword, usage)
	}
	fmt.Fprintf(&b, "  %s\n", strings.Join(d.ExitWords, " | "))
	return b.String()
}
