package adr

import (
	"fmt"
	"time"
)

// Problem is a single finding against the decision log.
type Problem struct {
	// Line is the 1-based line in the current log, or 0 if the problem has
	// no position there (e.g. a removed entry).
	Line    int
	Message string
}

func (p Problem) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("line %d: %s", p.Line, p.Message)
	}
	return p.Message
}

// Check validates entry headings: each needs a parseable date and a title,
// and dates must not go backwards.
func Check(log *Log) []Problem {
	var problems []Problem
	var previous time.Time

	for _, e := range log.Entries {
		if e.Title == "" {
			if e.DateText == e.Heading {
				problems = append(problems, Problem{e.Line,
					fmt.Sprintf("heading '%s' must have the form 'YYYY-MM-DD: Title'", e.Heading)})
			} else {
				problems = append(problems, Problem{e.Line,
					fmt.Sprintf("entry dated '%s' has no title", e.DateText)})
			}
		}

		if e.Date.IsZero() {
			// A heading without a colon is already reported above
			if e.DateText != e.Heading || e.Title != "" {
				problems = append(problems, Problem{e.Line,
					fmt.Sprintf("entry date '%s' is not a valid YYYY-MM-DD date", e.DateText)})
			}
			continue
		}

		if !previous.IsZero() && e.Date.Before(previous) {
			problems = append(problems, Problem{e.Line,
				fmt.Sprintf("entry '%s' (%s) is dated before the previous entry (%s)",
					e.Label(), e.Date.Format(DateLayout), previous.Format(DateLayout))})
		}
		previous = e.Date
	}

	return problems
}

// CheckAppendOnly compares a previous version of the log with the current
// one. Every previous entry must still be present, unchanged and in the same
// position; only new entries after them are allowed. The preamble is free
// to change.
func CheckAppendOnly(previous, current *Log) []Problem {
	var problems []Problem

	for i, old := range previous.Entries {
		if i >= len(current.Entries) {
			problems = append(problems, Problem{0,
				fmt.Sprintf("entry '%s' (line %d in the previous version) was removed", old.Label(), old.Line)})
			continue
		}

		cur := current.Entries[i]
		switch {
		case cur.sameAs(old):
		case old.Heading != cur.Heading:
			problems = append(problems, Problem{cur.Line,
				fmt.Sprintf("entry '%s' was replaced by '%s'; existing entries must not change", old.Heading, cur.Heading)})
		default:
			problems = append(problems, Problem{cur.Line,
				fmt.Sprintf("entry '%s' was modified; existing entries must not change", old.Label())})
		}
	}

	return problems
}
