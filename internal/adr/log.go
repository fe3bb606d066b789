// Package adr reads and maintains the append-only decision log.
//
// The log is a Markdown file. Each entry starts with a level-2 heading of
// the form "## YYYY-MM-DD: Title" and runs until the next such heading.
// Anything above the first entry is preamble and may change freely; entries
// may only ever be appended.
package adr

import (
	"bufio"
	"bytes"
	"strings"
	"time"
)

// DateLayout is the format of an entry date.
const DateLayout = time.DateOnly

// Entry is one decision in the log.
type Entry struct {
	// Heading is the heading text without the "## " marker.
	Heading string
	// DateText and Title are Heading split at the first colon. DateText
	// holds the whole heading when it has no colon.
	DateText string
	Title    string
	// Date is zero when DateText does not parse.
	Date time.Time
	// Body is the text between this heading and the next, with trailing
	// blank lines removed.
	Body string
	// Line is the 1-based line of the heading.
	Line int
}

// Label names the entry in diagnostics.
func (e Entry) Label() string {
	if e.Title != "" {
		return e.Title
	}
	return e.Heading
}

func (e Entry) sameAs(other Entry) bool {
	return strings.TrimSpace(e.Heading) == strings.TrimSpace(other.Heading) &&
		e.Body == other.Body
}

// Log is a parsed decision log.
type Log struct {
	Preamble string
	Entries  []Entry
}

// Last returns the final entry, if any.
func (l *Log) Last() (Entry, bool) {
	if len(l.Entries) == 0 {
		return Entry{}, false
	}
	return l.Entries[len(l.Entries)-1], true
}

// Parse splits data into preamble and entries. Level-2 headings inside
// fenced code blocks are body text, not entries. Parsing never fails;
// malformed headings are reported by Check.
func Parse(data []byte) *Log {
	log := &Log{}

	var (
		current *Entry
		body    []string
		pre     []string
		fence   string
		lineNo  int
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimRight(strings.Join(body, "\n"), " \t\n")
		log.Entries = append(log.Entries, *current)
		body = nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if marker := fenceMarker(line); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case strings.HasPrefix(marker, fence):
				fence = ""
			}
		} else if fence == "" {
			if heading, ok := entryHeading(line); ok {
				flush()
				current = newEntry(heading, lineNo)
				continue
			}
		}

		if current == nil {
			pre = append(pre, line)
		} else {
			body = append(body, line)
		}
	}
	flush()

	log.Preamble = strings.Join(pre, "\n")
	return log
}

func newEntry(heading string, line int) *Entry {
	e := &Entry{Heading: heading, Line: line}
	dateText, title, found := strings.Cut(heading, ":")
	e.DateText = strings.TrimSpace(dateText)
	if found {
		e.Title = strings.TrimSpace(title)
	}
	if t, err := time.Parse(DateLayout, e.DateText); err == nil {
		e.Date = t
	}
	return e
}

// entryHeading reports whether line is a level-2 ATX heading and returns
// its text.
func entryHeading(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return "", false
	}
	rest, ok := strings.CutPrefix(trimmed, "##")
	if !ok || strings.HasPrefix(rest, "#") {
		return "", false
	}
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	text := strings.TrimSpace(rest)
	// Optional closing sequence
	text = strings.TrimSpace(strings.TrimRight(text, "#"))
	return text, true
}

// fenceMarker returns the run of backticks or tildes opening or closing a
// fenced code block, or "" if line is not a fence.
func fenceMarker(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return ""
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return ""
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return ""
	}
	return trimmed[:n]
}
