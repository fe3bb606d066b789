package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/dyluth/tasklint/internal/adr"
)

// FormatDecisionTable writes decision log entries as a table with columns
// DATE, TITLE, and LINE. Returns the number of entries formatted.
func FormatDecisionTable(w io.Writer, entries []adr.Entry) (int, error) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No decisions found")
		return 0, nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("DATE", "TITLE", "LINE")
	for _, e := range entries {
		if err := table.Append([]string{e.DateText, orDash(e.Title), strconv.Itoa(e.Line)}); err != nil {
			return 0, fmt.Errorf("failed to format decision table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return 0, fmt.Errorf("failed to render decision table: %w", err)
	}
	return len(entries), nil
}

// FormatProblems writes decision log problems as file:line: message, one
// per line. Problems without a line omit it.
func FormatProblems(w io.Writer, file string, problems []adr.Problem) error {
	for _, p := range problems {
		var err error
		if p.Line > 0 {
			_, err = fmt.Fprintf(w, "%s:%d: %s\n", file, p.Line, p.Message)
		} else {
			_, err = fmt.Fprintf(w, "%s: %s\n", file, p.Message)
		}
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
