package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/dyluth/tasklint/internal/taskstate"
)

// OutputFormat specifies how to format a validation result.
type OutputFormat string

const (
	// OutputFormatText prints one diagnostic per line
	OutputFormatText OutputFormat = "text"

	// OutputFormatJSON prints the whole result as one pretty-printed object
	OutputFormatJSON OutputFormat = "json"

	// OutputFormatJSONL prints one JSON object per violation
	OutputFormatJSONL OutputFormat = "jsonl"
)

// ParseOutputFormat validates a --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputFormatText, OutputFormatJSON, OutputFormatJSONL:
		return f, nil
	case "":
		return OutputFormatText, nil
	default:
		return "", fmt.Errorf("unknown output format '%s' (must be 'text', 'json', or 'jsonl')", s)
	}
}

// Violation is the serialized form of a taskstate.Violation.
type Violation struct {
	File    string `json:"file,omitempty"`
	Kind    string `json:"kind"`
	Task    string `json:"task,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// Report is the serialized form of a taskstate.Result.
type Report struct {
	File       string      `json:"file"`
	Valid      bool        `json:"valid"`
	Tasks      int         `json:"tasks"`
	Violations []Violation `json:"violations"`
	Warnings   []string    `json:"warnings"`
}

// FromResult converts a result for serialization. Slices are never nil so
// JSON output always carries arrays.
func FromResult(result *taskstate.Result) Report {
	r := Report{
		File:       result.File,
		Valid:      result.Valid(),
		Tasks:      result.Tasks,
		Violations: make([]Violation, 0, len(result.Violations)),
		Warnings:   append([]string{}, result.Warnings...),
	}
	for _, v := range result.Violations {
		r.Violations = append(r.Violations, Violation{
			Kind:    string(v.Kind),
			Task:    v.Task,
			Line:    v.Line,
			Message: v.Message,
		})
	}
	return r
}

// Format writes result in the requested format.
func Format(w io.Writer, result *taskstate.Result, format OutputFormat) error {
	switch format {
	case OutputFormatJSON:
		return FormatJSON(w, result)
	case OutputFormatJSONL:
		return FormatJSONL(w, result)
	default:
		return FormatText(w, result)
	}
}

// FormatText writes one line per violation as file:line: Kind: message,
// then one line per warning. Positionless violations omit the line.
func FormatText(w io.Writer, result *taskstate.Result) error {
	for _, v := range result.Violations {
		var err error
		if v.Line > 0 {
			_, err = fmt.Fprintf(w, "%s:%d: %s: %s\n", result.File, v.Line, v.Kind, v.Message)
		} else {
			_, err = fmt.Fprintf(w, "%s: %s: %s\n", result.File, v.Kind, v.Message)
		}
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	for _, warning := range result.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", warning); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}

// Summary returns a one-line summary of result.
func Summary(result *taskstate.Result) string {
	tasks := plural(result.Tasks, "task", "tasks")
	if result.Valid() {
		return fmt.Sprintf("%s is valid (%s)", result.File, tasks)
	}
	return fmt.Sprintf("%s has %s (%s)", result.File,
		plural(len(result.Violations), "violation", "violations"), tasks)
}

// FormatJSON writes the result as a single pretty-printed JSON object.
func FormatJSON(w io.Writer, result *taskstate.Result) error {
	data, err := json.MarshalIndent(FromResult(result), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}

// FormatJSONL writes one violation per line as JSON. A valid result writes
// nothing, which keeps the output easy to pipe into jq.
func FormatJSONL(w io.Writer, result *taskstate.Result) error {
	for _, v := range FromResult(result).Violations {
		v.File = result.File
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal violation to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatTaskTable writes records as a table with columns ID, STATUS, OWNER,
// PR, MERGED, and UPDATED. Returns the number of records formatted.
func FormatTaskTable(w io.Writer, records []taskstate.Record) (int, error) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No tasks found")
		return 0, nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "STATUS", "OWNER", "PR", "MERGED", "UPDATED")
	for _, rec := range records {
		row := []string{
			rec.ID,
			orDash(rec.Status),
			orDash(rec.Owner),
			formatPR(rec.PR),
			formatMerged(rec.Merged),
			orDash(rec.UpdatedAt),
		}
		if err := table.Append(row); err != nil {
			return 0, fmt.Errorf("failed to format task table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return 0, fmt.Errorf("failed to render task table: %w", err)
	}
	return len(records), nil
}

// StatusCounts summarises records per status, in the order of statuses.
// Statuses outside that list follow in alphabetical order.
func StatusCounts(records []taskstate.Record, statuses []string) string {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[orDash(rec.Status)]++
	}

	var parts []string
	for _, status := range statuses {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}

	var unknown []string
	for status := range counts {
		if !slices.Contains(statuses, status) {
			unknown = append(unknown, status)
		}
	}
	sort.Strings(unknown)
	for _, status := range unknown {
		parts = append(parts, fmt.Sprintf("%d %s", counts[status], status))
	}

	return fmt.Sprintf("%s: %s", plural(len(records), "task", "tasks"), strings.Join(parts, ", "))
}

func formatPR(pr *int) string {
	if pr == nil {
		return "-"
	}
	return "#" + strconv.Itoa(*pr)
}

func formatMerged(merged *bool) string {
	if merged == nil {
		return "-"
	}
	if *merged {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
