package taskstate

import (
	"fmt"
	"sort"
)

// Kind names the rule a violation breaks.
type Kind string

const (
	KindMalformedInput  Kind = "MalformedInput"
	KindDuplicateKey    Kind = "DuplicateKey"
	KindInvalidStatus   Kind = "InvalidStatus"
	KindMissingField    Kind = "MissingField"
	KindSchemaVersion   Kind = "SchemaVersion"
	KindFieldConstraint Kind = "FieldConstraint"
	KindMissingEntry    Kind = "MissingEntry"
	KindInactiveTask    Kind = "InactiveTask"
	KindSchemaViolation Kind = "SchemaViolation"
)

// Violation is a single diagnostic against the task-state file.
type Violation struct {
	Kind Kind
	// Task is the offending task identifier, empty for file-level problems.
	Task string
	// Line is the 1-based source line the violation is anchored to, or 0
	// when it has no position in the file (e.g. a missing entry).
	Line    int
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Kind, v.Message)
}

// Result is the outcome of validating one task-state file.
type Result struct {
	// File is the name used in diagnostics.
	File       string
	Tasks      int
	Violations []Violation
	Warnings   []string
}

// Valid reports whether no violation was found. Warnings do not count.
func (r *Result) Valid() bool {
	return len(r.Violations) == 0
}

// Count returns the number of violations of the given kind.
func (r *Result) Count(kind Kind) int {
	n := 0
	for _, v := range r.Violations {
		if v.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Result) add(kind Kind, task string, line int, format string, a ...any) {
	r.Violations = append(r.Violations, Violation{
		Kind:    kind,
		Task:    task,
		Line:    line,
		Message: fmt.Sprintf(format, a...),
	})
}

func (r *Result) warn(format string, a ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, a...))
}

// sortViolations puts violations into file order. The sort is stable, so
// violations sharing a line keep the order they were found in, and
// positionless violations keep their relative order at the end.
func (r *Result) sortViolations() {
	sort.SliceStable(r.Violations, func(i, j int) bool {
		li, lj := r.Violations[i].Line, r.Violations[j].Line
		if li == 0 || lj == 0 {
			return li != 0 && lj == 0
		}
		return li < lj
	})
}

// IOError reports that the task-state file could not be read. No validation
// is possible without the input, so it halts the check.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("IOFailure: cannot read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
