package taskstate

import "slices"

// DefaultSchemaVersion is the schema_version written by current tooling.
const DefaultSchemaVersion = 2

// Status values recognized by the default schema.
const (
	StatusTodo       = "todo"
	StatusReady      = "ready"
	StatusInProgress = "in_progress"
	StatusInReview   = "in_review"
	StatusBlocked    = "blocked"
	StatusDone       = "done"
)

// Field names with built-in rules.
const (
	FieldStatus      = "status"
	FieldOwner       = "owner"
	FieldDescription = "description"
	FieldPR          = "pr"
	FieldMerged      = "merged"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
)

// SchemaVersionKey is the reserved top-level key holding the file format version.
const SchemaVersionKey = "schema_version"

// Schema describes what a valid task-state file looks like.
type Schema struct {
	// Version is the expected schema_version. Zero disables the check.
	Version int
	// Statuses is the recognized status set, in display order.
	Statuses []string
	// RequiredFields must be present in every record.
	RequiredFields []string
	// NullPRStatuses are the statuses in which pr must be null.
	NullPRStatuses []string
	// MergedStatuses are the only statuses in which merged may be true.
	MergedStatuses []string
}

// DefaultSchema returns the built-in schema.
func DefaultSchema() Schema {
	return Schema{
		Version: DefaultSchemaVersion,
		Statuses: []string{
			StatusTodo, StatusReady, StatusInProgress,
			StatusInReview, StatusBlocked, StatusDone,
		},
		RequiredFields: []string{FieldStatus},
		NullPRStatuses: []string{StatusTodo, StatusReady},
		MergedStatuses: []string{StatusDone},
	}
}

// IsValidStatus reports whether status is in the recognized set.
func (s Schema) IsValidStatus(status string) bool {
	return slices.Contains(s.Statuses, status)
}

func (s Schema) requiresNullPR(status string) bool {
	return slices.Contains(s.NullPRStatuses, status)
}

func (s Schema) allowsMerged(status string) bool {
	return slices.Contains(s.MergedStatuses, status)
}
