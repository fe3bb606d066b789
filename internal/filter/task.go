package filter

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/dyluth/tasklint/internal/taskstate"
	"github.com/dyluth/tasklint/internal/timespec"
)

// Criteria defines filtering criteria for task records.
// All filters are ANDed together - a record must match ALL criteria to pass.
type Criteria struct {
	Statuses     []string  // Any of these statuses, empty = no filter
	Owner        string    // Exact match on owner, empty = no filter
	IDGlob       string    // Glob pattern for task ID, empty = no filter
	UpdatedSince time.Time // Lower bound on updated_at, zero = no filter
	UpdatedUntil time.Time // Upper bound on updated_at, zero = no filter
}

// Matches returns true if the record matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(rec taskstate.Record) bool {
	if len(c.Statuses) > 0 && !slices.Contains(c.Statuses, rec.Status) {
		return false
	}

	if c.Owner != "" && rec.Owner != c.Owner {
		return false
	}

	if c.IDGlob != "" {
		matched, err := filepath.Match(c.IDGlob, rec.ID)
		if err != nil || !matched {
			return false
		}
	}

	// Records without a usable updated_at never match a time filter
	if !c.UpdatedSince.IsZero() || !c.UpdatedUntil.IsZero() {
		updated, err := timespec.ParseTimestamp(rec.UpdatedAt)
		if err != nil {
			return false
		}
		if !c.UpdatedSince.IsZero() && updated.Before(c.UpdatedSince) {
			return false
		}
		if !c.UpdatedUntil.IsZero() && updated.After(c.UpdatedUntil) {
			return false
		}
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return len(c.Statuses) > 0 ||
		c.Owner != "" ||
		c.IDGlob != "" ||
		!c.UpdatedSince.IsZero() ||
		!c.UpdatedUntil.IsZero()
}

// Apply returns the records matching c, preserving order.
func (c *Criteria) Apply(records []taskstate.Record) []taskstate.Record {
	if !c.HasFilters() {
		return records
	}
	var out []taskstate.Record
	for _, rec := range records {
		if c.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}
