package adr

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPreamble starts a log that does not exist yet.
const DefaultPreamble = "# Decision Log\n\nAppend-only. Add new entries at the end; never edit or remove existing ones.\n"

// ErrOutOfOrder is returned by Append when the new entry is dated before
// the last entry in the log.
var ErrOutOfOrder = errors.New("entry is dated before the last entry")

// NewEntry describes an entry to append.
type NewEntry struct {
	// Date defaults to today when zero.
	Date  time.Time
	Title string
	Body  string
}

// Render formats the entry as it will appear in the log.
func (n NewEntry) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s: %s\n", n.Date.Format(DateLayout), strings.TrimSpace(n.Title))
	if body := strings.TrimSpace(n.Body); body != "" {
		fmt.Fprintf(&b, "\n%s\n", body)
	}
	return b.String()
}

// Append adds an entry to the end of the log at path and rewrites the file
// atomically. A missing file is created with DefaultPreamble. Existing
// content is kept as is apart from trailing blank lines.
func Append(path string, entry NewEntry, now time.Time) (Entry, error) {
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		return Entry{}, fmt.Errorf("entry title is required")
	}
	if strings.ContainsAny(title, "\r\n") {
		return Entry{}, fmt.Errorf("entry title must be a single line")
	}
	entry.Title = title
	if entry.Date.IsZero() {
		entry.Date = now
	}
	entry.Date = time.Date(entry.Date.Year(), entry.Date.Month(), entry.Date.Day(), 0, 0, 0, 0, time.UTC)

	var existing []byte
	perm := os.FileMode(0o644)
	info, err := os.Stat(path)
	switch {
	case err == nil:
		perm = info.Mode().Perm()
		if existing, err = os.ReadFile(path); err != nil {
			return Entry{}, fmt.Errorf("failed to read decision log: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		existing = []byte(DefaultPreamble)
	default:
		return Entry{}, fmt.Errorf("failed to read decision log: %w", err)
	}

	if last, ok := Parse(existing).Last(); ok && !last.Date.IsZero() && entry.Date.Before(last.Date) {
		return Entry{}, fmt.Errorf("%s is before %s ('%s'): %w",
			entry.Date.Format(DateLayout), last.Date.Format(DateLayout), last.Label(), ErrOutOfOrder)
	}

	content := strings.TrimRight(string(existing), "\r\n")
	if content != "" {
		content += "\n\n"
	}
	content += entry.Render()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Entry{}, fmt.Errorf("failed to create directory for decision log: %w", err)
	}
	if err := writeFileAtomic(path, []byte(content), perm); err != nil {
		return Entry{}, fmt.Errorf("failed to write decision log: %w", err)
	}

	written, _ := Parse([]byte(content)).Last()
	return written, nil
}

// Filter returns the entries dated within [since, until]. A zero bound is
// open. Entries with an unparseable date are excluded when any bound is set.
func Filter(entries []Entry, since, until time.Time) []Entry {
	if since.IsZero() && until.IsZero() {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if e.Date.IsZero() {
			continue
		}
		if !since.IsZero() && e.Date.Before(truncateDay(since)) {
			continue
		}
		if !until.IsZero() && e.Date.After(until) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// truncateDay drops the time of day so a relative --since like "7d"
// includes the whole first day.
func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// writeFileAtomic replaces path via a temp file in the same directory so
// readers never see a partial log.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
