package adr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `# Decision Log

Some preamble.

## 2026-09-01: Use YAML for task state

The task-state file is YAML.

` + "```markdown" + `
## 2026-01-01: not an entry
` + "```" + `

## 2026-09-15: Keep decisions append-only
Never rewrite history.
`

func TestParse(t *testing.T) {
	log := Parse([]byte(sampleLog))

	assert.Equal(t, "# Decision Log\n\nSome preamble.\n", log.Preamble)
	require.Len(t, log.Entries, 2)

	first := log.Entries[0]
	assert.Equal(t, 5, first.Line)
	assert.Equal(t, "2026-09-01", first.DateText)
	assert.Equal(t, "Use YAML for task state", first.Title)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Contains(t, first.Body, "The task-state file is YAML.")
	assert.Contains(t, first.Body, "## 2026-01-01: not an entry")
	assert.False(t, strings.HasSuffix(first.Body, "\n"))

	second := log.Entries[1]
	assert.Equal(t, 13, second.Line)
	assert.Equal(t, "Keep decisions append-only", second.Title)
	assert.Equal(t, "Never rewrite history.", second.Body)

	last, ok := log.Last()
	require.True(t, ok)
	assert.Equal(t, second, last)
}

func TestParseHeadings(t *testing.T) {
	tests := []struct {
		line    string
		heading string
		entry   bool
	}{
		{"## 2026-01-01: Title", "2026-01-01: Title", true},
		{"##   2026-01-01: Title ##", "2026-01-01: Title", true},
		{"   ## indented", "indented", true},
		{"    ## code block", "", false},
		{"### 2026-01-01: Deeper", "", false},
		{"# Top", "", false},
		{"##NoSpace", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			heading, ok := entryHeading(tt.line)
			assert.Equal(t, tt.entry, ok)
			if tt.entry {
				assert.Equal(t, tt.heading, heading)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	log := Parse(nil)
	assert.Empty(t, log.Entries)
	_, ok := log.Last()
	assert.False(t, ok)
}

func TestCheck(t *testing.T) {
	t.Run("valid log", func(t *testing.T) {
		assert.Empty(t, Check(Parse([]byte(sampleLog))))
	})

	t.Run("same-day entries are allowed", func(t *testing.T) {
		log := Parse([]byte("## 2026-09-01: A\n## 2026-09-01: B\n"))
		assert.Empty(t, Check(log))
	})

	t.Run("problems", func(t *testing.T) {
		data := strings.Join([]string{
			"## 2026-09-10: First",
			"## 2026-09-01: Goes backwards",
			"## 2026-13-01: Bad month",
			"## 2026-09-20:",
			"## No date at all",
		}, "\n")
		problems := Check(Parse([]byte(data)))
		require.Len(t, problems, 4)

		assert.Equal(t, 2, problems[0].Line)
		assert.Contains(t, problems[0].Message, "is dated before the previous entry (2026-09-10)")
		assert.Equal(t, 3, problems[1].Line)
		assert.Contains(t, problems[1].Message, "entry date '2026-13-01' is not a valid")
		assert.Equal(t, 4, problems[2].Line)
		assert.Contains(t, problems[2].Message, "has no title")
		assert.Equal(t, 5, problems[3].Line)
		assert.Contains(t, problems[3].Message, "must have the form 'YYYY-MM-DD: Title'")
		assert.Equal(t, "line 5: "+problems[3].Message, problems[3].String())
	})
}

func TestCheckAppendOnly(t *testing.T) {
	previous := Parse([]byte(sampleLog))

	t.Run("appended entry passes", func(t *testing.T) {
		current := Parse([]byte(sampleLog + "\n## 2026-10-01: New decision\n\nBody.\n"))
		assert.Empty(t, CheckAppendOnly(previous, current))
	})

	t.Run("preamble edits pass", func(t *testing.T) {
		current := Parse([]byte(strings.Replace(sampleLog, "Some preamble.", "Changed preamble.", 1)))
		assert.Empty(t, CheckAppendOnly(previous, current))
	})

	t.Run("trailing blank lines are ignored", func(t *testing.T) {
		current := Parse([]byte(sampleLog + "\n\n\n"))
		assert.Empty(t, CheckAppendOnly(previous, current))
	})

	t.Run("modified body", func(t *testing.T) {
		current := Parse([]byte(strings.Replace(sampleLog, "Never rewrite history.", "Rewrite at will.", 1)))
		problems := CheckAppendOnly(previous, current)
		require.Len(t, problems, 1)
		assert.Equal(t, 13, problems[0].Line)
		assert.Contains(t, problems[0].Message, "entry 'Keep decisions append-only' was modified")
	})

	t.Run("changed heading", func(t *testing.T) {
		current := Parse([]byte(strings.Replace(sampleLog, "Use YAML for task state", "Use JSON", 1)))
		problems := CheckAppendOnly(previous, current)
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0].Message, "was replaced by '2026-09-01: Use JSON'")
	})

	t.Run("removed entry", func(t *testing.T) {
		idx := strings.Index(sampleLog, "## 2026-09-15")
		current := Parse([]byte(sampleLog[:idx]))
		problems := CheckAppendOnly(previous, current)
		require.Len(t, problems, 1)
		assert.Equal(t, 0, problems[0].Line)
		assert.Contains(t, problems[0].Message, "'Keep decisions append-only' (line 13 in the previous version) was removed")
	})

	t.Run("new log passes against empty history", func(t *testing.T) {
		assert.Empty(t, CheckAppendOnly(&Log{}, previous))
	})
}

func TestAppend(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)

	t.Run("creates missing log", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "agents", "decisions.md")

		entry, err := Append(path, NewEntry{Title: "First decision", Body: "Because."}, now)
		require.NoError(t, err)
		assert.Equal(t, "First decision", entry.Title)
		assert.Equal(t, "2026-10-19", entry.DateText)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), DefaultPreamble))
		assert.True(t, strings.HasSuffix(string(data), "## 2026-10-19: First decision\n\nBecause.\n"))
		assert.Empty(t, Check(Parse(data)))
	})

	t.Run("appends without touching existing entries", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "decisions.md")
		require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0o600))
		previous := Parse([]byte(sampleLog))

		_, err := Append(path, NewEntry{Title: "Third", Date: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)}, now)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		current := Parse(data)
		require.Len(t, current.Entries, 3)
		assert.Empty(t, CheckAppendOnly(previous, current))
		assert.Equal(t, "", current.Entries[2].Body)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		// No temp files left behind
		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("refuses out-of-order date", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "decisions.md")
		require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0o644))

		_, err := Append(path, NewEntry{Title: "Late", Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)}, now)
		require.ErrorIs(t, err, ErrOutOfOrder)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, sampleLog, string(data))
	})

	t.Run("rejects bad titles", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "decisions.md")
		_, err := Append(path, NewEntry{Title: "  "}, now)
		assert.Error(t, err)
		_, err = Append(path, NewEntry{Title: "two\nlines"}, now)
		assert.Error(t, err)
		assert.NoFileExists(t, path)
	})
}

func TestFilter(t *testing.T) {
	log := Parse([]byte(sampleLog + "\n## not-a-date: Odd\n"))
	require.Len(t, log.Entries, 3)

	assert.Len(t, Filter(log.Entries, time.Time{}, time.Time{}), 3)

	got := Filter(log.Entries, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), time.Time{})
	require.Len(t, got, 1)
	assert.Equal(t, "Keep decisions append-only", got[0].Title)

	got = Filter(log.Entries, time.Time{}, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, got, 1)
	assert.Equal(t, "Use YAML for task state", got[0].Title)

	// A since bound with a time of day still includes that whole day
	got = Filter(log.Entries, time.Date(2026, 9, 15, 18, 0, 0, 0, time.UTC), time.Time{})
	assert.Len(t, got, 1)
}
