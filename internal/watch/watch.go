package watch

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// DefaultInterval is how often files are checked for changes.
const DefaultInterval = time.Second

// Fingerprint identifies the content of a file at one point in time.
// A missing file has the zero fingerprint.
type Fingerprint struct {
	Exists bool
	Size   int64
	Sum    [sha256.Size]byte
}

// Snapshot fingerprints path. A missing file is not an error.
func Snapshot(path string) (Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Fingerprint{}, nil
		}
		return Fingerprint{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Fingerprint{Exists: true, Size: int64(len(data)), Sum: sha256.Sum256(data)}, nil
}

// ChangeFunc is called with the paths whose content changed since the last
// poll, in the order they were given. The first call, made once the
// baseline is recorded, has no changed paths. Returning an error stops
// polling.
type ChangeFunc func(changed []string) error

// PollForChange polls paths every interval until ctx is cancelled, calling
// fn once the starting content is recorded and again whenever any of them
// changes. A change made while the first fn call runs is still seen.
// Content is compared, not modification times, so rewriting a file with
// identical bytes does not trigger fn.
// Returns ctx.Err() on cancellation, or the first error from fn.
func PollForChange(ctx context.Context, paths []string, interval time.Duration, fn ChangeFunc) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	last := make(map[string]Fingerprint, len(paths))
	for _, path := range paths {
		fp, err := Snapshot(path)
		if err != nil {
			return err
		}
		last[path] = fp
	}

	if err := fn(nil); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			var changed []string
			for _, path := range paths {
				fp, err := Snapshot(path)
				if err != nil {
					// Transient read failures (e.g. mid-rename) are retried next tick
					continue
				}
				if fp != last[path] {
					last[path] = fp
					changed = append(changed, path)
				}
			}
			if len(changed) == 0 {
				continue
			}
			if err := fn(changed); err != nil {
				return err
			}
		}
	}
}
