package git

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotInRef is returned by ShowFile when the file does not exist at the
// requested revision.
var ErrNotInRef = errors.New("file does not exist at revision")

// Checker runs read-only Git queries in a working directory
type Checker struct {
	dir string
}

// NewChecker creates a Git checker for dir. An empty dir means the current
// directory.
func NewChecker(dir string) *Checker {
	return &Checker{dir: dir}
}

func (c *Checker) command(args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = c.dir
	return cmd
}

// IsGitRepository checks if the directory is within a Git repository
func (c *Checker) IsGitRepository() (bool, error) {
	err := c.command("rev-parse", "--git-dir").Run()
	if err != nil {
		// Check if error is because git command not found
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return false, fmt.Errorf("git not found in PATH\nInstall Git: https://git-scm.com/downloads")
		}
		// Not in a Git repository
		return false, nil
	}
	return true, nil
}

// ShowFile returns the content of path as it was at ref (e.g. "HEAD",
// "origin/main"). Relative paths are resolved against the checker's
// directory. Returns ErrNotInRef when the file is absent at that revision.
func (c *Checker) ShowFile(ref, path string) ([]byte, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty Git revision")
	}

	rel := path
	if filepath.IsAbs(path) {
		base := c.dir
		if base == "" {
			base = "."
		}
		absBase, err := filepath.Abs(base)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", base, err)
		}
		if rel, err = filepath.Rel(absBase, path); err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
	}

	// "./" makes git resolve the path relative to the working directory
	// rather than the repository root.
	spec := fmt.Sprintf("%s:./%s", ref, filepath.ToSlash(rel))

	var stderr bytes.Buffer
	cmd := c.command("show", spec)
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "does not exist in") || strings.Contains(msg, "exists on disk, but not in") {
			return nil, fmt.Errorf("%s at %s: %w", path, ref, ErrNotInRef)
		}
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("failed to read %s at %s: %s", path, ref, msg)
	}
	return output, nil
}

// IsWorkspaceClean returns true if path has no uncommitted changes.
// An empty path checks the whole working directory, including untracked files.
func (c *Checker) IsWorkspaceClean(path string) (bool, error) {
	args := []string{"status", "--porcelain"}
	if path != "" {
		args = append(args, "--", path)
	}
	output, err := c.command(args...).Output()
	if err != nil {
		return false, fmt.Errorf("failed to check Git status: %w", err)
	}
	return len(strings.TrimSpace(string(output))) == 0, nil
}
