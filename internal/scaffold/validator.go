package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CheckExisting checks if any of the files init would create already exist
// in dir. Returns an error naming them if so, nil otherwise.
func CheckExisting(dir string) error {
	var existingFiles []string

	for _, file := range Files {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(file.Path))); err == nil {
			existingFiles = append(existingFiles, file.Path)
		}
	}

	if len(existingFiles) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("project already initialized\n\nFound existing")
	if len(existingFiles) == 1 {
		fmt.Fprintf(&b, ": %s\n", existingFiles[0])
	} else {
		b.WriteString(" files:\n")
		for _, file := range existingFiles {
			fmt.Fprintf(&b, "  - %s\n", file)
		}
	}
	b.WriteString("\nUse 'tasklint init --force' to reinitialize (this will overwrite these files)")

	return fmt.Errorf("%s", b.String())
}
