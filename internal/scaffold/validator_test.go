package scaffold

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckExisting(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(t *testing.T, dir string)
		wantErr   bool
		errMsgs   []string
	}{
		{
			name:      "no existing files",
			setupFunc: func(t *testing.T, dir string) {},
			wantErr:   false,
		},
		{
			name: "unrelated agents/ content is fine",
			setupFunc: func(t *testing.T, dir string) {
				writeFile(t, filepath.Join(dir, "agents", "role.md"), "roles")
			},
			wantErr: false,
		},
		{
			name: "existing config only",
			setupFunc: func(t *testing.T, dir string) {
				writeFile(t, filepath.Join(dir, ".tasklint.yml"), "version: '1.0'")
			},
			wantErr: true,
			errMsgs: []string{"Found existing: .tasklint.yml"},
		},
		{
			name: "config and state file exist",
			setupFunc: func(t *testing.T, dir string) {
				writeFile(t, filepath.Join(dir, ".tasklint.yml"), "version: '1.0'")
				writeFile(t, filepath.Join(dir, "agents", "tasks_state.yaml"), "{}")
			},
			wantErr: true,
			errMsgs: []string{"  - .tasklint.yml\n", "  - agents/tasks_state.yaml\n", "tasklint init --force"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setupFunc(t, dir)

			err := CheckExisting(dir)

			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckExisting() error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, msg := range tt.errMsgs {
				if !strings.Contains(err.Error(), msg) {
					t.Errorf("CheckExisting() error = %q, want it to contain %q", err, msg)
				}
			}
		})
	}
}
