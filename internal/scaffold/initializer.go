package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/tasklint/internal/adr"
	"github.com/dyluth/tasklint/internal/config"
	"github.com/dyluth/tasklint/internal/taskstate"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string // Relative to the project directory
	Template    string
	Permissions os.FileMode
}

// Files lists what init creates, in creation order.
var Files = []FileInfo{
	{Path: config.FileNames[0], Template: "templates/tasklint.yml.tmpl", Permissions: 0644},
	{Path: config.DefaultStateFile, Template: "templates/tasks_state.yaml.tmpl", Permissions: 0644},
	{Path: config.DefaultTasksFile, Template: "templates/tasks.yaml.tmpl", Permissions: 0644},
	{Path: config.DefaultDecisionsFile, Template: "templates/decisions.md.tmpl", Permissions: 0644},
}

// Initialize writes the starter files into dir and validates them.
// Without force, existing files are never overwritten (see CheckExisting).
// Returns the relative paths written.
func Initialize(dir string, force bool) ([]string, error) {
	if !force {
		if err := CheckExisting(dir); err != nil {
			return nil, err
		}
	}

	var created []string
	for _, file := range Files {
		content, err := templatesFS.ReadFile(file.Template)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s template: %w", file.Path, err)
		}

		path := filepath.Join(dir, filepath.FromSlash(file.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, content, file.Permissions); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
		created = append(created, file.Path)
	}

	if err := validateCreatedFiles(dir); err != nil {
		return nil, err
	}

	return created, nil
}

// validateCreatedFiles checks that the starter files pass every check the
// tool runs, so a fresh project starts clean.
func validateCreatedFiles(dir string) error {
	cfg, err := config.Load(filepath.Join(dir, config.FileNames[0]))
	if err != nil {
		return fmt.Errorf("created %s is invalid: %w", config.FileNames[0], err)
	}

	plan, err := taskstate.LoadPlan(filepath.Join(dir, cfg.TasksFile), cfg.Schema.PlanSections)
	if err != nil {
		return fmt.Errorf("created %s is invalid: %w", cfg.TasksFile, err)
	}

	linter := &taskstate.Linter{Schema: cfg.TaskSchema(), Plan: plan}
	result, err := linter.LintFile(filepath.Join(dir, cfg.StateFile))
	if err != nil {
		return err
	}
	if !result.Valid() {
		return fmt.Errorf("created %s is invalid: %s", cfg.StateFile, result.Violations[0])
	}

	decisions, err := os.ReadFile(filepath.Join(dir, cfg.DecisionsFile))
	if err != nil {
		return fmt.Errorf("failed to read created %s: %w", cfg.DecisionsFile, err)
	}
	if problems := adr.Check(adr.Parse(decisions)); len(problems) > 0 {
		return fmt.Errorf("created %s is invalid: %s", cfg.DecisionsFile, problems[0])
	}

	return nil
}
