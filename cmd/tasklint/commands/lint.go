package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cobra"

	"github.com/dyluth/tasklint/internal/printer"
	"github.com/dyluth/tasklint/internal/report"
	"github.com/dyluth/tasklint/internal/taskstate"
)

var (
	lintTasksFile  string
	lintJSONSchema string
	lintOutput     string
	lintStrict     bool
	lintNoPlan     bool
)

var lintCmd = &cobra.Command{
	Use:   "lint [FILE]",
	Short: "Validate the task-state file",
	Long: `Validate the task-state file against the configured schema.

Checks every record and reports all violations in file order:
  • MalformedInput  - unparseable YAML, non-mapping records, bad keys
  • DuplicateKey    - a task identifier defined more than once
  • InvalidStatus   - a status outside the recognized set
  • MissingField    - a required field is absent
  • SchemaVersion   - schema_version is wrong or not an integer
  • FieldConstraint - pr/merged/timestamp rules
  • MissingEntry    - an active task in the plan has no entry
  • InactiveTask    - an entry for a task the plan does not list
  • SchemaViolation - the optional JSON Schema rejects the file

The plan check runs when the tasks file exists (or --tasks is given).

Exit status: 0 valid, 1 violations (or warnings with --strict), 2 the file
could not be checked.

Examples:
  # Check the configured state file
  tasklint lint

  # Check another file, machine-readable
  tasklint lint agents/tasks_state.yaml --output=json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLint,
}

func init() {
	lintCmd.Flags().StringVar(&lintTasksFile, "tasks", "", "Task plan to cross-check active tasks against (default: configured tasks file if present)")
	lintCmd.Flags().StringVar(&lintJSONSchema, "json-schema", "", "JSON Schema to apply on top of the built-in checks")
	lintCmd.Flags().StringVarP(&lintOutput, "output", "o", "text", "Output format (text, json or jsonl)")
	lintCmd.Flags().BoolVar(&lintStrict, "strict", false, "Treat warnings as violations")
	lintCmd.Flags().BoolVar(&lintNoPlan, "no-plan", false, "Skip the task plan cross-check")
	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	format, err := report.ParseOutputFormat(lintOutput)
	if err != nil {
		return fail(ExitError, "invalid output format", err.Error(),
			[]string{"Valid formats: text, json, jsonl"})
	}

	linter, err := buildLinter()
	if err != nil {
		return err
	}

	path := targetFile(args, cfg.StateFile)
	result, err := lintFile(linter, path)
	if err != nil {
		return err
	}

	if err := report.Format(printer.Out(), result, format); err != nil {
		return fail(ExitError, "failed to write report", err.Error(), nil)
	}
	if format == report.OutputFormatText {
		printSummary(result)
	}

	return lintStatus(result)
}

// buildLinter assembles the schema, plan, and JSON Schema for a lint run.
func buildLinter() (*taskstate.Linter, error) {
	linter := &taskstate.Linter{Schema: cfg.TaskSchema()}

	plan, err := loadPlan()
	if err != nil {
		return nil, err
	}
	linter.Plan = plan

	schemaPath := lintJSONSchema
	if schemaPath == "" {
		schemaPath = cfg.JSONSchema
	}
	if schemaPath != "" {
		schema, err := compileJSONSchema(schemaPath)
		if err != nil {
			return nil, err
		}
		linter.JSONSchema = schema
	}

	return linter, nil
}

// loadPlan loads the task plan. An explicit --tasks file must exist; the
// configured default is optional.
func loadPlan() (*taskstate.Plan, error) {
	if lintNoPlan {
		logger.Debug("plan check disabled")
		return nil, nil
	}

	path := lintTasksFile
	if path == "" {
		path = cfg.TasksFile
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no task plan, skipping plan check", "path", path)
			return nil, nil
		}
	}

	plan, err := taskstate.LoadPlan(path, cfg.Schema.PlanSections)
	if err != nil {
		var ioErr *taskstate.IOError
		if errors.As(err, &ioErr) {
			return nil, failWithContext(ExitError, "IOFailure", fmt.Sprintf("Could not read the task plan: %v", ioErr.Err),
				map[string]string{"Tasks file": path},
				[]string{"Check the path, or run with --no-plan to skip the plan check."})
		}
		return nil, failWithContext(ExitError, "invalid task plan", err.Error(),
			map[string]string{"Tasks file": path},
			[]string{fmt.Sprintf("List active tasks under %v as items with an 'id'.", cfg.Schema.PlanSections)})
	}

	logger.Debug("loaded task plan", "path", path, "active", len(plan.Tasks))
	return plan, nil
}

func compileJSONSchema(path string) (*jsonschema.Schema, error) {
	schema, err := taskstate.CompileJSONSchema(path)
	if err != nil {
		return nil, failWithContext(ExitError, "invalid JSON schema", err.Error(),
			map[string]string{"JSON schema": path}, nil)
	}
	logger.Debug("compiled JSON schema", "path", path)
	return schema, nil
}

// lintFile runs the linter and turns an unreadable file into an exit-2 error.
func lintFile(linter *taskstate.Linter, path string) (*taskstate.Result, error) {
	logger.Debug("checking task-state file", "path", path)

	result, err := linter.LintFile(path)
	if err != nil {
		var ioErr *taskstate.IOError
		if errors.As(err, &ioErr) {
			suggestions := []string{"Check the path, or set state_file in .tasklint.yml."}
			if errors.Is(err, fs.ErrNotExist) {
				suggestions = []string{
					"Pass the file explicitly:\n  tasklint lint path/to/tasks_state.yaml",
					"Create a starter project:\n  tasklint init",
				}
			}
			return nil, failWithContext(ExitError, "IOFailure", fmt.Sprintf("Cannot read %s: %v", path, ioErr.Err),
				map[string]string{"State file": path}, suggestions)
		}
		return nil, fail(ExitError, "validation failed", err.Error(), nil)
	}

	logger.Debug("checked task-state file",
		"path", path,
		"tasks", result.Tasks,
		"violations", len(result.Violations),
		"warnings", len(result.Warnings))
	return result, nil
}

func printSummary(result *taskstate.Result) {
	if result.Valid() {
		printer.Success("%s\n", report.Summary(result))
	} else {
		printer.Failure("%s\n", report.Summary(result))
	}
}

// lintStatus maps a result to the command's exit status.
func lintStatus(result *taskstate.Result) error {
	if !result.Valid() {
		return &ExitCodeError{Code: ExitViolations}
	}
	if lintStrict && len(result.Warnings) > 0 {
		return &ExitCodeError{Code: ExitViolations}
	}
	return nil
}
