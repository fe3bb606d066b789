package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/tasklint/internal/filter"
	"github.com/dyluth/tasklint/internal/printer"
	"github.com/dyluth/tasklint/internal/report"
	"github.com/dyluth/tasklint/internal/taskstate"
	"github.com/dyluth/tasklint/internal/timespec"
)

var (
	statusFilter []string
	statusOwner  string
	statusIDGlob string
	statusSince  string
	statusUntil  string
)

var statusCmd = &cobra.Command{
	Use:   "status [FILE]",
	Short: "Show tasks from the task-state file",
	Long: `Show the tasks recorded in the task-state file as a table.

Filters are ANDed together. Records that fail validation are still listed
where their shape allows; run 'tasklint lint' for the full diagnosis.

Examples:
  # Everything in review or blocked
  tasklint status --status in_review --status blocked

  # One owner's tasks updated in the last week
  tasklint status --owner alice --since 7d`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringSliceVarP(&statusFilter, "status", "s", nil, "Only show tasks with this status (repeatable)")
	statusCmd.Flags().StringVar(&statusOwner, "owner", "", "Only show tasks with this owner")
	statusCmd.Flags().StringVar(&statusIDGlob, "id", "", "Only show tasks whose ID matches this glob (e.g. 'T-1*')")
	statusCmd.Flags().StringVar(&statusSince, "since", "", "Only show tasks updated at or after this time (e.g. '7d', '2025-10-29')")
	statusCmd.Flags().StringVar(&statusUntil, "until", "", "Only show tasks updated at or before this time")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	schema := cfg.TaskSchema()
	for _, s := range statusFilter {
		if !schema.IsValidStatus(s) {
			return fail(ExitError, fmt.Sprintf("unknown status '%s'", s),
				fmt.Sprintf("Recognized statuses: %v", schema.Statuses), nil)
		}
	}

	since, until, err := timespec.ParseRange(statusSince, statusUntil, time.Now())
	if err != nil {
		return fail(ExitError, "invalid time range", err.Error(), nil)
	}

	criteria := &filter.Criteria{
		Statuses:     statusFilter,
		Owner:        statusOwner,
		IDGlob:       statusIDGlob,
		UpdatedSince: since,
		UpdatedUntil: until,
	}

	path := targetFile(args, cfg.StateFile)
	doc, err := taskstate.LoadFile(path)
	if err != nil {
		var ioErr *taskstate.IOError
		if errors.As(err, &ioErr) {
			return failWithContext(ExitError, "IOFailure", fmt.Sprintf("Cannot read %s: %v", path, ioErr.Err),
				map[string]string{"State file": path}, nil)
		}
		return failWithContext(ExitError, "MalformedInput", err.Error(),
			map[string]string{"State file": path},
			[]string{"Run 'tasklint lint' for details."})
	}

	all := doc.Records()
	records := criteria.Apply(all)
	logger.Debug("filtered tasks", "total", len(all), "shown", len(records), "filtered", criteria.HasFilters())

	if _, err := report.FormatTaskTable(printer.Out(), records); err != nil {
		return fail(ExitError, "failed to write task table", err.Error(), nil)
	}
	if len(records) > 0 {
		printer.Info("%s\n", report.StatusCounts(records, schema.Statuses))
	}

	if result := taskstate.Validate(doc, schema); !result.Valid() {
		printer.Warning("%s has %d violation(s); run 'tasklint lint' for details\n", path, len(result.Violations))
	}
	return nil
}
