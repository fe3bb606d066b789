package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/tasklint/internal/adr"
	"github.com/dyluth/tasklint/internal/git"
	"github.com/dyluth/tasklint/internal/printer"
	"github.com/dyluth/tasklint/internal/report"
	"github.com/dyluth/tasklint/internal/timespec"
)

var (
	adrAgainst string
	adrSince   string
	adrUntil   string
	adrTitle   string
	adrBody    string
	adrDate    string
)

var adrCmd = &cobra.Command{
	Use:   "adr",
	Short: "Check, list and append decision log entries",
	Long: `Work with the append-only decision log.

Each entry starts with a heading '## YYYY-MM-DD: Title'. Entries are never
edited or removed once written; new ones go at the end.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var adrCheckCmd = &cobra.Command{
	Use:   "check [FILE]",
	Short: "Validate the decision log",
	Long: `Validate entry headings and date order. With --against, also verify that
every entry present at that Git revision is still there, unchanged and in
place.

Examples:
  # Check headings and dates
  tasklint adr check

  # In CI: nothing merged to main may be rewritten
  tasklint adr check --against origin/main`,
	Args: cobra.MaximumNArgs(1),
	RunE: runADRCheck,
}

var adrListCmd = &cobra.Command{
	Use:   "list [FILE]",
	Short: "List decision log entries",
	Long: `List decision log entries, optionally restricted to a date range.

Examples:
  tasklint adr list --since 30d
  tasklint adr list --since 2025-01-01 --until 2025-06-30`,
	Args: cobra.MaximumNArgs(1),
	RunE: runADRList,
}

var adrAppendCmd = &cobra.Command{
	Use:   "append [FILE]",
	Short: "Append an entry to the decision log",
	Long: `Append a new entry to the end of the decision log. The file is rewritten
atomically, and an entry dated before the last one is refused.

Examples:
  tasklint adr append --title "Use YAML for task state" --body "Agents edit it by hand."`,
	Args: cobra.MaximumNArgs(1),
	RunE: runADRAppend,
}

func init() {
	adrCheckCmd.Flags().StringVar(&adrAgainst, "against", "", "Git revision whose entries must be preserved (e.g. HEAD, origin/main)")

	adrListCmd.Flags().StringVar(&adrSince, "since", "", "Only show entries on or after this date (e.g. '30d', '2025-10-29')")
	adrListCmd.Flags().StringVar(&adrUntil, "until", "", "Only show entries on or before this date")

	adrAppendCmd.Flags().StringVarP(&adrTitle, "title", "t", "", "Entry title (required)")
	adrAppendCmd.Flags().StringVarP(&adrBody, "body", "b", "", "Entry body (Markdown)")
	adrAppendCmd.Flags().StringVar(&adrDate, "date", "", "Entry date as YYYY-MM-DD (default: today)")
	_ = adrAppendCmd.MarkFlagRequired("title")

	adrCmd.AddCommand(adrCheckCmd, adrListCmd, adrAppendCmd)
	rootCmd.AddCommand(adrCmd)
}

func runADRCheck(cmd *cobra.Command, args []string) error {
	path := targetFile(args, cfg.DecisionsFile)
	log, err := loadDecisionLog(path)
	if err != nil {
		return err
	}

	problems := adr.Check(log)

	if adrAgainst != "" {
		previous, err := decisionLogAt(adrAgainst, path)
		if err != nil {
			return err
		}
		problems = append(problems, adr.CheckAppendOnly(previous, log)...)
	}

	if err := report.FormatProblems(printer.Out(), path, problems); err != nil {
		return fail(ExitError, "failed to write report", err.Error(), nil)
	}

	entries := len(log.Entries)
	if len(problems) > 0 {
		printer.Failure("%s has %d problem(s) (%d entries)\n", path, len(problems), entries)
		return &ExitCodeError{Code: ExitViolations}
	}
	printer.Success("%s is valid (%d entries)\n", path, entries)
	return nil
}

// decisionLogAt reads the log as it was at ref. A log that did not exist
// at that revision has no entries to preserve.
func decisionLogAt(ref, path string) (*adr.Log, error) {
	checker := git.NewChecker("")
	isRepo, err := checker.IsGitRepository()
	if err != nil {
		return nil, fail(ExitError, "git unavailable", err.Error(), nil)
	}
	if !isRepo {
		return nil, fail(ExitError, "not a Git repository",
			"--against needs the decision log's Git history.",
			[]string{"Run from inside the repository, or drop --against."})
	}

	if clean, err := checker.IsWorkspaceClean(path); err != nil {
		logger.Debug("cannot check decision log status", "err", err)
	} else if !clean {
		printer.Warning("%s has uncommitted changes; checking the working copy against %s\n", path, ref)
	}

	data, err := checker.ShowFile(ref, path)
	if err != nil {
		if errors.Is(err, git.ErrNotInRef) {
			logger.Debug("decision log is new at revision", "ref", ref, "path", path)
			return &adr.Log{}, nil
		}
		return nil, failWithContext(ExitError, "cannot read previous decision log", err.Error(),
			map[string]string{"Revision": ref, "Decision log": path}, nil)
	}
	logger.Debug("loaded decision log at revision", "ref", ref, "bytes", len(data))
	return adr.Parse(data), nil
}

func runADRList(cmd *cobra.Command, args []string) error {
	since, until, err := timespec.ParseRange(adrSince, adrUntil, time.Now())
	if err != nil {
		return fail(ExitError, "invalid time range", err.Error(), nil)
	}

	path := targetFile(args, cfg.DecisionsFile)
	log, err := loadDecisionLog(path)
	if err != nil {
		return err
	}

	entries := adr.Filter(log.Entries, since, until)
	logger.Debug("filtered decisions", "total", len(log.Entries), "shown", len(entries))

	if _, err := report.FormatDecisionTable(printer.Out(), entries); err != nil {
		return fail(ExitError, "failed to write decision table", err.Error(), nil)
	}
	return nil
}

func runADRAppend(cmd *cobra.Command, args []string) error {
	entry := adr.NewEntry{Title: adrTitle, Body: adrBody}
	if adrDate != "" {
		date, err := time.Parse(adr.DateLayout, adrDate)
		if err != nil {
			return fail(ExitError, "invalid date",
				fmt.Sprintf("'%s' is not a YYYY-MM-DD date", adrDate), nil)
		}
		entry.Date = date
	}

	path := targetFile(args, cfg.DecisionsFile)
	written, err := adr.Append(path, entry, time.Now())
	if err != nil {
		if errors.Is(err, adr.ErrOutOfOrder) {
			return fail(ExitError, "entry out of order", err.Error(),
				[]string{"Use today's date, or a date on or after the last entry."})
		}
		return failWithContext(ExitError, "cannot append decision", err.Error(),
			map[string]string{"Decision log": path}, nil)
	}

	printer.Success("Appended '%s' to %s (line %d)\n", written.Heading, path, written.Line)
	return nil
}

func loadDecisionLog(path string) (*adr.Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failWithContext(ExitError, "IOFailure", fmt.Sprintf("Cannot read %s: %v", path, err),
			map[string]string{"Decision log": path},
			[]string{"Create it with:\n  tasklint adr append --title \"First decision\""})
	}
	log := adr.Parse(data)
	logger.Debug("parsed decision log", "path", path, "entries", len(log.Entries))
	return log, nil
}
