package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/tasklint/internal/printer"
	"github.com/dyluth/tasklint/internal/report"
	"github.com/dyluth/tasklint/internal/watch"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [FILE]",
	Short: "Re-validate the task-state file whenever it changes",
	Long: `Validate the task-state file, then keep polling it (and the task plan
and JSON Schema, when configured) and re-validate on every change.

Files are compared by content, so touching a file without changing it does
not trigger a run. Stop with Ctrl-C.

Examples:
  # Watch the configured state file
  tasklint watch

  # Poll every 5 seconds
  tasklint watch --interval 5s`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", watch.DefaultInterval, "How often to check for changes")
	watchCmd.Flags().StringVar(&lintTasksFile, "tasks", "", "Task plan to cross-check active tasks against (default: configured tasks file if present)")
	watchCmd.Flags().StringVar(&lintJSONSchema, "json-schema", "", "JSON Schema to apply on top of the built-in checks")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchInterval <= 0 {
		return fail(ExitError, "invalid interval", "--interval must be positive", nil)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := targetFile(args, cfg.StateFile)
	err := watchFile(ctx, path, watchInterval)
	if errors.Is(err, context.Canceled) {
		printer.Println()
		printer.Info("Stopped watching %s\n", path)
		return nil
	}
	return err
}

// watchFile lints path once and again after every change until ctx ends.
func watchFile(ctx context.Context, path string, interval time.Duration) error {
	paths := []string{path}
	if lintTasksFile != "" {
		paths = append(paths, lintTasksFile)
	} else if cfg.TasksFile != "" {
		paths = append(paths, cfg.TasksFile)
	}
	if lintJSONSchema != "" {
		paths = append(paths, lintJSONSchema)
	} else if cfg.JSONSchema != "" {
		paths = append(paths, cfg.JSONSchema)
	}

	check := func() {
		printer.Step("%s checking %s\n", time.Now().Format(time.TimeOnly), path)
		if err := lintOnce(path); err != nil {
			// Already reported; keep watching so the next save can fix it
			logger.Debug("check failed", "err", err)
		}
	}

	logger.Debug("watching files", "paths", paths, "interval", interval)

	return watch.PollForChange(ctx, paths, interval, func(changed []string) error {
		if changed != nil {
			logger.Debug("files changed", "paths", changed)
		}
		check()
		return nil
	})
}

// lintOnce runs a full text-format lint of path. The plan and JSON Schema
// are reloaded each time since they may be the file that changed.
func lintOnce(path string) error {
	linter, err := buildLinter()
	if err != nil {
		return err
	}
	result, err := lintFile(linter, path)
	if err != nil {
		return err
	}
	if err := report.FormatText(printer.Out(), result); err != nil {
		return err
	}
	printSummary(result)
	return lintStatus(result)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
