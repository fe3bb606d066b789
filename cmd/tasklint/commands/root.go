package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyluth/tasklint/internal/config"
	"github.com/dyluth/tasklint/internal/logging"
	"github.com/dyluth/tasklint/internal/printer"
)

// Exit codes
const (
	ExitOK         = 0
	ExitViolations = 1
	ExitError      = 2
)

var (
	version string
	commit  string
	date    string

	configPath string
	verbose    bool
	logLevel   string
	noColor    bool

	// Set by PersistentPreRunE for every subcommand
	cfg    *config.Config
	logger = logging.Discard()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tasklint",
	Short: "tasklint - task-state and decision log checks for agent workflows",
	Long: `tasklint validates the flat files a multi-agent workflow coordinates
through: the task-state file that records every task's status, the task plan
that lists active tasks, and the append-only decision log.

Validation is read-only. Every violation is reported in file order, and the
exit status is 0 when the file is valid, 1 when it has violations, and 2 when
it could not be checked at all.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: setup,
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	err := rootCmd.Execute()
	var exitErr *ExitCodeError
	if err != nil && !errors.As(err, &exitErr) {
		// Flag and argument errors from cobra have not been printed yet
		printer.Error(err.Error(), "", []string{"Run 'tasklint --help' for usage."})
	}
	return err
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: .tasklint.yml, .tasklint.yaml or .tasklint.toml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// setup resolves configuration and logging before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	if noColor {
		printer.SetColor(false)
	}

	logger = logging.New(cmd.ErrOrStderr(), verbose)
	if logLevel != "" {
		logger.SetLevel(logging.ParseLevel(logLevel))
	}

	resolved, source, err := config.Resolve(configPath, ".", os.Getenv)
	if err != nil {
		return fail(ExitError, "invalid configuration",
			fmt.Sprintf("Could not load %s: %v", source, err),
			[]string{"Fix the config file, or run 'tasklint init' to create a fresh one."})
	}
	cfg = resolved

	if source == "" {
		logger.Debug("no config file found, using defaults")
	} else {
		logger.Debug("loaded config", "path", source)
	}
	logger.Debug("resolved files",
		"state", cfg.StateFile,
		"tasks", cfg.TasksFile,
		"decisions", cfg.DecisionsFile)
	return nil
}

// ExitCodeError carries the process exit status for a failed command.
// Its message has already been shown to the user, or is empty when the
// command's own output explains the failure.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitError
}

// fail prints a formatted error and returns it with an exit code.
func fail(code int, title, explanation string, suggestions []string) error {
	return &ExitCodeError{Code: code, Err: printer.Error(title, explanation, suggestions)}
}

// failWithContext is fail with key/value context lines.
func failWithContext(code int, title, explanation string, context map[string]string, suggestions []string) error {
	return &ExitCodeError{Code: code, Err: printer.ErrorWithContext(title, explanation, context, suggestions)}
}

// targetFile returns the file argument, or def when none was given.
func targetFile(args []string, def string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return def
}
