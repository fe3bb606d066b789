package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/tasklint/internal/printer"
	"github.com/dyluth/tasklint/internal/watch"
)

// resetFlags restores every package-level flag variable, since rootCmd is
// shared between test runs.
func resetFlags() {
	configPath, verbose, logLevel, noColor = "", false, "", false
	lintTasksFile, lintJSONSchema, lintOutput, lintStrict, lintNoPlan = "", "", "text", false, false
	statusFilter, statusOwner, statusIDGlob, statusSince, statusUntil = nil, "", "", "", ""
	watchInterval = watch.DefaultInterval
	adrAgainst, adrSince, adrUntil, adrTitle, adrBody, adrDate = "", "", "", "", "", ""
	forceInit = false
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

// execute runs the CLI in dir and returns stdout, stderr and the exit code.
func execute(t *testing.T, dir string, args ...string) (string, string, int) {
	t.Helper()
	chdir(t, dir)
	resetFlags()

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	printer.SetOutput(out, errOut)
	printer.SetColor(false)
	t.Cleanup(func() { printer.SetOutput(os.Stdout, os.Stderr) })

	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := Execute()
	return out.String(), errOut.String(), ExitCode(err)
}

// writeFiles creates files under dir from a path -> content map.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// TestRootCommand_ShowsHelpWhenNoSubcommand tests that the root command
// shows help instead of silently succeeding when invoked without a subcommand
func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	out, _, code := execute(t, t.TempDir())

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Usage:", "Help should be displayed")
	assert.Contains(t, out, "tasklint", "Help should show command name")
}

// TestRootCommand_RejectsUnknownFlags tests that unknown flags
// passed to the root command cause an error instead of being silently ignored
func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	_, errOut, code := execute(t, t.TempDir(), "--unknown-flag", "value")

	assert.Equal(t, ExitError, code, "Unknown flag should cause an error")
	assert.Contains(t, errOut, "unknown flag", "Error should mention unknown flag")
}

// TestRootCommand_RejectsSubcommandFlags tests that flags meant for
// subcommands (like --strict) are rejected when passed to root command
func TestRootCommand_RejectsSubcommandFlags(t *testing.T) {
	testRoot := &cobra.Command{
		Use: "tasklint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
	}
	sub := &cobra.Command{
		Use:  "lint",
		RunE: func(cmd *cobra.Command, args []string) error { return nil },
	}
	sub.Flags().Bool("strict", false, "")
	testRoot.AddCommand(sub)

	buf := new(bytes.Buffer)
	testRoot.SetOut(buf)
	testRoot.SetErr(buf)

	testRoot.SetArgs([]string{"--strict"})
	err := testRoot.Execute()
	assert.Error(t, err, "--strict on the root command should be rejected")

	testRoot.SetArgs([]string{"lint", "--strict"})
	assert.NoError(t, testRoot.Execute(), "--strict on lint should be accepted")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		".tasklint.yml": "version: \"9.9\"\n",
	})

	_, errOut, code := execute(t, dir, "lint")

	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "invalid configuration")
	assert.Contains(t, errOut, ".tasklint.yml")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitViolations, ExitCode(&ExitCodeError{Code: ExitViolations}))
	assert.Equal(t, ExitError, ExitCode(errors.New("unknown command")))

	wrapped := &ExitCodeError{Code: ExitError, Err: errors.New("IOFailure")}
	assert.Equal(t, "IOFailure", wrapped.Error())
	assert.Equal(t, "exit status 1", (&ExitCodeError{Code: ExitViolations}).Error())
}
