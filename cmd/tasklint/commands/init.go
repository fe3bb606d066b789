package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyluth/tasklint/internal/git"
	"github.com/dyluth/tasklint/internal/printer"
	"github.com/dyluth/tasklint/internal/scaffold"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter tasklint project",
	Long: `Create a starter project in the current directory.

Creates:
  • .tasklint.yml            - configuration and task-state schema
  • agents/tasks_state.yaml  - task status, one entry per active task
  • agents/tasks.yaml        - task plan listing active tasks
  • agents/decisions.md      - append-only decision log

Existing files are never overwritten unless --force is given. Other files
under agents/ are left alone.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite existing starter files")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	// The decision log's append-only check relies on Git history
	isRepo, err := git.NewChecker(".").IsGitRepository()
	if err != nil {
		printer.Warning("%v\n", err)
	} else if !isRepo {
		printer.Warning("not a Git repository; 'tasklint adr check --against' will not work until you run 'git init'\n")
	}

	if !forceInit {
		if err := scaffold.CheckExisting("."); err != nil {
			return fail(ExitError, "project already initialized",
				strings.TrimPrefix(err.Error(), "project already initialized\n\n"), nil)
		}
	} else {
		printer.Warning("Overwriting existing starter files...\n")
	}

	created, err := scaffold.Initialize(".", forceInit)
	if err != nil {
		return fail(ExitError, "initialization failed", err.Error(), nil)
	}

	printer.Success("Successfully initialized tasklint project!\n")
	printer.Println("\nCreated:")
	for _, path := range created {
		printer.Printf("  ✓ %s\n", path)
	}
	printer.Println("\nNext steps:")
	printer.Println("  1. Replace T-001 with your own tasks in agents/tasks.yaml and agents/tasks_state.yaml")
	printer.Println("  2. Adjust the statuses in .tasklint.yml to match your role documentation")
	printer.Println("  3. Run 'tasklint lint' to check the task-state file")
	return nil
}
