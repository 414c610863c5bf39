// Package cli provides the command-line interface for musher.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/musher-dev/musher/internal/app"
)

// Command group IDs.
const (
	groupSetup = "setup"
	groupTask  = "task"
	groupLoop  = "loop"
)

// NewRootCommand creates the root command for musher.
// It receives the container for dependency injection and version for
// display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "musher",
		Short: "Autonomous task loop for AI coding agents",
		Long: `musher drives an AI coding agent through a large piece of work by
decomposing it into small, independently completable tasks.

Each task is worked on an isolated git branch and squash-merged into
the integration branch on completion. Tasks too large for one sitting
are split into children; stuck tasks are blocked for operator triage
instead of halting the loop.

State lives in the .musher/ directory at the repository root.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
	}

	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupTask, Title: "Task Management:"},
		&cobra.Group{ID: groupLoop, Title: "Loop Control:"},
	)

	initCmd := newInitCommand(c)
	initCmd.GroupID = groupSetup

	taskCmd := newTaskCommand(c)
	taskCmd.GroupID = groupTask

	statusCmd := newStatusCommand(c)
	statusCmd.GroupID = groupTask

	unblockCmd := newUnblockCommand(c)
	unblockCmd.GroupID = groupTask

	runCmd := newRunCommand(c)
	runCmd.GroupID = groupLoop

	stopCmd := newStopCommand(c)
	stopCmd.GroupID = groupLoop

	root.AddCommand(initCmd, taskCmd, statusCmd, unblockCmd, runCmd, stopCmd)
	return root
}
