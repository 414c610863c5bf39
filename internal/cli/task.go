package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/musher-dev/musher/internal/app"
	"github.com/musher-dev/musher/internal/usecase"
)

// newTaskCommand creates the task command group.
func newTaskCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(newTaskAddCommand(c))
	return cmd
}

// newTaskAddCommand creates the task add command.
func newTaskAddCommand(c *app.Container) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a pending task",
		Long: `Add a pending leaf task to the store.

Without --parent the task becomes a new root. With --parent the task is
appended under the given id and the parent stops being directly
workable; it gets a verify pass once all its children settle.

Examples:
  # Seed a root task
  musher task add "Port the scheduler to the new API"

  # Add a child under task 1
  musher task add --parent 1 "Write migration tests"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.AddTaskUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.AddTaskInput{
				Title:  args[0],
				Parent: parent,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added task %s: %s\n", out.Task.ID, out.Task.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Parent task id")
	return cmd
}

// newUnblockCommand creates the unblock command.
func newUnblockCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "unblock <id>",
		Short: "Reset a blocked task to pending",
		Long: `Reset a blocked task to pending and clear its blocked reason.

The task becomes visible to the selector again on the next pass. Its
branch, if one was left open, is resumed or merged as usual.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.UnblockTaskUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.UnblockTaskInput{TaskID: args[0]})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %s is pending again\n", out.Task.ID)
			return nil
		},
	}
}
