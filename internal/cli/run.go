package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/musher-dev/musher/internal/app"
	"github.com/musher-dev/musher/internal/usecase"
)

// newRunCommand creates the run command.
func newRunCommand(c *app.Container) *cobra.Command {
	var daemon bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive workable tasks through the agent",
		Long: `Run the loop: select the next workable task, open its branch, invoke
the agent until the task completes or splits, squash-merge the result
and move on.

Without --daemon the loop exits once no workable task remains. With
--daemon it keeps polling for new tasks until stopped.

Stopping is always graceful: 'musher stop' (or SIGINT/SIGTERM) is
honored between iterations, never mid-invocation, so task state is
never observed half-written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc, err := c.RunLoopUseCase()
			if err != nil {
				return err
			}

			// SIGINT/SIGTERM cancel between iterations, like the stop file.
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			out, err := uc.Execute(ctx, usecase.RunLoopInput{Daemon: daemon})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch {
			case out.Stopped:
				_, _ = fmt.Fprintln(w, "Stopped.")
			default:
				_, _ = fmt.Fprintln(w, "Idle: no workable tasks.")
			}
			_, _ = fmt.Fprintf(w, "completed %d, split %d, blocked %d\n",
				out.Completed, out.Split, out.Blocked)
			return nil
		},
	}

	cmd.Flags().BoolVar(&daemon, "daemon", false, "Keep polling for new tasks instead of exiting when idle")
	return cmd
}

// newStopCommand creates the stop command.
func newStopCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Ask a running loop to exit after the current iteration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.StopLoopUseCase()
			if _, err := uc.Execute(cmd.Context(), usecase.StopLoopInput{}); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Stop requested. The loop exits after the current iteration.")
			return nil
		},
	}
}
