package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/musher-dev/musher/internal/app"
	"github.com/musher-dev/musher/internal/usecase"
)

// newStatusCommand creates the status command.
func newStatusCommand(c *app.Container) *cobra.Command {
	var done bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the task store",
		Long: `Show active tasks in store order, which is the order the selector
scans them in. With --done the archive is shown as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.ListTasksUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ListTasksInput{IncludeDone: done})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if len(out.Tasks) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No active tasks.")
			} else {
				_, _ = fmt.Fprintln(w, "ID\tSTATUS\tTITLE\tNOTE")
				for _, t := range out.Tasks {
					note := t.BlockedReason
					if !t.Leaf && note == "" {
						note = "(parent)"
					}
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Status.Display(), t.Title, note)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			if done {
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
				if len(out.Done) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No completed tasks.")
					return nil
				}
				dw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(dw, "ID\tCOMMIT\tCOMPLETED\tTITLE")
				for _, t := range out.Done {
					_, _ = fmt.Fprintf(dw, "%s\t%s\t%s\t%s\n", t.ID, t.Commit, t.Completed, t.Title)
				}
				return dw.Flush()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&done, "done", false, "Also show archived tasks")
	return cmd
}
