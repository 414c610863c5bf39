package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/musher-dev/musher/internal/app"
	"github.com/musher-dev/musher/internal/usecase"
)

// newInitCommand creates the init command.
func newInitCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize repository for musher",
		Long: `Initialize a repository for musher.

This command creates the .musher/ directory with:
- config.toml: loop, agent, git and log settings
- triggers.yaml: ordered role trigger list
- roles/: role content files (a sample reviewer is included)
- tasks.jsonl: empty task store
- tasks-done.jsonl: empty archive
- logs/: directory for log files

Re-running init is safe: existing files are never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.InitRepoUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.InitRepoInput{
				MusherDir: c.Config.MusherDir,
				RepoRoot:  c.Config.RepoRoot,
			})
			if err != nil {
				return err
			}

			if out.AlreadyInitialized {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "musher already initialized in %s\n", out.MusherDir)
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Initialized musher in %s\n", out.MusherDir)
			}
			if out.GitignoreNeedsAdd {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Hint: add .musher/ to your .gitignore")
			}
			return nil
		},
	}
}
