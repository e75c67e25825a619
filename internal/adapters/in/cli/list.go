package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/bnema/dockyard/internal/adapters/in/cli/ui/components"
	"github.com/bnema/dockyard/internal/app"
)

// defaultActivityLimit is the number of activity entries shown by default.
const defaultActivityLimit = 20

// newReposCmd creates the repository listing command.
func newReposCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repos <registry-hostname>",
		Short: "List repositories and tags of a registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, func(ctx context.Context, k *app.Kernel) error {
				views, err := k.Admin().ListRepositories(ctx, args[0])
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if len(views) == 0 {
					return cliWriteLine(w, cliRenderEmptyState("No repositories yet."))
				}
				if err := cliWriteLine(w, cliRenderTitle(args[0])); err != nil {
					return err
				}
				return cliWriteLine(w, components.RepositoryTable(views).Render())
			})
		},
	}
}

// newActivityCmd creates the activity listing command.
func newActivityCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent push activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			return withKernel(cmd, opts, func(ctx context.Context, k *app.Kernel) error {
				activities, err := k.Admin().ListActivities(ctx, limit)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if len(activities) == 0 {
					return cliWriteLine(w, cliRenderEmptyState("No activity recorded."))
				}
				return cliWriteLine(w, components.ActivityTable(activities).Render())
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultActivityLimit, "Number of entries to show")

	return cmd
}
