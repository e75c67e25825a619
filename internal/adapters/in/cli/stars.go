package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/dockyard/internal/app"
)

// newStarCmd creates the star command group.
func newStarCmd(opts *rootOptions) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "star",
		Short: "Star repositories on behalf of a user",
	}
	cmd.PersistentFlags().StringVarP(&username, "user", "u", "", "Username")
	_ = cmd.MarkPersistentFlagRequired("user")

	cmd.AddCommand(&cobra.Command{
		Use:   "add <registry-hostname> <repository>",
		Short: "Star a repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, func(ctx context.Context, k *app.Kernel) error {
				added, err := k.Admin().StarRepository(ctx, args[0], args[1], username)
				if err != nil {
					return err
				}
				msg := cliRenderSuccess(fmt.Sprintf("%s starred %s", username, args[1]))
				if !added {
					msg = cliRenderEmptyState(fmt.Sprintf("%s already starred %s", username, args[1]))
				}
				return cliWriteLine(cmd.OutOrStdout(), msg)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <registry-hostname> <repository>",
		Short: "Remove a star",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, func(ctx context.Context, k *app.Kernel) error {
				removed, err := k.Admin().UnstarRepository(ctx, args[0], args[1], username)
				if err != nil {
					return err
				}
				msg := cliRenderSuccess(fmt.Sprintf("%s unstarred %s", username, args[1]))
				if !removed {
					msg = cliRenderEmptyState(fmt.Sprintf("%s had not starred %s", username, args[1]))
				}
				return cliWriteLine(cmd.OutOrStdout(), msg)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <registry-hostname> <repository>",
		Short: "Tell whether a user starred a repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, func(ctx context.Context, k *app.Kernel) error {
				starred, err := k.Admin().StarredBy(ctx, args[0], args[1], username)
				if err != nil {
					return err
				}
				msg := fmt.Sprintf("%s has not starred %s", username, args[1])
				if starred {
					msg = fmt.Sprintf("%s starred %s", username, args[1])
				}
				return cliWriteLine(cmd.OutOrStdout(), cliRenderMeta("star:", msg))
			})
		},
	})

	return cmd
}
