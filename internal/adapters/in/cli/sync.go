package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/dockyard/internal/adapters/in/cli/ui/components"
	"github.com/bnema/dockyard/internal/app"
	"github.com/bnema/dockyard/internal/domain"
)

// newSyncCmd creates the one-off catalogue reconciliation command.
func newSyncCmd(opts *rootOptions) *cobra.Command {
	var registry string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the catalogue with the registries",
		Long: `List every repository and tag of the configured registries and bring
the local catalogue in line: missing repositories and tags are created, tags
that no longer exist upstream are deleted. Repositories whose namespace is
not provisioned are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, func(ctx context.Context, k *app.Kernel) error {
				var (
					reports []domain.SyncReport
					err     error
				)
				if registry != "" {
					var report *domain.SyncReport
					report, err = k.Catalog().SyncRegistry(ctx, registry)
					if report != nil {
						reports = append(reports, *report)
					}
				} else {
					reports, err = k.Catalog().SyncAll(ctx)
				}

				w := cmd.OutOrStdout()
				if len(reports) > 0 {
					if werr := cliWriteLine(w, components.SyncTable(reports).Render()); werr != nil {
						return werr
					}
				}
				if err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
				if len(reports) == 0 {
					return cliWriteLine(w, cliRenderEmptyState("No registries to synchronize."))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&registry, "registry", "r", "", "Only synchronize the registry with this hostname")

	return cmd
}
