package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bnema/dockyard/internal/app"
)

// newServeCmd creates the serve command.
func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dockyard server",
		Long: `Start the webhook listener and, when sync is enabled, the scheduled
catalogue reconciliation. Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), opts.configPath)
		},
	}
}

// withKernel opens the application kernel for the duration of fn.
func withKernel(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, k *app.Kernel) error) (err error) {
	k, err := app.NewKernel(cmd.Context(), opts.configPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := k.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(k.Context(cmd.Context()), k)
}
