package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bnema/dockyard/internal/adapters/in/cli/ui/components"
	"github.com/bnema/dockyard/internal/app"
)

// newSeedCmd creates the seed command.
func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Provision registries, users and namespaces from a YAML file",
		Long: `Provision registries, users and namespaces from a YAML document.
Entries that already exist are left untouched, so seeding is safe to repeat.
Use "-f -" to read from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader
			if file == "-" {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open seed file: %w", err)
				}
				defer f.Close()
				r = f
			}

			return withKernel(cmd, opts, func(ctx context.Context, k *app.Kernel) error {
				result, err := k.Admin().Seed(ctx, r)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if err := cliWriteLine(w, cliRenderSuccess("seed applied")); err != nil {
					return err
				}
				for _, line := range []string{
					cliRenderMeta("Registries created:", strconv.Itoa(result.Registries)),
					cliRenderMeta("Users created:", strconv.Itoa(result.Users)),
					cliRenderMeta("Namespaces created:", strconv.Itoa(result.Namespaces)),
				} {
					if err := cliWriteLine(w, cliRenderListItem(line)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Seed file (YAML), or - for stdin")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// newRegistryCmd creates the registry command group.
func newRegistryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage registries",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <hostname>",
		Short: "Register a registry and its global namespace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, func(ctx context.Context, k *app.Kernel) error {
				reg, created, err := k.Admin().CreateRegistry(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return cliWriteLine(cmd.OutOrStdout(), cliRenderCreated("registry "+reg.Hostname, created))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, func(ctx context.Context, k *app.Kernel) error {
				registries, err := k.Admin().ListRegistries(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(registries) == 0 {
					return cliWriteLine(w, cliRenderEmptyState("No registries configured."))
				}
				return cliWriteLine(w, components.RegistryTable(registries).Render())
			})
		},
	})

	return cmd
}

// newUserCmd creates the user command group.
func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var email string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user able to push images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, func(ctx context.Context, k *app.Kernel) error {
				user, created, err := k.Admin().CreateUser(ctx, args[0], email)
				if err != nil {
					return err
				}
				return cliWriteLine(cmd.OutOrStdout(), cliRenderCreated("user "+user.Username, created))
			})
		},
	}
	add.Flags().StringVar(&email, "email", "", "User email")
	cmd.AddCommand(add)

	return cmd
}

// newNamespaceCmd creates the namespace command group.
func newNamespaceCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "namespace",
		Short: "Manage namespaces",
	}

	var team string
	add := &cobra.Command{
		Use:   "add <registry-hostname> <name>",
		Short: "Create a namespace inside a registry",
		Long: `Create a namespace inside a registry. Pushes to "<name>/<repository>"
are only tracked once the namespace exists.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, func(ctx context.Context, k *app.Kernel) error {
				ns, created, err := k.Admin().CreateNamespace(ctx, args[0], args[1], team)
				if err != nil {
					return err
				}
				return cliWriteLine(cmd.OutOrStdout(), cliRenderCreated("namespace "+ns.Name, created))
			})
		},
	}
	add.Flags().StringVar(&team, "team", "", "Owning team")
	cmd.AddCommand(add)

	return cmd
}
