// Package cli implements the CLI adapter for dockyard.
// This package provides Cobra commands that delegate to the app layer.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/bnema/dockyard/internal/app"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

// NewRootCmd creates the root command for the dockyard CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "dockyard",
		Short: "dockyard - registry catalogue and push activity tracker",
		Long: `dockyard mirrors the repositories and tags of one or more container
registries into a local catalogue.

It receives registry push notifications over HTTP, keeps repositories and
tags up to date, records who pushed what, and can reconcile the catalogue
against a registry's /v2/_catalog on a schedule.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default ./dockyard.yml or ~/.dockyard/dockyard.yml)")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newSyncCmd(opts))
	rootCmd.AddCommand(newSeedCmd(opts))
	rootCmd.AddCommand(newRegistryCmd(opts))
	rootCmd.AddCommand(newUserCmd(opts))
	rootCmd.AddCommand(newNamespaceCmd(opts))
	rootCmd.AddCommand(newReposCmd(opts))
	rootCmd.AddCommand(newStarCmd(opts))
	rootCmd.AddCommand(newActivityCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if short {
				return cliWriteLine(w, Version)
			}
			if err := cliWriteLine(w, cliRenderTitle("dockyard "+Version)); err != nil {
				return err
			}
			if err := cliWriteLine(w, cliRenderMeta("Commit:", Commit)); err != nil {
				return err
			}
			return cliWriteLine(w, cliRenderMeta("Build Date:", BuildDate))
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Show only the version number")

	return cmd
}

// SetVersionInfo sets the version information for the CLI and the server.
func SetVersionInfo(version, commit, date string) {
	if version != "" {
		Version = version
		app.Version = version
	}
	if commit != "" {
		Commit = commit
	}
	if date != "" {
		BuildDate = date
	}
}
