package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gioxx/yourls-diff/internal/service/apply"
)

var (
	// descriptionPath to the YAML patch description; derived from the
	// package filename when left empty.
	descriptionPath string

	// applyCmd applies a previously built patch package to a local installation.
	applyCmd = &cobra.Command{
		Use:   "apply [package.zip] [target-dir]",
		Short: "Apply a patch package to a local installation",
		Long: "Apply extracts a patch package produced by yourls-diff and replaces the " +
			"matching files under the target directory, verifying every file against the " +
			"checksums recorded in the patch description.",
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &apply.Options{
				PackagePath:     args[0],
				DescriptionPath: descriptionPath,
				TargetDir:       args[1],
			}

			return apply.Run(ctx, options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	applyCmd.Flags().StringVar(&descriptionPath, "description", "",
		"path to the patch description YAML (default: package name with .yaml extension)")

	rootCmd.AddCommand(applyCmd)
}
