package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gioxx/yourls-diff/internal/config"
	"github.com/gioxx/yourls-diff/internal/service/differ"
	"github.com/gioxx/yourls-diff/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// Diff pipeline flags, mirroring the classic tool's interface.
	oldTag      string
	newTag      string
	outputPath  string
	noVerify    bool
	withSummary bool
	onlyRemoved bool
	winSCP      bool

	// rootCmd builds a minimal update package between two release tags.
	rootCmd = &cobra.Command{
		Use:   "yourls-diff",
		Short: "Build a minimal update package between two release tags",
		Long: "yourls-diff compares two tagged releases of a GitHub-hosted project " +
			"(YOURLS by default) and produces a ZIP patch with only the changed files, " +
			"plus manifests and deployment helper scripts.",
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &differ.Options{
				ConfigPath:    configPath,
				OldTag:        oldTag,
				NewTag:        newTag,
				OutputPath:    outputPath,
				SkipTLSVerify: noVerify,
				WithSummary:   withSummary,
				OnlyRemoved:   onlyRemoved,
				WinSCP:        winSCP,
			}

			return differ.Run(ctx, options)
		},
	}
)

// Execute runs the yourls-diff CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// A local .env file may carry GITHUB_TOKEN; it is entirely optional.
	cobra.OnInitialize(func() {
		_ = godotenv.Load()
	})

	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename,
		"path to configuration file")
	rootCmd.Flags().StringVar(&oldTag, "old", "", "tag of the starting release (e.g. '1.8.10')")
	rootCmd.Flags().StringVar(&newTag, "new", "", "tag of the target release (if omitted, the latest release is used)")
	rootCmd.Flags().StringVar(&outputPath, "output", "", "output ZIP filename (default: <repo>-update-OLD-to-NEW.zip)")
	rootCmd.Flags().BoolVar(&noVerify, "no-verify", false, "disable TLS certificate verification (not recommended)")
	rootCmd.Flags().BoolVar(&withSummary, "summary", false,
		"generate a summary text file with patch details (e.g. for use in release notes)")
	rootCmd.Flags().BoolVar(&onlyRemoved, "only-removed", false,
		"only generate the removed-files listing and a deletion script, skip all other outputs")
	rootCmd.Flags().BoolVar(&winSCP, "winscp", false,
		"generate a WinSCP script to download and delete the removed files (requires --only-removed)")

	_ = rootCmd.MarkFlagRequired("old")
}
