package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frutacc/lcdpr-setup/internal/config"
	"github.com/frutacc/lcdpr-setup/internal/logger"
	"github.com/frutacc/lcdpr-setup/internal/service/packager"
	"github.com/frutacc/lcdpr-setup/internal/version"
)

var (
	// configPath to the setup manifest.
	configPath string
	// stubPath overrides the setup binary the payload is appended to.
	stubPath string
	// outputDir overrides the manifest's output_dir.
	outputDir string

	// rootCmd groups the packager subcommands.
	rootCmd = &cobra.Command{
		Use:          "lcdpr-packager",
		Short:        "Build self-extracting installers from a setup manifest",
		SilenceUsage: true,
	}

	// buildCmd packages the files listed in the manifest.
	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Package the manifest's files into an installer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				ConfigPath: configPath,
				StubPath:   stubPath,
				OutputDir:  outputDir,
			}

			res, err := packager.Run(ctx, options)
			if err != nil {
				return err
			}

			packager.PrintSummary(cmd.OutOrStdout(), res)

			return nil
		},
	}

	// inspectCmd lists what a manifest or an installer contains.
	inspectCmd = &cobra.Command{
		Use:   "inspect [setup.yaml|installer.exe]",
		Short: "Show the files of a manifest or of a built installer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			path := config.DefaultConfigFilename
			if len(args) > 0 {
				path = args[0]
			}

			return packager.Inspect(ctx, path, cmd.OutOrStdout())
		},
	}
)

// Execute runs the lcdpr-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	logger.AttachCobraLogLevelFlag(rootCmd)

	err := rootCmd.Execute()

	logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	buildCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to the setup manifest")
	buildCmd.Flags().StringVar(&stubPath, "stub", "", "setup binary to embed (defaults to lcdpr-setup next to the packager)")
	buildCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for the installer (overrides output_dir)")

	rootCmd.AddCommand(buildCmd, inspectCmd)
}
