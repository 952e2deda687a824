package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/frutacc/lcdpr-setup/internal/logger"
	"github.com/frutacc/lcdpr-setup/internal/service/setup"
	"github.com/frutacc/lcdpr-setup/internal/service/uninstall"
	"github.com/frutacc/lcdpr-setup/internal/version"
)

// uninstallerPrefix marks a copy of this binary that acts as the uninstaller.
const uninstallerPrefix = "unins"

var (
	// installDir overrides the install directory.
	installDir string
	// silent disables every question.
	silent bool
	// tasks selects install tasks explicitly.
	tasks []string
	// noLaunch skips post-install programs.
	noLaunch bool

	// rootCmd installs the payload of the running executable.
	rootCmd = &cobra.Command{
		Use:          "lcdpr-setup",
		Short:        "Install the application packaged into this installer",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &setup.Options{
				Dir:          installDir,
				Silent:       silent,
				Tasks:        tasks,
				TasksSet:     cmd.Flags().Changed("tasks"),
				NoLaunch:     noLaunch,
				ShowProgress: !silent,
			}

			res, err := setup.Run(ctx, options)
			if err != nil {
				return err
			}

			if !silent {
				pterm.Success.Printfln("%s %s installed to %s", res.AppName, res.Version, res.InstallDir)
			}

			return nil
		},
	}

	// uninstallCmd removes an installation.
	uninstallCmd = &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the installed application",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			res, err := uninstall.Run(ctx, &uninstall.Options{
				Dir:    installDir,
				Silent: silent,
			})
			if err != nil {
				return err
			}

			if silent {
				return nil
			}

			pterm.Success.Printfln("%s was removed from %s", res.AppName, res.InstallDir)

			for _, path := range res.Remaining {
				pterm.Warning.Printfln("Not removed: %s", path)
			}

			return nil
		},
	}
)

// Execute runs the lcdpr-setup CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	logger.AttachCobraLogLevelFlag(rootCmd)

	if runsAsUninstaller(os.Args) {
		rootCmd.SetArgs(append([]string{uninstallCmd.Name()}, os.Args[1:]...))
	}

	err := rootCmd.Execute()

	logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}

// runsAsUninstaller reports whether the binary is an uninstaller copy started without a subcommand.
func runsAsUninstaller(args []string) bool {
	if len(args) == 0 {
		return false
	}

	name := strings.ToLower(filepath.Base(strings.ReplaceAll(args[0], `\`, "/")))
	if !strings.HasPrefix(name, uninstallerPrefix) {
		return false
	}

	return len(args) == 1 || strings.HasPrefix(args[1], "-")
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&installDir, "dir", "d", "", "install directory")
	rootCmd.PersistentFlags().BoolVarP(&silent, "silent", "s", false, "run without questions, using defaults")

	rootCmd.Flags().StringSliceVar(&tasks, "tasks", nil, "comma-separated tasks to select, e.g. desktopicon")
	rootCmd.Flags().BoolVar(&noLaunch, "no-launch", false, "do not start the application after installing")

	rootCmd.AddCommand(uninstallCmd)
}
