package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/frutacc/lcdpr-setup/internal/config"
	"github.com/frutacc/lcdpr-setup/internal/payload"
	"github.com/frutacc/lcdpr-setup/internal/repository/record"
	"github.com/frutacc/lcdpr-setup/internal/service/packager"
	"github.com/frutacc/lcdpr-setup/internal/service/setup"
	"github.com/frutacc/lcdpr-setup/internal/service/uninstall"
	"github.com/frutacc/lcdpr-setup/internal/shortcut"
)

type recordingLauncher struct {
	commands []*setup.Command
}

func (l *recordingLauncher) Launch(_ context.Context, cmd *setup.Command) error {
	l.commands = append(l.commands, cmd)
	return nil
}

// writeTree creates files relative to the working directory.
func writeTree(t *testing.T, files map[string]string) {
	t.Helper()

	for name, body := range files {
		path := filepath.FromSlash(name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
}

// TestPackageInstallUpgradeUninstall drives the whole lifecycle through the service entry points.
//
//nolint:funlen // Integration test requires comprehensive setup and verification.
func TestPackageInstallUpgradeUninstall(t *testing.T) {
	// Setup test directory and change working directory.
	dir := t.TempDir()
	prev, _ := os.Getwd()

	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(prev)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	writeTree(t, map[string]string{
		"dist/LCDPR Frutacc/LCDPR Frutacc.exe":            "MZ version one",
		"dist/LCDPR Frutacc/_internal/base_library.zip":   "PK stdlib",
		"dist/LCDPR Frutacc/_internal/old_module.pyd":     "removed in 1.1.0",
		"dist/LCDPR Frutacc/_internal/customtkinter/a.py": "theme",
		"lcdpr-setup.exe": "bare stub",
	})

	manifest, err := config.Load(filepath.Join(prev, "..", "..", config.DefaultConfigFilename))
	require.NoError(t, err)
	require.NoError(t, config.Save(config.DefaultConfigFilename, manifest))

	// Version 1.0.0 without a .env file.
	built, err := packager.Run(ctx, &packager.Options{StubPath: "lcdpr-setup.exe"})
	require.NoError(t, err)
	require.Equal(t, []string{".env"}, built.Skipped)

	var listing bytes.Buffer
	require.NoError(t, packager.Inspect(ctx, built.OutputPath, &listing))
	require.Contains(t, listing.String(), "{app}/_internal/old_module.pyd")

	root := t.TempDir()
	resolver := &config.Resolver{
		ProgramFiles: filepath.Join(root, "Program Files"),
		Group:        filepath.Join(root, "Start Menu", manifest.DefaultGroupName),
		Desktop:      filepath.Join(root, "Desktop"),
		Tmp:          filepath.Join(root, "Temp"),
	}
	launcher := new(recordingLauncher)

	first, err := setup.Run(ctx, &setup.Options{
		InstallerPath: built.OutputPath,
		Silent:        true,
		TasksSet:      true,
		Tasks:         []string{"desktopicon"},
		Resolver:      resolver,
		Launcher:      launcher,
	})
	require.NoError(t, err)
	require.Empty(t, launcher.commands)
	require.FileExists(t, filepath.Join(resolver.Desktop, manifest.AppName+shortcut.Extension))
	require.FileExists(t, filepath.Join(first.InstallDir, "_internal", "old_module.pyd"))
	require.NoFileExists(t, filepath.Join(first.InstallDir, ".env"))

	// Version 1.1.0 ships a .env file and drops a module.
	require.NoError(t, os.Remove(filepath.FromSlash("dist/LCDPR Frutacc/_internal/old_module.pyd")))
	writeTree(t, map[string]string{
		"dist/LCDPR Frutacc/LCDPR Frutacc.exe": "MZ version two",
		".env":                                 "SUPABASE_KEY=secret\n",
	})

	manifest.AppVersion = "1.1.0"
	require.NoError(t, config.Save(config.DefaultConfigFilename, manifest))

	built, err = packager.Run(ctx, &packager.Options{StubPath: "lcdpr-setup.exe"})
	require.NoError(t, err)
	require.Empty(t, built.Skipped)

	inst, err := payload.Open(built.OutputPath)
	require.NoError(t, err)
	require.Equal(t, "1.1.0", inst.Index.Manifest.AppVersion)
	require.NoError(t, inst.Close())

	second, err := setup.Run(ctx, &setup.Options{
		InstallerPath: built.OutputPath,
		Silent:        true,
		Resolver:      resolver,
		Launcher:      launcher,
	})
	require.NoError(t, err)
	require.Equal(t, first.InstallDir, second.InstallDir)

	// desktopicon is unchecked in setup.yaml; the upgrade keeps the earlier selection.
	require.Equal(t, []string{"desktopicon"}, second.Tasks)
	require.FileExists(t, filepath.Join(resolver.Desktop, manifest.AppName+shortcut.Extension))

	exe, err := os.ReadFile(filepath.Join(second.InstallDir, manifest.AppExeName))
	require.NoError(t, err)
	require.Equal(t, "MZ version two", string(exe))

	env, err := os.ReadFile(filepath.Join(second.InstallDir, ".env"))
	require.NoError(t, err)
	require.Equal(t, "SUPABASE_KEY=secret\n", string(env))

	rec, err := record.ForDir(second.InstallDir).Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "1.1.0", rec.AppVersion)
	require.Contains(t, rec.Files, filepath.Join(second.InstallDir, "_internal", "old_module.pyd"))

	// Uninstall everything, including the file the upgrade no longer ships.
	res, err := uninstall.Run(ctx, &uninstall.Options{
		Silent:   true,
		SelfPath: rec.Uninstaller,
	})
	require.NoError(t, err)
	require.Empty(t, res.Remaining)
	require.NoDirExists(t, second.InstallDir)
	require.NoDirExists(t, resolver.Group)
	require.NoFileExists(t, filepath.Join(resolver.Desktop, manifest.AppName+shortcut.Extension))
}
