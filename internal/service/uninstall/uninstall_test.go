package uninstall

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/frutacc/lcdpr-setup/internal/config"
	"github.com/frutacc/lcdpr-setup/internal/repository/record"
	"github.com/frutacc/lcdpr-setup/internal/service/packager"
	"github.com/frutacc/lcdpr-setup/internal/service/setup"
)

type answerPrompter struct {
	answer bool
	asked  int
}

func (p *answerPrompter) Confirm(string, bool) (bool, error) {
	p.asked++
	return p.answer, nil
}

func (p *answerPrompter) Input(_, def string) (string, error) {
	return def, nil
}

type noopLauncher struct{}

func (noopLauncher) Launch(context.Context, *setup.Command) error { return nil }

// install packages a small application and installs it silently below a temp root.
func install(t *testing.T) (*setup.Result, *config.Resolver) {
	t.Helper()

	project := t.TempDir()
	for name, body := range map[string]string{
		"dist/LCDPR Frutacc.exe":          "MZ main program",
		"dist/_internal/base_library.zip": "PK python stdlib",
	} {
		path := filepath.Join(project, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	require.NoError(t, os.MkdirAll(filepath.Join(project, "dist", "_internal", "logs"), 0o755))

	configPath := filepath.Join(project, config.DefaultConfigFilename)
	require.NoError(t, config.Save(configPath, &config.Manifest{
		AppName:        "LCDPR Frutacc",
		AppVersion:     "1.0.0",
		AppExeName:     "LCDPR Frutacc.exe",
		DefaultDirName: "{autopf}/LCDPR Frutacc",
		Privileges:     config.PrivilegesLowest,
		Files: []config.FileEntry{
			{Source: "dist/LCDPR Frutacc.exe", DestDir: "{app}"},
			{Source: "dist/_internal", DestDir: "{app}/_internal", Flags: []string{config.FlagRecurseSubdirs, config.FlagCreateAllSubdirs}},
		},
		Tasks: []config.Task{{Name: "desktopicon", Description: "Create a desktop shortcut"}},
		Icons: []config.Icon{
			{Name: "{group}/LCDPR Frutacc", Filename: "{app}/LCDPR Frutacc.exe"},
			{Name: "{autodesktop}/LCDPR Frutacc", Filename: "{app}/LCDPR Frutacc.exe", Tasks: []string{"desktopicon"}},
		},
	}))

	stub := filepath.Join(project, "lcdpr-setup")
	require.NoError(t, os.WriteFile(stub, []byte("bare stub"), 0o755))

	built, err := packager.Run(context.Background(), &packager.Options{
		ConfigPath:       configPath,
		StubPath:         stub,
		CompressionLevel: gzip.BestSpeed,
	})
	require.NoError(t, err)

	root := t.TempDir()
	resolver := &config.Resolver{
		ProgramFiles: filepath.Join(root, "Programs"),
		Group:        filepath.Join(root, "Start Menu", "LCDPR Frutacc"),
		Desktop:      filepath.Join(root, "Desktop"),
		Tmp:          root,
	}

	res, err := setup.Run(context.Background(), &setup.Options{
		InstallerPath: built.OutputPath,
		Silent:        true,
		Resolver:      resolver,
		Launcher:      noopLauncher{},
	})
	require.NoError(t, err)
	require.Len(t, res.Shortcuts, 2)

	return res, resolver
}

// TestUninstallRemovesEverything leaves no trace of a silent install.
func TestUninstallRemovesEverything(t *testing.T) {
	t.Parallel()

	installed, resolver := install(t)

	res, err := Run(context.Background(), &Options{
		Silent:   true,
		SelfPath: installed.Uninstaller,
	})
	require.NoError(t, err)
	require.Equal(t, installed.InstallDir, res.InstallDir)
	require.Equal(t, 4, res.Removed)
	require.Empty(t, res.Remaining)
	require.False(t, res.Scheduled)

	require.NoDirExists(t, installed.InstallDir)
	require.NoDirExists(t, resolver.ProgramFiles)
	require.NoDirExists(t, resolver.Group)

	for _, file := range installed.Shortcuts {
		require.NoFileExists(t, file)
	}
}

// TestUninstallKeepsUserData removes recorded files only.
func TestUninstallKeepsUserData(t *testing.T) {
	t.Parallel()

	installed, _ := install(t)

	userLog := filepath.Join(installed.InstallDir, "_internal", "logs", "app.log")
	require.NoError(t, os.WriteFile(userLog, []byte("2026-10-16 started\n"), 0o644))

	res, err := Run(context.Background(), &Options{
		Dir:      installed.InstallDir,
		Silent:   true,
		SelfPath: filepath.Join(t.TempDir(), "lcdpr-setup"),
	})
	require.NoError(t, err)

	require.FileExists(t, userLog)
	require.NoFileExists(t, installed.Uninstaller)
	require.NoFileExists(t, filepath.Join(installed.InstallDir, record.Filename))
	require.NoFileExists(t, filepath.Join(installed.InstallDir, "LCDPR Frutacc.exe"))
	require.Contains(t, res.Remaining, filepath.Join(installed.InstallDir, "_internal", "logs"))
	require.Contains(t, res.Remaining, installed.InstallDir)
}

// TestUninstallInteractive asks once and does nothing when declined.
func TestUninstallInteractive(t *testing.T) {
	t.Parallel()

	installed, _ := install(t)

	declined := &answerPrompter{answer: false}
	_, err := Run(context.Background(), &Options{
		Dir:      installed.InstallDir,
		Prompter: declined,
		SelfPath: installed.Uninstaller,
	})
	require.ErrorIs(t, err, errCancelled)
	require.Equal(t, 1, declined.asked)
	require.FileExists(t, filepath.Join(installed.InstallDir, "LCDPR Frutacc.exe"))
	require.FileExists(t, filepath.Join(installed.InstallDir, record.Filename))

	accepted := &answerPrompter{answer: true}
	_, err = Run(context.Background(), &Options{
		Dir:      installed.InstallDir,
		Prompter: accepted,
		SelfPath: installed.Uninstaller,
	})
	require.NoError(t, err)
	require.NoDirExists(t, installed.InstallDir)
}

// TestUninstallNothingInstalled reports a missing record.
func TestUninstallNothingInstalled(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), &Options{Dir: t.TempDir(), Silent: true})
	require.ErrorIs(t, err, errNotInstalled)
}
