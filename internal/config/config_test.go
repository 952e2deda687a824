package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleManifest() *Manifest {
	return &Manifest{
		AppName:        "LCDPR Frutacc",
		AppVersion:     "1.0.0",
		AppPublisher:   "Frutacc",
		AppExeName:     "LCDPR Frutacc.exe",
		DefaultDirName: "{autopf}/LCDPR Frutacc",
		Files: []FileEntry{
			{Source: "dist/LCDPR Frutacc.exe", DestDir: "{app}", Flags: []string{FlagIgnoreVersion}},
			{Source: "dist/_internal", DestDir: "{app}/_internal", Flags: []string{FlagRecurseSubdirs, FlagCreateAllSubdirs}},
			{Source: ".env", DestDir: "{app}", Flags: []string{FlagSkipIfSourceDoesntExist}},
		},
		Tasks: []Task{
			{Name: "desktopicon", Description: "Create a desktop shortcut", Flags: []string{FlagUnchecked}},
		},
		Icons: []Icon{
			{Name: "{group}/LCDPR Frutacc", Filename: "{app}/LCDPR Frutacc.exe"},
			{Name: "{autodesktop}/LCDPR Frutacc", Filename: "{app}/LCDPR Frutacc.exe", Tasks: []string{"desktopicon"}},
		},
		Run: []RunEntry{
			{Filename: "{app}/LCDPR Frutacc.exe", Description: "Launch LCDPR Frutacc", Flags: []string{FlagNoWait, FlagPostInstall, FlagSkipIfSilent}},
		},
	}
}

// TestValidate checks required fields, flags and cross references.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))
	require.Error(t, Validate(new(Manifest)))

	m := sampleManifest()
	require.NoError(t, Validate(m))
	require.Equal(t, PrivilegesAdmin, m.Privileges)
	require.Equal(t, "LCDPR Frutacc", m.DefaultGroupName)
	require.Equal(t, DefaultOutputDir, m.OutputDir)

	m = sampleManifest()
	m.AppVersion = "not-a-version"
	require.Error(t, Validate(m))

	m = sampleManifest()
	m.Files[0].Flags = append(m.Files[0].Flags, "onlyifdoesntexist")
	require.ErrorIs(t, Validate(m), errUnknownFlag)

	m = sampleManifest()
	m.Icons[1].Tasks = []string{"quicklaunchicon"}
	require.ErrorIs(t, Validate(m), errUnknownTask)

	m = sampleManifest()
	m.Tasks = append(m.Tasks, m.Tasks[0])
	require.ErrorIs(t, Validate(m), errDuplicateTask)

	m = sampleManifest()
	m.Files[1].DestDir = "{commonappdata}/x"
	require.ErrorIs(t, Validate(m), errUnknownConstant)

	m = sampleManifest()
	m.Privileges = "poweruser"
	require.ErrorIs(t, Validate(m), errBadPrivileges)

	m = sampleManifest()
	m.Files = nil
	require.ErrorIs(t, Validate(m), errNoFiles)
}

// TestSaveLoadRoundtrip ensures a manifest is persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "setup.yaml")
	m := sampleManifest()

	require.NoError(t, Save(path, m))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, m, loaded)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoadMissing reports a read error for a missing file.
func TestLoadMissing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestAppKeyAndOutputFilename covers derived identifiers.
func TestAppKeyAndOutputFilename(t *testing.T) {
	t.Parallel()

	m := sampleManifest()
	require.NoError(t, Validate(m))

	key := m.AppKey()
	require.Regexp(t, `^\{[0-9A-F-]{36}\}$`, key)
	require.Equal(t, key, sampleManifest().AppKey(), "derived key must be stable")

	m.AppID = "{LCDPR-FRUTACC}"
	require.Equal(t, "{LCDPR-FRUTACC}", m.AppKey())

	require.Equal(t, "LCDPR Frutacc_1.0.0_setup.exe", m.OutputFilename())

	m.OutputBaseFilename = "Instalador_{name}_v{version}"
	require.Equal(t, "Instalador_LCDPR Frutacc_v1.0.0.exe", m.OutputFilename())
}

// TestDefaultTasks returns tasks not flagged unchecked.
func TestDefaultTasks(t *testing.T) {
	t.Parallel()

	m := sampleManifest()
	m.Tasks = append(m.Tasks, Task{Name: "associate", Description: "Associate files"})

	require.Equal(t, []string{"associate"}, m.DefaultTasks())
}
