package record

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/frutacc/lcdpr-setup/internal/domain/install"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing record.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()
	repo := ForDir(t.TempDir())
	r, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, r)
}

// TestFileRepository_SaveLoadRemove ensures Save followed by Load returns the same record and Remove deletes it.
func TestFileRepository_SaveLoadRemove(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	repo := ForDir(dir)

	want := &domain.Record{
		AppKey:      "{ABC}",
		AppName:     "LCDPR Frutacc",
		AppVersion:  "1.2.0",
		InstallDir:  dir,
		Machine:     true,
		Tasks:       []string{"desktopicon"},
		Files:       []string{filepath.Join(dir, "LCDPR Frutacc.exe")},
		Dirs:        []string{dir},
		Shortcuts:   []string{filepath.Join(dir, "menu", "LCDPR Frutacc.desktop")},
		Uninstaller: filepath.Join(dir, "unins000.exe"),
		InstalledAt: time.Now().UTC().Truncate(time.Second),
		InstalledBy: &domain.Actor{Hostname: "ESCRITORIO-01", Username: "contabil"},
	}

	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, want))

	_, err := os.Stat(filepath.Join(dir, Filename))
	require.NoError(t, err)

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want.Files, got.Files)
	require.Equal(t, want.Tasks, got.Tasks)
	require.Equal(t, want.InstalledAt.Unix(), got.InstalledAt.Unix())
	require.Equal(t, want.InstalledBy, got.InstalledBy)
	require.Equal(t, want.AppVersion, got.AppVersion)

	require.NoError(t, repo.Remove(ctx))
	require.NoError(t, repo.Remove(ctx), "second remove is a no-op")

	_, err = repo.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)
}
