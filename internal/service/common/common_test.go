//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"crypto/sha512"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFileChecksum compares against a direct SHA-512 and round-trips the encoding.
func TestFileChecksum(t *testing.T) {
	t.Parallel()

	body := []byte("SUPABASE_URL=https://example.supabase.co\n")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	sum, err := FileChecksum(path)
	require.NoError(t, err)

	want := sha512.Sum512(body)
	require.Equal(t, want[:], sum)

	decoded, err := DecodeChecksum(EncodeChecksum(sum))
	require.NoError(t, err)
	require.Equal(t, sum, decoded)

	_, err = DecodeChecksum("%%%")
	require.Error(t, err)

	_, err = FileChecksum(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestFindRunning never matches this test binary and finds nothing for unknown names.
func TestFindRunning(t *testing.T) {
	t.Parallel()

	found, err := FindRunning()
	require.NoError(t, err)
	require.Empty(t, found)

	found, err = FindRunning("lcdpr-definitely-not-running.exe")
	require.NoError(t, err)
	require.Empty(t, found)

	self, err := os.Executable()
	require.NoError(t, err)

	found, err = FindRunning(filepath.Base(self))
	require.NoError(t, err)

	for _, p := range found {
		require.NotEqual(t, os.Getpid(), p.PID)
	}

	require.NoError(t, Terminate(nil))
}

// TestExecutableName adds the Windows extension only where it applies.
func TestExecutableName(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		require.Equal(t, "lcdpr.exe", ExecutableName("lcdpr"))
	} else {
		require.Equal(t, "lcdpr", ExecutableName("lcdpr"))
	}

	require.Equal(t, "app.exe", ExecutableName("app.exe"))
}

// TestEnsureNotRunning passes when nothing matches and never asks in that case.
func TestEnsureNotRunning(t *testing.T) {
	t.Parallel()

	asked := false
	confirm := func([]Process) (bool, error) {
		asked = true
		return false, nil
	}

	require.NoError(t, EnsureNotRunning(context.Background(), "", nil))
	require.NoError(t, EnsureNotRunning(context.Background(), "lcdpr-definitely-not-running.exe", nil))
	require.NoError(t, EnsureNotRunning(context.Background(), "lcdpr-definitely-not-running.exe", confirm))
	require.False(t, asked)
}
