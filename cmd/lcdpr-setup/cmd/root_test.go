package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunsAsUninstaller(t *testing.T) {
	t.Parallel()

	require.True(t, runsAsUninstaller([]string{`C:\Program Files\LCDPR Frutacc\unins000.exe`}))
	require.True(t, runsAsUninstaller([]string{"/opt/LCDPR Frutacc/unins000", "--silent"}))
	require.True(t, runsAsUninstaller([]string{"UNINS000.EXE", "-s"}))
	require.False(t, runsAsUninstaller([]string{"unins000.exe", "uninstall", "--silent"}))
	require.False(t, runsAsUninstaller([]string{"unins000.exe", "version"}))
	require.False(t, runsAsUninstaller([]string{"LCDPR Frutacc_1.0.0_setup.exe"}))
	require.False(t, runsAsUninstaller(nil))
}
