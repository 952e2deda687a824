package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestResolverExpand checks constant substitution and error reporting.
func TestResolverExpand(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	r := &Resolver{
		ProgramFiles: filepath.Join(root, "pf"),
		Group:        filepath.Join(root, "menu", "LCDPR Frutacc"),
		Desktop:      filepath.Join(root, "desktop"),
	}

	got, err := r.Expand("{autopf}/LCDPR Frutacc")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "pf", "LCDPR Frutacc"), got)

	_, err = r.Expand("{app}/_internal")
	require.ErrorIs(t, err, errConstantNotKnown)

	r.App = got

	got, err = r.Expand("{app}/_internal")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "pf", "LCDPR Frutacc", "_internal"), got)

	_, err = r.Expand("{win}/system32")
	require.ErrorIs(t, err, errUnknownConstant)
}

// TestResolverExpandText leaves non-path text alone.
func TestResolverExpandText(t *testing.T) {
	t.Parallel()

	r := &Resolver{App: "/opt/app"}

	got, err := r.ExpandText("--data {app}/data --verbose")
	require.NoError(t, err)
	require.Equal(t, "--data /opt/app/data --verbose", got)
}

// TestNewResolverFillsFolders ensures platform folders are populated.
func TestNewResolverFillsFolders(t *testing.T) {
	t.Parallel()

	m := sampleManifest()
	m.Privileges = PrivilegesLowest
	require.NoError(t, Validate(m))

	r := NewResolver(m, "/media/usb")
	require.NotEmpty(t, r.ProgramFiles)
	require.NotEmpty(t, r.Tmp)
	require.Equal(t, "/media/usb", r.Src)
	require.Equal(t, "LCDPR Frutacc", filepath.Base(r.Group))
}

// TestCheckTemplate rejects unknown constants only.
func TestCheckTemplate(t *testing.T) {
	t.Parallel()

	require.NoError(t, CheckTemplate("{app}/{tmp}/{src}/{group}/{autodesktop}/{autopf}"))
	require.NoError(t, CheckTemplate("plain/path"))
	require.Error(t, CheckTemplate("{sys}/x"))
}
