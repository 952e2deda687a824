package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestKeyPath follows the Inno Setup key layout.
func TestKeyPath(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		`Software\Microsoft\Windows\CurrentVersion\Uninstall\{ABC}_is1`,
		KeyPath("{ABC}"),
	)
}

// TestRequiresAppKey rejects entries without a key before touching the registry.
func TestRequiresAppKey(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Register(&Entry{DisplayName: "LCDPR Frutacc"}), errNoAppKey)
	require.ErrorIs(t, Unregister("", false), errNoAppKey)
}
