package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		" warn ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got, s)
	}

	_, ok := ParseLogLevel("verbose")
	require.False(t, ok)
}

// TestContextHelpers checks that names and fields attached to the context reach the output.
func TestContextHelpers(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = WithName(ctx, "lcdpr-setup")
	ctx = WithKV(ctx, "dir", "/opt/app")

	InfoKV(ctx, "Copying file", "file", "app.exe")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "lcdpr-setup", entries[0].LoggerName)
	require.Equal(t, "/opt/app", entries[0].ContextMap()["dir"])
	require.Equal(t, "app.exe", entries[0].ContextMap()["file"])
}

// TestFromContextFallsBackToGlobal ensures a bare context yields the global logger.
func TestFromContextFallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestNewWritesToWriter ensures New sends console lines to the given writer.
func TestNewWritesToWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := New(&buf)
	l.Warn("disk almost full")

	require.Contains(t, buf.String(), "disk almost full")
}

func TestAttachCobraLogLevelFlag(t *testing.T) {
	defer SetLevel(zapcore.InfoLevel)

	root := &cobra.Command{
		Use:           "lcdpr-test",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(*cobra.Command, []string) error { return nil },
	}
	AttachCobraLogLevelFlag(root)

	root.SetArgs([]string{"--log-level", "debug"})
	require.NoError(t, root.Execute())
	require.Equal(t, zapcore.DebugLevel, Level())

	root.SetArgs([]string{"--log-level", "loud"})
	require.ErrorIs(t, root.Execute(), errBadLogLevel)
}
