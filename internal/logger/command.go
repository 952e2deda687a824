package logger

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errBadLogLevel = errors.New("unknown log level")

// AttachCobraLogLevelFlag adds a persistent --log-level flag to root and applies it before any command runs.
func AttachCobraLogLevelFlag(root *cobra.Command) {
	var raw string

	root.PersistentFlags().StringVar(&raw, "log-level", "info", "log level: debug, info, warn, error")

	previous := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		parsed, ok := ParseLogLevel(raw)
		if !ok {
			return fmt.Errorf("%q: %w", raw, errBadLogLevel)
		}

		SetLevel(parsed)

		if previous != nil {
			return previous(cmd, args)
		}

		return nil
	}
}
