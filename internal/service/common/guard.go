//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frutacc/lcdpr-setup/internal/logger"
)

// ErrAppRunning is returned when the application is running and may not be closed.
var ErrAppRunning = errors.New("application is running, close it and try again")

// CloseConfirmer decides whether running processes may be killed.
// A nil CloseConfirmer always refuses, which is what silent mode wants.
type CloseConfirmer func(running []Process) (bool, error)

// EnsureNotRunning checks for processes named exeName and kills them once confirm agrees.
func EnsureNotRunning(ctx context.Context, exeName string, confirm CloseConfirmer) error {
	if exeName == "" {
		return nil
	}

	running, err := FindRunning(exeName)
	if err != nil {
		// Listing processes is best effort; replacing a locked file fails later anyway.
		logger.WarnKV(ctx, "Unable to list processes", "error", err)
		return nil
	}

	if len(running) == 0 {
		return nil
	}

	pids := make([]string, 0, len(running))
	for _, process := range running {
		pids = append(pids, fmt.Sprint(process.PID))
	}

	logger.InfoKV(ctx, "Application is running", "executable", exeName, "pids", strings.Join(pids, ","))

	if confirm == nil {
		return fmt.Errorf("%s: %w", exeName, ErrAppRunning)
	}

	ok, err := confirm(running)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%s: %w", exeName, ErrAppRunning)
	}

	if err = Terminate(running); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Closed running application", "executable", exeName)

	return nil
}
