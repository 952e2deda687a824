//go:build !windows

package uninstall

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// removeSelf deletes the running uninstaller; unlinking an open executable is allowed here.
func removeSelf(_ context.Context, path, _ string) (bool, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("remove uninstaller: %w", err)
	}

	return false, nil
}
