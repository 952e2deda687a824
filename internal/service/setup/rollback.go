package setup

import (
	"context"
	"errors"
	"os"

	"github.com/frutacc/lcdpr-setup/internal/logger"
	"github.com/frutacc/lcdpr-setup/internal/shortcut"
)

// rollback removes the files, shortcuts and directories this run created.
// Files that replaced an earlier installation stay, as does that installation's record.
func (r *runner) rollback(ctx context.Context) {
	if r.created == nil {
		return
	}

	logger.WarnKV(ctx, "Rolling back installation",
		"files", len(r.created.Files), "shortcuts", len(r.created.Shortcuts), "dirs", len(r.created.Dirs))

	for _, file := range r.created.Files {
		if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.WarnKV(ctx, "Unable to remove file", "path", file, "error", err)
		}
	}

	for _, file := range r.created.Shortcuts {
		if err := shortcut.Remove(file); err != nil {
			logger.WarnKV(ctx, "Unable to remove shortcut", "path", file, "error", err)
		}
	}

	for _, dir := range r.created.DirsDeepestFirst() {
		if err := os.Remove(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.DebugKV(ctx, "Directory kept", "path", dir, "reason", err)
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
