package setup

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/frutacc/lcdpr-setup/internal/config"
	"github.com/frutacc/lcdpr-setup/internal/logger"
	"github.com/frutacc/lcdpr-setup/internal/shortcut"
)

// createIcons creates the shortcuts whose tasks were all selected and removes
// those of an earlier installation whose tasks were deselected.
// A shortcut that cannot be created does not fail the installation.
func (r *runner) createIcons(ctx context.Context) {
	for _, file := range r.stale {
		if err := shortcut.Remove(file); err != nil {
			logger.WarnKV(ctx, "Unable to remove shortcut", "path", file, "error", err)
			r.rec.AddShortcut(file)

			continue
		}

		logger.InfoKV(ctx, "Shortcut removed", "path", file)
	}

	for i := range r.manifest.Icons {
		icon := &r.manifest.Icons[i]

		if !r.tasksSelected(icon.Tasks) {
			logger.DebugKV(ctx, "Skipping icon, task not selected", "icon", icon.Name)
			continue
		}

		file, err := r.createIcon(icon)
		if err != nil {
			logger.WarnKV(ctx, "Unable to create shortcut", "icon", icon.Name, "error", err)
			continue
		}

		// Shortcuts carried over from an earlier installation are already recorded.
		if !slices.Contains(r.rec.Shortcuts, file) {
			r.created.AddShortcut(file)
		}

		r.rec.AddShortcut(file)
		r.result.Shortcuts = append(r.result.Shortcuts, file)

		logger.InfoKV(ctx, "Shortcut created", "path", file)
	}
}

func (r *runner) createIcon(icon *config.Icon) (string, error) {
	path, err := r.resolver.Expand(icon.Name)
	if err != nil {
		return "", err
	}

	target, err := r.resolver.Expand(icon.Filename)
	if err != nil {
		return "", err
	}

	spec := shortcut.Spec{
		Path:        path,
		Target:      target,
		Description: icon.Comment,
	}

	if icon.WorkingDir != "" {
		if spec.WorkingDir, err = r.resolver.Expand(icon.WorkingDir); err != nil {
			return "", err
		}
	}

	// The Start-menu group usually has to be created; uninstall removes it again.
	if err = r.ensureDir(filepath.Dir(path)); err != nil {
		return "", err
	}

	return shortcut.Create(spec)
}

func (r *runner) tasksSelected(required []string) bool {
	for _, name := range required {
		if !config.HasFlag(r.result.Tasks, name) {
			return false
		}
	}

	return true
}
