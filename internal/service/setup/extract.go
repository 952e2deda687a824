package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/pterm/pterm"

	"github.com/frutacc/lcdpr-setup/internal/logger"
	"github.com/frutacc/lcdpr-setup/internal/payload"
	"github.com/frutacc/lcdpr-setup/internal/service/common"
)

// defaultFileMode applies to entries packaged without permission bits.
const defaultFileMode fs.FileMode = 0o644

// extract writes every packaged file and directory below the install dir.
func (r *runner) extract(ctx context.Context) error {
	idx := r.inst.Index

	if err := r.ensureDir(r.dir); err != nil {
		return err
	}

	for i := range idx.Dirs {
		target, err := r.resolver.Expand(idx.Dirs[i].Target())
		if err != nil {
			return err
		}

		if err = r.ensureDir(target); err != nil {
			return err
		}
	}

	var bar *pterm.ProgressbarPrinter
	if r.opts.ShowProgress && len(idx.Entries) > 0 {
		bar, _ = pterm.DefaultProgressbar.
			WithTotal(len(idx.Entries)).
			WithTitle("Installing " + idx.Manifest.AppName).
			Start()
	}

	err := r.inst.Walk(ctx, func(entry *payload.Entry, contents io.Reader) error {
		target, err := r.resolver.Expand(entry.Target())
		if err != nil {
			return err
		}

		logger.DebugKV(ctx, "Extracting file", "target", target, "size", entry.Size)

		if err = r.ensureDir(filepath.Dir(target)); err != nil {
			return err
		}

		checksum, err := common.DecodeChecksum(entry.Checksum)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Target(), err)
		}

		mode := fs.FileMode(entry.Mode)
		if mode == 0 {
			mode = defaultFileMode
		}

		fresh := !exists(target)

		if err = applyFile(target, contents, checksum, mode); err != nil {
			return err
		}

		r.rec.AddFile(target)

		if fresh {
			r.created.AddFile(target)
		}
		r.result.Files++

		if bar != nil {
			bar.Increment()
		}

		return nil
	})

	if bar != nil {
		_, _ = bar.Stop()
	}

	if err != nil {
		return fmt.Errorf("extract files: %w", err)
	}

	return nil
}

// applyFile replaces target with contents once the checksum matches.
// go-update swaps files by renaming, so the target has to exist first.
func applyFile(target string, contents io.Reader, checksum []byte, mode fs.FileMode) error {
	created := false

	if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
		placeholder, createErr := os.OpenFile(filepath.Clean(target), os.O_CREATE|os.O_WRONLY, mode)
		if createErr != nil {
			return fmt.Errorf("create %s: %w", target, createErr)
		}

		_ = placeholder.Close()
		created = true
	}

	err := goupdate.Apply(contents, goupdate.Options{
		TargetPath: target,
		TargetMode: mode,
		Checksum:   checksum,
		Hash:       common.ChecksumFunction,
	})
	if err != nil {
		if rollbackErr := goupdate.RollbackError(err); rollbackErr != nil {
			return fmt.Errorf("apply %s: %w (rollback failed: %w)", target, err, rollbackErr)
		}

		if created {
			_ = os.Remove(target)
		}

		return fmt.Errorf("apply %s: %w", target, err)
	}

	// Windows may refuse to delete the previous file while it is mapped; try again here.
	oldPath := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".old")
	if _, statErr := os.Stat(oldPath); statErr == nil {
		_ = os.Remove(oldPath)
	}

	return nil
}

// ensureDir creates path and remembers every directory that did not exist before.
func (r *runner) ensureDir(path string) error {
	var missing []string

	for current := filepath.Clean(path); ; current = filepath.Dir(current) {
		if _, err := os.Stat(current); err == nil {
			break
		}

		missing = append(missing, current)

		if parent := filepath.Dir(current); parent == current {
			break
		}
	}

	if len(missing) == 0 {
		return nil
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}

	for _, dir := range missing {
		r.rec.AddDir(dir)
		r.created.AddDir(dir)
	}

	return nil
}
