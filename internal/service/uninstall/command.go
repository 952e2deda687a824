package uninstall

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	domain "github.com/frutacc/lcdpr-setup/internal/domain/install"
	"github.com/frutacc/lcdpr-setup/internal/logger"
	"github.com/frutacc/lcdpr-setup/internal/prompt"
	"github.com/frutacc/lcdpr-setup/internal/registry"
	"github.com/frutacc/lcdpr-setup/internal/repository/record"
	"github.com/frutacc/lcdpr-setup/internal/service/common"
	"github.com/frutacc/lcdpr-setup/internal/shortcut"
)

var (
	errNotInstalled = errors.New("no installation found")
	errCancelled    = errors.New("uninstall cancelled")
)

// Options are inputs accepted by the uninstaller entry point.
type Options struct {
	// Dir is the install directory. Defaults to the directory of SelfPath.
	Dir string
	// Silent removes without asking.
	Silent bool
	// Prompter asks for confirmation in interactive mode. Defaults to the terminal.
	Prompter prompt.Prompter
	// SelfPath is the running executable. Defaults to os.Executable.
	SelfPath string
}

// Result describes what was removed.
type Result struct {
	// AppName is the removed application.
	AppName string
	// InstallDir is the directory that was uninstalled.
	InstallDir string
	// Removed counts deleted files and shortcuts.
	Removed int
	// Remaining lists recorded paths that could not be removed, such as folders holding user data.
	Remaining []string
	// Scheduled is true when the uninstaller deletes itself after exit.
	Scheduled bool
}

// Run removes the installation recorded in the install directory.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "lcdpr-uninstall")

	self := opts.SelfPath
	if self == "" {
		executable, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate uninstaller: %w", err)
		}

		self = executable
	}

	dir := opts.Dir
	if dir == "" {
		dir = filepath.Dir(self)
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("install dir: %w", err)
	}

	repo := record.ForDir(dir)

	rec, err := repo.Load(ctx)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", dir, errNotInstalled)
		}

		return nil, err
	}

	ctx = logger.WithKV(ctx, "app", rec.AppName, "version", rec.AppVersion, "dir", dir)

	prompter := opts.Prompter
	if !opts.Silent && prompter == nil {
		prompter = prompt.NewSurvey()
	}

	if err = confirm(ctx, rec, opts.Silent, prompter); err != nil {
		return nil, err
	}

	res := &Result{
		AppName:    rec.AppName,
		InstallDir: dir,
	}

	removeFiles(ctx, rec, res)

	if err = repo.Remove(ctx); err != nil {
		return nil, err
	}

	if err = removeUninstaller(ctx, rec, self, dir, res); err != nil {
		logger.WarnKV(ctx, "Unable to remove the uninstaller", "error", err)
		res.Remaining = append(res.Remaining, rec.Uninstaller)
	}

	removeDirs(ctx, rec, res)

	if err = registry.Unregister(rec.AppKey, rec.Machine); err != nil {
		logger.WarnKV(ctx, "Unable to remove the uninstall entry", "error", err)
	}

	logger.InfoKV(ctx, "Uninstall finished", "removed", res.Removed, "remaining", len(res.Remaining))

	return res, nil
}

// confirm stops a running application and asks the user before anything is removed.
func confirm(ctx context.Context, rec *domain.Record, silent bool, prompter prompt.Prompter) error {
	var closer common.CloseConfirmer
	if !silent {
		closer = func([]common.Process) (bool, error) {
			return prompter.Confirm(rec.AppName+" is running. Close it and continue?", true)
		}
	}

	if err := common.EnsureNotRunning(ctx, rec.AppExeName, closer); err != nil {
		return err
	}

	if silent {
		return nil
	}

	ok, err := prompter.Confirm(fmt.Sprintf("Remove %s and all of its components?", rec.AppName), true)
	if err != nil {
		return err
	}

	if !ok {
		return errCancelled
	}

	return nil
}

func removeFiles(ctx context.Context, rec *domain.Record, res *Result) {
	for _, file := range rec.Files {
		if err := os.Remove(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}

			logger.WarnKV(ctx, "Unable to remove file", "path", file, "error", err)
			res.Remaining = append(res.Remaining, file)

			continue
		}

		res.Removed++
	}

	for _, file := range rec.Shortcuts {
		if err := shortcut.Remove(file); err != nil {
			logger.WarnKV(ctx, "Unable to remove shortcut", "path", file, "error", err)
			res.Remaining = append(res.Remaining, file)

			continue
		}

		res.Removed++
	}
}

// removeUninstaller deletes the uninstaller, deferring to a cleanup script when it is the running binary.
func removeUninstaller(ctx context.Context, rec *domain.Record, self, dir string, res *Result) error {
	if rec.Uninstaller == "" {
		return nil
	}

	if samePath(rec.Uninstaller, self) {
		scheduled, err := removeSelf(ctx, rec.Uninstaller, dir)
		res.Scheduled = scheduled

		return err
	}

	if err := os.Remove(rec.Uninstaller); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove uninstaller: %w", err)
	}

	return nil
}

// removeDirs removes recorded directories that are empty, children first.
func removeDirs(ctx context.Context, rec *domain.Record, res *Result) {
	for _, dir := range rec.DirsDeepestFirst() {
		err := os.Remove(dir)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			continue
		}

		// The running uninstaller keeps the install dir busy until the cleanup script runs.
		if res.Scheduled && samePath(dir, rec.InstallDir) {
			continue
		}

		logger.DebugKV(ctx, "Directory kept", "path", dir, "reason", err)
		res.Remaining = append(res.Remaining, dir)
	}
}

func samePath(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if filepath.Separator == '\\' {
		return strings.EqualFold(a, b)
	}

	return a == b
}
