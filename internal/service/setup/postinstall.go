package setup

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/shlex"

	"github.com/frutacc/lcdpr-setup/internal/config"
	"github.com/frutacc/lcdpr-setup/internal/logger"
)

// launch starts the run entries that apply to this installation.
// Programs that fail to start are logged; the files are already in place.
func (r *runner) launch(ctx context.Context) {
	for i := range r.manifest.Run {
		entry := &r.manifest.Run[i]

		run, err := r.shouldRun(entry)
		if err != nil {
			logger.WarnKV(ctx, "Skipping program", "filename", entry.Filename, "error", err)
			continue
		}

		if !run {
			logger.DebugKV(ctx, "Skipping program", "filename", entry.Filename)
			continue
		}

		cmd, err := r.command(entry)
		if err != nil {
			logger.WarnKV(ctx, "Invalid run entry", "filename", entry.Filename, "error", err)
			continue
		}

		logger.InfoKV(ctx, "Starting program", "path", cmd.Path, "wait", cmd.Wait)

		if err = r.opts.Launcher.Launch(ctx, cmd); err != nil {
			logger.WarnKV(ctx, "Program failed", "path", cmd.Path, "error", err)
			continue
		}

		r.result.Launched = append(r.result.Launched, cmd.Path)
	}
}

// shouldRun applies the skipifsilent and postinstall flags.
func (r *runner) shouldRun(entry *config.RunEntry) (bool, error) {
	skipIfSilent := config.HasFlag(entry.Flags, config.FlagSkipIfSilent)
	postInstall := config.HasFlag(entry.Flags, config.FlagPostInstall)

	if r.opts.NoLaunch && (skipIfSilent || postInstall) {
		return false, nil
	}

	if r.opts.Silent {
		return !skipIfSilent, nil
	}

	if !postInstall {
		return true, nil
	}

	message := entry.Description
	if message == "" {
		message = fmt.Sprintf("Launch %s?", r.manifest.AppName)
	}

	return r.opts.Prompter.Confirm(message, true)
}

func (r *runner) command(entry *config.RunEntry) (*Command, error) {
	path, err := r.resolver.Expand(entry.Filename)
	if err != nil {
		return nil, err
	}

	parameters, err := r.resolver.ExpandText(entry.Parameters)
	if err != nil {
		return nil, err
	}

	args, err := splitParameters(parameters)
	if err != nil {
		return nil, fmt.Errorf("parameters %q: %w", entry.Parameters, err)
	}

	dir := r.dir
	if entry.WorkingDir != "" {
		if dir, err = r.resolver.Expand(entry.WorkingDir); err != nil {
			return nil, err
		}
	} else if filepath.IsAbs(path) {
		dir = filepath.Dir(path)
	}

	return &Command{
		Path: path,
		Args: args,
		Dir:  dir,
		Wait: !config.HasFlag(entry.Flags, config.FlagNoWait),
	}, nil
}

// splitParameters splits a command line shell-style.
// Backslashes are path separators on Windows, so they are kept literally there.
func splitParameters(parameters string) ([]string, error) {
	if runtime.GOOS == "windows" {
		parameters = strings.ReplaceAll(parameters, `\`, `\\`)
	}

	return shlex.Split(parameters)
}
