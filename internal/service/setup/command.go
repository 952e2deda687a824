package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/frutacc/lcdpr-setup/internal/config"
	domain "github.com/frutacc/lcdpr-setup/internal/domain/install"
	"github.com/frutacc/lcdpr-setup/internal/logger"
	"github.com/frutacc/lcdpr-setup/internal/payload"
	"github.com/frutacc/lcdpr-setup/internal/prompt"
	"github.com/frutacc/lcdpr-setup/internal/registry"
	"github.com/frutacc/lcdpr-setup/internal/repository/record"
	"github.com/frutacc/lcdpr-setup/internal/service/common"
	"github.com/frutacc/lcdpr-setup/internal/shortcut"
)

// UninstallerBasename is the file name of the uninstaller copied into the install dir.
const UninstallerBasename = "unins000"

var (
	errUnknownTask = errors.New("unknown task")
	errCancelled   = errors.New("installation cancelled")
)

// Options are inputs accepted by the installer entry point.
type Options struct {
	// InstallerPath is the installer to read. Defaults to the running executable.
	InstallerPath string
	// Dir overrides the install directory.
	Dir string
	// Silent disables every question and uses defaults.
	Silent bool
	// Tasks selects tasks explicitly when TasksSet is true.
	Tasks []string
	// TasksSet reports whether Tasks was given, so that an empty list deselects everything.
	TasksSet bool
	// NoLaunch skips post-install programs.
	NoLaunch bool
	// ShowProgress draws a progress bar while extracting.
	ShowProgress bool
	// Prompter asks questions in interactive mode. Defaults to the terminal.
	Prompter prompt.Prompter
	// Resolver overrides the platform folders. Its App field is set by Run.
	Resolver *config.Resolver
	// Launcher starts post-install programs. Defaults to ExecLauncher.
	Launcher Launcher
}

// Result describes a finished installation.
type Result struct {
	// AppName is the installed application.
	AppName string
	// Version is the installed version.
	Version string
	// InstallDir is where the application went.
	InstallDir string
	// Files is the number of files written.
	Files int
	// Tasks are the selected task names.
	Tasks []string
	// Shortcuts are the shortcut files created.
	Shortcuts []string
	// Uninstaller is the uninstaller path.
	Uninstaller string
	// Launched lists the programs started after installation.
	Launched []string
}

// runner holds the state of one installation.
type runner struct {
	opts     *Options
	inst     *payload.Installer
	manifest *config.Manifest
	resolver *config.Resolver
	dir      string
	previous *domain.Record
	rec      *domain.Record
	// created holds only what this run added, for rollback.
	created *domain.Record
	// stale are shortcuts of an earlier install that the current tasks no longer produce.
	stale  []string
	repo   record.Repository
	result *Result
}

// Run installs the payload of the installer.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "lcdpr-setup")

	installerPath := opts.InstallerPath
	if installerPath == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate installer: %w", err)
		}

		installerPath = self
	}

	inst, err := payload.Open(installerPath)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = inst.Close()
	}()

	r := newRunner(opts, inst, installerPath)

	ctx = logger.WithKV(ctx, "app", r.manifest.AppName, "version", r.manifest.AppVersion)

	if err = r.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Installation failed", "error", err)
		return nil, err
	}

	logger.InfoKV(ctx, "Installation finished", "dir", r.dir, "files", r.result.Files)

	return r.result, nil
}

func newRunner(opts *Options, inst *payload.Installer, installerPath string) *runner {
	options := *opts
	if !options.Silent && options.Prompter == nil {
		options.Prompter = prompt.NewSurvey()
	}

	if options.Launcher == nil {
		options.Launcher = ExecLauncher{}
	}

	manifest := inst.Index.Manifest

	resolver := options.Resolver
	if resolver == nil {
		resolver = config.NewResolver(manifest, filepath.Dir(installerPath))
	} else {
		copied := *resolver
		resolver = &copied
	}

	if resolver.Src == "" {
		resolver.Src = filepath.Dir(installerPath)
	}

	return &runner{
		opts:     &options,
		inst:     inst,
		manifest: manifest,
		resolver: resolver,
		result: &Result{
			AppName: manifest.AppName,
			Version: manifest.AppVersion,
		},
	}
}

// run performs the installation steps in order.
func (r *runner) run(ctx context.Context) error {
	if err := r.chooseDir(ctx); err != nil {
		return err
	}

	ctx = logger.WithKV(ctx, "dir", r.dir)

	if err := common.EnsureNotRunning(ctx, r.manifest.AppExeName, r.closeConfirmer()); err != nil {
		return err
	}

	if err := r.checkPrevious(ctx); err != nil {
		return err
	}

	if err := r.selectTasks(); err != nil {
		return err
	}

	r.startRecord()

	if err := r.install(ctx); err != nil {
		r.rollback(ctx)
		return err
	}

	r.register(ctx)
	r.launch(ctx)

	return nil
}

// install writes files, shortcuts and the uninstaller.
func (r *runner) install(ctx context.Context) error {
	logger.InfoKV(ctx, "Extracting files", "count", len(r.inst.Index.Entries), "bytes", r.inst.Index.TotalSize())

	if err := r.extract(ctx); err != nil {
		return err
	}

	r.createIcons(ctx)

	return r.writeUninstaller(ctx)
}

// chooseDir settles {app}.
func (r *runner) chooseDir(ctx context.Context) error {
	dir := r.opts.Dir
	if dir == "" {
		expanded, err := r.resolver.Expand(r.manifest.DefaultDirName)
		if err != nil {
			return fmt.Errorf("default_dir_name: %w", err)
		}

		dir = expanded

		if !r.opts.Silent {
			answer, err := r.opts.Prompter.Input("Install "+r.manifest.AppName+" to:", dir)
			if err != nil {
				return err
			}

			dir = answer
		}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("install dir: %w", err)
	}

	r.dir = abs
	r.resolver.App = abs
	r.result.InstallDir = abs
	r.repo = record.ForDir(abs)

	logger.InfoKV(ctx, "Install directory chosen", "dir", abs)

	return nil
}

func (r *runner) closeConfirmer() common.CloseConfirmer {
	if r.opts.Silent {
		return nil
	}

	return func([]common.Process) (bool, error) {
		return r.opts.Prompter.Confirm(r.manifest.AppName+" is running. Close it and continue?", true)
	}
}

// checkPrevious loads an earlier installation in the same directory and compares versions.
func (r *runner) checkPrevious(ctx context.Context) error {
	previous, err := r.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil
		}

		// A broken record should not block reinstalling over it.
		logger.WarnKV(ctx, "Ignoring unreadable install record", "error", err)

		return nil
	}

	r.previous = previous

	switch compareVersions(previous.AppVersion, r.manifest.AppVersion) {
	case -1:
		logger.InfoKV(ctx, "Upgrading existing installation", "from", previous.AppVersion)
	case 0:
		logger.InfoKV(ctx, "Reinstalling the same version", "installed", previous.AppVersion)
	default:
		logger.WarnKV(ctx, "Installed version is newer", "installed", previous.AppVersion)

		if r.opts.Silent {
			return nil
		}

		ok, err := r.opts.Prompter.Confirm(fmt.Sprintf("Version %s is already installed. Downgrade to %s?",
			previous.AppVersion, r.manifest.AppVersion), false)
		if err != nil {
			return err
		}

		if !ok {
			return errCancelled
		}
	}

	return nil
}

// compareVersions orders two versions; unparsable installed versions count as older.
func compareVersions(installed, incoming string) int {
	current, err := semver.NewVersion(installed)
	if err != nil {
		return -1
	}

	next, err := semver.NewVersion(incoming)
	if err != nil {
		return -1
	}

	return current.Compare(next)
}

// selectTasks decides which tasks run. An earlier installation supplies the defaults.
func (r *runner) selectTasks() error {
	switch {
	case r.opts.TasksSet:
		for _, name := range r.opts.Tasks {
			if !r.knownTask(name) {
				return fmt.Errorf("%q: %w", name, errUnknownTask)
			}
		}

		r.result.Tasks = append([]string(nil), r.opts.Tasks...)
	case r.opts.Silent && r.previous == nil:
		r.result.Tasks = r.manifest.DefaultTasks()
	case r.opts.Silent:
		for i := range r.manifest.Tasks {
			if task := &r.manifest.Tasks[i]; r.taskDefault(task) {
				r.result.Tasks = append(r.result.Tasks, task.Name)
			}
		}
	default:
		for i := range r.manifest.Tasks {
			task := &r.manifest.Tasks[i]

			ok, err := r.opts.Prompter.Confirm(task.Description, r.taskDefault(task))
			if err != nil {
				return err
			}

			if ok {
				r.result.Tasks = append(r.result.Tasks, task.Name)
			}
		}
	}

	return nil
}

func (r *runner) taskDefault(task *config.Task) bool {
	if r.previous != nil {
		return r.previous.HasTask(task.Name)
	}

	return !config.HasFlag(task.Flags, config.FlagUnchecked)
}

func (r *runner) knownTask(name string) bool {
	for _, task := range r.manifest.Tasks {
		if task.Name == name {
			return true
		}
	}

	return false
}

// startRecord prepares the install record, keeping what an earlier install left behind.
func (r *runner) startRecord() {
	r.rec = &domain.Record{
		AppKey:     r.manifest.AppKey(),
		AppName:    r.manifest.AppName,
		AppVersion: r.manifest.AppVersion,
		Publisher:  r.manifest.AppPublisher,
		AppExeName: r.manifest.AppExeName,
		InstallDir: r.dir,
		Machine:    r.manifest.Machine(),
		Tasks:      r.result.Tasks,
	}
	r.created = &domain.Record{InstallDir: r.dir}

	if r.previous == nil {
		return
	}

	for _, file := range r.previous.Files {
		if _, err := os.Stat(file); err == nil {
			r.rec.AddFile(file)
		}
	}

	for _, dir := range r.previous.Dirs {
		r.rec.AddDir(dir)
	}

	wanted := r.wantedShortcuts()

	for _, file := range r.previous.Shortcuts {
		if _, err := os.Stat(file); err != nil {
			continue
		}

		if _, ok := wanted[filepath.Clean(file)]; !ok {
			r.stale = append(r.stale, file)
			continue
		}

		r.rec.AddShortcut(file)
	}
}

// wantedShortcuts returns the shortcut files the selected tasks produce.
func (r *runner) wantedShortcuts() map[string]struct{} {
	wanted := make(map[string]struct{}, len(r.manifest.Icons))

	for i := range r.manifest.Icons {
		icon := &r.manifest.Icons[i]
		if !r.tasksSelected(icon.Tasks) {
			continue
		}

		path, err := r.resolver.Expand(icon.Name)
		if err != nil {
			continue
		}

		wanted[filepath.Clean(path+shortcut.Extension)] = struct{}{}
	}

	return wanted
}

// writeUninstaller copies the stub into the install dir and saves the record beside it.
func (r *runner) writeUninstaller(ctx context.Context) error {
	uninstaller := filepath.Join(r.dir, common.ExecutableName(UninstallerBasename))

	if !exists(uninstaller) {
		r.created.AddFile(uninstaller)
	}

	if !exists(r.repo.Path()) {
		r.created.AddFile(r.repo.Path())
	}

	if err := r.inst.CopyStub(uninstaller); err != nil {
		return err
	}

	r.rec.Uninstaller = uninstaller
	r.rec.InstalledAt = time.Now().UTC()
	r.result.Uninstaller = uninstaller

	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Unable to detect the installing user", "error", err)
	} else {
		r.rec.InstalledBy = actor
	}

	if err = r.repo.Save(ctx, r.rec); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Uninstaller written", "path", uninstaller, "record", r.repo.Path())

	return nil
}

// register writes the uninstall entry. Failures leave a working installation, so they are logged.
func (r *runner) register(ctx context.Context) {
	entry := &registry.Entry{
		AppKey:          r.rec.AppKey,
		Machine:         r.rec.Machine,
		DisplayName:     r.manifest.AppName,
		DisplayVersion:  r.manifest.AppVersion,
		Publisher:       r.manifest.AppPublisher,
		URLInfoAbout:    r.manifest.AppURL,
		InstallLocation: r.dir + string(filepath.Separator),
		DisplayIcon:     r.rec.Uninstaller,
		UninstallString: fmt.Sprintf(`"%s" uninstall`, r.rec.Uninstaller),
		QuietUninstall:  fmt.Sprintf(`"%s" uninstall --silent`, r.rec.Uninstaller),
		EstimatedSizeKB: uint32(min(r.inst.Index.TotalSize()/1024, int64(^uint32(0)))), //nolint:gosec // Clamped above.
	}

	if r.manifest.AppExeName != "" {
		entry.DisplayIcon = filepath.Join(r.dir, r.manifest.AppExeName)
	}

	if err := registry.Register(entry); err != nil {
		logger.WarnKV(ctx, "Unable to register the uninstall entry", "error", err)
		return
	}

	logger.DebugKV(ctx, "Uninstall entry registered", "key", registry.KeyPath(entry.AppKey))
}
