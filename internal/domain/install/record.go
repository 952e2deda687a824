package install

import (
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Actor identifies who ran the installer.
type Actor struct {
	// Hostname is the machine name the installer ran on.
	Hostname string
	// Username is the system user who ran the installer.
	Username string
}

// Record describes one installation on disk.
type Record struct {
	// AppKey identifies the application across versions.
	AppKey string
	// AppName is the display name.
	AppName string
	// AppVersion is the installed version.
	AppVersion string
	// Publisher is the vendor shown in the uninstall entry.
	Publisher string
	// AppExeName is the main executable, checked before files are touched.
	AppExeName string
	// InstallDir is the {app} directory.
	InstallDir string
	// Machine is true for machine-wide installs.
	Machine bool
	// Tasks are the task names selected during installation.
	Tasks []string
	// Files are the absolute paths of every file written.
	Files []string
	// Dirs are the directories the installer created.
	Dirs []string
	// Shortcuts are the absolute paths of the shortcut files created.
	Shortcuts []string
	// Uninstaller is the path of the uninstaller executable.
	Uninstaller string
	// InstalledAt is when the installation finished.
	InstalledAt time.Time
	// InstalledBy is who ran the installer.
	InstalledBy *Actor
}

// AddFile notes a written file once.
func (r *Record) AddFile(path string) {
	if !slices.Contains(r.Files, path) {
		r.Files = append(r.Files, path)
	}
}

// AddDir notes a created directory once.
func (r *Record) AddDir(path string) {
	if !slices.Contains(r.Dirs, path) {
		r.Dirs = append(r.Dirs, path)
	}
}

// AddShortcut notes a created shortcut once.
func (r *Record) AddShortcut(path string) {
	if !slices.Contains(r.Shortcuts, path) {
		r.Shortcuts = append(r.Shortcuts, path)
	}
}

// HasTask reports whether the task was selected.
func (r *Record) HasTask(name string) bool {
	return slices.Contains(r.Tasks, name)
}

// DirsDeepestFirst returns Dirs ordered so that children come before parents.
func (r *Record) DirsDeepestFirst() []string {
	dirs := slices.Clone(r.Dirs)

	slices.SortStableFunc(dirs, func(a, b string) int {
		da := strings.Count(filepath.Clean(a), string(filepath.Separator))
		db := strings.Count(filepath.Clean(b), string(filepath.Separator))

		if da != db {
			return db - da
		}

		return strings.Compare(b, a)
	})

	return dirs
}
