package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"github.com/adrg/xdg"
)

// Path constants usable in dest_dir, icon and run templates.
const (
	ConstApp         = "app"
	ConstAutoPF      = "autopf"
	ConstGroup       = "group"
	ConstAutoDesktop = "autodesktop"
	ConstTmp         = "tmp"
	ConstSrc         = "src"
)

var (
	errUnknownConstant  = errors.New("unknown constant")
	errConstantNotKnown = errors.New("constant has no value yet")
)

// constantPattern matches "{name}" placeholders.
var constantPattern = regexp.MustCompile(`\{([a-z]+)\}`)

// Resolver expands path constants for one installation.
type Resolver struct {
	// App is the chosen install directory. Empty until the directory is decided.
	App string
	// ProgramFiles is the parent of default install directories.
	ProgramFiles string
	// Group is the Start-menu folder of the application.
	Group string
	// Desktop is the desktop folder shortcuts go to.
	Desktop string
	// Tmp is a scratch directory.
	Tmp string
	// Src is the directory holding the running installer.
	Src string
}

// NewResolver returns the platform folders for the manifest's privilege level.
// Windows uses the shell folders from the environment; other systems use XDG
// locations so that shortcuts land where desktop environments look for them.
func NewResolver(m *Manifest, src string) *Resolver {
	r := &Resolver{
		Tmp: os.TempDir(),
		Src: src,
	}

	if runtime.GOOS == "windows" {
		r.fillWindows(m)
	} else {
		r.fillXDG(m)
	}

	return r
}

func (r *Resolver) fillWindows(m *Manifest) {
	startMenu := filepath.Join("Microsoft", "Windows", "Start Menu", "Programs")

	if m.Machine() {
		r.ProgramFiles = os.Getenv("ProgramFiles")
		r.Group = filepath.Join(os.Getenv("ProgramData"), startMenu, m.DefaultGroupName)
		r.Desktop = filepath.Join(os.Getenv("PUBLIC"), "Desktop")

		return
	}

	r.ProgramFiles = filepath.Join(os.Getenv("LOCALAPPDATA"), "Programs")
	r.Group = filepath.Join(os.Getenv("APPDATA"), startMenu, m.DefaultGroupName)
	r.Desktop = filepath.Join(os.Getenv("USERPROFILE"), "Desktop")
}

func (r *Resolver) fillXDG(m *Manifest) {
	if m.Machine() {
		r.ProgramFiles = "/opt"
	} else {
		r.ProgramFiles = xdg.DataHome
	}

	r.Group = filepath.Join(xdg.DataHome, "applications", m.DefaultGroupName)
	r.Desktop = xdg.UserDirs.Desktop
}

// Expand replaces every constant in template and returns a native path.
func (r *Resolver) Expand(template string) (string, error) {
	expanded, err := r.ExpandText(template)
	if err != nil {
		return "", err
	}

	return filepath.Clean(filepath.FromSlash(expanded)), nil
}

// ExpandText replaces every constant in template and leaves the rest untouched.
// Used for command-line parameters, which are not paths.
func (r *Resolver) ExpandText(template string) (string, error) {
	var expandErr error

	expanded := constantPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]

		value, ok := r.lookup(name)
		if !ok {
			expandErr = errors.Join(expandErr, fmt.Errorf("{%s}: %w", name, errUnknownConstant))
			return match
		}

		if value == "" {
			expandErr = errors.Join(expandErr, fmt.Errorf("{%s}: %w", name, errConstantNotKnown))
			return match
		}

		return value
	})

	if expandErr != nil {
		return "", fmt.Errorf("expand %q: %w", template, expandErr)
	}

	return expanded, nil
}

func (r *Resolver) lookup(name string) (string, bool) {
	switch name {
	case ConstApp:
		return r.App, true
	case ConstAutoPF:
		return r.ProgramFiles, true
	case ConstGroup:
		return r.Group, true
	case ConstAutoDesktop:
		return r.Desktop, true
	case ConstTmp:
		return r.Tmp, true
	case ConstSrc:
		return r.Src, true
	default:
		return "", false
	}
}

// CheckTemplate rejects templates that use unknown constants.
func CheckTemplate(template string) error {
	for _, match := range constantPattern.FindAllStringSubmatch(template, -1) {
		if _, ok := (&Resolver{}).lookup(match[1]); !ok {
			return fmt.Errorf("{%s}: %w", match[1], errUnknownConstant)
		}
	}

	return nil
}
