package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Manifest describes the application to package and how to install it.
type Manifest struct {
	// AppID keys the uninstall entry. Derived from publisher and name when empty.
	AppID string `yaml:"app_id,omitempty"`
	// AppName is the display name of the application.
	AppName string `yaml:"app_name"`
	// AppVersion is the version shown in the uninstall entry; lenient semver.
	AppVersion string `yaml:"app_version"`
	// AppPublisher is shown in the uninstall entry.
	AppPublisher string `yaml:"app_publisher,omitempty"`
	// AppURL is shown as the support link in the uninstall entry.
	AppURL string `yaml:"app_url,omitempty"`
	// AppExeName is the main executable file name, used to detect a running instance.
	AppExeName string `yaml:"app_exe_name,omitempty"`
	// DefaultDirName is the install directory template, e.g. "{autopf}/LCDPR Frutacc".
	DefaultDirName string `yaml:"default_dir_name"`
	// DefaultGroupName is the Start-menu folder name. Defaults to AppName.
	DefaultGroupName string `yaml:"default_group_name,omitempty"`
	// OutputDir is where the packager writes the installer, relative to the manifest.
	OutputDir string `yaml:"output_dir,omitempty"`
	// OutputBaseFilename is the installer name template; {name} and {version} are substituted.
	OutputBaseFilename string `yaml:"output_base_filename,omitempty"`
	// Privileges is "admin" for a machine-wide install or "lowest" for a per-user one.
	Privileges string `yaml:"privileges,omitempty"`
	// Files lists the copy directives.
	Files []FileEntry `yaml:"files"`
	// Tasks lists the optional steps the user can opt in or out of.
	Tasks []Task `yaml:"tasks,omitempty"`
	// Icons lists the shortcuts to create.
	Icons []Icon `yaml:"icons,omitempty"`
	// Run lists the programs to start once files are in place.
	Run []RunEntry `yaml:"run,omitempty"`
}

// FileEntry copies Source (a file, a directory or a glob) into DestDir.
type FileEntry struct {
	Source  string   `yaml:"source"`
	DestDir string   `yaml:"dest_dir"`
	Flags   []string `yaml:"flags,omitempty"`
}

// Task is an install-time option, such as creating a desktop icon.
type Task struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Flags       []string `yaml:"flags,omitempty"`
}

// Icon is a shortcut named Name pointing at Filename, created only when all Tasks are selected.
type Icon struct {
	Name       string   `yaml:"name"`
	Filename   string   `yaml:"filename"`
	WorkingDir string   `yaml:"working_dir,omitempty"`
	Comment    string   `yaml:"comment,omitempty"`
	Tasks      []string `yaml:"tasks,omitempty"`
}

// RunEntry starts Filename after installation.
type RunEntry struct {
	Filename    string   `yaml:"filename"`
	Parameters  string   `yaml:"parameters,omitempty"`
	Description string   `yaml:"description,omitempty"`
	WorkingDir  string   `yaml:"working_dir,omitempty"`
	Flags       []string `yaml:"flags,omitempty"`
}

// File flags.
const (
	FlagIgnoreVersion           = "ignoreversion"
	FlagRecurseSubdirs          = "recursesubdirs"
	FlagCreateAllSubdirs        = "createallsubdirs"
	FlagSkipIfSourceDoesntExist = "skipifsourcedoesntexist"
)

// Task flags.
const (
	FlagUnchecked = "unchecked"
)

// Run flags.
const (
	FlagNoWait       = "nowait"
	FlagPostInstall  = "postinstall"
	FlagSkipIfSilent = "skipifsilent"
)

// Privilege levels.
const (
	PrivilegesAdmin  = "admin"
	PrivilegesLowest = "lowest"
)

const (
	// DefaultConfigFilename is the manifest read when no path is given.
	DefaultConfigFilename = "setup.yaml"

	// DefaultOutputDir is used when the manifest does not set output_dir.
	DefaultOutputDir = "Output"

	// DefaultOutputBaseFilename is used when the manifest does not set output_base_filename.
	DefaultOutputBaseFilename = "{name}_{version}_setup"

	// DefaultFilePermissions is the mode of manifests written by Save.
	DefaultFilePermissions = 0o644

	// installerExtension is appended to the output name; the payload targets Windows.
	installerExtension = ".exe"
)

var (
	errManifestIsNotSet  = errors.New("manifest is not set")
	errAppNameRequired   = errors.New("app_name must be provided")
	errVersionRequired   = errors.New("app_version must be provided")
	errDefaultDirMissing = errors.New("default_dir_name must be provided")
	errNoFiles           = errors.New("at least one files entry is required")
	errSourceRequired    = errors.New("files entry needs a source")
	errDestDirRequired   = errors.New("files entry needs a dest_dir")
	errUnknownFlag       = errors.New("unknown flag")
	errDuplicateTask     = errors.New("duplicate task")
	errUnknownTask       = errors.New("unknown task")
	errIconIncomplete    = errors.New("icon needs a name and a filename")
	errRunIncomplete     = errors.New("run entry needs a filename")
	errBadPrivileges     = errors.New("privileges must be admin or lowest")
)

//nolint:gochecknoglobals // Lookup tables for Validate.
var (
	fileFlags = []string{FlagIgnoreVersion, FlagRecurseSubdirs, FlagCreateAllSubdirs, FlagSkipIfSourceDoesntExist}
	taskFlags = []string{FlagUnchecked}
	runFlags  = []string{FlagNoWait, FlagPostInstall, FlagSkipIfSilent}
)

// Load reads a manifest from path and validates it.
func Load(path string) (*Manifest, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return Parse(contents)
}

// Parse decodes and validates a manifest held in memory.
func Parse(contents []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	if err := Validate(&m); err != nil {
		return nil, err
	}

	return &m, nil
}

// Save writes the manifest to path.
func Save(path string, m *Manifest) error {
	if m == nil {
		return errManifestIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(m); err != nil {
		return err
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// Validate checks required fields, flags and templates, and fills defaults.
func Validate(m *Manifest) error {
	if m == nil {
		return errManifestIsNotSet
	}

	if err := validateIdentity(m); err != nil {
		return err
	}

	if err := validateFiles(m.Files); err != nil {
		return err
	}

	tasks, err := validateTasks(m.Tasks)
	if err != nil {
		return err
	}

	for i, icon := range m.Icons {
		if icon.Name == "" || icon.Filename == "" {
			return fmt.Errorf("icons[%d]: %w", i, errIconIncomplete)
		}

		for _, tmpl := range []string{icon.Name, icon.Filename, icon.WorkingDir} {
			if err := CheckTemplate(tmpl); err != nil {
				return fmt.Errorf("icons[%d]: %w", i, err)
			}
		}

		for _, name := range icon.Tasks {
			if _, ok := tasks[name]; !ok {
				return fmt.Errorf("icons[%d]: %q: %w", i, name, errUnknownTask)
			}
		}
	}

	for i, run := range m.Run {
		if run.Filename == "" {
			return fmt.Errorf("run[%d]: %w", i, errRunIncomplete)
		}

		if err := checkFlags(run.Flags, runFlags); err != nil {
			return fmt.Errorf("run[%d]: %w", i, err)
		}

		for _, tmpl := range []string{run.Filename, run.Parameters, run.WorkingDir} {
			if err := CheckTemplate(tmpl); err != nil {
				return fmt.Errorf("run[%d]: %w", i, err)
			}
		}
	}

	return nil
}

func validateIdentity(m *Manifest) error {
	if strings.TrimSpace(m.AppName) == "" {
		return errAppNameRequired
	}

	if strings.TrimSpace(m.AppVersion) == "" {
		return errVersionRequired
	}

	if _, err := semver.NewVersion(m.AppVersion); err != nil {
		return fmt.Errorf("invalid app_version %q: %w", m.AppVersion, err)
	}

	if m.DefaultDirName == "" {
		return errDefaultDirMissing
	}

	if err := CheckTemplate(m.DefaultDirName); err != nil {
		return fmt.Errorf("default_dir_name: %w", err)
	}

	switch m.Privileges {
	case "":
		m.Privileges = PrivilegesAdmin
	case PrivilegesAdmin, PrivilegesLowest:
	default:
		return fmt.Errorf("%q: %w", m.Privileges, errBadPrivileges)
	}

	if m.DefaultGroupName == "" {
		m.DefaultGroupName = m.AppName
	}

	if m.OutputDir == "" {
		m.OutputDir = DefaultOutputDir
	}

	if m.OutputBaseFilename == "" {
		m.OutputBaseFilename = DefaultOutputBaseFilename
	}

	return nil
}

func validateFiles(files []FileEntry) error {
	if len(files) == 0 {
		return errNoFiles
	}

	for i, entry := range files {
		if entry.Source == "" {
			return fmt.Errorf("files[%d]: %w", i, errSourceRequired)
		}

		if entry.DestDir == "" {
			return fmt.Errorf("files[%d]: %w", i, errDestDirRequired)
		}

		if err := CheckTemplate(entry.DestDir); err != nil {
			return fmt.Errorf("files[%d]: %w", i, err)
		}

		if err := checkFlags(entry.Flags, fileFlags); err != nil {
			return fmt.Errorf("files[%d]: %w", i, err)
		}
	}

	return nil
}

func validateTasks(tasks []Task) (map[string]struct{}, error) {
	names := make(map[string]struct{}, len(tasks))

	for i, task := range tasks {
		if _, dup := names[task.Name]; dup {
			return nil, fmt.Errorf("tasks[%d]: %q: %w", i, task.Name, errDuplicateTask)
		}

		if err := checkFlags(task.Flags, taskFlags); err != nil {
			return nil, fmt.Errorf("tasks[%d]: %w", i, err)
		}

		names[task.Name] = struct{}{}
	}

	return names, nil
}

func checkFlags(flags, allowed []string) error {
	for _, flag := range flags {
		if !slices.Contains(allowed, flag) {
			return fmt.Errorf("%q: %w", flag, errUnknownFlag)
		}
	}

	return nil
}

// HasFlag reports whether flags contains flag.
func HasFlag(flags []string, flag string) bool {
	return slices.Contains(flags, flag)
}

// AppKey returns the identifier of the uninstall entry.
// Without an explicit app_id it is a name-based UUID, stable across versions.
func (m *Manifest) AppKey() string {
	if m.AppID != "" {
		return m.AppID
	}

	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(m.AppPublisher+"/"+m.AppName))

	return "{" + strings.ToUpper(id.String()) + "}"
}

// OutputFilename renders OutputBaseFilename into the installer file name.
func (m *Manifest) OutputFilename() string {
	base := m.OutputBaseFilename
	if base == "" {
		base = DefaultOutputBaseFilename
	}

	name := strings.NewReplacer("{name}", m.AppName, "{version}", m.AppVersion).Replace(base)

	return name + installerExtension
}

// Machine reports whether the install is machine-wide.
func (m *Manifest) Machine() bool {
	return m.Privileges != PrivilegesLowest
}

// DefaultTasks returns the names of tasks that are selected unless the user opts out.
func (m *Manifest) DefaultTasks() []string {
	selected := make([]string, 0, len(m.Tasks))

	for _, task := range m.Tasks {
		if !HasFlag(task.Flags, FlagUnchecked) {
			selected = append(selected, task.Name)
		}
	}

	return selected
}
