package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/frutacc/lcdpr-setup/internal/domain/install"
)

// Filename is the name of the record written next to the uninstaller.
const Filename = "unins000.yaml"

// fileMode keeps the record readable by the uninstaller of any user on machine-wide installs.
const fileMode = 0o644

// Repository defines persistence operations for the install record.
type Repository interface {
	Load(ctx context.Context) (*domain.Record, error)
	Save(ctx context.Context, record *domain.Record) error
	Remove(ctx context.Context) error
	Path() string
}

// FileRepository stores the install record as YAML on disk.
type FileRepository struct {
	// path is the filesystem location of the record.
	path string
	// mu protects concurrent access to the record file.
	mu sync.Mutex
}

// ErrNotFound is returned when no record exists, i.e. nothing is installed there.
var ErrNotFound = errors.New("install record not found")

// NewFileRepository creates a repository for the record at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// ForDir returns the repository of the installation in dir.
func ForDir(dir string) *FileRepository {
	return NewFileRepository(filepath.Join(dir, Filename))
}

// Path returns the location of the record file.
func (r *FileRepository) Path() string {
	return r.path
}

// recordFile is the on-disk shape of domain.Record.
type recordFile struct {
	AppKey      string     `yaml:"app_key"`
	AppName     string     `yaml:"app_name"`
	AppVersion  string     `yaml:"app_version"`
	Publisher   string     `yaml:"publisher,omitempty"`
	AppExeName  string     `yaml:"app_exe_name,omitempty"`
	InstallDir  string     `yaml:"install_dir"`
	Machine     bool       `yaml:"machine"`
	Tasks       []string   `yaml:"tasks,omitempty"`
	Files       []string   `yaml:"files"`
	Dirs        []string   `yaml:"dirs,omitempty"`
	Shortcuts   []string   `yaml:"shortcuts,omitempty"`
	Uninstaller string     `yaml:"uninstaller,omitempty"`
	InstalledAt time.Time  `yaml:"installed_at"`
	InstalledBy *actorFile `yaml:"installed_by,omitempty"`
}

type actorFile struct {
	Hostname string `yaml:"hostname"`
	Username string `yaml:"username"`
}

// Load reads the record from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read install record: %w", err)
	}

	var file recordFile
	if err = yaml.Unmarshal(contents, &file); err != nil {
		return nil, fmt.Errorf("decode install record: %w", err)
	}

	return fromFile(&file), nil
}

// Save writes the record to disk, replacing any previous one.
func (r *FileRepository) Save(_ context.Context, record *domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(toFile(record))
	if err != nil {
		return fmt.Errorf("encode install record: %w", err)
	}

	if err = os.WriteFile(r.path, data, fileMode); err != nil {
		return fmt.Errorf("write install record: %w", err)
	}

	return nil
}

// Remove deletes the record. A missing record is not an error.
func (r *FileRepository) Remove(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove install record: %w", err)
	}

	return nil
}

func fromFile(file *recordFile) *domain.Record {
	var actor *domain.Actor
	if file.InstalledBy != nil {
		actor = &domain.Actor{
			Hostname: file.InstalledBy.Hostname,
			Username: file.InstalledBy.Username,
		}
	}

	return &domain.Record{
		AppKey:      file.AppKey,
		AppName:     file.AppName,
		AppVersion:  file.AppVersion,
		Publisher:   file.Publisher,
		AppExeName:  file.AppExeName,
		InstallDir:  file.InstallDir,
		Machine:     file.Machine,
		Tasks:       file.Tasks,
		Files:       file.Files,
		Dirs:        file.Dirs,
		Shortcuts:   file.Shortcuts,
		Uninstaller: file.Uninstaller,
		InstalledAt: file.InstalledAt,
		InstalledBy: actor,
	}
}

func toFile(record *domain.Record) *recordFile {
	var actor *actorFile
	if record.InstalledBy != nil {
		actor = &actorFile{
			Hostname: record.InstalledBy.Hostname,
			Username: record.InstalledBy.Username,
		}
	}

	return &recordFile{
		AppKey:      record.AppKey,
		AppName:     record.AppName,
		AppVersion:  record.AppVersion,
		Publisher:   record.Publisher,
		AppExeName:  record.AppExeName,
		InstallDir:  record.InstallDir,
		Machine:     record.Machine,
		Tasks:       record.Tasks,
		Files:       record.Files,
		Dirs:        record.Dirs,
		Shortcuts:   record.Shortcuts,
		Uninstaller: record.Uninstaller,
		InstalledAt: record.InstalledAt,
		InstalledBy: actor,
	}
}
