package payload

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/frutacc/lcdpr-setup/internal/config"
)

// IndexName is the archive member holding the index.
const IndexName = "index.yaml"

// Entry is one packaged file.
type Entry struct {
	// Name is the archive member name.
	Name string `yaml:"name"`
	// DestDir is the destination directory template, e.g. "{app}/_internal".
	DestDir string `yaml:"dest_dir"`
	// Path is the slash-separated path of the file below DestDir.
	Path string `yaml:"path"`
	// Mode holds the permission bits of the source file.
	Mode uint32 `yaml:"mode"`
	// Size is the file size in bytes.
	Size int64 `yaml:"size"`
	// Checksum is the base64 SHA-512 of the contents.
	Checksum string `yaml:"checksum"`
	// Source is the file on the build machine. Not stored.
	Source string `yaml:"-"`
}

// Dir is a directory to create even when no file lands in it.
type Dir struct {
	DestDir string `yaml:"dest_dir"`
	Path    string `yaml:"path"`
}

// Index describes the payload of an installer.
type Index struct {
	// Manifest is the validated setup manifest.
	Manifest *config.Manifest `yaml:"manifest"`
	// Entries lists the files in archive order.
	Entries []Entry `yaml:"entries"`
	// Dirs lists directories created by createallsubdirs.
	Dirs []Dir `yaml:"dirs,omitempty"`
	// BuiltAt is when the packager produced the installer.
	BuiltAt time.Time `yaml:"built_at"`
	// Builder is the packager version.
	Builder string `yaml:"builder"`
}

var (
	errIndexWithoutManifest = errors.New("index has no manifest")
	errDuplicateEntry       = errors.New("duplicate archive member")
	errDuplicateTarget      = errors.New("two files target the same path")
	errPathEscapes          = errors.New("path leaves its destination directory")
)

// Target returns the destination template of the entry.
func (e *Entry) Target() string {
	return path.Join(e.DestDir, e.Path)
}

// Target returns the destination template of the directory.
func (d *Dir) Target() string {
	return path.Join(d.DestDir, d.Path)
}

// TotalSize sums the size of every entry.
func (idx *Index) TotalSize() int64 {
	var total int64
	for _, entry := range idx.Entries {
		total += entry.Size
	}

	return total
}

// Validate checks the index is self-consistent.
func (idx *Index) Validate() error {
	if idx.Manifest == nil {
		return errIndexWithoutManifest
	}

	if err := config.Validate(idx.Manifest); err != nil {
		return fmt.Errorf("embedded manifest: %w", err)
	}

	names := make(map[string]struct{}, len(idx.Entries))
	targets := make(map[string]struct{}, len(idx.Entries))

	for _, entry := range idx.Entries {
		if !localPath(entry.Path) {
			return fmt.Errorf("%s: %w", entry.Path, errPathEscapes)
		}

		if _, dup := names[entry.Name]; dup || entry.Name == IndexName {
			return fmt.Errorf("%s: %w", entry.Name, errDuplicateEntry)
		}

		if _, dup := targets[entry.Target()]; dup {
			return fmt.Errorf("%s: %w", entry.Target(), errDuplicateTarget)
		}

		names[entry.Name] = struct{}{}
		targets[entry.Target()] = struct{}{}
	}

	for _, dir := range idx.Dirs {
		if !localPath(dir.Path) {
			return fmt.Errorf("%s: %w", dir.Path, errPathEscapes)
		}
	}

	return nil
}

// localPath reports whether p stays below the directory it is joined to.
func localPath(p string) bool {
	return filepath.IsLocal(filepath.FromSlash(p))
}

func encodeIndex(idx *Index) ([]byte, error) {
	data, err := yaml.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("marshal index: %w", err)
	}

	return data, nil
}

func decodeIndex(data []byte) (*Index, error) {
	var idx Index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("unmarshal index: %w", err)
	}

	if err := idx.Validate(); err != nil {
		return nil, err
	}

	return &idx, nil
}
