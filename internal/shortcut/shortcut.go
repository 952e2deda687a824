package shortcut

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Spec describes one shortcut.
type Spec struct {
	// Path is the shortcut location without extension, e.g. "<desktop>/LCDPR Frutacc".
	Path string
	// Target is the program the shortcut starts.
	Target string
	// WorkingDir is the directory the program starts in. Defaults to the target's directory.
	WorkingDir string
	// Description is shown as a tooltip or comment.
	Description string
	// Icon is the icon file. Defaults to the target.
	Icon string
}

var errIncompleteSpec = errors.New("shortcut needs a path and a target")

// Create writes the shortcut and returns the file it created.
func Create(spec Spec) (string, error) {
	if spec.Path == "" || spec.Target == "" {
		return "", errIncompleteSpec
	}

	if spec.WorkingDir == "" {
		spec.WorkingDir = filepath.Dir(spec.Target)
	}

	if spec.Icon == "" {
		spec.Icon = spec.Target
	}

	file := spec.Path + Extension

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return "", fmt.Errorf("create shortcut folder: %w", err)
	}

	if err := write(file, &spec); err != nil {
		return "", fmt.Errorf("write shortcut %s: %w", file, err)
	}

	return file, nil
}

// Remove deletes a shortcut file. A missing file is not an error.
func Remove(file string) error {
	if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove shortcut %s: %w", file, err)
	}

	return nil
}
