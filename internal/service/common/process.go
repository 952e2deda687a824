//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"
)

// Process is a running program matched by name.
type Process struct {
	// PID is the operating system process id.
	PID int
	// Executable is the executable file name as reported by the OS.
	Executable string
}

// FindRunning lists processes, other than this one, whose executable matches one of names.
// Matching ignores case on Windows.
func FindRunning(names ...string) ([]Process, error) {
	if len(names) == 0 {
		return nil, nil
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[normalizeProcessName(name)] = struct{}{}
	}

	processList, err := ps.Processes()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	thisProcessID := os.Getpid()

	var found []Process

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if _, ok := wanted[normalizeProcessName(process.Executable())]; !ok {
			continue
		}

		found = append(found, Process{
			PID:        process.Pid(),
			Executable: process.Executable(),
		})
	}

	return found, nil
}

// Terminate kills the given processes.
func Terminate(processes []Process) error {
	for _, process := range processes {
		runningProcess, err := os.FindProcess(process.PID)
		if err != nil {
			return fmt.Errorf("find %s (%d): %w", process.Executable, process.PID, err)
		}

		if err = runningProcess.Kill(); err != nil {
			return fmt.Errorf("kill %s (%d): %w", process.Executable, process.PID, err)
		}
	}

	return nil
}

// ExecutableName appends ".exe" on Windows when base has no extension.
func ExecutableName(base string) string {
	if runtime.GOOS == "windows" && filepath.Ext(base) == "" {
		return base + ".exe"
	}

	return base
}

// normalizeProcessName reduces a path or name to the comparable file name.
// Linux truncates comm names to 15 bytes, so names are cut the same way there.
func normalizeProcessName(name string) string {
	name = filepath.Base(name)

	switch runtime.GOOS {
	case "windows":
		return strings.ToLower(name)
	case "linux":
		const commLength = 15
		if len(name) > commLength {
			return name[:commLength]
		}
	}

	return name
}
