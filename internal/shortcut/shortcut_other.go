//go:build !windows

package shortcut

import (
	"os"
	"path/filepath"
	"strings"
)

// Extension is appended to Spec.Path.
const Extension = ".desktop"

// desktopEntryMode makes the entry launchable from file managers that require the executable bit.
const desktopEntryMode = 0o755

func write(file string, spec *Spec) error {
	var b strings.Builder

	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	b.WriteString("Name=" + filepath.Base(spec.Path) + "\n")

	if spec.Description != "" {
		b.WriteString("Comment=" + spec.Description + "\n")
	}

	b.WriteString("Exec=" + quoteExec(spec.Target) + "\n")
	b.WriteString("Path=" + spec.WorkingDir + "\n")
	b.WriteString("Icon=" + spec.Icon + "\n")
	b.WriteString("Terminal=false\n")

	return os.WriteFile(file, []byte(b.String()), desktopEntryMode)
}

// quoteExec quotes a program path per the Desktop Entry Exec rules.
func quoteExec(path string) string {
	if !strings.ContainsAny(path, " \t\"'\\$`") {
		return path
	}

	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", "$", `\$`).Replace(path)

	return `"` + escaped + `"`
}
