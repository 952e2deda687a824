//go:build windows

package uninstall

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/frutacc/lcdpr-setup/internal/logger"
)

// selfDeleteScript retries until the uninstaller has exited, then removes the
// install dir if nothing else is left in it, and finally the script itself.
const selfDeleteScript = `@echo off
:again
ping -n 2 127.0.0.1 >nul
del /f /q "%[1]s" >nul 2>&1
if exist "%[1]s" goto again
rmdir "%[2]s" >nul 2>&1
del /f /q "%%~f0" >nul 2>&1
`

// removeSelf schedules deletion of the running uninstaller, which Windows keeps locked until exit.
func removeSelf(ctx context.Context, path, dir string) (bool, error) {
	script := filepath.Join(os.TempDir(), fmt.Sprintf("lcdpr-uninstall-%d.bat", os.Getpid()))
	contents := strings.ReplaceAll(fmt.Sprintf(selfDeleteScript, path, dir), "\n", "\r\n")

	if err := os.WriteFile(script, []byte(contents), 0o600); err != nil {
		return false, fmt.Errorf("write cleanup script: %w", err)
	}

	cmd := exec.Command("cmd.exe", "/C", "start", "", "/MIN", script) //nolint:gosec,noctx // Outlives this process.
	if err := cmd.Start(); err != nil {
		_ = os.Remove(script)
		return false, fmt.Errorf("start cleanup script: %w", err)
	}

	_ = cmd.Process.Release()

	logger.DebugKV(ctx, "Scheduled uninstaller removal", "script", script)

	return true, nil
}
