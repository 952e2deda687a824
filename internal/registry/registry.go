package registry

import (
	"errors"
	"fmt"
)

// uninstallRoot is the parent key of uninstall entries.
const uninstallRoot = `Software\Microsoft\Windows\CurrentVersion\Uninstall`

// keySuffix follows the naming used by Inno Setup so earlier installs are recognised.
const keySuffix = "_is1"

// Entry is the uninstall information of one application.
type Entry struct {
	// AppKey identifies the entry.
	AppKey string
	// Machine selects HKLM instead of HKCU.
	Machine bool

	DisplayName     string
	DisplayVersion  string
	Publisher       string
	URLInfoAbout    string
	InstallLocation string
	DisplayIcon     string
	UninstallString string
	QuietUninstall  string
	EstimatedSizeKB uint32
}

var errNoAppKey = errors.New("uninstall entry needs an app key")

// KeyPath returns the registry path of the entry below the hive.
func KeyPath(appKey string) string {
	return uninstallRoot + `\` + appKey + keySuffix
}

// Register writes the entry.
func Register(entry *Entry) error {
	if entry.AppKey == "" {
		return errNoAppKey
	}

	if err := register(entry); err != nil {
		return fmt.Errorf("register %s: %w", entry.AppKey, err)
	}

	return nil
}

// Unregister removes the entry. A missing entry is not an error.
func Unregister(appKey string, machine bool) error {
	if appKey == "" {
		return errNoAppKey
	}

	if err := unregister(appKey, machine); err != nil {
		return fmt.Errorf("unregister %s: %w", appKey, err)
	}

	return nil
}
