//go:build windows

package registry

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

func hive(machine bool) registry.Key {
	if machine {
		return registry.LOCAL_MACHINE
	}

	return registry.CURRENT_USER
}

func register(entry *Entry) error {
	key, _, err := registry.CreateKey(hive(entry.Machine), KeyPath(entry.AppKey), registry.ALL_ACCESS)
	if err != nil {
		return fmt.Errorf("create key: %w", err)
	}

	defer func() {
		_ = key.Close()
	}()

	values := map[string]string{
		"DisplayName":          entry.DisplayName,
		"DisplayVersion":       entry.DisplayVersion,
		"Publisher":            entry.Publisher,
		"URLInfoAbout":         entry.URLInfoAbout,
		"InstallLocation":      entry.InstallLocation,
		"DisplayIcon":          entry.DisplayIcon,
		"UninstallString":      entry.UninstallString,
		"QuietUninstallString": entry.QuietUninstall,
	}

	for name, value := range values {
		if value == "" {
			continue
		}

		if err = key.SetStringValue(name, value); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}

	dwords := map[string]uint32{
		"EstimatedSize": entry.EstimatedSizeKB,
		"NoModify":      1,
		"NoRepair":      1,
	}

	for name, value := range dwords {
		if err = key.SetDWordValue(name, value); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}

	return nil
}

func unregister(appKey string, machine bool) error {
	err := registry.DeleteKey(hive(machine), KeyPath(appKey))
	if err != nil && !errors.Is(err, windows.ERROR_FILE_NOT_FOUND) {
		return err
	}

	return nil
}
