// Package record persists the install record next to the uninstaller.
package record
