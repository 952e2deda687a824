// Package uninstall removes an installation using the record the installer left next to the uninstaller.
package uninstall
