// Package install contains the domain types of an installation.
//
// Record is what the installer leaves behind so the uninstaller knows what to
// remove; Actor notes who ran the installer.
package install
