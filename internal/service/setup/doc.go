// Package setup installs the payload carried by the running installer:
// it extracts files, creates shortcuts, writes the uninstaller with its
// install record, registers the uninstall entry and starts post-install programs.
package setup
