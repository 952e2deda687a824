// Package shortcut creates and removes application shortcuts.
//
// On Windows a shortcut is a .lnk file written through the WScript.Shell COM
// object. Elsewhere it is a freedesktop .desktop entry.
package shortcut
