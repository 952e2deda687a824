// Package registry writes and removes the entry that lists the application
// under "Apps & features" on Windows. On other systems it does nothing.
package registry
