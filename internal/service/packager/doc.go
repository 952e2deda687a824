// Package packager builds the installer.
//
// It loads the setup manifest, resolves every file directive against the
// build machine (globs, recursion, optional sources), checksums the files and
// seals them with the setup stub into one executable.
package packager
