// Package config loads and validates the setup manifest: application
// identity, file copy directives, tasks, shortcuts and post-install commands.
//
// Templates in the manifest use constants such as {app} and {autodesktop};
// Resolver expands them for the machine the installer runs on.
package config
