// Package common holds helpers shared by the packager, setup and uninstall
// services, such as file checksums and detection of a running application.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
