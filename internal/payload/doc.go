// Package payload defines the installer file format.
//
// An installer is the setup stub followed by a gzip-compressed tar archive,
// the archive length as a little-endian uint64 and an 8-byte magic. The first
// archive member is index.yaml: the manifest plus one entry per packaged file
// with its destination and checksum. Files follow in index order.
package payload
