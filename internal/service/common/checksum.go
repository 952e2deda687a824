//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

// ChecksumFunction hashes packaged files; the installer verifies with the same function.
const ChecksumFunction crypto.Hash = crypto.SHA512

var errHashUnavailable = errors.New("hash function unavailable")

// FileChecksum returns the checksum of the file at path.
func FileChecksum(path string) ([]byte, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = file.Close()
	}()

	return ReaderChecksum(file)
}

// ReaderChecksum returns the checksum of everything read from r.
func ReaderChecksum(r io.Reader) ([]byte, error) {
	if !ChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := ChecksumFunction.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// EncodeChecksum renders a checksum for manifests and records.
func EncodeChecksum(sum []byte) string {
	return base64.StdEncoding.EncodeToString(sum)
}

// DecodeChecksum parses a checksum produced by EncodeChecksum.
func DecodeChecksum(s string) ([]byte, error) {
	sum, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode checksum: %w", err)
	}

	return sum, nil
}
