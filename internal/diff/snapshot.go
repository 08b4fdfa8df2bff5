package diff

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	// Ensure SHA512 is linked in for checksum calculation.
	_ "crypto/sha512"
)

// ChecksumFunction is used to fingerprint file contents.
const ChecksumFunction crypto.Hash = crypto.SHA512

var errHashUnavailable = errors.New("hash function unavailable")

// Entry describes one regular file inside an extracted release tree.
type Entry struct {
	// Path is the slash-separated path relative to the tree root.
	Path string
	// Size is the file size in bytes.
	Size int64
	// Checksum is the raw content fingerprint.
	Checksum []byte
}

// ChecksumBase64 returns the fingerprint in the encoding used by patch descriptions.
func (e Entry) ChecksumBase64() string {
	return base64.StdEncoding.EncodeToString(e.Checksum)
}

// Snapshot walks root and fingerprints every regular file under it.
// Keys of the returned map are slash-separated paths relative to root, so
// snapshots of two trees compare directly. Symlinks and directories carry no
// content and are not recorded.
func Snapshot(root string) (map[string]Entry, error) {
	entries := make(map[string]Entry)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		checksum, err := FileChecksum(path)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)
		entries[rel] = Entry{
			Path:     rel,
			Size:     info.Size(),
			Checksum: checksum,
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", root, err)
	}

	return entries, nil
}

// FileChecksum returns checksum bytes for a file using ChecksumFunction.
func FileChecksum(path string) ([]byte, error) {
	if !ChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := ChecksumFunction.New()
	if _, err = io.Copy(hasher, file); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}
