// Package checksum computes bounded-memory content digests used by the
// stability detector and the run journal.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"csvwatch/internal/faults"
)

// ErrFileTooLarge marks files above the configured size cap. They are never
// hashed, so they never become stable.
var ErrFileTooLarge = faults.Wrap(faults.ErrFileProcessing, "checksum", "", "file too large", nil)

// Engine hashes files in fixed-size chunks so peak memory stays bounded
// regardless of file size.
type Engine struct {
	chunkSize int
	maxBytes  int64
}

// New returns an engine reading chunkSize bytes at a time and rejecting
// files larger than maxBytes before any hashing work.
func New(chunkSize int, maxBytes int64) *Engine {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	return &Engine{chunkSize: chunkSize, maxBytes: maxBytes}
}

// Digest returns the hex SHA-256 of the file's contents.
func (e *Engine) Digest(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", faults.Wrap(faults.ErrFileProcessing, "checksum", "stat", path, err)
	}
	if e.maxBytes > 0 && info.Size() > e.maxBytes {
		return "", fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, path, info.Size())
	}

	file, err := os.Open(path)
	if err != nil {
		return "", faults.Wrap(faults.ErrFileProcessing, "checksum", "open", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	buf := make([]byte, e.chunkSize)
	for {
		n, readErr := file.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", faults.Wrap(faults.ErrFileProcessing, "checksum", "read", path, readErr)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
