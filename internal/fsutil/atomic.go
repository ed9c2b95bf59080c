// Package fsutil holds the file writing shared by everything mdhtml puts in
// an output directory.
package fsutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
)

// TempPrefix starts the name of every temporary file WriteFileAtomic creates.
const TempPrefix = ".mdhtml-"

// WriteFileAtomic writes content to a temporary file beside path and renames
// it into place, creating parent directories as needed. Readers never observe
// a partially written file.
func WriteFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return oops.
			Code("WRITE_FAILED").
			With("path", dir).
			Wrapf(err, "creating destination directory")
	}

	tempFile, err := os.CreateTemp(dir, TempPrefix+"*.tmp")
	if err != nil {
		return oops.
			Code("WRITE_FAILED").
			With("path", path).
			Wrapf(err, "creating temporary file")
	}

	tempPath := tempFile.Name()
	defer func() {
		_ = os.Remove(tempPath)
	}()

	if _, err := tempFile.Write(content); err != nil {
		_ = tempFile.Close()
		return oops.
			Code("WRITE_FAILED").
			With("path", path).
			Wrapf(err, "writing temporary file")
	}

	if err := tempFile.Close(); err != nil {
		return oops.
			Code("WRITE_FAILED").
			With("path", path).
			Wrapf(err, "closing temporary file")
	}

	if err := os.Chmod(tempPath, 0o644); err != nil {
		return oops.
			Code("WRITE_FAILED").
			With("path", path).
			Wrapf(err, "setting file mode")
	}

	if err := os.Rename(tempPath, path); err != nil {
		return oops.
			Code("WRITE_FAILED").
			With("path", path).
			Wrapf(err, "replacing destination file")
	}

	return nil
}

// IsTempFile reports whether name is a file WriteFileAtomic may leave behind
// while a write is in flight.
func IsTempFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, TempPrefix) && strings.HasSuffix(base, ".tmp")
}
