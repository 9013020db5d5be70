// Package fsutil provides removal helpers shared by the staging and
// registry code.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// RemoveIfExists removes a file, symlink, or directory tree if it exists.
// A dangling symlink counts as existing.
func RemoveIfExists(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return RemoveAll(path)
	}
	return os.Remove(path)
}

// RemoveAll removes a directory tree. On Windows, read-only files make
// os.RemoveAll fail, so a failed first pass clears the attribute on every
// entry and retries.
func RemoveAll(path string) error {
	err := os.RemoveAll(path)
	if err == nil || runtime.GOOS != "windows" {
		return err
	}
	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // entry may already be gone
		}
		_ = os.Chmod(p, 0o666)
		return nil
	})
	if walkErr != nil {
		return err
	}
	return os.RemoveAll(path)
}
