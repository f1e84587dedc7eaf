// Package fileutil writes state files so readers never observe a partial
// write and secrets never sit on disk with loose permissions.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	// ErrEmptyPath indicates an empty file path was provided.
	ErrEmptyPath = errors.New("path is empty")

	// ErrExists is returned by WriteExclusive when the target already exists.
	ErrExists = fmt.Errorf("file already exists: %w", fs.ErrExist)
)

// WriteAtomic writes data to path atomically with the provided permissions,
// replacing any existing file.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	return write(path, data, perm, func(tmpPath string) error {
		if err := os.Rename(tmpPath, path); err != nil { //nolint:gosec // G703: path is validated by caller
			return fmt.Errorf("renaming temp file: %w", err)
		}
		return nil
	})
}

// WriteExclusive is WriteAtomic that refuses to replace an existing file.
// Two concurrent writers of the same path cannot both succeed.
func WriteExclusive(path string, data []byte, perm os.FileMode) error {
	return write(path, data, perm, func(tmpPath string) error {
		// Link fails when path exists, unlike Rename.
		if err := os.Link(tmpPath, path); err != nil {
			if errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("%w: %s", ErrExists, path)
			}
			return fmt.Errorf("linking temp file: %w", err)
		}
		return nil
	})
}

// EnsureDir creates dir and its parents with perm and tightens the mode of
// dir itself when it already exists with looser bits.
func EnsureDir(dir string, perm os.FileMode) error {
	if dir == "" {
		return ErrEmptyPath
	}
	if err := os.MkdirAll(dir, perm); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("checking directory: %w", err)
	}
	if info.Mode().Perm()&^perm != 0 {
		if err := os.Chmod(dir, perm); err != nil {
			return fmt.Errorf("restricting directory permissions: %w", err)
		}
	}
	return nil
}

// write stages data in a temp file in the same directory, fsyncs it and
// hands the temp path to publish.
func write(path string, data []byte, perm os.FileMode, publish func(tmpPath string) error) error {
	if path == "" {
		return ErrEmptyPath
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmpFile, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmpFile.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmpFile.Close()
		}
		_ = os.Remove(tmpPath)
	}()

	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("setting temp file permissions: %w", err)
	}

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	closed = true

	if err := publish(tmpPath); err != nil {
		return err
	}

	// Best effort directory sync for rename durability.
	if dirFile, err := os.Open(dir); err == nil { //nolint:gosec // G304: dir is derived from validated path
		_ = dirFile.Sync()
		_ = dirFile.Close()
	}

	return nil
}
