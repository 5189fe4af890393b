package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const partialSuffix = ".part"

// LocalStorage owns the backup directory. Artifacts are produced under a
// staging name and only appear under their final name once complete.
type LocalStorage struct {
	basePath string
}

func NewLocal(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

// EnsureDir creates the backup directory and any missing parents.
func (l *LocalStorage) EnsureDir() error {
	if err := os.MkdirAll(l.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	return nil
}

func (l *LocalStorage) GetPath(filename string) string {
	return filepath.Join(l.basePath, filename)
}

// StagingPath returns where filename is written before Commit. Any
// leftover from an interrupted run is removed.
func (l *LocalStorage) StagingPath(filename string) (string, error) {
	path := l.GetPath(filename) + partialSuffix
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to clear staging file: %w", err)
	}
	return path, nil
}

// Commit moves the staged file to its final name and returns that path.
func (l *LocalStorage) Commit(filename string) (string, error) {
	final := l.GetPath(filename)
	if err := os.Rename(final+partialSuffix, final); err != nil {
		return "", fmt.Errorf("failed to commit backup: %w", err)
	}
	return final, nil
}

// Discard removes a staged file. Missing files are ignored.
func (l *LocalStorage) Discard(filename string) error {
	err := os.Remove(l.GetPath(filename) + partialSuffix)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to discard staging file: %w", err)
	}
	return nil
}
