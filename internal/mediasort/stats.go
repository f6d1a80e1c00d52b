package mediasort

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStats defines the interface for directory validation and statistics.
type FileStats interface {
	// ValidateSourceDir checks that the source is an existing, writable
	// directory. Files are moved out of it, so read access is not enough.
	ValidateSourceDir(dir string) error
	// GetFileCount returns the number of files in a directory recursively.
	GetFileCount(dir string) (int, error)
}

// fileStats implements the FileStats interface.
type fileStats struct{}

// NewFileStats creates a new FileStats instance.
func NewFileStats() FileStats {
	return &fileStats{}
}

// ValidateSourceDir checks that dir exists, is a directory and is writable.
// Writability is probed with a temporary file rather than inspecting
// permission bits, which gets ACLs and read-only mounts right.
func (f *fileStats) ValidateSourceDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("source is not a valid directory: %s", dir)
	}

	probe, err := os.CreateTemp(dir, ".media-sort-*")
	if err != nil {
		return fmt.Errorf("source directory is not writable: %s", dir)
	}
	probe.Close()
	os.Remove(probe.Name())

	return nil
}

// GetFileCount counts all non-directory files in a directory tree,
// excluding dot files and dot directories.
func (f *fileStats) GetFileCount(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !entry.IsDir() {
			count++
		}
		return nil
	})
	return count, err
}
