// Package fsutil provides file system utility functions.
package fsutil

import (
	"os"
	"strings"
)

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// FindDirsContaining returns the names of immediate subdirectories of root
// whose name contains the given marker (e.g. "_case"). The result is sorted
// lexically because os.ReadDir sorts its entries.
func FindDirsContaining(root string, marker string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() && strings.Contains(e.Name(), marker) {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}
