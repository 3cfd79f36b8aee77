package pipeline

import (
	"io/fs"
	"path/filepath"
	"sort"
)

// Discover walks sourceDir and returns every non-directory entry, sorted
// lexicographically for deterministic processing order. Directories are
// only traversed; classification happens per file later.
//
// Only a failure on sourceDir itself is returned. Entries below it that
// cannot be read are reported to onSkip (when non-nil) and left out, and an
// unreadable subdirectory is not descended into.
func Discover(sourceDir string, onSkip func(path string, err error)) ([]string, error) {
	var files []string
	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == sourceDir {
				return err
			}
			if onSkip != nil {
				onSkip(path, err)
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
