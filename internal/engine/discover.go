package engine

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// Discover returns the source files under dir with the engine's extension,
// sorted. Hidden directories such as .pype are not descended into.
func (e *Engine) Discover(dir string) ([]string, error) {
	return Discover(dir, e.ext)
}

// Discover returns the files under dir whose extension is ext, sorted.
func Discover(dir, ext string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ext {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover sources in %s: %w", dir, err)
	}
	slices.Sort(files)
	return files, nil
}
