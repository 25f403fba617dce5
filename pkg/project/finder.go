package project

import (
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// excludedDirs are directory names pruned during discovery. Matching any
// path segment excludes the whole subtree.
var excludedDirs = map[string]struct{}{
	".venv":         {},
	"venv":          {},
	".env":          {},
	"node_modules":  {},
	"dbt_packages":  {},
	"target":        {},
	".git":          {},
	"__pycache__":   {},
	".mypy_cache":   {},
	".pytest_cache": {},
	".ruff_cache":   {},
}

// maxSearchDepth bounds how deep FindProjects descends below the root.
const maxSearchDepth = 10

// FindProjects walks root looking for dbt_project.yml files, skipping
// excluded directories. Results are absolute paths, sorted.
func FindProjects(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var found []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			if path != absRoot {
				if _, excluded := excludedDirs[d.Name()]; excluded {
					return filepath.SkipDir
				}
				if strings.Count(rel, string(filepath.Separator))+1 > maxSearchDepth {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if d.Name() == ProjectFileName {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(found)
	return found, nil
}

// DefaultSearchRoot returns the enclosing git worktree root when inside
// one, otherwise the current working directory.
func DefaultSearchRoot() string {
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err == nil {
		if root := strings.TrimSpace(string(out)); root != "" {
			return root
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
