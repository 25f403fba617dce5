package project

import (
	"fmt"
	"os"
	"path/filepath"
)

// File names the store resolves when given a directory.
const (
	ProjectFileName  = "dbt_project.yml"
	PackagesFileName = "packages.yml"
)

// resolvePath accepts either a directory or a direct file path.
func resolvePath(path, filename string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, filename)
	}
	return path
}

// LoadProject reads and parses dbt_project.yml. Path may be the project
// directory or the file itself.
func LoadProject(path string) (*Project, error) {
	file := resolvePath(path, ProjectFileName)
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ProjectNotFoundError{Path: file}
		}
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return Parse(data)
}

// SaveProject serializes the project, re-parses the serialized bytes as an
// integrity check, and only then writes. A failed re-parse leaves the file
// on disk untouched.
func SaveProject(p *Project, path string) error {
	file := resolvePath(path, ProjectFileName)
	data, err := p.Marshal()
	if err != nil {
		return fmt.Errorf("serializing %s: %w", file, err)
	}
	if _, err := Parse(data); err != nil {
		return fmt.Errorf("serialized project failed validation: %w", err)
	}
	return writeFile(file, data)
}

// LoadPackages reads and parses packages.yml. A missing file is not an
// error: packages.yml is optional and yields an empty list.
func LoadPackages(path string) (*PackageFile, error) {
	file := resolvePath(path, PackagesFileName)
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return &PackageFile{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return ParsePackages(data)
}

// SavePackages serializes packages.yml with the same re-parse discipline
// as SaveProject.
func SavePackages(f *PackageFile, path string) error {
	file := resolvePath(path, PackagesFileName)
	data, err := f.Marshal()
	if err != nil {
		return fmt.Errorf("serializing %s: %w", file, err)
	}
	if _, err := ParsePackages(data); err != nil {
		return fmt.Errorf("serialized packages failed validation: %w", err)
	}
	return writeFile(file, data)
}

func writeFile(file string, data []byte) error {
	dir := filepath.Dir(file)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", file, err)
	}
	return nil
}
