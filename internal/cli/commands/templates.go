package commands

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed all:templates
var templateFS embed.FS

// Dotfiles are stored bare in the embedded tree (go:embed skips hidden
// files) and renamed on the way out.
var templateRenames = map[string]string{
	"gitignore": ".gitignore",
}

// copyTemplate materializes an embedded template tree under targetDir.
// Existing files are left alone unless force is set.
func copyTemplate(name, targetDir string, force bool) error {
	root := filepath.Join("templates", name)
	return fs.WalkDir(templateFS, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return err
		}
		dest := filepath.Join(targetDir, templateDestName(rel))
		if d.IsDir() {
			return os.MkdirAll(dest, 0o750)
		}
		if !force {
			if _, statErr := os.Stat(dest); statErr == nil {
				return nil
			}
		}
		data, err := templateFS.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(dest, data, 0o600)
	})
}

// templateDestName applies the dotfile renames to a template-relative
// path.
func templateDestName(rel string) string {
	if renamed, ok := templateRenames[filepath.Base(rel)]; ok {
		return filepath.Join(filepath.Dir(rel), renamed)
	}
	return rel
}

// listTemplateFiles returns the files a template would create, renames
// applied, for status output.
func listTemplateFiles(name string) ([]string, error) {
	root := filepath.Join("templates", name)
	var files []string
	err := fs.WalkDir(templateFS, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, templateDestName(rel))
		return nil
	})
	return files, err
}
