package profile

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPath returns dbt's conventional profiles.yml location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".dbt", "profiles.yml")
	}
	return filepath.Join(home, ".dbt", "profiles.yml")
}

// Load reads and parses profiles.yml. A missing file surfaces as an error
// wrapping fs.ErrNotExist so callers can start fresh.
func Load(path string) (*ProfileSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Save serializes the set, re-parses the serialized bytes as an integrity
// check, and only then writes. A failed re-parse leaves the file on disk
// untouched.
func Save(ps *ProfileSet, path string) error {
	data, err := ps.Marshal()
	if err != nil {
		return fmt.Errorf("serializing %s: %w", path, err)
	}
	if _, err := Parse(data); err != nil {
		return fmt.Errorf("serialized profiles failed validation: %w", err)
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
