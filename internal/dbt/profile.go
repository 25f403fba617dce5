// Package dbt reads the narrow slice of profiles.yml the token tooling
// needs: Databricks targets and the environment variable each one reads
// its token from. It is a read-only projection, independent of the full
// profile editor, and tolerates profiles it does not understand by
// skipping them.
package dbt

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarRe extracts the variable name from an env_var('NAME') expression.
var envVarRe = regexp.MustCompile(`env_var\s*\(\s*['"]([^'"]+)['"]`)

// Target is one Databricks output within a profile.
type Target struct {
	Host        string
	TokenEnvVar string
	HTTPPath    string
	Catalog     string
	Schema      string
}

// Profile is the token tool's view of one dbt profile: its Databricks
// targets keyed by output name.
type Profile struct {
	Name          string
	Targets       map[string]*Target
	DefaultTarget string
}

// ProfileNotFoundError reports a missing profiles file or a profile name
// absent from it.
type ProfileNotFoundError struct {
	Name      string
	Path      string
	Available []string
}

func (e *ProfileNotFoundError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("profiles file not found at %s", e.Path)
	}
	if len(e.Available) == 0 {
		return fmt.Sprintf("profile %q not found in %s", e.Name, e.Path)
	}
	return fmt.Sprintf("profile %q not found in %s (available: %s)", e.Name, e.Path, strings.Join(e.Available, ", "))
}

// ProfileValidationError reports a profile that cannot serve as a token
// refresh source.
type ProfileValidationError struct {
	Msg string
}

func (e *ProfileValidationError) Error() string {
	return e.Msg
}

// DefaultPath returns dbt's conventional profiles.yml location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".dbt", "profiles.yml")
	}
	return filepath.Join(home, ".dbt", "profiles.yml")
}

// EnvironmentNames returns the profile's target names, sorted.
func (p *Profile) EnvironmentNames() []string {
	names := make([]string, 0, len(p.Targets))
	for name := range p.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads one named profile from profiles.yml, keeping only outputs
// that are Databricks connections with a host.
func Load(path, name string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ProfileNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ProfileValidationError{Msg: fmt.Sprintf("invalid YAML in %s: %v", path, err)}
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, &ProfileValidationError{Msg: fmt.Sprintf("%s must contain a YAML mapping", path)}
	}

	raw, ok := root[name]
	if !ok {
		return nil, &ProfileNotFoundError{Name: name, Path: path, Available: profileNames(root)}
	}
	entry, ok := raw.(map[string]any)
	if !ok {
		return nil, &ProfileValidationError{Msg: fmt.Sprintf("profile %q must contain a YAML mapping", name)}
	}

	outputs, ok := entry["outputs"].(map[string]any)
	if !ok || len(outputs) == 0 {
		return nil, &ProfileValidationError{Msg: fmt.Sprintf("profile %q has no outputs defined", name)}
	}

	p := &Profile{Name: name, Targets: map[string]*Target{}}
	if target, ok := entry["target"].(string); ok {
		p.DefaultTarget = target
	}

	for outputName, outputRaw := range outputs {
		output, ok := outputRaw.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := output["type"].(string)
		host, _ := output["host"].(string)
		if typ != "databricks" || host == "" {
			continue
		}
		t := &Target{Host: strings.TrimRight(host, "/")}
		if token, ok := output["token"].(string); ok {
			if m := envVarRe.FindStringSubmatch(token); m != nil {
				t.TokenEnvVar = m[1]
			}
		}
		t.HTTPPath, _ = output["http_path"].(string)
		t.Catalog, _ = output["catalog"].(string)
		t.Schema, _ = output["schema"].(string)
		p.Targets[outputName] = t
	}

	if len(p.Targets) == 0 {
		return nil, &ProfileValidationError{Msg: fmt.Sprintf("profile %q has no valid Databricks targets", name)}
	}
	return p, nil
}

// profileNames lists the top-level profile keys, excluding dbt's
// reserved config entry, sorted.
func profileNames(root map[string]any) []string {
	names := make([]string, 0, len(root))
	for name := range root {
		if name == "config" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
