// Package project provides the typed document model for dbt_project.yml and
// packages.yml, in-memory editing operations over both, load/save with a
// write-time re-parse check, and filesystem discovery of dbt projects.
//
// On disk dbt uses hyphenated compound keys (model-paths, config-version);
// in memory the model uses the underscore form. The translation happens at
// parse/serialize time and callers only ever see the in-memory form.
package project

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// Defaults applied to fields absent from dbt_project.yml.
const (
	DefaultVersion       = "1.0.0"
	DefaultConfigVersion = 2
)

// nameRe is dbt's project naming grammar.
var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateName checks a project name against dbt's naming rules.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return &NameError{Name: name}
	}
	return nil
}

// Project is the in-memory form of dbt_project.yml. Unknown top-level keys
// survive a parse/serialize round-trip via Extra.
type Project struct {
	Name              string
	ConfigVersion     int
	Version           string
	Profile           string
	ModelPaths        []string
	SeedPaths         []string
	TestPaths         []string
	MacroPaths        []string
	SnapshotPaths     []string
	AnalysisPaths     []string
	AssetPaths        []string
	CleanTargets      []string
	RequireDBTVersion any // string or list, kept as read
	Models            map[string]any
	Seeds             map[string]any
	Vars              map[string]any
	Extra             map[string]any
}

// NewProject returns a project with dbt's defaults filled in.
func NewProject(name, profile string) (*Project, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	p := &Project{Name: name, Profile: profile}
	p.applyDefaults()
	return p, nil
}

func (p *Project) applyDefaults() {
	if p.Version == "" {
		p.Version = DefaultVersion
	}
	if p.ConfigVersion == 0 {
		p.ConfigVersion = DefaultConfigVersion
	}
	defaults := []struct {
		slot  *[]string
		value []string
	}{
		{&p.ModelPaths, []string{"models"}},
		{&p.SeedPaths, []string{"seeds"}},
		{&p.TestPaths, []string{"tests"}},
		{&p.MacroPaths, []string{"macros"}},
		{&p.SnapshotPaths, []string{"snapshots"}},
		{&p.AnalysisPaths, []string{"analyses"}},
		{&p.AssetPaths, []string{"assets"}},
		{&p.CleanTargets, []string{"target", "dbt_packages"}},
	}
	for _, d := range defaults {
		if *d.slot == nil {
			*d.slot = d.value
		}
	}
}

// Parse reads dbt_project.yml content into a Project. Both hyphenated and
// underscore key forms are accepted; absent fields receive dbt's defaults.
func Parse(data []byte) (*Project, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("invalid YAML in dbt_project.yml: %v", err)}
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, &ValidationError{Msg: "dbt_project.yml must contain a YAML mapping"}
	}

	p := &Project{}

	name, ok, err := takeString(m, "name")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ValidationError{Msg: "dbt_project.yml: missing required field 'name'"}
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	p.Name = name

	profile, ok, err := takeString(m, "profile")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ValidationError{Msg: "dbt_project.yml: missing required field 'profile'"}
	}
	p.Profile = profile

	if v, ok, err := takeString(m, "version"); err != nil {
		return nil, err
	} else if ok {
		p.Version = v
	}
	if v, ok, err := takeInt(m, "config-version", "config_version"); err != nil {
		return nil, err
	} else if ok {
		p.ConfigVersion = v
	}

	pathSlots := []struct {
		slot *[]string
		keys [2]string
	}{
		{&p.ModelPaths, [2]string{"model-paths", "model_paths"}},
		{&p.SeedPaths, [2]string{"seed-paths", "seed_paths"}},
		{&p.TestPaths, [2]string{"test-paths", "test_paths"}},
		{&p.MacroPaths, [2]string{"macro-paths", "macro_paths"}},
		{&p.SnapshotPaths, [2]string{"snapshot-paths", "snapshot_paths"}},
		{&p.AnalysisPaths, [2]string{"analysis-paths", "analysis_paths"}},
		{&p.AssetPaths, [2]string{"asset-paths", "asset_paths"}},
		{&p.CleanTargets, [2]string{"clean-targets", "clean_targets"}},
	}
	for _, s := range pathSlots {
		v, ok, err := takeStringList(m, s.keys[0], s.keys[1])
		if err != nil {
			return nil, err
		}
		if ok {
			*s.slot = v
		}
	}

	if v, ok := takeAny(m, "require-dbt-version", "require_dbt_version"); ok && v != nil {
		p.RequireDBTVersion = v
	}
	if v, ok, err := takeMap(m, "models"); err != nil {
		return nil, err
	} else if ok {
		p.Models = v
	}
	if v, ok, err := takeMap(m, "seeds"); err != nil {
		return nil, err
	} else if ok {
		p.Seeds = v
	}
	if v, ok, err := takeMap(m, "vars"); err != nil {
		return nil, err
	} else if ok {
		p.Vars = v
	}

	if len(m) > 0 {
		p.Extra = m
	}

	p.applyDefaults()
	return p, nil
}

// Marshal serializes the project back to dbt_project.yml form: hyphenated
// keys, declaration order, unknown keys appended in sorted order.
func (p *Project) Marshal() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, v any) error {
		kn := &yaml.Node{}
		if err := kn.Encode(key); err != nil {
			return err
		}
		vn := &yaml.Node{}
		if err := vn.Encode(v); err != nil {
			return err
		}
		root.Content = append(root.Content, kn, vn)
		return nil
	}

	if err := add("name", p.Name); err != nil {
		return nil, err
	}
	if err := add("config-version", p.ConfigVersion); err != nil {
		return nil, err
	}
	if err := add("version", p.Version); err != nil {
		return nil, err
	}
	if err := add("profile", p.Profile); err != nil {
		return nil, err
	}

	ordered := []struct {
		key   string
		value []string
	}{
		{"model-paths", p.ModelPaths},
		{"seed-paths", p.SeedPaths},
		{"test-paths", p.TestPaths},
		{"macro-paths", p.MacroPaths},
		{"snapshot-paths", p.SnapshotPaths},
		{"analysis-paths", p.AnalysisPaths},
		{"asset-paths", p.AssetPaths},
		{"clean-targets", p.CleanTargets},
	}
	for _, f := range ordered {
		if err := add(f.key, f.value); err != nil {
			return nil, err
		}
	}

	if p.RequireDBTVersion != nil {
		if err := add("require-dbt-version", p.RequireDBTVersion); err != nil {
			return nil, err
		}
	}
	if p.Models != nil {
		if err := add("models", p.Models); err != nil {
			return nil, err
		}
	}
	if p.Seeds != nil {
		if err := add("seeds", p.Seeds); err != nil {
			return nil, err
		}
	}
	if p.Vars != nil {
		if err := add("vars", p.Vars); err != nil {
			return nil, err
		}
	}

	extraKeys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		if err := add(k, p.Extra[k]); err != nil {
			return nil, err
		}
	}

	return marshalNode(root)
}

// marshalNode renders a YAML node with dbt's conventional 2-space indent.
func marshalNode(n *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PathFields returns the canonical (underscore) names of the eight
// path-list fields, in declaration order.
func PathFields() []string {
	return []string{
		"model_paths", "seed_paths", "test_paths", "macro_paths",
		"snapshot_paths", "analysis_paths", "asset_paths", "clean_targets",
	}
}

func takeAny(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			delete(m, k)
			return v, true
		}
	}
	return nil, false
}

func takeString(m map[string]any, keys ...string) (string, bool, error) {
	v, ok := takeAny(m, keys...)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, &ValidationError{Msg: fmt.Sprintf("dbt_project.yml: field %q must be a string", keys[0])}
	}
	return s, true, nil
}

func takeInt(m map[string]any, keys ...string) (int, bool, error) {
	v, ok := takeAny(m, keys...)
	if !ok {
		return 0, false, nil
	}
	n, ok := v.(int)
	if !ok {
		return 0, false, &ValidationError{Msg: fmt.Sprintf("dbt_project.yml: field %q must be an integer", keys[0])}
	}
	return n, true, nil
}

func takeStringList(m map[string]any, keys ...string) ([]string, bool, error) {
	v, ok := takeAny(m, keys...)
	if !ok {
		return nil, false, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, false, &ValidationError{Msg: fmt.Sprintf("dbt_project.yml: field %q must be a list of strings", keys[0])}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false, &ValidationError{Msg: fmt.Sprintf("dbt_project.yml: field %q must be a list of strings", keys[0])}
		}
		out = append(out, s)
	}
	return out, true, nil
}

func takeMap(m map[string]any, keys ...string) (map[string]any, bool, error) {
	v, ok := takeAny(m, keys...)
	if !ok || v == nil {
		return nil, false, nil
	}
	mm, ok := v.(map[string]any)
	if !ok {
		return nil, false, &ValidationError{Msg: fmt.Sprintf("dbt_project.yml: field %q must be a mapping", keys[0])}
	}
	return mm, true, nil
}
