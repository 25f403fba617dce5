package profile

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Profile is one named profile: a set of outputs and the currently
// selected target.
type Profile struct {
	Target  string
	Outputs map[string]Output
}

// ProfileSet is the in-memory form of profiles.yml. The reserved
// top-level "config" key is not a profile and round-trips via Extra.
type ProfileSet struct {
	Profiles map[string]*Profile
	Extra    map[string]any
}

// NewProfileSet returns an empty set ready for editing.
func NewProfileSet() *ProfileSet {
	return &ProfileSet{Profiles: map[string]*Profile{}}
}

// Parse reads profiles.yml content.
func Parse(data []byte) (*ProfileSet, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("invalid YAML in profiles.yml: %v", err)}
	}
	if doc == nil {
		return NewProfileSet(), nil
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, &ValidationError{Msg: "profiles.yml must contain a YAML mapping"}
	}

	ps := NewProfileSet()
	for name, raw := range m {
		if name == "config" {
			if ps.Extra == nil {
				ps.Extra = map[string]any{}
			}
			ps.Extra[name] = raw
			continue
		}
		p, err := parseProfile(name, raw)
		if err != nil {
			return nil, err
		}
		ps.Profiles[name] = p
	}
	return ps, nil
}

func parseProfile(name string, raw any) (*Profile, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &ValidationError{Msg: fmt.Sprintf("profile %q must be a mapping", name)}
	}

	p := &Profile{Outputs: map[string]Output{}}
	for key, value := range m {
		switch key {
		case "target":
			s, ok := value.(string)
			if !ok {
				return nil, &ValidationError{Msg: fmt.Sprintf("profile %q: 'target' must be a string", name)}
			}
			p.Target = s
		case "outputs":
			outputs, ok := value.(map[string]any)
			if !ok {
				return nil, &ValidationError{Msg: fmt.Sprintf("profile %q: 'outputs' must be a mapping", name)}
			}
			for outputName, outputRaw := range outputs {
				out, err := parseOutput(name, outputName, outputRaw)
				if err != nil {
					return nil, err
				}
				p.Outputs[outputName] = out
			}
		default:
			return nil, &ValidationError{Msg: fmt.Sprintf("profile %q has unknown field %q", name, key)}
		}
	}
	return p, nil
}

// Marshal serializes the set: profiles sorted by name, outputs sorted by
// name, preserved non-profile keys last.
func (ps *ProfileSet) Marshal() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, vn *yaml.Node) error {
		kn := &yaml.Node{}
		if err := kn.Encode(key); err != nil {
			return err
		}
		root.Content = append(root.Content, kn, vn)
		return nil
	}

	names := make([]string, 0, len(ps.Profiles))
	for name := range ps.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := ps.Profiles[name]
		profileNode := &yaml.Node{Kind: yaml.MappingNode}

		targetKey := &yaml.Node{}
		if err := targetKey.Encode("target"); err != nil {
			return nil, err
		}
		targetVal := &yaml.Node{}
		if err := targetVal.Encode(p.Target); err != nil {
			return nil, err
		}
		profileNode.Content = append(profileNode.Content, targetKey, targetVal)

		outputsKey := &yaml.Node{}
		if err := outputsKey.Encode("outputs"); err != nil {
			return nil, err
		}
		outputsNode := &yaml.Node{Kind: yaml.MappingNode}
		outputNames := make([]string, 0, len(p.Outputs))
		for outputName := range p.Outputs {
			outputNames = append(outputNames, outputName)
		}
		sort.Strings(outputNames)
		for _, outputName := range outputNames {
			on, err := outputNode(p.Outputs[outputName])
			if err != nil {
				return nil, err
			}
			kn := &yaml.Node{}
			if err := kn.Encode(outputName); err != nil {
				return nil, err
			}
			outputsNode.Content = append(outputsNode.Content, kn, on)
		}
		profileNode.Content = append(profileNode.Content, outputsKey, outputsNode)

		if err := add(name, profileNode); err != nil {
			return nil, err
		}
	}

	extraKeys := make([]string, 0, len(ps.Extra))
	for k := range ps.Extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		vn := &yaml.Node{}
		if err := vn.Encode(ps.Extra[k]); err != nil {
			return nil, err
		}
		if err := add(k, vn); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ProfileNames returns the profile names, sorted.
func (ps *ProfileSet) ProfileNames() []string {
	names := make([]string, 0, len(ps.Profiles))
	for name := range ps.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named profile.
func (ps *ProfileSet) Get(name string) (*Profile, error) {
	p, ok := ps.Profiles[name]
	if !ok {
		return nil, &ProfileNotFoundError{Name: name}
	}
	return p, nil
}

// OutputNames returns a profile's output names, sorted.
func (p *Profile) OutputNames() []string {
	names := make([]string, 0, len(p.Outputs))
	for name := range p.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddProfile adds a new profile. A non-empty target must name one of the
// profile's outputs.
func AddProfile(ps *ProfileSet, name string, p *Profile) error {
	if _, ok := ps.Profiles[name]; ok {
		return &ProfileExistsError{Name: name}
	}
	if p.Outputs == nil {
		p.Outputs = map[string]Output{}
	}
	if p.Target != "" {
		if _, ok := p.Outputs[p.Target]; !ok {
			return &OutputNotFoundError{Profile: name, Output: p.Target}
		}
	}
	ps.Profiles[name] = p
	return nil
}

// DeleteProfile removes a profile.
func DeleteProfile(ps *ProfileSet, name string) error {
	if _, ok := ps.Profiles[name]; !ok {
		return &ProfileNotFoundError{Name: name}
	}
	delete(ps.Profiles, name)
	return nil
}

// AddOutput adds a named output to a profile. The first output a profile
// receives becomes its target when none is set.
func AddOutput(ps *ProfileSet, profileName, outputName string, out Output) error {
	p, err := ps.Get(profileName)
	if err != nil {
		return err
	}
	if _, ok := p.Outputs[outputName]; ok {
		return &OutputExistsError{Profile: profileName, Output: outputName}
	}
	p.Outputs[outputName] = out
	if p.Target == "" {
		p.Target = outputName
	}
	return nil
}

// DeleteOutput removes a named output. Deleting the current target is
// rejected; reassign the target first.
func DeleteOutput(ps *ProfileSet, profileName, outputName string) error {
	p, err := ps.Get(profileName)
	if err != nil {
		return err
	}
	if _, ok := p.Outputs[outputName]; !ok {
		return &OutputNotFoundError{Profile: profileName, Output: outputName}
	}
	if p.Target == outputName {
		return &TargetInUseError{Profile: profileName, Output: outputName}
	}
	delete(p.Outputs, outputName)
	return nil
}

// GetOutput returns a profile's named output.
func GetOutput(ps *ProfileSet, profileName, outputName string) (Output, error) {
	p, err := ps.Get(profileName)
	if err != nil {
		return nil, err
	}
	out, ok := p.Outputs[outputName]
	if !ok {
		return nil, &OutputNotFoundError{Profile: profileName, Output: outputName}
	}
	return out, nil
}

// UpdateOutput replaces an existing output wholesale.
func UpdateOutput(ps *ProfileSet, profileName, outputName string, out Output) error {
	p, err := ps.Get(profileName)
	if err != nil {
		return err
	}
	if _, ok := p.Outputs[outputName]; !ok {
		return &OutputNotFoundError{Profile: profileName, Output: outputName}
	}
	p.Outputs[outputName] = out
	return nil
}

// SetTarget points a profile's target at an existing output.
func SetTarget(ps *ProfileSet, profileName, outputName string) error {
	p, err := ps.Get(profileName)
	if err != nil {
		return err
	}
	if _, ok := p.Outputs[outputName]; !ok {
		return &OutputNotFoundError{Profile: profileName, Output: outputName}
	}
	p.Target = outputName
	return nil
}

// UpdateOutputFields applies a partial field update to an output. Known
// fields are set with type checking; unknown fields land in the output's
// Extra map. An empty string clears a known string field.
func UpdateOutputFields(ps *ProfileSet, profileName, outputName string, fields map[string]any) error {
	out, err := GetOutput(ps, profileName, outputName)
	if err != nil {
		return err
	}

	switch o := out.(type) {
	case DuckDBOutput:
		for key, value := range fields {
			if err := setDuckDBField(&o, profileName, outputName, key, value); err != nil {
				return err
			}
		}
		ps.Profiles[profileName].Outputs[outputName] = o
	case DatabricksOutput:
		for key, value := range fields {
			if err := setDatabricksField(&o, profileName, outputName, key, value); err != nil {
				return err
			}
		}
		ps.Profiles[profileName].Outputs[outputName] = o
	default:
		return fmt.Errorf("unsupported output type %T", out)
	}
	return nil
}

func setDuckDBField(o *DuckDBOutput, profileName, outputName, key string, value any) error {
	switch key {
	case "path":
		return assignString(&o.Path, profileName, outputName, key, value)
	case "schema":
		return assignString(&o.Schema, profileName, outputName, key, value)
	case "database":
		return assignString(&o.Database, profileName, outputName, key, value)
	case "threads":
		return assignInt(&o.Threads, profileName, outputName, key, value)
	case "type":
		return &ValidationError{Msg: fmt.Sprintf("profile %q output %q: 'type' cannot be changed", profileName, outputName)}
	default:
		if o.Extra == nil {
			o.Extra = map[string]any{}
		}
		o.Extra[key] = value
		return nil
	}
}

func setDatabricksField(o *DatabricksOutput, profileName, outputName, key string, value any) error {
	slots := map[string]*string{
		"host":                &o.Host,
		"http_path":           &o.HTTPPath,
		"schema":              &o.Schema,
		"catalog":             &o.Catalog,
		"token":               &o.Token,
		"auth_type":           &o.AuthType,
		"client_id":           &o.ClientID,
		"client_secret":       &o.ClientSecret,
		"azure_client_id":     &o.AzureClientID,
		"azure_client_secret": &o.AzureClientSecret,
	}
	if slot, ok := slots[key]; ok {
		return assignString(slot, profileName, outputName, key, value)
	}
	switch key {
	case "threads":
		return assignInt(&o.Threads, profileName, outputName, key, value)
	case "type":
		return &ValidationError{Msg: fmt.Sprintf("profile %q output %q: 'type' cannot be changed", profileName, outputName)}
	default:
		if o.Extra == nil {
			o.Extra = map[string]any{}
		}
		o.Extra[key] = value
		return nil
	}
}

func assignString(slot *string, profileName, outputName, key string, value any) error {
	s, ok := value.(string)
	if !ok {
		return &ValidationError{Msg: fmt.Sprintf("profile %q output %q: field %q must be a string", profileName, outputName, key)}
	}
	*slot = s
	return nil
}

func assignInt(slot *int, profileName, outputName, key string, value any) error {
	n, ok := value.(int)
	if !ok {
		return &ValidationError{Msg: fmt.Sprintf("profile %q output %q: field %q must be an integer", profileName, outputName, key)}
	}
	*slot = n
	return nil
}
