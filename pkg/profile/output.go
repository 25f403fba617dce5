// Package profile provides the typed model and editing operations for
// profiles.yml: profiles, their named outputs, and the target selection.
// Outputs form a closed two-variant union (DuckDB, Databricks) with
// adapter-specific fields; unrecognized output fields are preserved so the
// editor can round-trip profiles it did not create.
package profile

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Output auth types accepted by the Databricks adapter.
const (
	AuthToken         = "token"
	AuthOAuthU2M      = "oauth_u2m"
	AuthOAuthM2M      = "oauth_m2m"
	AuthOAuthM2MAzure = "oauth_m2m_azure"
)

// Output is one named connection inside a profile. The variant set is
// closed; consumers switch exhaustively on the concrete type.
type Output interface {
	// Type returns the on-disk adapter discriminator.
	Type() string

	isOutput()
}

// DuckDBOutput is a local DuckDB connection.
type DuckDBOutput struct {
	Path       string
	Schema     string
	Database   string
	Threads    int
	Extensions []string
	Settings   map[string]any
	Extra      map[string]any
}

func (DuckDBOutput) Type() string { return "duckdb" }
func (DuckDBOutput) isOutput()    {}

// DatabricksOutput is a Databricks SQL warehouse connection. Exactly one
// auth mode applies: a token (literal or env_var expression) or an OAuth
// flavor with the matching client-credential fields.
type DatabricksOutput struct {
	Host              string
	HTTPPath          string
	Schema            string
	Catalog           string
	Threads           int
	Token             string
	AuthType          string
	ClientID          string
	ClientSecret      string
	AzureClientID     string
	AzureClientSecret string
	Extra             map[string]any
}

func (DatabricksOutput) Type() string { return "databricks" }
func (DatabricksOutput) isOutput()    {}

func parseOutput(profileName, outputName string, raw any) (Output, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &ValidationError{Msg: fmt.Sprintf("profile %q output %q must be a mapping", profileName, outputName)}
	}
	// Work on a copy so leftovers become Extra without mutating the caller.
	entry := make(map[string]any, len(m))
	for k, v := range m {
		entry[k] = v
	}

	typ, _ := entry["type"].(string)
	delete(entry, "type")

	switch typ {
	case "duckdb":
		return parseDuckDBOutput(profileName, outputName, entry)
	case "databricks":
		return parseDatabricksOutput(profileName, outputName, entry)
	case "":
		return nil, &ValidationError{Msg: fmt.Sprintf("profile %q output %q is missing a type", profileName, outputName)}
	default:
		return nil, &ValidationError{Msg: fmt.Sprintf("profile %q output %q has unsupported type %q", profileName, outputName, typ)}
	}
}

func parseDuckDBOutput(profileName, outputName string, entry map[string]any) (Output, error) {
	out := DuckDBOutput{Schema: "main", Threads: 1}

	var err error
	if out.Path, err = popString(profileName, outputName, entry, "path", true); err != nil {
		return nil, err
	}
	if s, err := popString(profileName, outputName, entry, "schema", false); err != nil {
		return nil, err
	} else if s != "" {
		out.Schema = s
	}
	if out.Database, err = popString(profileName, outputName, entry, "database", false); err != nil {
		return nil, err
	}
	if n, ok, err := popInt(profileName, outputName, entry, "threads"); err != nil {
		return nil, err
	} else if ok {
		out.Threads = n
	}
	if v, ok := entry["extensions"]; ok {
		delete(entry, "extensions")
		items, ok := v.([]any)
		if !ok {
			return nil, &ValidationError{Msg: fmt.Sprintf("profile %q output %q: 'extensions' must be a list", profileName, outputName)}
		}
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, &ValidationError{Msg: fmt.Sprintf("profile %q output %q: 'extensions' must be a list of strings", profileName, outputName)}
			}
			out.Extensions = append(out.Extensions, s)
		}
	}
	if v, ok := entry["settings"]; ok {
		delete(entry, "settings")
		settings, ok := v.(map[string]any)
		if !ok {
			return nil, &ValidationError{Msg: fmt.Sprintf("profile %q output %q: 'settings' must be a mapping", profileName, outputName)}
		}
		out.Settings = settings
	}
	if len(entry) > 0 {
		out.Extra = entry
	}
	return out, nil
}

func parseDatabricksOutput(profileName, outputName string, entry map[string]any) (Output, error) {
	out := DatabricksOutput{Threads: 1}

	var err error
	if out.Host, err = popString(profileName, outputName, entry, "host", true); err != nil {
		return nil, err
	}
	if out.HTTPPath, err = popString(profileName, outputName, entry, "http_path", true); err != nil {
		return nil, err
	}
	if out.Schema, err = popString(profileName, outputName, entry, "schema", true); err != nil {
		return nil, err
	}
	optional := []struct {
		key  string
		slot *string
	}{
		{"catalog", &out.Catalog},
		{"token", &out.Token},
		{"auth_type", &out.AuthType},
		{"client_id", &out.ClientID},
		{"client_secret", &out.ClientSecret},
		{"azure_client_id", &out.AzureClientID},
		{"azure_client_secret", &out.AzureClientSecret},
	}
	for _, f := range optional {
		if *f.slot, err = popString(profileName, outputName, entry, f.key, false); err != nil {
			return nil, err
		}
	}
	if n, ok, err := popInt(profileName, outputName, entry, "threads"); err != nil {
		return nil, err
	} else if ok {
		out.Threads = n
	}
	if len(entry) > 0 {
		out.Extra = entry
	}
	return out, nil
}

func popString(profileName, outputName string, entry map[string]any, key string, required bool) (string, error) {
	v, ok := entry[key]
	if !ok {
		if required {
			return "", &ValidationError{Msg: fmt.Sprintf("profile %q output %q is missing required field %q", profileName, outputName, key)}
		}
		return "", nil
	}
	delete(entry, key)
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Msg: fmt.Sprintf("profile %q output %q: field %q must be a string", profileName, outputName, key)}
	}
	return s, nil
}

func popInt(profileName, outputName string, entry map[string]any, key string) (int, bool, error) {
	v, ok := entry[key]
	if !ok {
		return 0, false, nil
	}
	delete(entry, key)
	n, ok := v.(int)
	if !ok {
		return 0, false, &ValidationError{Msg: fmt.Sprintf("profile %q output %q: field %q must be an integer", profileName, outputName, key)}
	}
	return n, true, nil
}

func outputNode(out Output) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, v any) error {
		kn := &yaml.Node{}
		if err := kn.Encode(key); err != nil {
			return err
		}
		vn := &yaml.Node{}
		if err := vn.Encode(v); err != nil {
			return err
		}
		node.Content = append(node.Content, kn, vn)
		return nil
	}
	addString := func(key, v string) error {
		if v == "" {
			return nil
		}
		return add(key, v)
	}

	if err := add("type", out.Type()); err != nil {
		return nil, err
	}

	var extra map[string]any
	switch o := out.(type) {
	case DuckDBOutput:
		if err := addString("path", o.Path); err != nil {
			return nil, err
		}
		if err := addString("schema", o.Schema); err != nil {
			return nil, err
		}
		if err := addString("database", o.Database); err != nil {
			return nil, err
		}
		if o.Threads > 0 {
			if err := add("threads", o.Threads); err != nil {
				return nil, err
			}
		}
		if len(o.Extensions) > 0 {
			if err := add("extensions", o.Extensions); err != nil {
				return nil, err
			}
		}
		if len(o.Settings) > 0 {
			if err := add("settings", o.Settings); err != nil {
				return nil, err
			}
		}
		extra = o.Extra
	case DatabricksOutput:
		if err := addString("host", o.Host); err != nil {
			return nil, err
		}
		if err := addString("http_path", o.HTTPPath); err != nil {
			return nil, err
		}
		if err := addString("schema", o.Schema); err != nil {
			return nil, err
		}
		if err := addString("catalog", o.Catalog); err != nil {
			return nil, err
		}
		if o.Threads > 0 {
			if err := add("threads", o.Threads); err != nil {
				return nil, err
			}
		}
		if err := addString("token", o.Token); err != nil {
			return nil, err
		}
		if err := addString("auth_type", o.AuthType); err != nil {
			return nil, err
		}
		if err := addString("client_id", o.ClientID); err != nil {
			return nil, err
		}
		if err := addString("client_secret", o.ClientSecret); err != nil {
			return nil, err
		}
		if err := addString("azure_client_id", o.AzureClientID); err != nil {
			return nil, err
		}
		if err := addString("azure_client_secret", o.AzureClientSecret); err != nil {
			return nil, err
		}
		extra = o.Extra
	default:
		return nil, fmt.Errorf("unsupported output type %T", out)
	}

	extraKeys := make([]string, 0, len(extra))
	for k := range extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		if err := add(k, extra[k]); err != nil {
			return nil, err
		}
	}

	return node, nil
}
