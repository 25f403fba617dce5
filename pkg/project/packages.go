package project

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Package is one entry in packages.yml: exactly one of the three dbt
// package shapes. The set is closed; consumers switch exhaustively.
type Package interface {
	// Identifier returns the variant-specific identity used for
	// duplicate detection and lookup: hub package name, git URL, or
	// local path.
	Identifier() string

	isPackage()
}

// HubPackage is a package resolved from the dbt hub registry.
type HubPackage struct {
	Package string
	Version string
}

func (p HubPackage) Identifier() string { return p.Package }
func (HubPackage) isPackage()           {}

// GitPackage is a package pinned to a git revision.
type GitPackage struct {
	Git          string
	Revision     string
	Subdirectory string
}

func (p GitPackage) Identifier() string { return p.Git }
func (GitPackage) isPackage()           {}

// LocalPackage is a package at a filesystem path.
type LocalPackage struct {
	Local string
}

func (p LocalPackage) Identifier() string { return p.Local }
func (LocalPackage) isPackage()           {}

// DisplayInfo returns a package's identifier and a short human-readable
// detail string for listings.
func DisplayInfo(pkg Package) (identifier, detail string) {
	switch p := pkg.(type) {
	case HubPackage:
		return p.Package, fmt.Sprintf("hub: %s", p.Version)
	case GitPackage:
		if p.Subdirectory != "" {
			return p.Git, fmt.Sprintf("git: %s (%s)", p.Revision, p.Subdirectory)
		}
		return p.Git, fmt.Sprintf("git: %s", p.Revision)
	case LocalPackage:
		return p.Local, "local"
	default:
		return pkg.Identifier(), ""
	}
}

// PackageFile is the in-memory form of packages.yml.
type PackageFile struct {
	Packages []Package
}

// ParsePackages reads packages.yml content. An empty document or a null
// packages key yields an empty file; unknown keys anywhere are rejected.
func ParsePackages(data []byte) (*PackageFile, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("invalid YAML in packages.yml: %v", err)}
	}
	if doc == nil {
		return &PackageFile{}, nil
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, &ValidationError{Msg: "packages.yml must contain a YAML mapping"}
	}
	for k := range m {
		if k != "packages" {
			return nil, &ValidationError{Msg: fmt.Sprintf("packages.yml: unknown field %q", k)}
		}
	}

	raw := m["packages"]
	if raw == nil {
		return &PackageFile{}, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, &ValidationError{Msg: "packages.yml: 'packages' must be a list"}
	}

	f := &PackageFile{Packages: make([]Package, 0, len(items))}
	for i, item := range items {
		pkg, err := parsePackageEntry(i, item)
		if err != nil {
			return nil, err
		}
		f.Packages = append(f.Packages, pkg)
	}
	return f, nil
}

func parsePackageEntry(index int, item any) (Package, error) {
	entry, ok := item.(map[string]any)
	if !ok {
		return nil, &ValidationError{Msg: fmt.Sprintf("packages.yml: entry %d must be a mapping", index)}
	}

	switch {
	case entry["package"] != nil:
		if err := rejectUnknown(index, entry, "package", "version"); err != nil {
			return nil, err
		}
		name, err := entryString(index, entry, "package")
		if err != nil {
			return nil, err
		}
		version, err := entryString(index, entry, "version")
		if err != nil {
			return nil, err
		}
		return HubPackage{Package: name, Version: version}, nil

	case entry["git"] != nil:
		if err := rejectUnknown(index, entry, "git", "revision", "subdirectory"); err != nil {
			return nil, err
		}
		url, err := entryString(index, entry, "git")
		if err != nil {
			return nil, err
		}
		revision, err := entryString(index, entry, "revision")
		if err != nil {
			return nil, err
		}
		pkg := GitPackage{Git: url, Revision: revision}
		if _, ok := entry["subdirectory"]; ok {
			sub, err := entryString(index, entry, "subdirectory")
			if err != nil {
				return nil, err
			}
			pkg.Subdirectory = sub
		}
		return pkg, nil

	case entry["local"] != nil:
		if err := rejectUnknown(index, entry, "local"); err != nil {
			return nil, err
		}
		path, err := entryString(index, entry, "local")
		if err != nil {
			return nil, err
		}
		return LocalPackage{Local: path}, nil

	default:
		return nil, &ValidationError{Msg: fmt.Sprintf("packages.yml: entry %d must contain a 'package', 'git', or 'local' key", index)}
	}
}

func rejectUnknown(index int, entry map[string]any, allowed ...string) error {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, k := range allowed {
		allowedSet[k] = struct{}{}
	}
	var unknown []string
	for k := range entry {
		if _, ok := allowedSet[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &ValidationError{Msg: fmt.Sprintf("packages.yml: entry %d has unknown field %q", index, unknown[0])}
	}
	return nil
}

func entryString(index int, entry map[string]any, key string) (string, error) {
	v, ok := entry[key]
	if !ok {
		return "", &ValidationError{Msg: fmt.Sprintf("packages.yml: entry %d missing required field %q", index, key)}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Msg: fmt.Sprintf("packages.yml: entry %d field %q must be a string", index, key)}
	}
	return s, nil
}

// Marshal serializes the package file, one mapping per entry with keys in
// dbt's conventional order.
func (f *PackageFile) Marshal() ([]byte, error) {
	type kv struct {
		key   string
		value string
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, pkg := range f.Packages {
		var pairs []kv
		switch p := pkg.(type) {
		case HubPackage:
			pairs = []kv{{"package", p.Package}, {"version", p.Version}}
		case GitPackage:
			pairs = []kv{{"git", p.Git}, {"revision", p.Revision}}
			if p.Subdirectory != "" {
				pairs = append(pairs, kv{"subdirectory", p.Subdirectory})
			}
		case LocalPackage:
			pairs = []kv{{"local", p.Local}}
		default:
			return nil, fmt.Errorf("unsupported package type %T", pkg)
		}

		entry := &yaml.Node{Kind: yaml.MappingNode}
		for _, pair := range pairs {
			kn := &yaml.Node{}
			if err := kn.Encode(pair.key); err != nil {
				return nil, err
			}
			vn := &yaml.Node{}
			if err := vn.Encode(pair.value); err != nil {
				return nil, err
			}
			entry.Content = append(entry.Content, kn, vn)
		}
		seq.Content = append(seq.Content, entry)
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	kn := &yaml.Node{}
	if err := kn.Encode("packages"); err != nil {
		return nil, err
	}
	root.Content = append(root.Content, kn, seq)
	return marshalNode(root)
}
