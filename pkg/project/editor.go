package project

import (
	"fmt"
	"strings"
)

// editableFields is the allow-list for UpdateField, in display order.
var editableFields = []string{"name", "profile", "version", "require_dbt_version"}

// EditableFields returns the fields UpdateField accepts.
func EditableFields() []string {
	return append([]string(nil), editableFields...)
}

// normalizeField maps the on-disk hyphenated spelling to the in-memory
// underscore form, so both are accepted at the edit surface.
func normalizeField(field string) string {
	return strings.ReplaceAll(field, "-", "_")
}

// UpdateField sets one of the editable scalar fields. Setting name
// re-validates the naming grammar; an empty require_dbt_version clears the
// constraint.
func UpdateField(p *Project, field, value string) error {
	switch normalizeField(field) {
	case "name":
		if err := ValidateName(value); err != nil {
			return err
		}
		p.Name = value
	case "profile":
		p.Profile = value
	case "version":
		p.Version = value
	case "require_dbt_version":
		if value == "" {
			p.RequireDBTVersion = nil
		} else {
			p.RequireDBTVersion = value
		}
	default:
		return &InvalidFieldError{Field: field, Allowed: editableFields}
	}
	return nil
}

// PathOp selects the mutation UpdatePathField applies.
type PathOp string

const (
	PathAdd    PathOp = "add"
	PathRemove PathOp = "remove"
	PathSet    PathOp = "set"
)

// UpdatePathField mutates one of the eight path-list fields. Add is
// idempotent; remove of an absent value fails; set replaces the list
// wholesale.
func UpdatePathField(p *Project, field string, op PathOp, values ...string) error {
	slot := pathSlot(p, normalizeField(field))
	if slot == nil {
		return &InvalidFieldError{Field: field, Allowed: PathFields()}
	}

	switch op {
	case PathAdd:
		if len(values) != 1 {
			return fmt.Errorf("add expects exactly one path")
		}
		for _, existing := range *slot {
			if existing == values[0] {
				return nil
			}
		}
		*slot = append(*slot, values[0])
	case PathRemove:
		if len(values) != 1 {
			return fmt.Errorf("remove expects exactly one path")
		}
		for i, existing := range *slot {
			if existing == values[0] {
				*slot = append((*slot)[:i], (*slot)[i+1:]...)
				return nil
			}
		}
		return &PathNotFoundError{Field: normalizeField(field), Value: values[0]}
	case PathSet:
		*slot = append([]string(nil), values...)
	default:
		return fmt.Errorf("unknown path operation %q", op)
	}
	return nil
}

func pathSlot(p *Project, field string) *[]string {
	switch field {
	case "model_paths":
		return &p.ModelPaths
	case "seed_paths":
		return &p.SeedPaths
	case "test_paths":
		return &p.TestPaths
	case "macro_paths":
		return &p.MacroPaths
	case "snapshot_paths":
		return &p.SnapshotPaths
	case "analysis_paths":
		return &p.AnalysisPaths
	case "asset_paths":
		return &p.AssetPaths
	case "clean_targets":
		return &p.CleanTargets
	}
	return nil
}

// AddHubPackage appends a hub package, rejecting a duplicate of the same
// package name.
func AddHubPackage(f *PackageFile, name, version string) error {
	for _, pkg := range f.Packages {
		if hub, ok := pkg.(HubPackage); ok && hub.Package == name {
			return &PackageExistsError{Identifier: name}
		}
	}
	f.Packages = append(f.Packages, HubPackage{Package: name, Version: version})
	return nil
}

// AddGitPackage appends a git package, rejecting a duplicate of the same
// repository URL.
func AddGitPackage(f *PackageFile, url, revision, subdirectory string) error {
	for _, pkg := range f.Packages {
		if git, ok := pkg.(GitPackage); ok && git.Git == url {
			return &PackageExistsError{Identifier: url}
		}
	}
	f.Packages = append(f.Packages, GitPackage{Git: url, Revision: revision, Subdirectory: subdirectory})
	return nil
}

// AddLocalPackage appends a local package, rejecting a duplicate of the
// same path.
func AddLocalPackage(f *PackageFile, path string) error {
	for _, pkg := range f.Packages {
		if local, ok := pkg.(LocalPackage); ok && local.Local == path {
			return &PackageExistsError{Identifier: path}
		}
	}
	f.Packages = append(f.Packages, LocalPackage{Local: path})
	return nil
}

// RemovePackage removes the package whose identifier matches, across all
// variants.
func RemovePackage(f *PackageFile, identifier string) error {
	for i, pkg := range f.Packages {
		if pkg.Identifier() == identifier {
			f.Packages = append(f.Packages[:i], f.Packages[i+1:]...)
			return nil
		}
	}
	return &PackageNotFoundError{Identifier: identifier}
}

// UpdatePackageVersion sets the version of the hub package with the given
// identifier. Git and local packages carry no version.
func UpdatePackageVersion(f *PackageFile, identifier, version string) error {
	for i, pkg := range f.Packages {
		if pkg.Identifier() != identifier {
			continue
		}
		hub, ok := pkg.(HubPackage)
		if !ok {
			return &NotHubPackageError{Identifier: identifier}
		}
		hub.Version = version
		f.Packages[i] = hub
		return nil
	}
	return &PackageNotFoundError{Identifier: identifier}
}
