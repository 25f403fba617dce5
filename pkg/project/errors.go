package project

import (
	"fmt"
	"strings"
)

// ValidationError reports a document that is not well-formed for its
// expected shape (wrong root kind, missing required keys, bad field types).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NameError reports a project name that violates dbt's naming rules.
type NameError struct {
	Name string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("invalid project name %q: project names must start with a letter or underscore and contain only letters, digits, and underscores", e.Name)
}

// ProjectNotFoundError reports a missing dbt_project.yml.
type ProjectNotFoundError struct {
	Path string
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("no dbt_project.yml found at %s", e.Path)
}

// InvalidFieldError reports an attempt to edit a field outside the
// editable allow-list, or a path operation on a non-path field.
type InvalidFieldError struct {
	Field   string
	Allowed []string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("field %q is not editable (allowed: %s)", e.Field, strings.Join(e.Allowed, ", "))
}

// PathNotFoundError reports a remove of a path value that is not present
// in the named path-list field.
type PathNotFoundError struct {
	Field string
	Value string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path %q not found in %s", e.Value, e.Field)
}

// PackageExistsError reports an add of a package whose identifier is
// already present in packages.yml.
type PackageExistsError struct {
	Identifier string
}

func (e *PackageExistsError) Error() string {
	return fmt.Sprintf("package %q already exists in packages.yml", e.Identifier)
}

// PackageNotFoundError reports an operation on a package identifier that
// is not present in packages.yml.
type PackageNotFoundError struct {
	Identifier string
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package %q not found in packages.yml", e.Identifier)
}

// PackageNameError reports a hub package name that is not in
// namespace/name form.
type PackageNameError struct {
	Name string
}

func (e *PackageNameError) Error() string {
	return fmt.Sprintf("invalid hub package name %q: expected format 'namespace/name'", e.Name)
}

// NotHubPackageError reports a version update against a git or local
// package, which carry no version field.
type NotHubPackageError struct {
	Identifier string
}

func (e *NotHubPackageError) Error() string {
	return fmt.Sprintf("package %q is not a hub package", e.Identifier)
}
