package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProject(t *testing.T) *Project {
	t.Helper()
	p, err := NewProject("analytics", "dev")
	require.NoError(t, err)
	return p
}

// TestUpdateField covers the editable allow-list.
func TestUpdateField(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		check   func(t *testing.T, p *Project)
		wantErr error
	}{
		{
			name:  "set name",
			field: "name",
			value: "warehouse",
			check: func(t *testing.T, p *Project) { assert.Equal(t, "warehouse", p.Name) },
		},
		{
			name:  "set profile",
			field: "profile",
			value: "databricks_prod",
			check: func(t *testing.T, p *Project) { assert.Equal(t, "databricks_prod", p.Profile) },
		},
		{
			name:  "set version",
			field: "version",
			value: "2.0.0",
			check: func(t *testing.T, p *Project) { assert.Equal(t, "2.0.0", p.Version) },
		},
		{
			name:  "set require_dbt_version",
			field: "require_dbt_version",
			value: ">=1.5.0",
			check: func(t *testing.T, p *Project) { assert.Equal(t, ">=1.5.0", p.RequireDBTVersion) },
		},
		{
			name:  "hyphenated field spelling accepted",
			field: "require-dbt-version",
			value: ">=1.6.0",
			check: func(t *testing.T, p *Project) { assert.Equal(t, ">=1.6.0", p.RequireDBTVersion) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProject(t)
			err := UpdateField(p, tt.field, tt.value)
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestUpdateField_ClearsRequireDBTVersion(t *testing.T) {
	p := newTestProject(t)
	require.NoError(t, UpdateField(p, "require_dbt_version", ">=1.0.0"))
	require.NoError(t, UpdateField(p, "require_dbt_version", ""))
	assert.Nil(t, p.RequireDBTVersion)
}

func TestUpdateField_RejectsUneditableField(t *testing.T) {
	p := newTestProject(t)
	err := UpdateField(p, "model_paths", "models")
	var fieldErr *InvalidFieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "model_paths", fieldErr.Field)
}

func TestUpdateField_RevalidatesName(t *testing.T) {
	p := newTestProject(t)
	err := UpdateField(p, "name", "bad-name")
	var nameErr *NameError
	require.ErrorAs(t, err, &nameErr)
	assert.Equal(t, "analytics", p.Name, "name must be unchanged after a rejected update")
}

// TestUpdatePathField_AddIsIdempotent: adding a present value changes
// nothing.
func TestUpdatePathField_AddIsIdempotent(t *testing.T) {
	p := newTestProject(t)
	require.NoError(t, UpdatePathField(p, "model_paths", PathAdd, "staging"))
	assert.Equal(t, []string{"models", "staging"}, p.ModelPaths)

	require.NoError(t, UpdatePathField(p, "model_paths", PathAdd, "staging"))
	assert.Equal(t, []string{"models", "staging"}, p.ModelPaths)
}

func TestUpdatePathField_RemovePreservesOrder(t *testing.T) {
	p := newTestProject(t)
	require.NoError(t, UpdatePathField(p, "model_paths", PathSet, "a", "b", "c"))
	require.NoError(t, UpdatePathField(p, "model_paths", PathRemove, "b"))
	assert.Equal(t, []string{"a", "c"}, p.ModelPaths)
}

func TestUpdatePathField_RemoveAbsentFails(t *testing.T) {
	p := newTestProject(t)
	err := UpdatePathField(p, "seed_paths", PathRemove, "missing")
	var notFound *PathNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "seed_paths", notFound.Field)
	assert.Equal(t, "missing", notFound.Value)
	assert.Equal(t, []string{"seeds"}, p.SeedPaths)
}

func TestUpdatePathField_Set(t *testing.T) {
	p := newTestProject(t)
	require.NoError(t, UpdatePathField(p, "clean-targets", PathSet, "target"))
	assert.Equal(t, []string{"target"}, p.CleanTargets)
}

func TestUpdatePathField_RejectsNonPathField(t *testing.T) {
	p := newTestProject(t)
	err := UpdatePathField(p, "name", PathAdd, "models")
	var fieldErr *InvalidFieldError
	require.ErrorAs(t, err, &fieldErr)
}

// TestUpdatePathField_AllFields exercises every recognized path field once.
func TestUpdatePathField_AllFields(t *testing.T) {
	p := newTestProject(t)
	for _, field := range PathFields() {
		require.NoError(t, UpdatePathField(p, field, PathAdd, "extra_dir"), "field %s", field)
	}
	assert.Contains(t, p.SnapshotPaths, "extra_dir")
	assert.Contains(t, p.CleanTargets, "extra_dir")
}

// TestAddPackage_DuplicateIdentifier: a duplicate identifier of the same
// variant fails regardless of secondary fields.
func TestAddPackage_DuplicateIdentifier(t *testing.T) {
	f := &PackageFile{}
	require.NoError(t, AddHubPackage(f, "dbt-labs/dbt_utils", "1.0.0"))

	err := AddHubPackage(f, "dbt-labs/dbt_utils", "2.0.0")
	var exists *PackageExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, "dbt-labs/dbt_utils", exists.Identifier)
	assert.Len(t, f.Packages, 1)
}

// TestAddPackage_NoCrossVariantConflict: identifier equality never compares
// across variants.
func TestAddPackage_NoCrossVariantConflict(t *testing.T) {
	f := &PackageFile{}
	require.NoError(t, AddHubPackage(f, "shared/name", "1.0.0"))
	require.NoError(t, AddLocalPackage(f, "shared/name"))
	require.NoError(t, AddGitPackage(f, "shared/name", "main", ""))
	assert.Len(t, f.Packages, 3)
}

func TestAddGitPackage_Duplicate(t *testing.T) {
	f := &PackageFile{}
	require.NoError(t, AddGitPackage(f, "https://github.com/org/repo.git", "v1", ""))
	err := AddGitPackage(f, "https://github.com/org/repo.git", "v2", "sub")
	var exists *PackageExistsError
	require.ErrorAs(t, err, &exists)
}

func TestRemovePackage(t *testing.T) {
	f := &PackageFile{}
	require.NoError(t, AddHubPackage(f, "a/one", "1.0.0"))
	require.NoError(t, AddLocalPackage(f, "./two"))
	require.NoError(t, AddHubPackage(f, "c/three", "3.0.0"))

	require.NoError(t, RemovePackage(f, "./two"))
	require.Len(t, f.Packages, 2)
	assert.Equal(t, "a/one", f.Packages[0].Identifier())
	assert.Equal(t, "c/three", f.Packages[1].Identifier())
}

func TestRemovePackage_AbsentFails(t *testing.T) {
	f := &PackageFile{}
	err := RemovePackage(f, "ghost/package")
	var notFound *PackageNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost/package", notFound.Identifier)
}

// TestUpdatePackageVersion covers hub success and the non-hub rejection.
func TestUpdatePackageVersion(t *testing.T) {
	f := &PackageFile{}
	require.NoError(t, AddHubPackage(f, "a/one", "1.0.0"))
	require.NoError(t, AddGitPackage(f, "https://github.com/org/repo.git", "main", ""))

	require.NoError(t, UpdatePackageVersion(f, "a/one", "1.2.0"))
	assert.Equal(t, HubPackage{Package: "a/one", Version: "1.2.0"}, f.Packages[0])
	assert.Equal(t, GitPackage{Git: "https://github.com/org/repo.git", Revision: "main"}, f.Packages[1],
		"other packages must be untouched")

	err := UpdatePackageVersion(f, "https://github.com/org/repo.git", "v2")
	var notHub *NotHubPackageError
	require.ErrorAs(t, err, &notHub)

	err = UpdatePackageVersion(f, "ghost/package", "1.0.0")
	var notFound *PackageNotFoundError
	require.ErrorAs(t, err, &notFound)
}
