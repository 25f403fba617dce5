package project

import (
	"regexp"
	"sort"
)

// knownPackages maps convenient short names to their full hub identifiers.
// Hyphen and underscore spellings both resolve.
var knownPackages = map[string]string{
	"dbt_utils":        "dbt-labs/dbt_utils",
	"dbt-utils":        "dbt-labs/dbt_utils",
	"codegen":          "dbt-labs/codegen",
	"audit_helper":     "dbt-labs/audit_helper",
	"audit-helper":     "dbt-labs/audit_helper",
	"dbt_expectations": "calogica/dbt_expectations",
	"dbt-expectations": "calogica/dbt_expectations",
	"elementary":       "elementary-data/elementary",
}

var hubNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+/[A-Za-z0-9_-]+$`)

// ResolvePackageName maps a short package name (dbt_utils) to its full hub
// identifier (dbt-labs/dbt_utils). Names already in namespace/name form
// pass through unchanged.
func ResolvePackageName(name string) string {
	if full, ok := knownPackages[name]; ok {
		return full
	}
	return name
}

// KnownPackageNames returns the short names with a registered hub mapping,
// sorted for stable display.
func KnownPackageNames() []string {
	names := make([]string, 0, len(knownPackages))
	for name := range knownPackages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateHubPackageName checks that a name is in namespace/name form.
func ValidateHubPackageName(name string) error {
	if !hubNameRe.MatchString(name) {
		return &PackageNameError{Name: name}
	}
	return nil
}
