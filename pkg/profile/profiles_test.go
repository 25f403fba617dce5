package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProfiles = `analytics:
  target: dev
  outputs:
    dev:
      type: duckdb
      path: dev.duckdb
      schema: main
      threads: 4
      extensions:
        - httpfs
    prod:
      type: databricks
      host: https://adb-123.azuredatabricks.net
      http_path: /sql/1.0/warehouses/abc
      schema: analytics
      catalog: main
      token: "{{ env_var('DATABRICKS_TOKEN') }}"
      threads: 8
config:
  send_anonymous_usage_stats: false
`

// TestParse reads a realistic profiles.yml with both output variants.
func TestParse(t *testing.T) {
	ps, err := Parse([]byte(sampleProfiles))
	require.NoError(t, err)

	require.Contains(t, ps.Profiles, "analytics")
	p := ps.Profiles["analytics"]
	assert.Equal(t, "dev", p.Target)
	require.Len(t, p.Outputs, 2)

	duck, ok := p.Outputs["dev"].(DuckDBOutput)
	require.True(t, ok, "dev output must be duckdb")
	assert.Equal(t, "dev.duckdb", duck.Path)
	assert.Equal(t, "main", duck.Schema)
	assert.Equal(t, 4, duck.Threads)
	assert.Equal(t, []string{"httpfs"}, duck.Extensions)

	dbx, ok := p.Outputs["prod"].(DatabricksOutput)
	require.True(t, ok, "prod output must be databricks")
	assert.Equal(t, "https://adb-123.azuredatabricks.net", dbx.Host)
	assert.Equal(t, "/sql/1.0/warehouses/abc", dbx.HTTPPath)
	assert.Equal(t, "analytics", dbx.Schema)
	assert.Equal(t, "main", dbx.Catalog)
	assert.Equal(t, 8, dbx.Threads)
	assert.Contains(t, dbx.Token, "env_var")

	require.Contains(t, ps.Extra, "config", "config keys are preserved, not parsed as profiles")
}

func TestParse_Defaults(t *testing.T) {
	text := `p:
  target: dev
  outputs:
    dev:
      type: duckdb
      path: local.duckdb
`
	ps, err := Parse([]byte(text))
	require.NoError(t, err)

	duck := ps.Profiles["p"].Outputs["dev"].(DuckDBOutput)
	assert.Equal(t, "main", duck.Schema)
	assert.Equal(t, 1, duck.Threads)
}

// TestParse_PreservesUnknownOutputFields: adapter fields the editor does
// not model survive a round-trip via Extra.
func TestParse_PreservesUnknownOutputFields(t *testing.T) {
	text := `p:
  target: dev
  outputs:
    dev:
      type: databricks
      host: https://x
      http_path: /sql/1
      schema: s
      session_properties:
        ansi_mode: true
`
	ps, err := Parse([]byte(text))
	require.NoError(t, err)

	dbx := ps.Profiles["p"].Outputs["dev"].(DatabricksOutput)
	require.NotNil(t, dbx.Extra)
	assert.Contains(t, dbx.Extra, "session_properties")

	out, err := ps.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), "session_properties:")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		errSubstr string
	}{
		{
			name:      "scalar document",
			input:     "nope",
			errSubstr: "must contain a YAML mapping",
		},
		{
			name:      "profile not a mapping",
			input:     "p: nope",
			errSubstr: `profile "p" must be a mapping`,
		},
		{
			name:      "unknown profile field",
			input:     "p:\n  target: dev\n  outputs: {}\n  mystery: 1\n",
			errSubstr: `unknown field "mystery"`,
		},
		{
			name:      "output missing type",
			input:     "p:\n  target: dev\n  outputs:\n    dev:\n      path: x\n",
			errSubstr: "missing a type",
		},
		{
			name:      "unsupported output type",
			input:     "p:\n  target: dev\n  outputs:\n    dev:\n      type: snowflake\n",
			errSubstr: `unsupported type "snowflake"`,
		},
		{
			name:      "duckdb missing path",
			input:     "p:\n  target: dev\n  outputs:\n    dev:\n      type: duckdb\n",
			errSubstr: `missing required field "path"`,
		},
		{
			name:      "databricks missing http_path",
			input:     "p:\n  target: dev\n  outputs:\n    dev:\n      type: databricks\n      host: h\n      schema: s\n",
			errSubstr: `missing required field "http_path"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			var valErr *ValidationError
			assert.ErrorAs(t, err, &valErr)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

// TestMarshal_RoundTrip: serialize then re-parse yields an equal set.
func TestMarshal_RoundTrip(t *testing.T) {
	ps, err := Parse([]byte(sampleProfiles))
	require.NoError(t, err)

	out, err := ps.Marshal()
	require.NoError(t, err)

	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, ps, again)
}

func TestAddProfile(t *testing.T) {
	ps := NewProfileSet()
	p := &Profile{
		Target:  "dev",
		Outputs: map[string]Output{"dev": DuckDBOutput{Path: "x.duckdb", Schema: "main", Threads: 1}},
	}
	require.NoError(t, AddProfile(ps, "analytics", p))

	err := AddProfile(ps, "analytics", p)
	var exists *ProfileExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, "analytics", exists.Name)
}

func TestAddProfile_TargetMustExist(t *testing.T) {
	ps := NewProfileSet()
	err := AddProfile(ps, "p", &Profile{Target: "ghost", Outputs: map[string]Output{}})
	var notFound *OutputNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.Output)
}

func TestDeleteProfile(t *testing.T) {
	ps := NewProfileSet()
	require.NoError(t, AddProfile(ps, "p", &Profile{}))
	require.NoError(t, DeleteProfile(ps, "p"))

	err := DeleteProfile(ps, "p")
	var notFound *ProfileNotFoundError
	require.ErrorAs(t, err, &notFound)
}

// TestAddOutput: the first output becomes the target; duplicates fail.
func TestAddOutput(t *testing.T) {
	ps := NewProfileSet()
	require.NoError(t, AddProfile(ps, "p", &Profile{}))

	require.NoError(t, AddOutput(ps, "p", "dev", DuckDBOutput{Path: "x.duckdb"}))
	assert.Equal(t, "dev", ps.Profiles["p"].Target, "first output becomes the target")

	require.NoError(t, AddOutput(ps, "p", "prod", DuckDBOutput{Path: "y.duckdb"}))
	assert.Equal(t, "dev", ps.Profiles["p"].Target, "target unchanged by later outputs")

	err := AddOutput(ps, "p", "dev", DuckDBOutput{Path: "z.duckdb"})
	var exists *OutputExistsError
	require.ErrorAs(t, err, &exists)
}

// TestDeleteOutput_TargetGuard: the current target cannot be deleted until
// the target is reassigned.
func TestDeleteOutput_TargetGuard(t *testing.T) {
	ps := NewProfileSet()
	require.NoError(t, AddProfile(ps, "p", &Profile{}))
	require.NoError(t, AddOutput(ps, "p", "dev", DuckDBOutput{Path: "x.duckdb"}))
	require.NoError(t, AddOutput(ps, "p", "prod", DuckDBOutput{Path: "y.duckdb"}))

	err := DeleteOutput(ps, "p", "dev")
	var inUse *TargetInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, "dev", inUse.Output)

	require.NoError(t, SetTarget(ps, "p", "prod"))
	require.NoError(t, DeleteOutput(ps, "p", "dev"))
	assert.NotContains(t, ps.Profiles["p"].Outputs, "dev")
}

func TestDeleteOutput_Absent(t *testing.T) {
	ps := NewProfileSet()
	require.NoError(t, AddProfile(ps, "p", &Profile{}))

	err := DeleteOutput(ps, "p", "ghost")
	var notFound *OutputNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSetTarget_MustExist(t *testing.T) {
	ps := NewProfileSet()
	require.NoError(t, AddProfile(ps, "p", &Profile{}))

	err := SetTarget(ps, "p", "ghost")
	var notFound *OutputNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestUpdateOutput(t *testing.T) {
	ps := NewProfileSet()
	require.NoError(t, AddProfile(ps, "p", &Profile{}))
	require.NoError(t, AddOutput(ps, "p", "dev", DuckDBOutput{Path: "old.duckdb"}))

	require.NoError(t, UpdateOutput(ps, "p", "dev", DuckDBOutput{Path: "new.duckdb"}))
	out, err := GetOutput(ps, "p", "dev")
	require.NoError(t, err)
	assert.Equal(t, "new.duckdb", out.(DuckDBOutput).Path)

	err = UpdateOutput(ps, "p", "ghost", DuckDBOutput{})
	var notFound *OutputNotFoundError
	require.ErrorAs(t, err, &notFound)
}

// TestUpdateOutputFields: known fields are type-checked, unknown fields
// land in Extra, and the type discriminator is immutable.
func TestUpdateOutputFields(t *testing.T) {
	ps := NewProfileSet()
	require.NoError(t, AddProfile(ps, "p", &Profile{}))
	require.NoError(t, AddOutput(ps, "p", "dev", DatabricksOutput{
		Host: "https://x", HTTPPath: "/sql/1", Schema: "s", Threads: 1,
	}))

	require.NoError(t, UpdateOutputFields(ps, "p", "dev", map[string]any{
		"catalog":   "main",
		"threads":   16,
		"auth_type": AuthOAuthM2MAzure,
		"retries":   3,
	}))

	dbx := ps.Profiles["p"].Outputs["dev"].(DatabricksOutput)
	assert.Equal(t, "main", dbx.Catalog)
	assert.Equal(t, 16, dbx.Threads)
	assert.Equal(t, AuthOAuthM2MAzure, dbx.AuthType)
	assert.Equal(t, 3, dbx.Extra["retries"])

	err := UpdateOutputFields(ps, "p", "dev", map[string]any{"threads": "many"})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	err = UpdateOutputFields(ps, "p", "dev", map[string]any{"type": "duckdb"})
	require.ErrorAs(t, err, &valErr)
}

func TestProfileNames_Sorted(t *testing.T) {
	ps := NewProfileSet()
	require.NoError(t, AddProfile(ps, "zeta", &Profile{}))
	require.NoError(t, AddProfile(ps, "alpha", &Profile{}))
	assert.Equal(t, []string{"alpha", "zeta"}, ps.ProfileNames())
}
