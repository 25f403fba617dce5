package token

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spycner/brix/internal/azure"
	"github.com/Spycner/brix/internal/databricks"
	"github.com/Spycner/brix/internal/dbt"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const managerProfiles = `analytics:
  target: dev
  outputs:
    anon:
      type: databricks
      host: adb-999.9.azuredatabricks.net
      schema: scratch
    dev:
      type: databricks
      host: adb-123.4.azuredatabricks.net
      http_path: /sql/1.0/warehouses/abc
      schema: analytics_dev
      token: "{{ env_var('DATABRICKS_TOKEN_DEV') }}"
    prod:
      type: databricks
      host: adb-123.4.azuredatabricks.net
      schema: analytics
      token: "{{ env_var('DATABRICKS_TOKEN_PROD') }}"
`

type fakeMinter struct {
	mu          sync.Mutex
	workspace   string
	minted      *databricks.Token
	err         error
	calls       int
	gotBearer   string
	gotLifetime time.Duration
}

func (f *fakeMinter) CreateToken(_ context.Context, accessToken, _ string, lifetime time.Duration) (*databricks.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotBearer = accessToken
	f.gotLifetime = lifetime
	if f.err != nil {
		return nil, f.err
	}
	return f.minted, nil
}

func (f *fakeMinter) WorkspaceURL() string {
	return f.workspace
}

func (f *fakeMinter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type envSink struct {
	mu   sync.Mutex
	vars map[string]string
	err  error
}

func (s *envSink) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.vars == nil {
		s.vars = map[string]string{}
	}
	s.vars[key] = value
	return nil
}

func (s *envSink) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vars[key]
}

func writeManagerProfiles(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yml")
	require.NoError(t, os.WriteFile(path, []byte(managerProfiles), 0o600))
	return path
}

func newTestManager(t *testing.T, minter Minter, sink *envSink, opts ...Option) (*Manager, *Store) {
	t.Helper()
	store := NewStore(t.TempDir())
	base := []Option{
		WithMinterFactory(func(string) Minter { return minter }),
		WithAccessTokenFunc(func(context.Context, azure.Method) (string, error) { return "aad-tok", nil }),
		WithSetEnv(sink.set),
		WithClock(func() time.Time { return testNow }),
	}
	m := NewManager(store, writeManagerProfiles(t), append(base, opts...)...)
	return m, store
}

func seedRecord(t *testing.T, store *Store, variable, environment string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, store.Save(&TokenInfo{
		TokenVariable: variable,
		Environment:   environment,
		CreatedAt:     testNow.Add(-time.Hour),
		ExpiresAt:     expiresAt,
		WorkspaceURL:  "https://adb-123.4.azuredatabricks.net",
	}))
}

func TestCheck_States(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		seed        func(t *testing.T, store *Store)
		wantRefresh bool
		wantMessage string
		wantVar     string
		wantHours   float64
		checkHours  bool
	}{
		{
			name:        "environment not in profile",
			environment: "ghost",
			wantMessage: "Environment 'ghost' not found in profile",
		},
		{
			name:        "no token env var",
			environment: "anon",
			wantMessage: "No token env var configured",
		},
		{
			name:        "no stored record",
			environment: "dev",
			wantRefresh: true,
			wantMessage: "No token info found - token needs to be created",
			wantVar:     "DATABRICKS_TOKEN_DEV",
		},
		{
			name:        "expired record",
			environment: "dev",
			seed: func(t *testing.T, store *Store) {
				seedRecord(t, store, "DATABRICKS_TOKEN_DEV", "dev", testNow.Add(-2*time.Hour))
			},
			wantRefresh: true,
			wantMessage: "Token has expired",
			wantVar:     "DATABRICKS_TOKEN_DEV",
			wantHours:   -2,
			checkHours:  true,
		},
		{
			name:        "valid record",
			environment: "dev",
			seed: func(t *testing.T, store *Store) {
				seedRecord(t, store, "DATABRICKS_TOKEN_DEV", "dev", testNow.Add(5*time.Hour))
			},
			wantMessage: "Token valid for 5.0 more hours",
			wantVar:     "DATABRICKS_TOKEN_DEV",
			wantHours:   5,
			checkHours:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store := newTestManager(t, &fakeMinter{}, &envSink{})
			if tt.seed != nil {
				tt.seed(t, store)
			}

			result, err := m.Check("analytics", tt.environment)
			require.NoError(t, err)

			assert.Equal(t, tt.environment, result.Environment)
			assert.Equal(t, tt.wantRefresh, result.NeedsRefresh)
			assert.Equal(t, tt.wantMessage, result.Message)
			assert.Equal(t, tt.wantVar, result.TokenVariable)
			if tt.checkHours {
				assert.InDelta(t, tt.wantHours, result.HoursRemaining, 0.001)
				assert.True(t, result.ExpiresAt.Equal(testNow.Add(time.Duration(tt.wantHours)*time.Hour)))
			}
		})
	}
}

func TestCheck_ProfileErrorsPropagate(t *testing.T) {
	m, _ := newTestManager(t, &fakeMinter{}, &envSink{})

	_, err := m.Check("missing", "dev")

	var notFound *dbt.ProfileNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestCheckAll_DefaultsToAllEnvironments(t *testing.T) {
	m, _ := newTestManager(t, &fakeMinter{}, &envSink{})

	results, err := m.CheckAll("analytics", nil)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "anon", results[0].Environment)
	assert.Equal(t, "dev", results[1].Environment)
	assert.Equal(t, "prod", results[2].Environment)
}

func TestRefresh_SkipsValidToken(t *testing.T) {
	minter := &fakeMinter{}
	sink := &envSink{}
	authCalls := 0
	m, store := newTestManager(t, minter, sink,
		WithAccessTokenFunc(func(context.Context, azure.Method) (string, error) {
			authCalls++
			return "aad-tok", nil
		}))
	seedRecord(t, store, "DATABRICKS_TOKEN_DEV", "dev", testNow.Add(5*time.Hour))

	result := m.Refresh(context.Background(), "analytics", "dev", RefreshOptions{})

	assert.True(t, result.Success)
	assert.False(t, result.Refreshed)
	assert.Equal(t, "Token still valid (5.0h remaining), skipping refresh", result.Message)
	assert.Equal(t, "DATABRICKS_TOKEN_DEV", result.TokenVariable)
	assert.True(t, result.ExpiresAt.Equal(testNow.Add(5*time.Hour)))
	assert.Zero(t, minter.callCount())
	assert.Zero(t, authCalls)
	assert.Empty(t, sink.get("DATABRICKS_TOKEN_DEV"))
}

func TestRefresh_MintsAndExports(t *testing.T) {
	minter := &fakeMinter{
		workspace: "https://adb-123.4.azuredatabricks.net",
		minted:    &databricks.Token{Value: "dapi-new", ID: "tok-1", ExpiresAt: testNow.Add(2 * time.Hour)},
	}
	sink := &envSink{}
	var gotMethod azure.Method
	m, store := newTestManager(t, minter, sink,
		WithAccessTokenFunc(func(_ context.Context, method azure.Method) (string, error) {
			gotMethod = method
			return "aad-tok", nil
		}))

	result := m.Refresh(context.Background(), "analytics", "dev", RefreshOptions{AuthMethod: azure.MethodCLI, LifetimeHours: 2})

	assert.True(t, result.Success)
	assert.True(t, result.Refreshed)
	assert.Equal(t, "Token refreshed (expires 2024-03-01 14:00 UTC)", result.Message)
	assert.Equal(t, "DATABRICKS_TOKEN_DEV", result.TokenVariable)
	assert.True(t, result.ExpiresAt.Equal(testNow.Add(2*time.Hour)))

	assert.Equal(t, azure.MethodCLI, gotMethod)
	assert.Equal(t, "aad-tok", minter.gotBearer)
	assert.Equal(t, 2*time.Hour, minter.gotLifetime)
	assert.Equal(t, "dapi-new", sink.get("DATABRICKS_TOKEN_DEV"))

	info, err := store.Load("DATABRICKS_TOKEN_DEV")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "dev", info.Environment)
	assert.Equal(t, "https://adb-123.4.azuredatabricks.net", info.WorkspaceURL)
	assert.True(t, info.ExpiresAt.Equal(testNow.Add(2*time.Hour)))
	assert.True(t, info.CreatedAt.Equal(testNow))
}

func TestRefresh_ForceBypassesValidToken(t *testing.T) {
	minter := &fakeMinter{
		workspace: "https://adb-123.4.azuredatabricks.net",
		minted:    &databricks.Token{Value: "dapi-new", ExpiresAt: testNow.Add(24 * time.Hour)},
	}
	sink := &envSink{}
	m, store := newTestManager(t, minter, sink)
	seedRecord(t, store, "DATABRICKS_TOKEN_DEV", "dev", testNow.Add(5*time.Hour))

	result := m.Refresh(context.Background(), "analytics", "dev", RefreshOptions{Force: true})

	assert.True(t, result.Refreshed)
	assert.Equal(t, 1, minter.callCount())
	assert.Equal(t, "dapi-new", sink.get("DATABRICKS_TOKEN_DEV"))
}

func TestRefresh_LifetimeClamped(t *testing.T) {
	tests := []struct {
		name  string
		hours int
		want  time.Duration
	}{
		{name: "zero means default", hours: 0, want: 24 * time.Hour},
		{name: "in range", hours: 5, want: 5 * time.Hour},
		{name: "above cap", hours: 99, want: 24 * time.Hour},
		{name: "below floor", hours: -3, want: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minter := &fakeMinter{
				workspace: "https://adb-123.4.azuredatabricks.net",
				minted:    &databricks.Token{Value: "dapi-new", ExpiresAt: testNow.Add(time.Hour)},
			}
			m, _ := newTestManager(t, minter, &envSink{})

			result := m.Refresh(context.Background(), "analytics", "dev", RefreshOptions{LifetimeHours: tt.hours})

			require.True(t, result.Success)
			assert.Equal(t, tt.want, minter.gotLifetime)
		})
	}
}

func TestRefresh_CapturesFailures(t *testing.T) {
	apiErr := &databricks.APIError{StatusCode: 403, Body: "PERMISSION_DENIED"}

	tests := []struct {
		name        string
		environment string
		configure   func(minter *fakeMinter, sink *envSink) []Option
		wantMessage string
	}{
		{
			name:        "environment not in profile",
			environment: "ghost",
			wantMessage: "Environment 'ghost' not found in profile",
		},
		{
			name:        "no token env var",
			environment: "anon",
			wantMessage: "No token env var configured",
		},
		{
			name:        "credential failure",
			environment: "dev",
			configure: func(*fakeMinter, *envSink) []Option {
				return []Option{WithAccessTokenFunc(func(context.Context, azure.Method) (string, error) {
					return "", errors.New("az login required")
				})}
			},
			wantMessage: "Failed to refresh token: az login required",
		},
		{
			name:        "workspace failure",
			environment: "dev",
			configure: func(minter *fakeMinter, _ *envSink) []Option {
				minter.err = apiErr
				return nil
			},
			wantMessage: "Failed to refresh token: Databricks API error (403): PERMISSION_DENIED",
		},
		{
			name:        "environment sink failure",
			environment: "dev",
			configure: func(_ *fakeMinter, sink *envSink) []Option {
				sink.err = errors.New("environment is sealed")
				return nil
			},
			wantMessage: "Failed to refresh token: environment is sealed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minter := &fakeMinter{
				workspace: "https://adb-123.4.azuredatabricks.net",
				minted:    &databricks.Token{Value: "dapi-new", ExpiresAt: testNow.Add(time.Hour)},
			}
			sink := &envSink{}
			var opts []Option
			if tt.configure != nil {
				opts = tt.configure(minter, sink)
			}
			m, _ := newTestManager(t, minter, sink, opts...)

			result := m.Refresh(context.Background(), "analytics", tt.environment, RefreshOptions{})

			assert.False(t, result.Success)
			assert.False(t, result.Refreshed)
			assert.Equal(t, tt.wantMessage, result.Message)
		})
	}
}

func TestRefresh_ProfileLoadFailureCaptured(t *testing.T) {
	store := NewStore(t.TempDir())
	m := NewManager(store, filepath.Join(t.TempDir(), "profiles.yml"),
		WithClock(func() time.Time { return testNow }))

	result := m.Refresh(context.Background(), "analytics", "dev", RefreshOptions{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Failed to refresh token:")
	assert.Contains(t, result.Message, "profiles file not found")
}

func TestRefreshAll_OrderAndPartialFailure(t *testing.T) {
	minter := &fakeMinter{
		workspace: "https://adb-123.4.azuredatabricks.net",
		minted:    &databricks.Token{Value: "dapi-new", ExpiresAt: testNow.Add(time.Hour)},
	}
	sink := &envSink{}
	m, _ := newTestManager(t, minter, sink)

	results, err := m.RefreshAll(context.Background(), "analytics", []string{"dev", "ghost", "prod"}, RefreshOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "dev", results[0].Environment)
	assert.True(t, results[0].Success)

	assert.Equal(t, "ghost", results[1].Environment)
	assert.False(t, results[1].Success)
	assert.Equal(t, "Environment 'ghost' not found in profile", results[1].Message)

	assert.Equal(t, "prod", results[2].Environment)
	assert.True(t, results[2].Success)

	assert.Equal(t, "dapi-new", sink.get("DATABRICKS_TOKEN_DEV"))
	assert.Equal(t, "dapi-new", sink.get("DATABRICKS_TOKEN_PROD"))
}

func TestRefreshAll_DefaultsToAllEnvironments(t *testing.T) {
	minter := &fakeMinter{
		workspace: "https://adb-123.4.azuredatabricks.net",
		minted:    &databricks.Token{Value: "dapi-new", ExpiresAt: testNow.Add(time.Hour)},
	}
	m, _ := newTestManager(t, minter, &envSink{})

	results, err := m.RefreshAll(context.Background(), "analytics", nil, RefreshOptions{})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "anon", results[0].Environment)
	assert.False(t, results[0].Success)
	assert.Equal(t, "dev", results[1].Environment)
	assert.Equal(t, "prod", results[2].Environment)
}

func TestStatus(t *testing.T) {
	m, store := newTestManager(t, &fakeMinter{}, &envSink{})
	seedRecord(t, store, "DATABRICKS_TOKEN_DEV", "dev", testNow.Add(5*time.Hour))

	statuses, err := m.Status("analytics")
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	assert.Equal(t, "anon", statuses[0].Environment)
	assert.Empty(t, statuses[0].TokenEnvVar)
	assert.Nil(t, statuses[0].Info)

	assert.Equal(t, "dev", statuses[1].Environment)
	assert.Equal(t, "DATABRICKS_TOKEN_DEV", statuses[1].TokenEnvVar)
	require.NotNil(t, statuses[1].Info)
	assert.True(t, statuses[1].Info.ExpiresAt.Equal(testNow.Add(5*time.Hour)))

	assert.Equal(t, "prod", statuses[2].Environment)
	assert.Equal(t, "DATABRICKS_TOKEN_PROD", statuses[2].TokenEnvVar)
	assert.Nil(t, statuses[2].Info)
}
