package token

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Spycner/brix/internal/azure"
	"github.com/Spycner/brix/internal/databricks"
	"github.com/Spycner/brix/internal/dbt"
)

// DefaultLifetimeHours is the token lifetime requested when none is
// given. Lifetimes are clamped to 1..24 hours either way.
const DefaultLifetimeHours = 24

// Minter mints workspace tokens. *databricks.Client implements it.
type Minter interface {
	CreateToken(ctx context.Context, accessToken, comment string, lifetime time.Duration) (*databricks.Token, error)
	WorkspaceURL() string
}

// Manager drives token checks and refreshes against one profiles.yml.
// Its collaborators are injectable so tests never touch Azure, a
// workspace, or the real process environment.
type Manager struct {
	store        *Store
	profilesPath string

	newMinter   func(host string) Minter
	accessToken func(ctx context.Context, method azure.Method) (string, error)
	setEnv      func(key, value string) error
	now         func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithMinterFactory replaces the workspace client constructor.
func WithMinterFactory(f func(host string) Minter) Option {
	return func(m *Manager) { m.newMinter = f }
}

// WithAccessTokenFunc replaces Azure AD token acquisition.
func WithAccessTokenFunc(f func(ctx context.Context, method azure.Method) (string, error)) Option {
	return func(m *Manager) { m.accessToken = f }
}

// WithSetEnv replaces the environment sink minted tokens are written to.
func WithSetEnv(f func(key, value string) error) Option {
	return func(m *Manager) { m.setEnv = f }
}

// WithClock replaces the time source.
func WithClock(f func() time.Time) Option {
	return func(m *Manager) { m.now = f }
}

// NewManager builds a manager over the given record store and
// profiles.yml path.
func NewManager(store *Store, profilesPath string, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		profilesPath: profilesPath,
		newMinter:    func(host string) Minter { return databricks.NewClient(host) },
		accessToken: func(ctx context.Context, method azure.Method) (string, error) {
			cred, err := azure.NewCredential(method)
			if err != nil {
				return "", err
			}
			return azure.AccessToken(ctx, method, cred)
		},
		setEnv: os.Setenv,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CheckResult describes the state of one environment's token.
// ExpiresAt is zero when no record exists for the environment.
type CheckResult struct {
	Environment    string
	TokenVariable  string
	NeedsRefresh   bool
	Message        string
	ExpiresAt      time.Time
	HoursRemaining float64
}

// RefreshResult is the captured outcome of one refresh attempt.
// Failures land here as messages, never as errors, so a batch can
// report partial success.
type RefreshResult struct {
	Environment   string
	TokenVariable string
	Success       bool
	Refreshed     bool
	Message       string
	ExpiresAt     time.Time
}

// RefreshOptions tune a refresh run.
type RefreshOptions struct {
	AuthMethod    azure.Method
	Force         bool
	LifetimeHours int
}

func (o RefreshOptions) lifetime() time.Duration {
	hours := o.LifetimeHours
	if hours == 0 {
		hours = DefaultLifetimeHours
	}
	if hours < 1 {
		hours = 1
	}
	if hours > 24 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// Check reports whether one environment's token needs a refresh.
func (m *Manager) Check(profileName, environment string) (*CheckResult, error) {
	prof, err := dbt.Load(m.profilesPath, profileName)
	if err != nil {
		return nil, err
	}
	return m.checkTarget(prof, environment), nil
}

// CheckAll checks several environments, all of the profile's when none
// are named. Results keep the requested order.
func (m *Manager) CheckAll(profileName string, environments []string) ([]*CheckResult, error) {
	prof, err := dbt.Load(m.profilesPath, profileName)
	if err != nil {
		return nil, err
	}
	if len(environments) == 0 {
		environments = prof.EnvironmentNames()
	}
	results := make([]*CheckResult, len(environments))
	for i, environment := range environments {
		results[i] = m.checkTarget(prof, environment)
	}
	return results, nil
}

func (m *Manager) checkTarget(prof *dbt.Profile, environment string) *CheckResult {
	result := &CheckResult{Environment: environment}

	target, ok := prof.Targets[environment]
	if !ok {
		result.Message = fmt.Sprintf("Environment '%s' not found in profile", environment)
		return result
	}
	if target.TokenEnvVar == "" {
		result.Message = "No token env var configured"
		return result
	}
	result.TokenVariable = target.TokenEnvVar

	info, _ := m.store.Load(target.TokenEnvVar)
	if info == nil {
		result.NeedsRefresh = true
		result.Message = "No token info found - token needs to be created"
		return result
	}

	now := m.now()
	result.ExpiresAt = info.ExpiresAt
	result.HoursRemaining = info.HoursRemaining(now)
	if info.Expired(now) {
		result.NeedsRefresh = true
		result.Message = "Token has expired"
		return result
	}
	result.Message = fmt.Sprintf("Token valid for %.1f more hours", result.HoursRemaining)
	return result
}

// Refresh mints a fresh token for one environment and exports it into
// the process environment. All failures are captured in the result.
func (m *Manager) Refresh(ctx context.Context, profileName, environment string, opts RefreshOptions) *RefreshResult {
	prof, err := dbt.Load(m.profilesPath, profileName)
	if err != nil {
		return refreshFailure(environment, err)
	}
	return m.refreshTarget(ctx, prof, environment, opts)
}

// RefreshAll refreshes several environments concurrently, all of the
// profile's when none are named. Results keep the requested order; one
// environment failing never aborts its siblings.
func (m *Manager) RefreshAll(ctx context.Context, profileName string, environments []string, opts RefreshOptions) ([]*RefreshResult, error) {
	prof, err := dbt.Load(m.profilesPath, profileName)
	if err != nil {
		return nil, err
	}
	if len(environments) == 0 {
		environments = prof.EnvironmentNames()
	}

	results := make([]*RefreshResult, len(environments))
	var g errgroup.Group
	for i, environment := range environments {
		g.Go(func() error {
			results[i] = m.refreshTarget(ctx, prof, environment, opts)
			return nil
		})
	}
	g.Wait()

	return results, nil
}

func (m *Manager) refreshTarget(ctx context.Context, prof *dbt.Profile, environment string, opts RefreshOptions) *RefreshResult {
	result := &RefreshResult{Environment: environment}

	target, ok := prof.Targets[environment]
	if !ok {
		result.Message = fmt.Sprintf("Environment '%s' not found in profile", environment)
		return result
	}
	if target.TokenEnvVar == "" {
		result.Message = "No token env var configured"
		return result
	}
	result.TokenVariable = target.TokenEnvVar

	if !opts.Force {
		if info, _ := m.store.Load(target.TokenEnvVar); info != nil && !info.Expired(m.now()) {
			result.Success = true
			result.ExpiresAt = info.ExpiresAt
			result.Message = fmt.Sprintf("Token still valid (%.1fh remaining), skipping refresh", info.HoursRemaining(m.now()))
			return result
		}
	}

	accessToken, err := m.accessToken(ctx, opts.AuthMethod)
	if err != nil {
		return refreshFailure(environment, err)
	}

	minter := m.newMinter(target.Host)
	minted, err := minter.CreateToken(ctx, accessToken, "", opts.lifetime())
	if err != nil {
		return refreshFailure(environment, err)
	}

	if err := m.setEnv(target.TokenEnvVar, minted.Value); err != nil {
		return refreshFailure(environment, err)
	}

	info := &TokenInfo{
		TokenVariable: target.TokenEnvVar,
		Environment:   environment,
		CreatedAt:     m.now().UTC().Truncate(time.Second),
		ExpiresAt:     minted.ExpiresAt,
		WorkspaceURL:  minter.WorkspaceURL(),
	}
	if err := m.store.Save(info); err != nil {
		return refreshFailure(environment, err)
	}

	result.Success = true
	result.Refreshed = true
	result.ExpiresAt = minted.ExpiresAt
	result.Message = fmt.Sprintf("Token refreshed (expires %s UTC)", minted.ExpiresAt.UTC().Format("2006-01-02 15:04"))
	return result
}

func refreshFailure(environment string, err error) *RefreshResult {
	return &RefreshResult{
		Environment: environment,
		Message:     fmt.Sprintf("Failed to refresh token: %v", err),
	}
}

// EnvStatus pairs an environment's connection details with its stored
// token record, nil when no token has been minted yet.
type EnvStatus struct {
	Environment string
	Host        string
	TokenEnvVar string
	Info        *TokenInfo
}

// Status reports every environment of the profile with its token
// record, sorted by environment name.
func (m *Manager) Status(profileName string) ([]*EnvStatus, error) {
	prof, err := dbt.Load(m.profilesPath, profileName)
	if err != nil {
		return nil, err
	}

	statuses := make([]*EnvStatus, 0, len(prof.Targets))
	for _, environment := range prof.EnvironmentNames() {
		target := prof.Targets[environment]
		status := &EnvStatus{
			Environment: environment,
			Host:        target.Host,
			TokenEnvVar: target.TokenEnvVar,
		}
		if target.TokenEnvVar != "" {
			status.Info, _ = m.store.Load(target.TokenEnvVar)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
