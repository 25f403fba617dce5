// Package token manages the lifecycle of short-lived Databricks
// personal access tokens: minting them from Azure AD credentials,
// exporting them into the process environment, and tracking their
// expiry in per-variable records under the user data directory.
package token

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// tokenTimeLayout is the zone-less timestamp format of the on-disk
// records. Values without an offset are read as UTC.
const tokenTimeLayout = "2006-01-02T15:04:05"

// TokenInfo is the persisted record of one minted token. The token
// value itself is never stored, only where it lives and when it dies.
type TokenInfo struct {
	TokenVariable string
	Environment   string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	WorkspaceURL  string
}

type tokenInfoJSON struct {
	TokenVariable string `json:"token_variable"`
	Environment   string `json:"environment"`
	CreatedAt     string `json:"created_at"`
	ExpiresAt     string `json:"expires_at"`
	WorkspaceURL  string `json:"workspace_url"`
}

func (i TokenInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(tokenInfoJSON{
		TokenVariable: i.TokenVariable,
		Environment:   i.Environment,
		CreatedAt:     i.CreatedAt.UTC().Format(tokenTimeLayout),
		ExpiresAt:     i.ExpiresAt.UTC().Format(tokenTimeLayout),
		WorkspaceURL:  i.WorkspaceURL,
	})
}

func (i *TokenInfo) UnmarshalJSON(data []byte) error {
	var aux tokenInfoJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	createdAt, err := parseTokenTime(aux.CreatedAt)
	if err != nil {
		return fmt.Errorf("invalid created_at: %w", err)
	}
	expiresAt, err := parseTokenTime(aux.ExpiresAt)
	if err != nil {
		return fmt.Errorf("invalid expires_at: %w", err)
	}
	*i = TokenInfo{
		TokenVariable: aux.TokenVariable,
		Environment:   aux.Environment,
		CreatedAt:     createdAt,
		ExpiresAt:     expiresAt,
		WorkspaceURL:  aux.WorkspaceURL,
	}
	return nil
}

func parseTokenTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(tokenTimeLayout+".999999999", s)
}

// Expired reports whether the token is past its expiry.
func (i *TokenInfo) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// HoursRemaining returns the hours until expiry, negative once expired.
func (i *TokenInfo) HoursRemaining(now time.Time) float64 {
	return i.ExpiresAt.Sub(now).Hours()
}

// StorageError reports a failure to persist a token record.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to write token info to %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Store persists TokenInfo records, one JSON file per token variable.
type Store struct {
	dir string
}

// DefaultStoreDir is where token records live for the current user.
func DefaultStoreDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "brix", "tokens"), nil
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the record file for a token variable.
func (s *Store) Path(tokenVariable string) string {
	return filepath.Join(s.dir, tokenVariable+".json")
}

// Save writes a record, replacing any previous one for the same
// variable wholesale.
func (s *Store) Save(info *TokenInfo) error {
	path := s.Path(info.TokenVariable)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &StorageError{Path: path, Err: err}
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return &StorageError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return &StorageError{Path: path, Err: err}
	}
	return nil
}

// Load reads the record for a token variable. A missing or unreadable
// record reads as nil: both mean the token must be minted fresh.
func (s *Store) Load(tokenVariable string) (*TokenInfo, error) {
	data, err := os.ReadFile(s.Path(tokenVariable))
	if err != nil {
		return nil, nil
	}
	var info TokenInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, nil
	}
	return &info, nil
}
