// Package update checks GitHub for newer releases. The check runs in
// the background at most once a day and caches its finding; commands
// read the cache synchronously and never block on the network. Every
// failure here is silent: an update notice is a courtesy, not a
// feature anyone should wait on.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	// DefaultAPIURL is the GitHub endpoint listing the newest release.
	DefaultAPIURL = "https://api.github.com/repos/Spycner/brix/releases/latest"
	// ReleasesPage is where users go to download a newer build.
	ReleasesPage = "https://github.com/Spycner/brix/releases"

	checkInterval = 24 * time.Hour
)

type cacheEntry struct {
	LastCheck     time.Time `json:"last_check"`
	LatestVersion string    `json:"latest_version"`
}

// Checker reads and refreshes the cached latest-version record.
type Checker struct {
	CachePath  string
	APIURL     string
	HTTPClient *http.Client
	Now        func() time.Time
}

// DefaultCachePath is the version-check record for the current user.
func DefaultCachePath() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "brix", "version_check.json"), nil
}

// NewChecker builds a checker against GitHub with the default cache
// location.
func NewChecker() (*Checker, error) {
	path, err := DefaultCachePath()
	if err != nil {
		return nil, err
	}
	return &Checker{
		CachePath:  path,
		APIURL:     DefaultAPIURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Now:        time.Now,
	}, nil
}

func (c *Checker) readCache() *cacheEntry {
	data, err := os.ReadFile(c.CachePath)
	if err != nil {
		return nil
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}
	return &entry
}

func (c *Checker) needsRefresh() bool {
	entry := c.readCache()
	return entry == nil || c.Now().Sub(entry.LastCheck) >= checkInterval
}

// Background spawns a cache refresh when the record is older than a
// day. It returns immediately; the goroutine's outcome is only read by
// a later invocation.
func (c *Checker) Background(ctx context.Context) {
	if !c.needsRefresh() {
		return
	}
	go func() {
		_ = c.RefreshCache(ctx)
	}()
}

type releaseResponse struct {
	TagName string `json:"tag_name"`
}

// RefreshCache fetches the newest release tag and rewrites the cache.
// The cache is left untouched when the fetch fails, so the next run
// retries.
func (c *Checker) RefreshCache(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("release check returned status %d", resp.StatusCode)
	}

	var release releaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return err
	}
	if release.TagName == "" {
		return fmt.Errorf("release check returned no tag")
	}

	entry := cacheEntry{
		LastCheck:     c.Now().UTC(),
		LatestVersion: strings.TrimPrefix(release.TagName, "v"),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.CachePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.CachePath, data, 0o644)
}

// Notice returns a one-line upgrade hint when the cached latest version
// is newer than the running one, empty otherwise. It never touches the
// network.
func (c *Checker) Notice(currentVersion string) string {
	entry := c.readCache()
	if entry == nil || entry.LatestVersion == "" {
		return ""
	}
	if !isNewer(entry.LatestVersion, currentVersion) {
		return ""
	}
	return fmt.Sprintf("A new version of brix is available: %s (installed: %s). Download: %s",
		entry.LatestVersion, currentVersion, ReleasesPage)
}

// isNewer compares release versions, ignoring builds that do not carry
// a semantic version (dev builds never nag).
func isNewer(latest, current string) bool {
	lv := "v" + strings.TrimPrefix(latest, "v")
	cv := "v" + strings.TrimPrefix(current, "v")
	if !semver.IsValid(lv) || !semver.IsValid(cv) {
		return false
	}
	return semver.Compare(lv, cv) > 0
}
