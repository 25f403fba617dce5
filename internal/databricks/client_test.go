package databricks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWorkspaceURL(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{name: "bare host", host: "adb-123.4.azuredatabricks.net", want: "https://adb-123.4.azuredatabricks.net"},
		{name: "trailing slash", host: "adb-123.4.azuredatabricks.net/", want: "https://adb-123.4.azuredatabricks.net"},
		{name: "https kept", host: "https://adb-123.4.azuredatabricks.net", want: "https://adb-123.4.azuredatabricks.net"},
		{name: "http kept", host: "http://localhost:8080", want: "http://localhost:8080"},
		{name: "whitespace", host: "  adb-123.4.azuredatabricks.net  ", want: "https://adb-123.4.azuredatabricks.net"},
		{name: "empty", host: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeWorkspaceURL(tt.host))
		})
	}
}

func TestCreateToken(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_value": "dapi-secret", "token_info": {"token_id": "tok-1"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	before := time.Now().UTC()

	tok, err := client.CreateToken(context.Background(), "aad-token", "nightly refresh", 2*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "Bearer aad-token", gotAuth)
	assert.Equal(t, "/api/2.0/token/create", gotPath)
	assert.Equal(t, "nightly refresh", gotReq["comment"])
	assert.EqualValues(t, 7200, gotReq["lifetime_seconds"])

	assert.Equal(t, "dapi-secret", tok.Value)
	assert.Equal(t, "tok-1", tok.ID)
	assert.WithinDuration(t, before.Add(2*time.Hour), tok.ExpiresAt, 5*time.Second)
}

func TestCreateToken_DefaultComment(t *testing.T) {
	var gotComment string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotComment, _ = req["comment"].(string)
		w.Write([]byte(`{"token_value": "dapi-secret"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).CreateToken(context.Background(), "aad-token", "", time.Hour)
	require.NoError(t, err)

	assert.Regexp(t, `^brix token created on \d{4}-\d{2}-\d{2} \d{2}:\d{2} UTC$`, gotComment)
}

func TestCreateToken_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error_code": "PERMISSION_DENIED", "message": "not allowed"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).CreateToken(context.Background(), "aad-token", "", time.Hour)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "Databricks API error (403)")
	assert.Contains(t, err.Error(), "PERMISSION_DENIED")
}

func TestCreateToken_MissingTokenValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token_info": {"token_id": "tok-1"}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).CreateToken(context.Background(), "aad-token", "", time.Hour)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Body, "did not include a token value")
}

func TestCreateToken_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := NewClient(server.URL).CreateToken(context.Background(), "aad-token", "", time.Hour)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Databricks")
}
