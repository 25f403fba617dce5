package azure

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Method
		wantErr bool
	}{
		{name: "empty defaults to auto", input: "", want: MethodAuto},
		{name: "auto", input: "auto", want: MethodAuto},
		{name: "cli", input: "cli", want: MethodCLI},
		{name: "env", input: "env", want: MethodEnv},
		{name: "device", input: "device", want: MethodDevice},
		{name: "case insensitive", input: "CLI", want: MethodCLI},
		{name: "unknown", input: "managed", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMethod(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown auth method")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type staticCredential struct {
	token string
	err   error
	scope string
}

func (c *staticCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if len(opts.Scopes) > 0 {
		c.scope = opts.Scopes[0]
	}
	if c.err != nil {
		return azcore.AccessToken{}, c.err
	}
	return azcore.AccessToken{Token: c.token}, nil
}

func TestAccessToken(t *testing.T) {
	cred := &staticCredential{token: "aad-token"}

	tok, err := AccessToken(context.Background(), MethodAuto, cred)
	require.NoError(t, err)

	assert.Equal(t, "aad-token", tok)
	assert.Equal(t, DatabricksScope, cred.scope)
}

func TestAccessToken_WrapsFailures(t *testing.T) {
	cause := errors.New("no subscription found")
	cred := &staticCredential{err: cause}

	_, err := AccessToken(context.Background(), MethodCLI, cred)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, MethodCLI, authErr.Method)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Azure authentication failed (cli)")
}
