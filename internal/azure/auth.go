// Package azure acquires Azure AD access tokens for the Databricks
// resource application, selecting between the azidentity credential
// chains by a user-facing method name.
package azure

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// DatabricksScope is the OAuth scope of the global Azure Databricks
// resource application. Tokens issued for it are accepted by every
// Azure Databricks workspace.
const DatabricksScope = "2ff814a6-3304-4ab8-85cb-cd0e6f879c1d/.default"

// Method selects how the Azure credential is constructed.
type Method string

const (
	// MethodAuto walks the default credential chain: environment,
	// workload identity, managed identity, then the Azure CLI.
	MethodAuto Method = "auto"
	// MethodCLI uses the token cache of a logged-in `az` session.
	MethodCLI Method = "cli"
	// MethodEnv reads a service principal from AZURE_* variables.
	MethodEnv Method = "env"
	// MethodDevice runs the interactive device-code flow.
	MethodDevice Method = "device"
)

// Methods lists the accepted auth method names.
func Methods() []string {
	return []string{string(MethodAuto), string(MethodCLI), string(MethodEnv), string(MethodDevice)}
}

// ParseMethod validates a user-supplied auth method name. The empty
// string means auto.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(s)) {
	case "", MethodAuto:
		return MethodAuto, nil
	case MethodCLI:
		return MethodCLI, nil
	case MethodEnv:
		return MethodEnv, nil
	case MethodDevice:
		return MethodDevice, nil
	}
	return "", fmt.Errorf("unknown auth method %q (expected one of: %s)", s, strings.Join(Methods(), ", "))
}

// AuthError reports a failure to construct a credential or exchange it
// for an access token.
type AuthError struct {
	Method Method
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("Azure authentication failed (%s): %v", e.Method, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewCredential constructs the azidentity credential for a method.
func NewCredential(method Method) (azcore.TokenCredential, error) {
	var (
		cred azcore.TokenCredential
		err  error
	)
	switch method {
	case MethodAuto, "":
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	case MethodCLI:
		cred, err = azidentity.NewAzureCLICredential(nil)
	case MethodEnv:
		cred, err = azidentity.NewEnvironmentCredential(nil)
	case MethodDevice:
		cred, err = azidentity.NewDeviceCodeCredential(nil)
	default:
		return nil, &AuthError{Method: method, Err: fmt.Errorf("unknown auth method %q", method)}
	}
	if err != nil {
		return nil, &AuthError{Method: method, Err: err}
	}
	return cred, nil
}

// AccessToken exchanges a credential for an Azure AD access token
// scoped to the Databricks resource.
func AccessToken(ctx context.Context, method Method, cred azcore.TokenCredential) (string, error) {
	tok, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{DatabricksScope}})
	if err != nil {
		return "", &AuthError{Method: method, Err: err}
	}
	return tok.Token, nil
}
