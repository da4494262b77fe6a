package onelake

import (
	"context"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// StorageScope is the Azure scope that grants OneLake data plane access.
const StorageScope = "https://storage.azure.com/.default"

// Credentials selects how bearer tokens are obtained.
// AccessToken wins when set; otherwise the client credentials flow is used.
type Credentials struct {
	AccessToken  string
	TenantID     string
	ClientID     string
	ClientSecret string
	Authority    string
}

// NewTokenSource returns a caching token source for the given credentials.
func NewTokenSource(ctx context.Context, creds Credentials) (oauth2.TokenSource, error) {
	if creds.AccessToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: creds.AccessToken,
			TokenType:   "Bearer",
		}), nil
	}

	if creds.TenantID == "" || creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, ErrNoCredentials
	}

	authority := strings.TrimRight(creds.Authority, "/")
	if authority == "" {
		authority = "https://login.microsoftonline.com"
	}

	cfg := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     authority + "/" + creds.TenantID + "/oauth2/v2.0/token",
		Scopes:       []string{StorageScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	return cfg.TokenSource(ctx), nil
}
