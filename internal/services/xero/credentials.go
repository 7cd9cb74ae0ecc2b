package xero

import (
	"context"
	"strconv"

	"ledgersync/internal/settings"
)

// Option keys in the settings store.
const (
	OptionClientID     = "xero_client_id"
	OptionClientSecret = "xero_client_secret"
	OptionAccessToken  = "xero_access_token"
	OptionRefreshToken = "xero_refresh_token"
	OptionTenantID     = "xero_tenant_id"
	OptionTokenExpires = "xero_token_expires"
	OptionOAuthState   = "xero_oauth_state"
)

type Credentials struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	TenantID     string
	// ExpiresAt is a unix timestamp in seconds. Zero means already expired.
	ExpiresAt int64
}

// HasSession reports whether the tokens and tenant needed for API calls are present.
func (c Credentials) HasSession() bool {
	return c.AccessToken != "" && c.RefreshToken != "" && c.TenantID != ""
}

// HasClientConfig reports whether the OAuth app credentials are present.
func (c Credentials) HasClientConfig() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Expired reports whether now (unix seconds) has passed the token expiry.
func (c Credentials) Expired(now int64) bool {
	return now > c.ExpiresAt
}

// CredentialStore maps Credentials onto settings options.
// Client id and secret fall back to the configured defaults when unset.
type CredentialStore struct {
	store               settings.Store
	defaultClientID     string
	defaultClientSecret string
}

func NewCredentialStore(store settings.Store, defaultClientID, defaultClientSecret string) *CredentialStore {
	return &CredentialStore{
		store:               store,
		defaultClientID:     defaultClientID,
		defaultClientSecret: defaultClientSecret,
	}
}

func (s *CredentialStore) Load(ctx context.Context) (Credentials, error) {
	var creds Credentials
	var expires string

	fields := []struct {
		key    string
		def    string
		target *string
	}{
		{OptionClientID, s.defaultClientID, &creds.ClientID},
		{OptionClientSecret, s.defaultClientSecret, &creds.ClientSecret},
		{OptionAccessToken, "", &creds.AccessToken},
		{OptionRefreshToken, "", &creds.RefreshToken},
		{OptionTenantID, "", &creds.TenantID},
		{OptionTokenExpires, "0", &expires},
	}
	for _, f := range fields {
		value, err := s.store.GetOption(ctx, f.key, f.def)
		if err != nil {
			return Credentials{}, err
		}
		*f.target = value
	}

	// Unparsable expiry is treated as expired.
	creds.ExpiresAt, _ = strconv.ParseInt(expires, 10, 64)
	return creds, nil
}

// SaveTokens persists a refreshed or newly issued token set.
func (s *CredentialStore) SaveTokens(ctx context.Context, accessToken, refreshToken string, expiresAt int64) error {
	if err := s.store.UpdateOption(ctx, OptionAccessToken, accessToken); err != nil {
		return err
	}
	if err := s.store.UpdateOption(ctx, OptionRefreshToken, refreshToken); err != nil {
		return err
	}
	return s.store.UpdateOption(ctx, OptionTokenExpires, strconv.FormatInt(expiresAt, 10))
}

func (s *CredentialStore) SaveTenant(ctx context.Context, tenantID string) error {
	return s.store.UpdateOption(ctx, OptionTenantID, tenantID)
}

func (s *CredentialStore) SaveClientConfig(ctx context.Context, clientID, clientSecret string) error {
	if err := s.store.UpdateOption(ctx, OptionClientID, clientID); err != nil {
		return err
	}
	return s.store.UpdateOption(ctx, OptionClientSecret, clientSecret)
}

// SaveState remembers the pending authorization state for the callback check.
func (s *CredentialStore) SaveState(ctx context.Context, state string) error {
	return s.store.UpdateOption(ctx, OptionOAuthState, state)
}

func (s *CredentialStore) State(ctx context.Context) (string, error) {
	return s.store.GetOption(ctx, OptionOAuthState, "")
}
