package xero

import (
	"context"
	"time"

	"ledgersync/internal/logger"
)

type TokenRefresher interface {
	RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*TokenResponse, error)
}

// TokenManager hands out credentials that are valid right now, refreshing them once when expired.
type TokenManager struct {
	store     *CredentialStore
	refresher TokenRefresher
	logger    *logger.Logger
	now       func() time.Time
}

func NewTokenManager(store *CredentialStore, refresher TokenRefresher, logger *logger.Logger) *TokenManager {
	return &TokenManager{
		store:     store,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// EnsureValidSession returns stored credentials, refreshing the access token if it has expired.
// Refreshed tokens are persisted before returning. A failed refresh is not retried.
func (m *TokenManager) EnsureValidSession(ctx context.Context) (Credentials, error) {
	creds, err := m.store.Load(ctx)
	if err != nil {
		return Credentials{}, err
	}
	if !creds.HasSession() {
		return Credentials{}, ErrMissingCredentials
	}

	now := m.now().Unix()
	if !creds.Expired(now) {
		return creds, nil
	}

	if !creds.HasClientConfig() {
		return Credentials{}, ErrMissingClientConfig
	}

	m.logger.Info("Xero access token expired at %d, refreshing", creds.ExpiresAt)
	tok, err := m.refresher.RefreshToken(ctx, creds.ClientID, creds.ClientSecret, creds.RefreshToken)
	if err != nil {
		m.logger.Error("Xero token refresh failed: %v", err)
		return Credentials{}, &AuthError{Kind: RefreshFailed, Err: err}
	}

	ttl := tok.ExpiresIn
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	creds.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		creds.RefreshToken = tok.RefreshToken
	}
	creds.ExpiresAt = now + ttl

	if err := m.store.SaveTokens(ctx, creds.AccessToken, creds.RefreshToken, creds.ExpiresAt); err != nil {
		return Credentials{}, err
	}
	m.logger.Debug("Xero token refreshed, valid until %d", creds.ExpiresAt)
	return creds, nil
}
