package xero

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"ledgersync/internal/config"
	"ledgersync/internal/logger"
)

// defaultTokenTTL is used when the token endpoint omits expires_in.
const defaultTokenTTL = 1800

type OAuthService struct {
	endpoint       oauth2.Endpoint
	redirectURI    string
	scopes         []string
	connectionsURL string
	httpClient     *http.Client
	logger         *logger.Logger
}

func NewOAuthService(cfg *config.Config, httpClient *http.Client, logger *logger.Logger) *OAuthService {
	return &OAuthService{
		endpoint: oauth2.Endpoint{
			AuthURL:  cfg.XeroAuthURL,
			TokenURL: cfg.XeroTokenURL,
			// A single auth style keeps a failed refresh to one request.
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		redirectURI:    cfg.XeroRedirectURI,
		scopes:         cfg.Scopes(),
		connectionsURL: cfg.XeroConnectionsURL,
		httpClient:     httpClient,
		logger:         logger,
	}
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

// Connection is one organisation the user granted access to.
type Connection struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	TenantType string `json:"tenantType"`
	TenantName string `json:"tenantName"`
}

func (s *OAuthService) oauthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     s.endpoint,
		RedirectURL:  s.redirectURI,
		Scopes:       s.scopes,
	}
}

func (s *OAuthService) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// GenerateAuthURL creates the authorization URL and the state to verify on callback.
func (s *OAuthService) GenerateAuthURL(clientID string) (string, string, error) {
	state, err := s.generateState()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}
	return s.oauthConfig(clientID, "").AuthCodeURL(state), state, nil
}

// ExchangeCodeForToken exchanges the authorization code for an access token.
func (s *OAuthService) ExchangeCodeForToken(ctx context.Context, clientID, clientSecret, code string) (*TokenResponse, error) {
	tok, err := s.oauthConfig(clientID, clientSecret).Exchange(s.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	s.logger.Debug("Exchanged authorization code for Xero token")
	return tokenResponse(tok), nil
}

// RefreshToken performs one refresh_token grant. It never retries.
func (s *OAuthService) RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*TokenResponse, error) {
	src := s.oauthConfig(clientID, clientSecret).TokenSource(s.clientContext(ctx), &oauth2.Token{
		RefreshToken: refreshToken,
	})
	tok, err := src.Token()
	if err != nil {
		return nil, err
	}
	resp := tokenResponse(tok)
	if resp.RefreshToken == "" {
		resp.RefreshToken = refreshToken
	}
	return resp, nil
}

// Connections lists the tenants the access token can reach.
func (s *OAuthService) Connections(ctx context.Context, accessToken string) ([]Connection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.connectionsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectionError{Op: "connections", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{Kind: Unauthorized, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ConnectionError{Op: "connections", Err: fmt.Errorf("API request failed: %d - %s", resp.StatusCode, string(body))}
	}

	var connections []Connection
	if err := json.NewDecoder(resp.Body).Decode(&connections); err != nil {
		return nil, &ConnectionError{Op: "connections", Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return connections, nil
}

// generateState generates a cryptographically secure random state
func (s *OAuthService) generateState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func tokenResponse(tok *oauth2.Token) *TokenResponse {
	return &TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn(tok),
	}
}

// expiresIn prefers the raw expires_in field and falls back to the computed expiry.
func expiresIn(tok *oauth2.Token) int64 {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		if v > 0 {
			return int64(v)
		}
	case int64:
		if v > 0 {
			return v
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	if !tok.Expiry.IsZero() {
		if ttl := int64(time.Until(tok.Expiry).Seconds()); ttl > 0 {
			return ttl
		}
	}
	return defaultTokenTTL
}
