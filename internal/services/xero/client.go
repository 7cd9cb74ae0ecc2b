package xero

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ledgersync/internal/logger"
)

const apiPath = "/api.xro/2.0"

// Connector builds authenticated clients.
type Connector struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewConnector(baseURL string, httpClient *http.Client, logger *logger.Logger) *Connector {
	return &Connector{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Connect binds a client to creds and confirms the token is accepted by fetching the organisation.
// A rejected token yields an AuthError of kind Unauthorized; any other failure a ConnectionError.
func (f *Connector) Connect(ctx context.Context, creds Credentials) (*Client, error) {
	if !creds.HasSession() {
		return nil, ErrMissingCredentials
	}
	client := &Client{
		baseURL:     f.baseURL,
		accessToken: creds.AccessToken,
		tenantID:    creds.TenantID,
		httpClient:  f.httpClient,
		logger:      f.logger,
	}

	org, err := client.GetOrganisation(ctx)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("Connected to Xero organisation %s (%s)", org.Name, org.OrganisationID)
	return client, nil
}

// Client is an authenticated session for a single tenant. It is not reused across runs.
type Client struct {
	baseURL     string
	accessToken string
	tenantID    string
	httpClient  *http.Client
	logger      *logger.Logger
}

// GetOrganisation fetches the organisation the tenant id points at.
func (c *Client) GetOrganisation(ctx context.Context) (*Organisation, error) {
	var orgResp organisationsResponse
	if err := c.get(ctx, "organisation", "/Organisation", nil, &orgResp); err != nil {
		return nil, err
	}
	if orgResp.Organisations == nil || len(*orgResp.Organisations) == 0 {
		return nil, &ConnectionError{Op: "organisation", Err: ErrMalformedResponse}
	}
	return &(*orgResp.Organisations)[0], nil
}

// FindItemsByCode returns the items whose Code equals code.
func (c *Client) FindItemsByCode(ctx context.Context, code string) ([]Item, error) {
	c.logger.Debug("Looking up Xero item by code %q", code)
	query := url.Values{}
	query.Set("where", fmt.Sprintf(`Code=="%s"`, escapeWhere(code)))

	var itemsResp itemsResponse
	if err := c.get(ctx, "items", "/Items", query, &itemsResp); err != nil {
		return nil, err
	}
	if itemsResp.Items == nil {
		return nil, &ConnectionError{Op: "items", Err: ErrMalformedResponse}
	}
	return *itemsResp.Items, nil
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, target interface{}) error {
	endpoint := c.baseURL + apiPath + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &ConnectionError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Xero-tenant-id", c.tenantID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectionError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		body, _ := io.ReadAll(resp.Body)
		return &AuthError{Kind: Unauthorized, Err: fmt.Errorf("status %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &ConnectionError{Op: op, Err: fmt.Errorf("API request failed: %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &ConnectionError{Op: op, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return nil
}

// escapeWhere quotes a value for use inside a where filter string literal.
func escapeWhere(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
