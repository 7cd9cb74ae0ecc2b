package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomnomnom/linkheader"

	"ledgersync/internal/logger"
)

const (
	apiVersion   = "2023-10"
	DefaultLimit = 250
)

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *logger.Logger
}

// NewClient builds a client for a shop. shopDomain may be a bare shop name,
// a myshopify.com host or a full base URL.
func NewClient(shopDomain, accessToken string, httpClient *http.Client, logger *logger.Logger) *Client {
	return &Client{
		baseURL:     ShopURL(shopDomain),
		accessToken: accessToken,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// ShopURL normalizes a shop identifier to its admin base URL.
func ShopURL(shopDomain string) string {
	shopDomain = strings.TrimRight(strings.TrimSpace(shopDomain), "/")
	switch {
	case strings.HasPrefix(shopDomain, "http://"), strings.HasPrefix(shopDomain, "https://"):
		return shopDomain
	case strings.Contains(shopDomain, "."):
		return "https://" + shopDomain
	default:
		return fmt.Sprintf("https://%s.myshopify.com", shopDomain)
	}
}

func (c *Client) endpoint(resource string) string {
	return fmt.Sprintf("%s/admin/api/%s/%s", c.baseURL, apiVersion, resource)
}

// GetProducts fetches one page of products from Shopify
func (c *Client) GetProducts(ctx context.Context, params ProductsParams) (*ProductsPage, error) {
	limit := params.Limit
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if params.PageInfo != "" {
		q.Set("page_info", params.PageInfo)
	} else {
		if params.Vendor != "" {
			q.Set("vendor", params.Vendor)
		}
		if params.CollectionID != "" {
			q.Set("collection_id", params.CollectionID)
		}
	}

	resp, err := c.get(ctx, "products.json", q)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var productsResp ProductsResponse
	if err := json.NewDecoder(resp.Body).Decode(&productsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &ProductsPage{
		Products:     productsResp.Products,
		NextPageInfo: nextPageInfo(resp.Header.Get("Link")),
	}, nil
}

// get returns the response only for a 200; the caller closes the body.
func (c *Client) get(ctx context.Context, resource string, query url.Values) (*http.Response, error) {
	endpoint := c.endpoint(resource)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Shopify GET %s", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed: %d - %s", resp.StatusCode, string(body))
	}
	return resp, nil
}

// nextPageInfo extracts the page_info cursor of the rel="next" link.
func nextPageInfo(header string) string {
	if header == "" {
		return ""
	}
	for _, link := range linkheader.Parse(header).FilterByRel("next") {
		u, err := url.Parse(link.URL)
		if err != nil {
			continue
		}
		if info := u.Query().Get("page_info"); info != "" {
			return info
		}
	}
	return ""
}
