// Package woocommerce reads the store catalog through the WooCommerce REST API.
package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ledgersync/internal/catalog"
	"ledgersync/internal/logger"
)

const (
	apiPath         = "/wp-json/wc/v3"
	perPage         = 100
	defaultMaxPages = 500
	supplierAttrKey = "supplier"
)

type WooCommerceConnector struct {
	storeURL       string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
	logger         *logger.Logger
	maxPages       int
}

func New(storeURL, consumerKey, consumerSecret string, httpClient *http.Client, logger *logger.Logger) *WooCommerceConnector {
	return &WooCommerceConnector{
		storeURL:       strings.TrimRight(storeURL, "/"),
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient:     httpClient,
		logger:         logger,
		maxPages:       defaultMaxPages,
	}
}

type wcImage struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
}

type wcAttribute struct {
	Name    string   `json:"name"`
	Option  string   `json:"option"`
	Options []string `json:"options"`
}

type wcProduct struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	SKU         string        `json:"sku"`
	Description string        `json:"description"`
	Images      []wcImage     `json:"images"`
	Image       *wcImage      `json:"image"`
	Attributes  []wcAttribute `json:"attributes"`
	Variations  []int64       `json:"variations"`
}

func (p *wcProduct) supplier() string {
	for _, attr := range p.Attributes {
		if strings.EqualFold(strings.TrimSpace(attr.Name), supplierAttrKey) {
			if len(attr.Options) > 0 {
				return catalog.JoinSuppliers(attr.Options)
			}
			return catalog.JoinSuppliers([]string{attr.Option})
		}
	}
	return ""
}

func (p *wcProduct) hasFeaturedImage() bool {
	if p.Image != nil && p.Image.Src != "" {
		return true
	}
	return len(p.Images) > 0 && p.Images[0].Src != ""
}

// GetProducts pages through /products in creation order. Variations of a
// variable product are listed right after it when requested.
func (wc *WooCommerceConnector) GetProducts(ctx context.Context, q catalog.Query) ([]catalog.ProductRecord, error) {
	var records []catalog.ProductRecord

	for page := 1; ; page++ {
		if page > wc.maxPages {
			return nil, wc.tooManyPages("/products")
		}
		params := url.Values{}
		params.Set("per_page", strconv.Itoa(perPage))
		params.Set("page", strconv.Itoa(page))
		params.Set("orderby", "date")
		params.Set("order", "asc")
		if q.CategoryID != "" {
			params.Set("category", q.CategoryID)
		}

		var products []wcProduct
		header, err := wc.get(ctx, "/products", params, &products)
		if err != nil {
			return nil, err
		}

		for i := range products {
			p := &products[i]
			if q.NoFeaturedImage && p.hasFeaturedImage() {
				continue
			}
			supplier := p.supplier()
			if !catalog.MatchesSupplier(supplier, q.Supplier) {
				continue
			}

			parent := catalog.ProductRecord{
				ID:          strconv.FormatInt(p.ID, 10),
				SKU:         strings.TrimSpace(p.SKU),
				Name:        p.Name,
				Description: p.Description,
				Supplier:    supplier,
			}
			records = append(records, parent)

			if q.IncludeVariations && len(p.Variations) > 0 {
				variations, err := wc.variations(ctx, parent)
				if err != nil {
					return nil, err
				}
				records = append(records, variations...)
			}
		}

		totalPages, _ := strconv.Atoi(header.Get("X-WP-TotalPages"))
		if len(products) < perPage || (totalPages > 0 && page >= totalPages) {
			break
		}
	}

	wc.logger.Debug("Read %d WooCommerce catalog records", len(records))
	return catalog.Page(records, q), nil
}

func (wc *WooCommerceConnector) variations(ctx context.Context, parent catalog.ProductRecord) ([]catalog.ProductRecord, error) {
	var records []catalog.ProductRecord
	for page := 1; ; page++ {
		if page > wc.maxPages {
			return nil, wc.tooManyPages("/products/" + parent.ID + "/variations")
		}
		params := url.Values{}
		params.Set("per_page", strconv.Itoa(perPage))
		params.Set("page", strconv.Itoa(page))

		var variations []wcProduct
		if _, err := wc.get(ctx, "/products/"+parent.ID+"/variations", params, &variations); err != nil {
			return nil, err
		}
		for _, v := range variations {
			records = append(records, catalog.ProductRecord{
				ID:          strconv.FormatInt(v.ID, 10),
				SKU:         strings.TrimSpace(v.SKU),
				Name:        variationName(parent.Name, v.Attributes),
				Description: v.Description,
				Supplier:    parent.Supplier,
				IsVariation: true,
				ParentID:    parent.ID,
			})
		}
		if len(variations) < perPage {
			break
		}
	}
	return records, nil
}

func (wc *WooCommerceConnector) tooManyPages(path string) error {
	return fmt.Errorf("%w: woocommerce: %s has more than %d pages", catalog.ErrCatalog, path, wc.maxPages)
}

func variationName(parentName string, attrs []wcAttribute) string {
	var opts []string
	for _, a := range attrs {
		if a.Option != "" {
			opts = append(opts, a.Option)
		}
	}
	if len(opts) == 0 {
		return parentName
	}
	return parentName + " - " + strings.Join(opts, ", ")
}

func (wc *WooCommerceConnector) get(ctx context.Context, path string, params url.Values, out interface{}) (http.Header, error) {
	endpoint := wc.storeURL + apiPath + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", catalog.ErrCatalog, err)
	}
	req.SetBasicAuth(wc.consumerKey, wc.consumerSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := wc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: woocommerce: %v", catalog.ErrCatalog, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: woocommerce API request failed: %d - %s", catalog.ErrCatalog, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("%w: failed to decode woocommerce response: %v", catalog.ErrCatalog, err)
	}
	return resp.Header, nil
}
