// Package shopify reads the store catalog from a Shopify shop.
package shopify

import (
	"context"
	"fmt"
	"net/http"

	"ledgersync/internal/catalog"
	"ledgersync/internal/logger"
	shopifysvc "ledgersync/internal/services/shopify"
)

// defaultMaxPages bounds a single catalog read.
const defaultMaxPages = 200

type ShopifyConnector struct {
	client      *shopifysvc.Client
	transformer *shopifysvc.Transformer
	logger      *logger.Logger
	maxPages    int
}

func New(shopDomain, accessToken string, httpClient *http.Client, logger *logger.Logger) *ShopifyConnector {
	return &ShopifyConnector{
		client:      shopifysvc.NewClient(shopDomain, accessToken, httpClient, logger),
		transformer: shopifysvc.NewTransformer(),
		logger:      logger,
		maxPages:    defaultMaxPages,
	}
}

// GetProducts walks every products.json page and returns the records in shop order.
// The category filter maps to a collection id and the supplier filter to the vendor.
func (sc *ShopifyConnector) GetProducts(ctx context.Context, q catalog.Query) ([]catalog.ProductRecord, error) {
	params := shopifysvc.ProductsParams{
		Limit:        shopifysvc.DefaultLimit,
		Vendor:       q.Supplier,
		CollectionID: q.CategoryID,
	}

	var records []catalog.ProductRecord
	for page := 0; ; page++ {
		if page == sc.maxPages {
			return nil, fmt.Errorf("%w: shopify: more than %d pages of products", catalog.ErrCatalog, sc.maxPages)
		}
		result, err := sc.client.GetProducts(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("%w: shopify: %v", catalog.ErrCatalog, err)
		}

		for i := range result.Products {
			p := &result.Products[i]
			if q.NoFeaturedImage && sc.transformer.HasFeaturedImage(p) {
				continue
			}
			for _, rec := range sc.transformer.TransformProduct(p, q.IncludeVariations) {
				if catalog.MatchesSupplier(rec.Supplier, q.Supplier) {
					records = append(records, rec)
				}
			}
		}

		if result.NextPageInfo == "" {
			break
		}
		params.PageInfo = result.NextPageInfo
	}

	sc.logger.Debug("Read %d Shopify catalog records", len(records))
	return catalog.Page(records, q), nil
}
