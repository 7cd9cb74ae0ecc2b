package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgersync/internal/catalog"
	"ledgersync/internal/logger"
)

const firstPage = `{"products":[
  {"id":1,"title":"Anchor","vendor":"Acme","image":{"src":"a.png"},"images":[{"src":"a.png"}],
   "variants":[{"id":101,"sku":"A1","position":1}]},
  {"id":2,"title":"Bracket","vendor":"Bolt Co","images":[],
   "variants":[{"id":202,"sku":"B2-L","position":2,"option1":"Large"},{"id":201,"sku":"B2","position":1,"option1":"Small"}]}
]}`

const secondPage = `{"products":[
  {"id":3,"title":"Clamp","vendor":"Acme","images":[],"variants":[{"id":301,"sku":"","position":1}]}
]}`

func newShop(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2023-10/products.json", r.URL.Path)
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))

		q := r.URL.Query()
		if q.Get("page_info") == "" {
			if v := q.Get("vendor"); v != "" && v != "Acme" {
				w.Write([]byte(`{"products":[]}`))
				return
			}
			w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2023-10/products.json?limit=250&page_info=cursor2>; rel="next"`, srv.URL))
			w.Write([]byte(firstPage))
			return
		}
		assert.Equal(t, "cursor2", q.Get("page_info"))
		assert.Empty(t, q.Get("vendor"))
		w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2023-10/products.json?page_info=cursor1>; rel="previous"`, srv.URL))
		w.Write([]byte(secondPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetProducts_FollowsLinkHeader(t *testing.T) {
	srv := newShop(t)

	records, err := New(srv.URL, "shpat_test", srv.Client(), logger.NewNop()).GetProducts(context.Background(), catalog.Query{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, catalog.ProductRecord{ID: "1", SKU: "A1", Name: "Anchor", Supplier: "Acme"}, records[0])
	assert.Equal(t, "B2", records[1].SKU, "primary variant is the one at position 1")
	assert.Equal(t, "", records[2].SKU)
}

func TestGetProducts_Variations(t *testing.T) {
	srv := newShop(t)

	records, err := New(srv.URL, "shpat_test", srv.Client(), logger.NewNop()).GetProducts(context.Background(), catalog.Query{IncludeVariations: true})
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, catalog.ProductRecord{
		ID: "202", SKU: "B2-L", Name: "Bracket - Large", Supplier: "Bolt Co", IsVariation: true, ParentID: "2",
	}, records[2])
}

func TestGetProducts_Filters(t *testing.T) {
	srv := newShop(t)
	c := New(srv.URL, "shpat_test", srv.Client(), logger.NewNop())

	records, err := c.GetProducts(context.Background(), catalog.Query{Supplier: "Acme"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A1", records[0].SKU)
	assert.Equal(t, "3", records[1].ID)

	records, err = c.GetProducts(context.Background(), catalog.Query{NoFeaturedImage: true, BatchSize: 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "B2", records[0].SKU)
}

func TestGetProducts_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "bad", srv.Client(), logger.NewNop()).GetProducts(context.Background(), catalog.Query{})
	assert.ErrorIs(t, err, catalog.ErrCatalog)
}

func TestGetProducts_PageLimitIsAnError(t *testing.T) {
	srv := newShop(t)
	c := New(srv.URL, "shpat_test", srv.Client(), logger.NewNop())
	c.maxPages = 1

	_, err := c.GetProducts(context.Background(), catalog.Query{})
	require.ErrorIs(t, err, catalog.ErrCatalog)
	assert.Contains(t, err.Error(), "more than 1 pages")

	c.maxPages = 2
	records, err := c.GetProducts(context.Background(), catalog.Query{})
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
