// Package catalog describes the store products fed into a sync run and reads them from the local database.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"ledgersync/internal/models"
)

// ProductRecord is one product or variation as seen by the sync engine.
type ProductRecord struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Supplier holds every supplier joined with ", ".
	Supplier    string `json:"supplier"`
	IsVariation bool   `json:"is_variation"`
	ParentID    string `json:"parent_id,omitempty"`
}

// Query filters a catalog read. Zero values mean "no filter"; BatchSize <= 0 returns everything.
type Query struct {
	Offset            int    `json:"offset" form:"offset"`
	BatchSize         int    `json:"batch_size" form:"batch_size"`
	CategoryID        string `json:"category_id" form:"category_id"`
	Supplier          string `json:"supplier" form:"supplier"`
	NoFeaturedImage   bool   `json:"no_featured_image" form:"no_featured_image"`
	IncludeVariations bool   `json:"include_variations" form:"include_variations"`
}

// Reader fetches product records in catalog order.
type Reader interface {
	GetProducts(ctx context.Context, q Query) ([]ProductRecord, error)
}

// ErrCatalog marks failures of a catalog source.
var ErrCatalog = errors.New("catalog read failed")

// SupplierSeparator joins multi-valued suppliers.
const SupplierSeparator = ", "

// JoinSuppliers trims, drops empties and joins supplier names.
func JoinSuppliers(names []string) string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, SupplierSeparator)
}

// MatchesSupplier reports whether a joined supplier value contains want (case-insensitive).
// An empty want matches everything.
func MatchesSupplier(joined, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	for _, s := range strings.Split(joined, SupplierSeparator) {
		if strings.EqualFold(strings.TrimSpace(s), want) {
			return true
		}
	}
	return false
}

// Page applies Offset and BatchSize to records already in catalog order.
func Page(records []ProductRecord, q Query) []ProductRecord {
	if q.Offset > 0 {
		if q.Offset >= len(records) {
			return []ProductRecord{}
		}
		records = records[q.Offset:]
	}
	if q.BatchSize > 0 && q.BatchSize < len(records) {
		records = records[:q.BatchSize]
	}
	return records
}

// DBReader reads the local products table.
type DBReader struct {
	db *gorm.DB
}

func NewDBReader(db *gorm.DB) *DBReader {
	return &DBReader{db: db}
}

func (r *DBReader) GetProducts(ctx context.Context, q Query) ([]ProductRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if !q.IncludeVariations {
		query = query.Where("parent_id = ''")
	}
	if q.CategoryID != "" {
		query = query.Where("category_id = ?", q.CategoryID)
	}
	if q.NoFeaturedImage {
		query = query.Where("image_url = ''")
	}
	if q.Supplier != "" {
		query = query.Where("LOWER(supplier) LIKE ?", "%"+strings.ToLower(q.Supplier)+"%")
	}

	var products []models.Product
	if err := query.Order("created_at, id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}

	records := make([]ProductRecord, 0, len(products))
	for _, p := range products {
		// LIKE narrows the candidates, the exact per-supplier match decides.
		if !MatchesSupplier(p.Supplier, q.Supplier) {
			continue
		}
		records = append(records, FromModel(&p))
	}
	return Page(records, q), nil
}

// FromModel converts a stored product.
func FromModel(p *models.Product) ProductRecord {
	return ProductRecord{
		ID:          p.ID,
		SKU:         strings.TrimSpace(p.SKU),
		Name:        p.Name,
		Description: p.Description,
		Supplier:    p.Supplier,
		IsVariation: p.IsVariation(),
		ParentID:    p.ParentID,
	}
}
