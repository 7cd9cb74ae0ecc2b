package shopify

import (
	"sort"
	"strconv"
	"strings"

	"ledgersync/internal/catalog"
)

type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

// TransformProduct converts a Shopify product to catalog records. The product
// itself carries the SKU of its primary variant; with includeVariations every
// other variant follows as a variation of it.
func (t *Transformer) TransformProduct(shopifyProduct *Product, includeVariations bool) []catalog.ProductRecord {
	variants := orderedVariants(shopifyProduct.Variants)
	productID := strconv.FormatInt(shopifyProduct.ID, 10)

	parent := catalog.ProductRecord{
		ID:          productID,
		Name:        shopifyProduct.Title,
		Description: shopifyProduct.BodyHTML,
		Supplier:    catalog.JoinSuppliers([]string{shopifyProduct.Vendor}),
	}
	if len(variants) > 0 {
		parent.SKU = strings.TrimSpace(variants[0].Sku)
	}

	records := []catalog.ProductRecord{parent}
	if !includeVariations || len(variants) < 2 {
		return records
	}

	for _, variant := range variants[1:] {
		records = append(records, catalog.ProductRecord{
			ID:          strconv.FormatInt(variant.ID, 10),
			SKU:         strings.TrimSpace(variant.Sku),
			Name:        variantName(shopifyProduct.Title, variant),
			Description: shopifyProduct.BodyHTML,
			Supplier:    parent.Supplier,
			IsVariation: true,
			ParentID:    productID,
		})
	}
	return records
}

// HasFeaturedImage reports whether the product has a main image.
func (t *Transformer) HasFeaturedImage(shopifyProduct *Product) bool {
	if shopifyProduct.Image != nil && shopifyProduct.Image.Src != "" {
		return true
	}
	for _, img := range shopifyProduct.Images {
		if img.Src != "" {
			return true
		}
	}
	return false
}

// orderedVariants sorts by position, the variant at position 1 being the primary one.
func orderedVariants(variants []Variant) []Variant {
	out := make([]Variant, len(variants))
	copy(out, variants)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

func variantName(title string, variant Variant) string {
	var opts []string
	for _, o := range []*string{variant.Option1, variant.Option2, variant.Option3} {
		if o != nil && *o != "" {
			opts = append(opts, *o)
		}
	}
	if len(opts) == 0 {
		if variant.Title == "" {
			return title
		}
		return title + " - " + variant.Title
	}
	return title + " - " + strings.Join(opts, ", ")
}
