package shopify

import (
	"time"
)

// Product represents a Shopify product
type Product struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	BodyHTML    string     `json:"body_html"`
	Vendor      string     `json:"vendor"`
	ProductType string     `json:"product_type"`
	Handle      string     `json:"handle"`
	Status      string     `json:"status"`
	Tags        string     `json:"tags"`
	Variants    []Variant  `json:"variants"`
	Images      []Image    `json:"images"`
	Image       *Image     `json:"image"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
}

// Variant represents a product variant
type Variant struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Title     string  `json:"title"`
	Price     string  `json:"price"`
	Sku       string  `json:"sku"`
	Position  int     `json:"position"`
	Option1   *string `json:"option1"`
	Option2   *string `json:"option2"`
	Option3   *string `json:"option3"`
	Barcode   *string `json:"barcode"`
	ImageID   *int64  `json:"image_id"`
}

// Image represents a product image
type Image struct {
	ID         int64   `json:"id"`
	ProductID  int64   `json:"product_id"`
	Position   int     `json:"position"`
	Alt        *string `json:"alt"`
	Src        string  `json:"src"`
	VariantIDs []int64 `json:"variant_ids"`
}

// ProductsResponse represents the response from products API
type ProductsResponse struct {
	Products []Product `json:"products"`
}

// ProductsParams filters a products.json request. Shopify ignores every filter
// except Limit once PageInfo is set, so the client drops them itself.
type ProductsParams struct {
	Limit        int
	PageInfo     string
	Vendor       string
	CollectionID string
}

// ProductsPage is one page of products plus the cursor of the next page.
type ProductsPage struct {
	Products     []Product
	NextPageInfo string
}
