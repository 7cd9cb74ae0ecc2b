package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a row of the local catalog. Variations point at their parent through ParentID.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	ExternalID  string    `json:"external_id" gorm:"index"`
	SKU         string    `json:"sku" gorm:"index"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	Supplier    string    `json:"supplier" gorm:"index"`
	CategoryID  string    `json:"category_id" gorm:"index"`
	ImageURL    string    `json:"image_url"`
	ParentID    string    `json:"parent_id" gorm:"index;size:36"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsVariation reports whether the product belongs to a parent product.
func (p *Product) IsVariation() bool {
	return p.ParentID != ""
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
