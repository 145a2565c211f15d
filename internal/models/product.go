// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	SellerID    uuid.UUID      `json:"seller_id" gorm:"type:uuid;not null;index"`
	Title       string         `json:"title" gorm:"size:255;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Category    string         `json:"category" gorm:"size:100;index"`
	Price       float64        `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock       *int           `json:"stock" gorm:"column:stock"` // nil means untracked/unlimited
	Images      pq.StringArray `json:"images" gorm:"type:text[]"`
	Status      ProductStatus  `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	ViewCount   int64          `json:"view_count" gorm:"default:0"`
	SalesCount  int64          `json:"sales_count" gorm:"default:0"`

	// Relationships
	Seller User    `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Orders []Order `json:"orders,omitempty" gorm:"foreignKey:ProductID"`
}

// TracksStock reports whether acceptance of an order must reserve inventory.
func (p *Product) TracksStock() bool {
	return p.Stock != nil
}

// PrimaryImage is the URL denormalized onto orders at creation time.
func (p *Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}
