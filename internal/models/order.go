// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	BaseModel
	BuyerID         uuid.UUID   `json:"buyer_id" gorm:"type:uuid;not null;index"`
	SellerID        uuid.UUID   `json:"seller_id" gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID   `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity        int         `json:"quantity" gorm:"not null"`
	UnitPrice       float64     `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	TotalPrice      float64     `json:"total_price" gorm:"type:decimal(10,2);not null"`
	Status          OrderStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Address         string      `json:"address" gorm:"type:text;not null"`
	ProductImage    string      `json:"product_image" gorm:"size:512"` // snapshot taken at order time
	StatusUpdatedAt time.Time   `json:"status_updated_at"`

	// Relationships
	Buyer   User    `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Seller  User    `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
