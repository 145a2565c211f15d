// internal/models/review.go
package models

import (
	"github.com/google/uuid"
)

type Review struct {
	BaseModel
	OrderID   uuid.UUID `json:"order_id" gorm:"type:uuid;not null;uniqueIndex"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	BuyerID   uuid.UUID `json:"buyer_id" gorm:"type:uuid;not null;index"`
	SellerID  uuid.UUID `json:"seller_id" gorm:"type:uuid;not null;index"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment" gorm:"type:text"`

	// Relationships
	Order   Order   `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Buyer   User    `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
}
