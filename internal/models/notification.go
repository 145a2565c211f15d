// internal/models/notification.go
package models

import (
	"github.com/google/uuid"
)

// Notification is scoped to exactly one recipient: either BuyerID or SellerID
// is set, never both and never neither. The set column is the routing key for
// live delivery and for the list/poll query.
type Notification struct {
	BaseModel
	BuyerID  *uuid.UUID       `json:"buyer_id,omitempty" gorm:"type:uuid;index"`
	SellerID *uuid.UUID       `json:"seller_id,omitempty" gorm:"type:uuid;index"`
	Title    string           `json:"title" gorm:"size:255;not null"`
	Message  string           `json:"message" gorm:"type:text;not null"`
	Type     NotificationType `json:"type" gorm:"type:varchar(20);default:'system';index"`
	Read     bool             `json:"read" gorm:"default:false"`
	OrderID  *uuid.UUID       `json:"order_id,omitempty" gorm:"type:uuid;index"`
}

// RecipientID returns the single user the notification belongs to.
func (n *Notification) RecipientID() uuid.UUID {
	if n.BuyerID != nil {
		return *n.BuyerID
	}
	if n.SellerID != nil {
		return *n.SellerID
	}
	return uuid.Nil
}
