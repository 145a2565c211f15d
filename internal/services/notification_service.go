// internal/services/notification_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kofiasare/campusmart-backend/internal/domain"
	"github.com/kofiasare/campusmart-backend/internal/models"
	"github.com/kofiasare/campusmart-backend/internal/realtime"
	"github.com/kofiasare/campusmart-backend/internal/repository"
)

// NotificationListLimit caps the list/poll query; clients reconcile missed
// pushes by polling this endpoint.
const NotificationListLimit = 50

// Recipient selects exactly one notification target, either a buyer or a
// seller. The zero value is invalid.
type Recipient struct {
	buyerID  *uuid.UUID
	sellerID *uuid.UUID
}

func BuyerRecipient(id uuid.UUID) Recipient {
	return Recipient{buyerID: &id}
}

func SellerRecipient(id uuid.UUID) Recipient {
	return Recipient{sellerID: &id}
}

func (r Recipient) validate() error {
	if (r.buyerID == nil) == (r.sellerID == nil) {
		return fmt.Errorf("%w: notification needs exactly one recipient", domain.ErrValidation)
	}
	id := r.buyerID
	if id == nil {
		id = r.sellerID
	}
	if *id == uuid.Nil {
		return fmt.Errorf("%w: notification recipient id is empty", domain.ErrValidation)
	}
	return nil
}

func (r Recipient) userID() uuid.UUID {
	if r.buyerID != nil {
		return *r.buyerID
	}
	return *r.sellerID
}

// NotificationService persists notifications and attempts best-effort live
// delivery. The stored record is the delivery guarantee; the push is an
// optimization that may silently fail.
type NotificationService struct {
	store    repository.Store
	registry realtime.Registry
}

func NewNotificationService(store repository.Store, registry realtime.Registry) *NotificationService {
	return &NotificationService{
		store:    store,
		registry: registry,
	}
}

// Dispatch durably creates the notification, then attempts one push over the
// recipient's live connection if any. Push failure is logged and swallowed:
// the caller's domain operation already succeeded and the record is durable.
func (s *NotificationService) Dispatch(ctx context.Context, recipient Recipient, title, message string, ntype models.NotificationType, orderID *uuid.UUID) (*models.Notification, error) {
	if err := recipient.validate(); err != nil {
		return nil, err
	}

	notification := &models.Notification{
		BuyerID:  recipient.buyerID,
		SellerID: recipient.sellerID,
		Title:    title,
		Message:  message,
		Type:     ntype,
		OrderID:  orderID,
	}

	if err := s.store.CreateNotification(ctx, notification); err != nil {
		return nil, err
	}

	s.push(notification)
	return notification, nil
}

func (s *NotificationService) push(n *models.Notification) {
	conn, ok := s.registry.Lookup(n.RecipientID())
	if !ok {
		return
	}
	if err := conn.SendJSON(n); err != nil {
		logrus.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"recipient_id":    n.RecipientID(),
			"type":            n.Type,
		}).WithError(err).Warn("Realtime push failed; recipient will pick it up on next poll")
	}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, userID, NotificationListLimit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.CountUnreadNotifications(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.store.MarkNotificationRead(ctx, id, userID)
}

func (s *NotificationService) ClearAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.ClearNotifications(ctx, userID)
}
