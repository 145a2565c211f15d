// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kofiasare/campusmart-backend/internal/domain"
	"github.com/kofiasare/campusmart-backend/internal/models"
	"github.com/kofiasare/campusmart-backend/internal/repository"
	"github.com/kofiasare/campusmart-backend/internal/utils"
)

// OrderService wraps order creation and every status transition in one
// transaction spanning the order rows and the stock ledger, then dispatches a
// notification to the counterparty as a post-commit effect.
type OrderService struct {
	store         repository.Store
	notifications *NotificationService
}

type CreateOrderRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	Address   string    `json:"address" validate:"required,min=5,max=500"`
}

type OrderListParams struct {
	Status *models.OrderStatus
	Limit  int
	Offset int
}

func NewOrderService(store repository.Store, notifications *NotificationService) *OrderService {
	return &OrderService{
		store:         store,
		notifications: notifications,
	}
}

// CreateOrder places a pending order. The total price comes from the stored
// product price, never from the client, and the product's primary image URL
// is denormalized onto the order so later product edits do not rewrite order
// history. Stock is only sanity-checked here; the actual reservation happens
// when the seller accepts, so concurrent pending orders may overbook and the
// losing accept fails then.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var order *models.Order
	err := s.store.InTransaction(ctx, func(tx repository.Store) error {
		product, err := tx.GetProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}

		if product.Status != models.ProductStatusActive {
			return domain.ErrProductUnavailable
		}
		if product.SellerID == buyerID {
			return fmt.Errorf("%w: cannot order your own product", domain.ErrValidation)
		}
		if product.TracksStock() && *product.Stock < req.Quantity {
			return domain.ErrInsufficientStock
		}

		now := time.Now()
		order = &models.Order{
			BuyerID:         buyerID,
			SellerID:        product.SellerID,
			ProductID:       product.ID,
			Quantity:        req.Quantity,
			UnitPrice:       product.Price,
			TotalPrice:      product.Price * float64(req.Quantity),
			Status:          models.OrderStatusPending,
			Address:         req.Address,
			ProductImage:    product.PrimaryImage(),
			StatusUpdatedAt: now,
		}
		order.Product = *product

		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, NotificationEvent{
		Recipient: SellerRecipient(order.SellerID),
		Title:     "New order",
		Message:   fmt.Sprintf("You received an order for %d × %s.", order.Quantity, order.Product.Title),
		Type:      models.NotificationTypeOrder,
		OrderID:   order.ID,
	})

	return order, nil
}

// Transition validates and applies one status change. The stock side effect
// and the status update commit atomically; if the reservation cannot be
// satisfied the whole transition aborts and the order stays untouched.
func (s *OrderService) Transition(ctx context.Context, orderID, callerID uuid.UUID, role models.UserRole, target models.OrderStatus) (*models.Order, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrValidation, target)
	}

	var updated *models.Order
	var event NotificationEvent
	err := s.store.InTransaction(ctx, func(tx repository.Store) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}

		decision, err := DecideTransition(order, callerID, role, target)
		if err != nil {
			return err
		}

		switch decision.Stock {
		case StockEffectReserve:
			if err := tx.ReserveStock(ctx, order.ProductID, order.Quantity); err != nil {
				return err
			}
		case StockEffectRelease:
			if err := tx.ReleaseStock(ctx, order.ProductID, order.Quantity); err != nil {
				return err
			}
		}

		now := time.Now()
		if err := tx.UpdateOrderStatus(ctx, order.ID, decision.From, decision.To, now); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				// A concurrent transition moved the order first; to this
				// caller the requested change is simply no longer legal.
				return domain.ErrInvalidTransition
			}
			return err
		}

		order.Status = decision.To
		order.StatusUpdatedAt = now
		updated = order
		event = decision.Event
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, event)
	return updated, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID, callerID uuid.UUID) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != callerID && order.SellerID != callerID {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, role models.UserRole, params OrderListParams) ([]models.Order, int64, error) {
	limit := params.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	return s.store.ListOrders(ctx, userID, role, params.Status, limit, offset)
}

// ClearOrders bulk-deletes the caller's terminal-status orders. In-flight
// orders (pending, accepted) are never cleared.
func (s *OrderService) ClearOrders(ctx context.Context, userID uuid.UUID, role models.UserRole, status *models.OrderStatus) (int64, error) {
	statuses := []models.OrderStatus{
		models.OrderStatusRejected,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
	}
	if status != nil {
		if !status.Terminal() {
			return 0, fmt.Errorf("%w: only completed orders can be cleared", domain.ErrValidation)
		}
		statuses = []models.OrderStatus{*status}
	}
	return s.store.DeleteOrdersByStatus(ctx, userID, role, statuses)
}

// dispatch runs strictly post-commit: a recipient can never observe a push
// for a transition that did not durably happen. Failures are logged only.
func (s *OrderService) dispatch(ctx context.Context, event NotificationEvent) {
	orderID := event.OrderID
	if _, err := s.notifications.Dispatch(ctx, event.Recipient, event.Title, event.Message, event.Type, &orderID); err != nil {
		logrus.WithFields(logrus.Fields{
			"order_id": event.OrderID,
			"title":    event.Title,
		}).WithError(err).Error("Failed to dispatch order notification")
	}
}
