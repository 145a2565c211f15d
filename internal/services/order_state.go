// internal/services/order_state.go
package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kofiasare/campusmart-backend/internal/domain"
	"github.com/kofiasare/campusmart-backend/internal/models"
)

// StockEffect is the inventory side effect bound to a transition.
type StockEffect int

const (
	StockEffectNone StockEffect = iota
	StockEffectReserve
	StockEffectRelease
)

// orderTransitions is the full set of legal status changes. Statuses absent
// as keys (rejected, delivered, cancelled) are terminal.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:  {models.OrderStatusAccepted, models.OrderStatusRejected},
	models.OrderStatusAccepted: {models.OrderStatusDelivered, models.OrderStatusCancelled},
}

func transitionAllowed(from, to models.OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionDecision is the outcome of validating a requested transition: the
// statuses involved, the stock side effect, and the notification event for
// the counterparty. Deciding performs no writes; applying it is the order
// service's job.
type TransitionDecision struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Stock StockEffect
	Event NotificationEvent
}

// NotificationEvent describes the message the counterparty receives once the
// transition commits.
type NotificationEvent struct {
	Recipient Recipient
	Title     string
	Message   string
	Type      models.NotificationType
	OrderID   uuid.UUID
}

// DecideTransition authorizes the caller, validates the requested status
// change against the transition table, and computes its side effects.
//
// Accept, reject and deliver belong to the order's seller; cancel belongs to
// the order's buyer and only while the order is still pending.
func DecideTransition(order *models.Order, callerID uuid.UUID, role models.UserRole, target models.OrderStatus) (*TransitionDecision, error) {
	switch target {
	case models.OrderStatusAccepted, models.OrderStatusRejected, models.OrderStatusDelivered:
		if role != models.RoleSeller || callerID != order.SellerID {
			return nil, domain.ErrForbidden
		}
	case models.OrderStatusCancelled:
		if role != models.RoleBuyer || callerID != order.BuyerID {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, fmt.Errorf("%w: %q is not a requestable status", domain.ErrValidation, target)
	}

	if !transitionAllowed(order.Status, target) {
		return nil, domain.ErrInvalidTransition
	}

	// Buyers may only cancel while the seller has not yet acted.
	if target == models.OrderStatusCancelled && order.Status != models.OrderStatusPending {
		return nil, domain.ErrInvalidTransition
	}

	decision := &TransitionDecision{
		From:  order.Status,
		To:    target,
		Stock: stockEffect(order.Status, target),
		Event: transitionEvent(order, target),
	}
	return decision, nil
}

// stockEffect: acceptance reserves, leaving the accepted state sideways
// (rejected/cancelled) releases the reservation, and delivery only flips
// status. A pending order never reserved anything, so pending -> rejected
// touches no stock.
func stockEffect(from, to models.OrderStatus) StockEffect {
	switch {
	case from == models.OrderStatusPending && to == models.OrderStatusAccepted:
		return StockEffectReserve
	case from == models.OrderStatusAccepted &&
		(to == models.OrderStatusRejected || to == models.OrderStatusCancelled):
		return StockEffectRelease
	default:
		return StockEffectNone
	}
}

func transitionEvent(order *models.Order, target models.OrderStatus) NotificationEvent {
	product := order.Product.Title
	if product == "" {
		product = "your order"
	}

	event := NotificationEvent{
		Type:    models.NotificationTypeOrder,
		OrderID: order.ID,
	}

	switch target {
	case models.OrderStatusAccepted:
		event.Recipient = BuyerRecipient(order.BuyerID)
		event.Title = "Order accepted"
		event.Message = fmt.Sprintf("The seller accepted your order for %s.", product)
	case models.OrderStatusRejected:
		event.Recipient = BuyerRecipient(order.BuyerID)
		event.Title = "Order rejected"
		event.Message = fmt.Sprintf("The seller rejected your order for %s.", product)
	case models.OrderStatusDelivered:
		event.Recipient = BuyerRecipient(order.BuyerID)
		event.Title = "Order delivered"
		event.Message = fmt.Sprintf("Your order for %s was marked as delivered.", product)
	case models.OrderStatusCancelled:
		event.Recipient = SellerRecipient(order.SellerID)
		event.Title = "Order cancelled"
		event.Message = fmt.Sprintf("The buyer cancelled their order for %s.", product)
	}

	return event
}
