// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kofiasare/campusmart-backend/internal/models"
)

// Store is the persistence boundary for the order/notification core. The
// services depend on this interface, not on gorm, so transition logic runs
// against the in-memory implementation in tests.
type Store interface {
	// Products
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)

	// Orders
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// UpdateOrderStatus applies a conditional status update: it succeeds only
	// if the row still holds `from`, returning domain.ErrConflict otherwise.
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, from, to models.OrderStatus, at time.Time) error
	ListOrders(ctx context.Context, userID uuid.UUID, role models.UserRole, status *models.OrderStatus, limit, offset int) ([]models.Order, int64, error)
	DeleteOrdersByStatus(ctx context.Context, userID uuid.UUID, role models.UserRole, statuses []models.OrderStatus) (int64, error)

	// Stock ledger. Reserve is a single conditional decrement that fails with
	// domain.ErrInsufficientStock rather than ever driving stock negative;
	// both calls are no-ops for products with untracked (NULL) stock.
	ReserveStock(ctx context.Context, productID uuid.UUID, qty int) error
	ReleaseStock(ctx context.Context, productID uuid.UUID, qty int) error

	// Notifications
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
	ClearNotifications(ctx context.Context, userID uuid.UUID) (int64, error)

	// Reviews
	CreateReview(ctx context.Context, review *models.Review) error
	GetReviewByOrder(ctx context.Context, orderID uuid.UUID) (*models.Review, error)

	// InTransaction runs fn inside one atomic unit; every Store call made on
	// the argument either commits together with the rest or not at all.
	InTransaction(ctx context.Context, fn func(Store) error) error
}
