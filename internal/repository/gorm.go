// internal/repository/gorm.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kofiasare/campusmart-backend/internal/domain"
	"github.com/kofiasare/campusmart-backend/internal/models"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Seller").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *GormStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *GormStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Product").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

func (s *GormStore) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, from, to models.OrderStatus, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]interface{}{
			"status":            to,
			"status_updated_at": at,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// The row moved out of `from` under us; the caller's view is stale.
		return domain.ErrConflict
	}
	return nil
}

func (s *GormStore) ListOrders(ctx context.Context, userID uuid.UUID, role models.UserRole, status *models.OrderStatus, limit, offset int) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Preload("Product")

	if role == models.RoleSeller {
		query = query.Where("seller_id = ?", userID)
	} else {
		query = query.Where("buyer_id = ?", userID)
	}

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

func (s *GormStore) DeleteOrdersByStatus(ctx context.Context, userID uuid.UUID, role models.UserRole, statuses []models.OrderStatus) (int64, error) {
	query := s.db.WithContext(ctx).Where("status IN ?", statuses)

	if role == models.RoleSeller {
		query = query.Where("seller_id = ?", userID)
	} else {
		query = query.Where("buyer_id = ?", userID)
	}

	res := query.Delete(&models.Order{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete orders: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ReserveStock decrements available stock with one conditional UPDATE so two
// concurrent reservations of the last unit cannot both succeed. Zero affected
// rows then gets disambiguated: untracked stock is a successful no-op.
func (s *GormStore) ReserveStock(ctx context.Context, productID uuid.UUID, qty int) error {
	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock IS NOT NULL AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to reserve stock: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var product models.Product
	if err := s.db.WithContext(ctx).Select("id", "stock").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}
	if !product.TracksStock() {
		return nil
	}
	return domain.ErrInsufficientStock
}

func (s *GormStore) ReleaseStock(ctx context.Context, productID uuid.UUID, qty int) error {
	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock IS NOT NULL", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to release stock: %w", res.Error)
	}
	return nil
}

func (s *GormStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *GormStore) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := s.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return notifications, nil
}

func (s *GormStore) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("(buyer_id = ? OR seller_id = ?) AND read = ?", userID, userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func (s *GormStore) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND (buyer_id = ? OR seller_id = ?)", id, userID, userID).
		Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Notification{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrForbidden
	}
	return nil
}

func (s *GormStore) ClearNotifications(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear notifications: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) CreateReview(ctx context.Context, review *models.Review) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (s *GormStore) GetReviewByOrder(ctx context.Context, orderID uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).First(&review, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &review, nil
}

func (s *GormStore) InTransaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
