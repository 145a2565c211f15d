// internal/repository/memory.go
package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kofiasare/campusmart-backend/internal/domain"
	"github.com/kofiasare/campusmart-backend/internal/models"
)

// MemoryStore is an in-process Store used by tests and local tooling. It
// enforces the same conditional-update contracts as the gorm implementation:
// stock reservation is check-and-decrement under one lock, and status updates
// fail with domain.ErrConflict when the expected source status is stale.
type MemoryStore struct {
	mu            sync.Mutex
	txMu          sync.Mutex
	products      map[uuid.UUID]*models.Product
	orders        map[uuid.UUID]*models.Order
	notifications []*models.Notification
	reviews       map[uuid.UUID]*models.Review // keyed by order id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[uuid.UUID]*models.Product),
		orders:   make(map[uuid.UUID]*models.Order),
		reviews:  make(map[uuid.UUID]*models.Review),
	}
}

// SeedProduct registers a product, assigning an id if absent.
func (m *MemoryStore) SeedProduct(p *models.Product) *models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := cloneProduct(p)
	m.products[cp.ID] = cp
	return cloneProduct(cp)
}

func (m *MemoryStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (m *MemoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	if p, ok := m.products[o.ProductID]; ok {
		cp.Product = *cloneProduct(p)
	}
	return &cp, nil
}

func (m *MemoryStore) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, from, to models.OrderStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	if o.Status != from {
		return domain.ErrConflict
	}
	o.Status = to
	o.StatusUpdatedAt = at
	o.UpdatedAt = at
	return nil
}

func (m *MemoryStore) ListOrders(ctx context.Context, userID uuid.UUID, role models.UserRole, status *models.OrderStatus, limit, offset int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []models.Order
	for _, o := range m.orders {
		owner := o.BuyerID
		if role == models.RoleSeller {
			owner = o.SellerID
		}
		if owner != userID {
			continue
		}
		if status != nil && o.Status != *status {
			continue
		}
		matched = append(matched, *o)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *MemoryStore) DeleteOrdersByStatus(ctx context.Context, userID uuid.UUID, role models.UserRole, statuses []models.OrderStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[models.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	var deleted int64
	for id, o := range m.orders {
		owner := o.BuyerID
		if role == models.RoleSeller {
			owner = o.SellerID
		}
		if owner == userID && wanted[o.Status] {
			delete(m.orders, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) ReserveStock(ctx context.Context, productID uuid.UUID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Stock == nil {
		return nil
	}
	if *p.Stock < qty {
		return domain.ErrInsufficientStock
	}
	*p.Stock -= qty
	return nil
}

func (m *MemoryStore) ReleaseStock(ctx context.Context, productID uuid.UUID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Stock == nil {
		return nil
	}
	*p.Stock += qty
	return nil
}

func (m *MemoryStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	cp := *n
	m.notifications = append(m.notifications, &cp)
	return nil
}

func (m *MemoryStore) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []models.Notification
	for _, n := range m.notifications {
		if n.RecipientID() == userID {
			matched = append(matched, *n)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MemoryStore) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.notifications {
		if n.RecipientID() == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID != id {
			continue
		}
		if n.RecipientID() != userID {
			return domain.ErrForbidden
		}
		n.Read = true
		return nil
	}
	return domain.ErrNotFound
}

func (m *MemoryStore) ClearNotifications(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*models.Notification
	var deleted int64
	for _, n := range m.notifications {
		if n.RecipientID() == userID {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	m.notifications = kept
	return deleted, nil
}

func (m *MemoryStore) CreateReview(ctx context.Context, review *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.reviews[review.OrderID]; exists {
		return domain.ErrConflict
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.CreatedAt = time.Now()
	cp := *review
	m.reviews[review.OrderID] = &cp
	return nil
}

func (m *MemoryStore) GetReviewByOrder(ctx context.Context, orderID uuid.UUID) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// InTransaction serializes transactions and restores a snapshot when fn
// fails, so a reservation taken before a later step errors does not leak.
func (m *MemoryStore) InTransaction(ctx context.Context, fn func(Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	products      map[uuid.UUID]*models.Product
	orders        map[uuid.UUID]*models.Order
	notifications []*models.Notification
	reviews       map[uuid.UUID]*models.Review
}

func (m *MemoryStore) snapshot() memorySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := memorySnapshot{
		products:      make(map[uuid.UUID]*models.Product, len(m.products)),
		orders:        make(map[uuid.UUID]*models.Order, len(m.orders)),
		notifications: make([]*models.Notification, len(m.notifications)),
		reviews:       make(map[uuid.UUID]*models.Review, len(m.reviews)),
	}
	for id, p := range m.products {
		snap.products[id] = cloneProduct(p)
	}
	for id, o := range m.orders {
		cp := *o
		snap.orders[id] = &cp
	}
	for i, n := range m.notifications {
		cp := *n
		snap.notifications[i] = &cp
	}
	for id, r := range m.reviews {
		cp := *r
		snap.reviews[id] = &cp
	}
	return snap
}

func (m *MemoryStore) restore(snap memorySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = snap.products
	m.orders = snap.orders
	m.notifications = snap.notifications
	m.reviews = snap.reviews
}

func cloneProduct(p *models.Product) *models.Product {
	cp := *p
	if p.Stock != nil {
		stock := *p.Stock
		cp.Stock = &stock
	}
	if p.Images != nil {
		cp.Images = append(cp.Images[:0:0], p.Images...)
	}
	return &cp
}
