// internal/services/order_service_test.go
package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/kofiasare/campusmart-backend/internal/domain"
	"github.com/kofiasare/campusmart-backend/internal/models"
	"github.com/kofiasare/campusmart-backend/internal/realtime"
	"github.com/kofiasare/campusmart-backend/internal/repository"
)

type OrderServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *repository.MemoryStore
	registry *realtime.MemoryRegistry
	svc      *OrderService
	buyerID  uuid.UUID
	sellerID uuid.UUID
	product  *models.Product
}

func (suite *OrderServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = repository.NewMemoryStore()
	suite.registry = realtime.NewMemoryRegistry()
	notifications := NewNotificationService(suite.store, suite.registry)
	suite.svc = NewOrderService(suite.store, notifications)

	suite.buyerID = uuid.New()
	suite.sellerID = uuid.New()

	stock := 3
	suite.product = suite.store.SeedProduct(&models.Product{
		SellerID: suite.sellerID,
		Title:    "Mini Fridge",
		Price:    45.50,
		Stock:    &stock,
		Images:   []string{"https://cdn.example.com/fridge.jpg"},
		Status:   models.ProductStatusActive,
	})
}

func (suite *OrderServiceTestSuite) placeOrder(qty int) *models.Order {
	order, err := suite.svc.CreateOrder(suite.ctx, suite.buyerID, &CreateOrderRequest{
		ProductID: suite.product.ID,
		Quantity:  qty,
		Address:   "Hall 7, Room 12",
	})
	suite.Require().NoError(err)
	return order
}

func (suite *OrderServiceTestSuite) stockLeft() int {
	p, err := suite.store.GetProduct(suite.ctx, suite.product.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(p.Stock)
	return *p.Stock
}

func (suite *OrderServiceTestSuite) TestCreateOrderComputesPriceServerSide() {
	order := suite.placeOrder(2)

	suite.Equal(models.OrderStatusPending, order.Status)
	suite.Equal(45.50, order.UnitPrice)
	suite.Equal(91.00, order.TotalPrice)
	suite.Equal(suite.sellerID, order.SellerID)
	suite.Equal("https://cdn.example.com/fridge.jpg", order.ProductImage)

	// Creation reserves nothing; stock moves when the seller accepts.
	suite.Equal(3, suite.stockLeft())
}

func (suite *OrderServiceTestSuite) TestCreateOrderImageSnapshotSurvivesProductEdit() {
	order := suite.placeOrder(1)

	p, err := suite.store.GetProduct(suite.ctx, suite.product.ID)
	suite.Require().NoError(err)
	p.Images = []string{"https://cdn.example.com/new.jpg"}
	suite.store.SeedProduct(p)

	stored, err := suite.store.GetOrder(suite.ctx, order.ID)
	suite.Require().NoError(err)
	suite.Equal("https://cdn.example.com/fridge.jpg", stored.ProductImage)
}

func (suite *OrderServiceTestSuite) TestCreateOrderInactiveProduct() {
	p, err := suite.store.GetProduct(suite.ctx, suite.product.ID)
	suite.Require().NoError(err)
	p.Status = models.ProductStatusSuspended
	suite.store.SeedProduct(p)

	_, err = suite.svc.CreateOrder(suite.ctx, suite.buyerID, &CreateOrderRequest{
		ProductID: suite.product.ID,
		Quantity:  1,
		Address:   "Hall 7, Room 12",
	})
	suite.ErrorIs(err, domain.ErrProductUnavailable)
}

func (suite *OrderServiceTestSuite) TestCreateOrderOwnProduct() {
	_, err := suite.svc.CreateOrder(suite.ctx, suite.sellerID, &CreateOrderRequest{
		ProductID: suite.product.ID,
		Quantity:  1,
		Address:   "Hall 7, Room 12",
	})
	suite.ErrorIs(err, domain.ErrValidation)
}

func (suite *OrderServiceTestSuite) TestCreateOrderInsufficientStock() {
	_, err := suite.svc.CreateOrder(suite.ctx, suite.buyerID, &CreateOrderRequest{
		ProductID: suite.product.ID,
		Quantity:  4,
		Address:   "Hall 7, Room 12",
	})
	suite.ErrorIs(err, domain.ErrInsufficientStock)
}

func (suite *OrderServiceTestSuite) TestCreateOrderNotifiesSeller() {
	suite.placeOrder(1)

	notifications, err := suite.store.ListNotifications(suite.ctx, suite.sellerID, NotificationListLimit)
	suite.Require().NoError(err)
	suite.Require().Len(notifications, 1)
	suite.Equal("New order", notifications[0].Title)
	suite.Equal(models.NotificationTypeOrder, notifications[0].Type)
	suite.NotNil(notifications[0].SellerID)
	suite.Nil(notifications[0].BuyerID)
}

func (suite *OrderServiceTestSuite) TestAcceptReservesStock() {
	order := suite.placeOrder(2)

	updated, err := suite.svc.Transition(suite.ctx, order.ID, suite.sellerID, models.RoleSeller, models.OrderStatusAccepted)
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusAccepted, updated.Status)
	suite.Equal(1, suite.stockLeft())
}

func (suite *OrderServiceTestSuite) TestAcceptFailsAtomicallyWhenOverbooked() {
	// Two pending orders may overbook; the losing accept fails and changes
	// nothing.
	first := suite.placeOrder(2)
	second := suite.placeOrder(2)

	_, err := suite.svc.Transition(suite.ctx, first.ID, suite.sellerID, models.RoleSeller, models.OrderStatusAccepted)
	suite.Require().NoError(err)
	suite.Equal(1, suite.stockLeft())

	_, err = suite.svc.Transition(suite.ctx, second.ID, suite.sellerID, models.RoleSeller, models.OrderStatusAccepted)
	suite.ErrorIs(err, domain.ErrInsufficientStock)

	stored, err := suite.store.GetOrder(suite.ctx, second.ID)
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusPending, stored.Status)
	suite.Equal(1, suite.stockLeft())
}

func (suite *OrderServiceTestSuite) TestConcurrentAcceptsReserveAtMostOnce() {
	p, err := suite.store.GetProduct(suite.ctx, suite.product.ID)
	suite.Require().NoError(err)
	one := 1
	p.Stock = &one
	suite.store.SeedProduct(p)

	first := suite.placeOrder(1)
	second := suite.placeOrder(1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, orderID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = suite.svc.Transition(suite.ctx, orderID, suite.sellerID, models.RoleSeller, models.OrderStatusAccepted)
		}(i, id)
	}
	wg.Wait()

	var succeeded, failed int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			suite.ErrorIs(err, domain.ErrInsufficientStock)
			failed++
		}
	}
	suite.Equal(1, succeeded)
	suite.Equal(1, failed)
	suite.Equal(0, suite.stockLeft())
}

func (suite *OrderServiceTestSuite) TestRejectPendingLeavesStockAlone() {
	order := suite.placeOrder(2)

	_, err := suite.svc.Transition(suite.ctx, order.ID, suite.sellerID, models.RoleSeller, models.OrderStatusRejected)
	suite.Require().NoError(err)
	suite.Equal(3, suite.stockLeft())
}

func (suite *OrderServiceTestSuite) TestRejectAcceptedReleasesReservation() {
	order := suite.placeOrder(2)

	_, err := suite.svc.Transition(suite.ctx, order.ID, suite.sellerID, models.RoleSeller, models.OrderStatusAccepted)
	suite.Require().NoError(err)
	suite.Equal(1, suite.stockLeft())

	_, err = suite.svc.Transition(suite.ctx, order.ID, suite.sellerID, models.RoleSeller, models.OrderStatusRejected)
	suite.Require().NoError(err)
	suite.Equal(3, suite.stockLeft())
}

func (suite *OrderServiceTestSuite) TestBuyerCancelsPending() {
	order := suite.placeOrder(1)

	updated, err := suite.svc.Transition(suite.ctx, order.ID, suite.buyerID, models.RoleBuyer, models.OrderStatusCancelled)
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusCancelled, updated.Status)
	suite.Equal(3, suite.stockLeft())

	// The cancel notifies the seller, alongside the earlier "New order".
	notifications, err := suite.store.ListNotifications(suite.ctx, suite.sellerID, NotificationListLimit)
	suite.Require().NoError(err)
	suite.Require().Len(notifications, 2)
	titles := []string{notifications[0].Title, notifications[1].Title}
	suite.Contains(titles, "New order")
	suite.Contains(titles, "Order cancelled")
}

func (suite *OrderServiceTestSuite) TestBuyerCannotCancelAccepted() {
	order := suite.placeOrder(1)

	_, err := suite.svc.Transition(suite.ctx, order.ID, suite.sellerID, models.RoleSeller, models.OrderStatusAccepted)
	suite.Require().NoError(err)

	_, err = suite.svc.Transition(suite.ctx, order.ID, suite.buyerID, models.RoleBuyer, models.OrderStatusCancelled)
	suite.ErrorIs(err, domain.ErrInvalidTransition)
}

func (suite *OrderServiceTestSuite) TestDeliveredIsTerminal() {
	order := suite.placeOrder(1)

	_, err := suite.svc.Transition(suite.ctx, order.ID, suite.sellerID, models.RoleSeller, models.OrderStatusAccepted)
	suite.Require().NoError(err)
	_, err = suite.svc.Transition(suite.ctx, order.ID, suite.sellerID, models.RoleSeller, models.OrderStatusDelivered)
	suite.Require().NoError(err)

	for _, target := range []models.OrderStatus{models.OrderStatusAccepted, models.OrderStatusRejected} {
		_, err = suite.svc.Transition(suite.ctx, order.ID, suite.sellerID, models.RoleSeller, target)
		suite.ErrorIs(err, domain.ErrInvalidTransition)
	}
}

func (suite *OrderServiceTestSuite) TestAcceptPushesToConnectedBuyer() {
	conn := &fakeConn{}
	suite.registry.Register(suite.buyerID, conn)

	order := suite.placeOrder(1)
	_, err := suite.svc.Transition(suite.ctx, order.ID, suite.sellerID, models.RoleSeller, models.OrderStatusAccepted)
	suite.Require().NoError(err)

	suite.Require().Len(conn.Sent(), 1)
	pushed, ok := conn.Sent()[0].(*models.Notification)
	suite.Require().True(ok)
	suite.Equal("Order accepted", pushed.Title)

	// The push duplicates a durable record, never replaces it.
	stored, err := suite.store.ListNotifications(suite.ctx, suite.buyerID, NotificationListLimit)
	suite.Require().NoError(err)
	suite.Len(stored, 1)
}

func (suite *OrderServiceTestSuite) TestUntrackedStockAcceptIsNoop() {
	p, err := suite.store.GetProduct(suite.ctx, suite.product.ID)
	suite.Require().NoError(err)
	p.Stock = nil
	suite.store.SeedProduct(p)

	order := suite.placeOrder(5)
	_, err = suite.svc.Transition(suite.ctx, order.ID, suite.sellerID, models.RoleSeller, models.OrderStatusAccepted)
	suite.Require().NoError(err)

	stored, err := suite.store.GetProduct(suite.ctx, suite.product.ID)
	suite.Require().NoError(err)
	suite.Nil(stored.Stock)
}

func (suite *OrderServiceTestSuite) TestGetOrderPartyOnly() {
	order := suite.placeOrder(1)

	_, err := suite.svc.GetOrder(suite.ctx, order.ID, suite.buyerID)
	suite.NoError(err)
	_, err = suite.svc.GetOrder(suite.ctx, order.ID, suite.sellerID)
	suite.NoError(err)
	_, err = suite.svc.GetOrder(suite.ctx, order.ID, uuid.New())
	suite.ErrorIs(err, domain.ErrForbidden)
}

func (suite *OrderServiceTestSuite) TestListOrdersByRoleAndStatus() {
	first := suite.placeOrder(1)
	suite.placeOrder(1)

	_, err := suite.svc.Transition(suite.ctx, first.ID, suite.sellerID, models.RoleSeller, models.OrderStatusRejected)
	suite.Require().NoError(err)

	orders, total, err := suite.svc.ListOrders(suite.ctx, suite.buyerID, models.RoleBuyer, OrderListParams{})
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
	suite.Len(orders, 2)

	rejected := models.OrderStatusRejected
	orders, total, err = suite.svc.ListOrders(suite.ctx, suite.sellerID, models.RoleSeller, OrderListParams{Status: &rejected})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(orders, 1)
	suite.Equal(first.ID, orders[0].ID)
}

func (suite *OrderServiceTestSuite) TestClearOrdersSkipsInFlight() {
	open := suite.placeOrder(1)
	done := suite.placeOrder(1)

	_, err := suite.svc.Transition(suite.ctx, done.ID, suite.sellerID, models.RoleSeller, models.OrderStatusRejected)
	suite.Require().NoError(err)

	deleted, err := suite.svc.ClearOrders(suite.ctx, suite.buyerID, models.RoleBuyer, nil)
	suite.Require().NoError(err)
	suite.Equal(int64(1), deleted)

	_, err = suite.store.GetOrder(suite.ctx, open.ID)
	suite.NoError(err)
	_, err = suite.store.GetOrder(suite.ctx, done.ID)
	suite.ErrorIs(err, domain.ErrNotFound)
}

func (suite *OrderServiceTestSuite) TestClearOrdersRejectsInFlightStatus() {
	pending := models.OrderStatusPending
	_, err := suite.svc.ClearOrders(suite.ctx, suite.buyerID, models.RoleBuyer, &pending)
	suite.ErrorIs(err, domain.ErrValidation)
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}
