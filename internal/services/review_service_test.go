// internal/services/review_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/kofiasare/campusmart-backend/internal/domain"
	"github.com/kofiasare/campusmart-backend/internal/models"
	"github.com/kofiasare/campusmart-backend/internal/realtime"
	"github.com/kofiasare/campusmart-backend/internal/repository"
)

type ReviewServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *repository.MemoryStore
	orders   *OrderService
	svc      *ReviewService
	buyerID  uuid.UUID
	sellerID uuid.UUID
	order    *models.Order
}

func (suite *ReviewServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = repository.NewMemoryStore()
	notifications := NewNotificationService(suite.store, realtime.NewMemoryRegistry())
	suite.orders = NewOrderService(suite.store, notifications)
	suite.svc = NewReviewService(suite.store, notifications)

	suite.buyerID = uuid.New()
	suite.sellerID = uuid.New()

	product := suite.store.SeedProduct(&models.Product{
		SellerID: suite.sellerID,
		Title:    "Desk Lamp",
		Price:    12.00,
		Status:   models.ProductStatusActive,
	})

	order, err := suite.orders.CreateOrder(suite.ctx, suite.buyerID, &CreateOrderRequest{
		ProductID: product.ID,
		Quantity:  1,
		Address:   "Hall 2, Room 4",
	})
	suite.Require().NoError(err)
	suite.order = order
}

func (suite *ReviewServiceTestSuite) deliver() {
	_, err := suite.orders.Transition(suite.ctx, suite.order.ID, suite.sellerID, models.RoleSeller, models.OrderStatusAccepted)
	suite.Require().NoError(err)
	_, err = suite.orders.Transition(suite.ctx, suite.order.ID, suite.sellerID, models.RoleSeller, models.OrderStatusDelivered)
	suite.Require().NoError(err)
}

func (suite *ReviewServiceTestSuite) TestReviewDeliveredOrder() {
	suite.deliver()

	review, err := suite.svc.CreateReview(suite.ctx, suite.order.ID, suite.buyerID, &CreateReviewRequest{
		Rating:  5,
		Comment: "Arrived same day.",
	})
	suite.Require().NoError(err)
	suite.Equal(suite.order.ProductID, review.ProductID)
	suite.Equal(suite.sellerID, review.SellerID)
}

func (suite *ReviewServiceTestSuite) TestReviewRequiresDelivery() {
	_, err := suite.svc.CreateReview(suite.ctx, suite.order.ID, suite.buyerID, &CreateReviewRequest{Rating: 4})
	suite.ErrorIs(err, domain.ErrValidation)
}

func (suite *ReviewServiceTestSuite) TestReviewBuyerOnly() {
	suite.deliver()

	_, err := suite.svc.CreateReview(suite.ctx, suite.order.ID, suite.sellerID, &CreateReviewRequest{Rating: 4})
	suite.ErrorIs(err, domain.ErrForbidden)
}

func (suite *ReviewServiceTestSuite) TestReviewOncePerOrder() {
	suite.deliver()

	_, err := suite.svc.CreateReview(suite.ctx, suite.order.ID, suite.buyerID, &CreateReviewRequest{Rating: 3})
	suite.Require().NoError(err)

	_, err = suite.svc.CreateReview(suite.ctx, suite.order.ID, suite.buyerID, &CreateReviewRequest{Rating: 1})
	suite.ErrorIs(err, domain.ErrConflict)
}

func (suite *ReviewServiceTestSuite) TestReviewNotifiesSeller() {
	suite.deliver()

	_, err := suite.svc.CreateReview(suite.ctx, suite.order.ID, suite.buyerID, &CreateReviewRequest{Rating: 5})
	suite.Require().NoError(err)

	notifications, err := suite.store.ListNotifications(suite.ctx, suite.sellerID, NotificationListLimit)
	suite.Require().NoError(err)

	var found bool
	for _, n := range notifications {
		if n.Type == models.NotificationTypeReview {
			found = true
		}
	}
	suite.True(found)
}

func TestReviewServiceSuite(t *testing.T) {
	suite.Run(t, new(ReviewServiceTestSuite))
}
