// internal/services/review_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kofiasare/campusmart-backend/internal/domain"
	"github.com/kofiasare/campusmart-backend/internal/models"
	"github.com/kofiasare/campusmart-backend/internal/repository"
	"github.com/kofiasare/campusmart-backend/internal/utils"
)

type ReviewService struct {
	store         repository.Store
	notifications *NotificationService
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

func NewReviewService(store repository.Store, notifications *NotificationService) *ReviewService {
	return &ReviewService{
		store:         store,
		notifications: notifications,
	}
}

// CreateReview lets the buyer of a delivered order rate its product, once.
func (s *ReviewService) CreateReview(ctx context.Context, orderID, buyerID uuid.UUID, req *CreateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, domain.ErrForbidden
	}
	if order.Status != models.OrderStatusDelivered {
		return nil, fmt.Errorf("%w: only delivered orders can be reviewed", domain.ErrValidation)
	}

	if _, err := s.store.GetReviewByOrder(ctx, orderID); err == nil {
		return nil, fmt.Errorf("%w: order already reviewed", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	review := &models.Review{
		OrderID:   order.ID,
		ProductID: order.ProductID,
		BuyerID:   order.BuyerID,
		SellerID:  order.SellerID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	orderRef := order.ID
	if _, err := s.notifications.Dispatch(ctx,
		SellerRecipient(order.SellerID),
		"New review",
		fmt.Sprintf("%s received a %d-star review.", order.Product.Title, req.Rating),
		models.NotificationTypeReview,
		&orderRef,
	); err != nil {
		logrus.WithField("order_id", order.ID).WithError(err).Error("Failed to dispatch review notification")
	}

	return review, nil
}
