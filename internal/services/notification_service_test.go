// internal/services/notification_service_test.go
package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/kofiasare/campusmart-backend/internal/domain"
	"github.com/kofiasare/campusmart-backend/internal/models"
	"github.com/kofiasare/campusmart-backend/internal/realtime"
	"github.com/kofiasare/campusmart-backend/internal/repository"
)

// fakeConn records pushes and can be told to fail, standing in for a live
// websocket in service tests.
type fakeConn struct {
	mu       sync.Mutex
	sent     []interface{}
	failSend bool
	closed   bool
}

func (c *fakeConn) SendJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend {
		return errors.New("connection gone")
	}
	c.sent = append(c.sent, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) Sent() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]interface{}(nil), c.sent...)
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type NotificationServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *repository.MemoryStore
	registry *realtime.MemoryRegistry
	svc      *NotificationService
	userID   uuid.UUID
}

func (suite *NotificationServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = repository.NewMemoryStore()
	suite.registry = realtime.NewMemoryRegistry()
	suite.svc = NewNotificationService(suite.store, suite.registry)
	suite.userID = uuid.New()
}

func (suite *NotificationServiceTestSuite) TestDispatchStoresAndPushes() {
	conn := &fakeConn{}
	suite.registry.Register(suite.userID, conn)

	n, err := suite.svc.Dispatch(suite.ctx, BuyerRecipient(suite.userID), "Order accepted", "The seller accepted your order.", models.NotificationTypeOrder, nil)
	suite.Require().NoError(err)
	suite.NotEqual(uuid.Nil, n.ID)
	suite.False(n.Read)

	suite.Len(conn.Sent(), 1)

	stored, err := suite.svc.List(suite.ctx, suite.userID)
	suite.Require().NoError(err)
	suite.Len(stored, 1)
}

func (suite *NotificationServiceTestSuite) TestDispatchDurableWhenPushFails() {
	conn := &fakeConn{failSend: true}
	suite.registry.Register(suite.userID, conn)

	_, err := suite.svc.Dispatch(suite.ctx, SellerRecipient(suite.userID), "New order", "You received an order.", models.NotificationTypeOrder, nil)
	suite.Require().NoError(err)

	stored, err := suite.svc.List(suite.ctx, suite.userID)
	suite.Require().NoError(err)
	suite.Len(stored, 1)
}

func (suite *NotificationServiceTestSuite) TestDispatchDurableWhenOffline() {
	_, err := suite.svc.Dispatch(suite.ctx, BuyerRecipient(suite.userID), "Order delivered", "Your order arrived.", models.NotificationTypeOrder, nil)
	suite.Require().NoError(err)

	count, err := suite.svc.UnreadCount(suite.ctx, suite.userID)
	suite.Require().NoError(err)
	suite.Equal(int64(1), count)
}

func (suite *NotificationServiceTestSuite) TestDispatchRejectsEmptyRecipient() {
	_, err := suite.svc.Dispatch(suite.ctx, Recipient{}, "Title", "Message", models.NotificationTypeSystem, nil)
	suite.ErrorIs(err, domain.ErrValidation)

	_, err = suite.svc.Dispatch(suite.ctx, BuyerRecipient(uuid.Nil), "Title", "Message", models.NotificationTypeSystem, nil)
	suite.ErrorIs(err, domain.ErrValidation)
}

func (suite *NotificationServiceTestSuite) TestRecipientColumnsAreExclusive() {
	buyer, err := suite.svc.Dispatch(suite.ctx, BuyerRecipient(suite.userID), "A", "a", models.NotificationTypeSystem, nil)
	suite.Require().NoError(err)
	suite.NotNil(buyer.BuyerID)
	suite.Nil(buyer.SellerID)

	seller, err := suite.svc.Dispatch(suite.ctx, SellerRecipient(suite.userID), "B", "b", models.NotificationTypeSystem, nil)
	suite.Require().NoError(err)
	suite.Nil(seller.BuyerID)
	suite.NotNil(seller.SellerID)
}

func (suite *NotificationServiceTestSuite) TestListIsCapped() {
	for i := 0; i < NotificationListLimit+10; i++ {
		_, err := suite.svc.Dispatch(suite.ctx, BuyerRecipient(suite.userID), "Ping", "ping", models.NotificationTypeSystem, nil)
		suite.Require().NoError(err)
	}

	stored, err := suite.svc.List(suite.ctx, suite.userID)
	suite.Require().NoError(err)
	suite.Len(stored, NotificationListLimit)
}

func (suite *NotificationServiceTestSuite) TestMarkReadOwnership() {
	n, err := suite.svc.Dispatch(suite.ctx, BuyerRecipient(suite.userID), "Hello", "hi", models.NotificationTypeSystem, nil)
	suite.Require().NoError(err)

	err = suite.svc.MarkRead(suite.ctx, n.ID, uuid.New())
	suite.ErrorIs(err, domain.ErrForbidden)

	err = suite.svc.MarkRead(suite.ctx, n.ID, suite.userID)
	suite.Require().NoError(err)

	count, err := suite.svc.UnreadCount(suite.ctx, suite.userID)
	suite.Require().NoError(err)
	suite.Equal(int64(0), count)

	err = suite.svc.MarkRead(suite.ctx, uuid.New(), suite.userID)
	suite.ErrorIs(err, domain.ErrNotFound)
}

func (suite *NotificationServiceTestSuite) TestClearAllOnlyTouchesOwnRows() {
	other := uuid.New()
	_, err := suite.svc.Dispatch(suite.ctx, BuyerRecipient(suite.userID), "Mine", "m", models.NotificationTypeSystem, nil)
	suite.Require().NoError(err)
	_, err = suite.svc.Dispatch(suite.ctx, BuyerRecipient(other), "Theirs", "t", models.NotificationTypeSystem, nil)
	suite.Require().NoError(err)

	deleted, err := suite.svc.ClearAll(suite.ctx, suite.userID)
	suite.Require().NoError(err)
	suite.Equal(int64(1), deleted)

	remaining, err := suite.svc.List(suite.ctx, other)
	suite.Require().NoError(err)
	suite.Len(remaining, 1)
}

func TestNotificationServiceSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceTestSuite))
}
