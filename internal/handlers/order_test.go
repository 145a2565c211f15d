// internal/handlers/order_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/kofiasare/campusmart-backend/internal/middleware"
	"github.com/kofiasare/campusmart-backend/internal/models"
	"github.com/kofiasare/campusmart-backend/internal/realtime"
	"github.com/kofiasare/campusmart-backend/internal/repository"
	"github.com/kofiasare/campusmart-backend/internal/services"
	"github.com/kofiasare/campusmart-backend/internal/utils"
)

type OrderHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	store       *repository.MemoryStore
	buyerID     uuid.UUID
	sellerID    uuid.UUID
	buyerToken  string
	sellerToken string
	product     *models.Product
}

func (suite *OrderHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.store = repository.NewMemoryStore()
	registry := realtime.NewMemoryRegistry()
	notificationService := services.NewNotificationService(suite.store, registry)
	orderService := services.NewOrderService(suite.store, notificationService)
	reviewService := services.NewReviewService(suite.store, notificationService)
	orderHandler := NewOrderHandler(orderService, reviewService)

	suite.router = gin.New()
	orders := suite.router.Group("/v1/orders")
	orders.Use(middleware.AuthRequired())
	{
		orders.POST("", middleware.RoleRequired(models.RoleBuyer), orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.PATCH("/:id/status", orderHandler.UpdateStatus)
	}

	suite.buyerID = uuid.New()
	suite.sellerID = uuid.New()

	var err error
	suite.buyerToken, err = utils.GenerateJWT(suite.buyerID, "buyer1", string(models.RoleBuyer), 1)
	suite.Require().NoError(err)
	suite.sellerToken, err = utils.GenerateJWT(suite.sellerID, "seller1", string(models.RoleSeller), 1)
	suite.Require().NoError(err)

	stock := 2
	suite.product = suite.store.SeedProduct(&models.Product{
		SellerID: suite.sellerID,
		Title:    "Bike Lock",
		Price:    9.99,
		Stock:    &stock,
		Status:   models.ProductStatusActive,
	})
}

func (suite *OrderHandlerTestSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *OrderHandlerTestSuite) createOrder() uuid.UUID {
	w := suite.request("POST", "/v1/orders", suite.buyerToken, gin.H{
		"product_id": suite.product.ID,
		"quantity":   1,
		"address":    "Hall 3, Room 18",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var response struct {
		Success bool         `json:"success"`
		Data    models.Order `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Require().True(response.Success)
	return response.Data.ID
}

func (suite *OrderHandlerTestSuite) TestCreateOrder() {
	orderID := suite.createOrder()
	suite.NotEqual(uuid.Nil, orderID)
}

func (suite *OrderHandlerTestSuite) TestCreateOrderRequiresAuth() {
	w := suite.request("POST", "/v1/orders", "", gin.H{
		"product_id": suite.product.ID,
		"quantity":   1,
		"address":    "Hall 3, Room 18",
	})
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *OrderHandlerTestSuite) TestSellerCannotPlaceOrders() {
	w := suite.request("POST", "/v1/orders", suite.sellerToken, gin.H{
		"product_id": suite.product.ID,
		"quantity":   1,
		"address":    "Hall 3, Room 18",
	})
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *OrderHandlerTestSuite) TestSellerAcceptsOrder() {
	orderID := suite.createOrder()

	w := suite.request("PATCH", fmt.Sprintf("/v1/orders/%s/status", orderID), suite.sellerToken, gin.H{
		"status": "accepted",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Data models.Order `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal(models.OrderStatusAccepted, response.Data.Status)
}

func (suite *OrderHandlerTestSuite) TestBuyerCannotAccept() {
	orderID := suite.createOrder()

	w := suite.request("PATCH", fmt.Sprintf("/v1/orders/%s/status", orderID), suite.buyerToken, gin.H{
		"status": "accepted",
	})
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *OrderHandlerTestSuite) TestCancelAcceptedConflicts() {
	orderID := suite.createOrder()

	w := suite.request("PATCH", fmt.Sprintf("/v1/orders/%s/status", orderID), suite.sellerToken, gin.H{
		"status": "accepted",
	})
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request("PATCH", fmt.Sprintf("/v1/orders/%s/status", orderID), suite.buyerToken, gin.H{
		"status": "cancelled",
	})
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *OrderHandlerTestSuite) TestUnknownStatusRejected() {
	orderID := suite.createOrder()

	w := suite.request("PATCH", fmt.Sprintf("/v1/orders/%s/status", orderID), suite.sellerToken, gin.H{
		"status": "teleported",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *OrderHandlerTestSuite) TestStrangerCannotReadOrder() {
	orderID := suite.createOrder()

	strangerToken, err := utils.GenerateJWT(uuid.New(), "stranger", string(models.RoleBuyer), 1)
	suite.Require().NoError(err)

	w := suite.request("GET", fmt.Sprintf("/v1/orders/%s", orderID), strangerToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *OrderHandlerTestSuite) TestListOrders() {
	suite.createOrder()
	suite.createOrder()

	w := suite.request("GET", "/v1/orders", suite.buyerToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response struct {
		Success bool           `json:"success"`
		Data    []models.Order `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.True(response.Success)
	suite.Len(response.Data, 2)
}

func TestOrderHandlerSuite(t *testing.T) {
	suite.Run(t, new(OrderHandlerTestSuite))
}
