// internal/handlers/order.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kofiasare/campusmart-backend/internal/models"
	"github.com/kofiasare/campusmart-backend/internal/services"
	"github.com/kofiasare/campusmart-backend/internal/utils"
)

type OrderHandler struct {
	orderService  *services.OrderService
	reviewService *services.ReviewService
}

func NewOrderHandler(orderService *services.OrderService, reviewService *services.ReviewService) *OrderHandler {
	return &OrderHandler{
		orderService:  orderService,
		reviewService: reviewService,
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), buyerID, &req)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	callerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID, callerID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	role, _ := utils.GetUserRoleFromContext(c)

	params := services.OrderListParams{}
	if raw := c.Query("status"); raw != "" {
		status := models.OrderStatus(raw)
		if !status.Valid() {
			utils.BadRequestResponse(c, "Unknown order status", nil)
			return
		}
		params.Status = &status
	}
	params.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	params.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), userID, models.UserRole(role), params)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, orders, gin.H{"total": total})
}

// UpdateStatus applies one lifecycle transition. The caller names only the
// target status; which transitions are legal for whom is decided server-side.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	callerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	role, _ := utils.GetUserRoleFromContext(c)

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "status is required", nil)
		return
	}

	order, err := h.orderService.Transition(c.Request.Context(), orderID, callerID, models.UserRole(role), req.Status)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

func (h *OrderHandler) ClearOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	role, _ := utils.GetUserRoleFromContext(c)

	var status *models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		parsed := models.OrderStatus(raw)
		if !parsed.Valid() {
			utils.BadRequestResponse(c, "Unknown order status", nil)
			return
		}
		status = &parsed
	}

	deleted, err := h.orderService.ClearOrders(c.Request.Context(), userID, models.UserRole(role), status)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": deleted})
}

func (h *OrderHandler) CreateReview(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	var req services.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), orderID, buyerID, &req)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, review)
}
