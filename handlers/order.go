package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"storefront-backend/apperrors"
	"storefront-backend/dtos"
	"storefront-backend/logger"
	"storefront-backend/middleware"
	"storefront-backend/models"
	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	Orders *services.OrderService
	Log    *zap.Logger
}

// PaymentPath is where the client fetches the payment form for an order.
func PaymentPath(o *models.Order) string {
	return "/api/payment/" + o.ID.String()
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dtos.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.Orders.Checkout(c.Request.Context(), middleware.CallerFrom(c), services.CheckoutRequest{
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		BillingAddress:  strings.TrimSpace(req.BillingAddress),
		Phone:           strings.TrimSpace(req.Phone),
		Email:           strings.TrimSpace(req.Email),
		Notes:           req.Notes,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Order placed successfully",
		"order":       dtos.NewOrderResource(*order),
		"payment_url": PaymentPath(order),
	})
}

func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		fail(c, apperrors.ErrUnauthorized)
		return
	}

	orders, err := h.Orders.ListOrders(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewOrderResources(orders))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		fail(c, apperrors.ErrUnauthorized)
		return
	}
	id, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.Orders.GetOrder(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewOrderResource(*order))
}

// GetAllOrders is the admin listing across accounts.
func (h *OrderHandler) GetAllOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > dtos.MaxListLimit {
		limit = dtos.DefaultListLimit
	}

	filter := services.OrderFilter{Limit: limit, Offset: (page - 1) * limit}
	if status := c.Query("status"); status != "" {
		filter.Status = models.OrderStatus(status)
		if !models.IsValidStatus(filter.Status) {
			fail(c, apperrors.ErrInvalidStatus)
			return
		}
	}

	orders, total, err := h.Orders.FindOrders(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": dtos.NewOrderResources(orders),
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}
	var req dtos.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.Orders.UpdateStatus(c.Request.Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		fail(c, err)
		return
	}

	logger.FromContext(c, h.Log).Info("admin changed order status",
		zap.String("order_id", order.ID.String()),
		zap.String("status", req.Status),
		zap.String("admin", c.GetString(middleware.UserEmailKey)),
	)
	c.JSON(http.StatusOK, dtos.NewOrderResource(*order))
}
