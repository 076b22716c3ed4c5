package handlers

import (
	"net/http"

	"storefront-backend/apperrors"
	"storefront-backend/dtos"
	"storefront-backend/logger"
	"storefront-backend/middleware"
	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	Payments *services.PaymentService
	Log      *zap.Logger
}

// GetPaymentForm returns the signed gateway form for one of the caller's
// orders.
func (h *PaymentHandler) GetPaymentForm(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		fail(c, apperrors.ErrUnauthorized)
		return
	}
	id, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}

	form, order, err := h.Payments.IssueForm(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":     dtos.NewOrderResource(*order),
		"action":    form.Action,
		"data":      form.Data,
		"signature": form.Signature,
		"html":      form.HTML,
	})
}

// Callback receives the gateway's server-to-server notification. It always
// answers 200 so the gateway stops retrying; outcomes are logged and
// recorded by the service.
func (h *PaymentHandler) Callback(c *gin.Context) {
	var req dtos.PaymentCallbackRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.FromContext(c, h.Log).Warn("unreadable payment callback", zap.Error(err))
	}

	outcome, err := h.Payments.HandleCallback(c.Request.Context(), req.Data, req.Signature)
	if err != nil {
		logger.FromContext(c, h.Log).Error("payment callback failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "outcome": outcome})
}
