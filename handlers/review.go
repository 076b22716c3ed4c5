package handlers

import (
	"net/http"

	"storefront-backend/apperrors"
	"storefront-backend/dtos"
	"storefront-backend/middleware"
	"storefront-backend/services"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

// AddReview creates or replaces the caller's review of product :id.
func (h *ReviewHandler) AddReview(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		fail(c, apperrors.ErrUnauthorized)
		return
	}
	productID, ok := paramUUID(c, "id", "product")
	if !ok {
		return
	}
	var req dtos.ReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, created, err := h.Reviews.Upsert(c.Request.Context(), userID, productID, req.Rating, req.Comment)
	if err != nil {
		fail(c, err)
		return
	}

	status, message := http.StatusOK, "Your review has been updated!"
	if created {
		status, message = http.StatusCreated, "Thank you for your review!"
	}
	c.JSON(status, gin.H{
		"message": message,
		"created": created,
		"review":  dtos.NewReviewResource(*review),
	})
}
