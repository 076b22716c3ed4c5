package handlers

import (
	"net/http"

	"storefront-backend/apperrors"
	"storefront-backend/dtos"
	"storefront-backend/middleware"
	"storefront-backend/services"

	"github.com/gin-gonic/gin"
)

type WishlistHandler struct {
	Wishlists *services.WishlistService
}

func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		fail(c, apperrors.ErrUnauthorized)
		return
	}

	wl, err := h.Wishlists.Get(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       wl.ID,
		"products": dtos.NewProductResources(wl.Products),
	})
}

func (h *WishlistHandler) ToggleWishlist(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		fail(c, apperrors.ErrUnauthorized)
		return
	}
	productID, ok := paramUUID(c, "id", "product")
	if !ok {
		return
	}

	added, err := h.Wishlists.Toggle(c.Request.Context(), userID, productID)
	if err != nil {
		fail(c, err)
		return
	}

	message := "Removed from wishlist"
	if added {
		message = "Added to wishlist"
	}
	c.JSON(http.StatusOK, gin.H{"in_wishlist": added, "message": message})
}
