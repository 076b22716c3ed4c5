package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"storefront-backend/dtos"
	"storefront-backend/middleware"
	"storefront-backend/services"
	"storefront-backend/utils"

	"github.com/gin-gonic/gin"
)

// CartHandler serves the cart to accounts and anonymous sessions alike.
type CartHandler struct {
	Carts *services.CartService
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.Carts.Peek(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewCartResource(cart))
}

// AddToCart adds the product named by :id. The quantity defaults to one.
func (h *CartHandler) AddToCart(c *gin.Context) {
	productID, ok := paramUUID(c, "id", "product")
	if !ok {
		return
	}

	var req dtos.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	caller := middleware.CallerFrom(c)
	item, err := h.Carts.AddItem(c.Request.Context(), caller, productID, quantity)
	if err != nil {
		fail(c, err)
		return
	}

	h.respond(c, http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s added to cart.", item.Product.Title),
		"item":    dtos.NewCartItemResource(*item),
	})
}

// UpdateCartItem sets the quantity of the line :id. Zero removes it.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	itemID, ok := paramUUID(c, "id", "cart item")
	if !ok {
		return
	}
	var req dtos.UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, removed, err := h.Carts.UpdateItem(c.Request.Context(), middleware.CallerFrom(c), itemID, *req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}

	if removed {
		h.respond(c, http.StatusOK, gin.H{"message": "Item removed from cart.", "removed": true})
		return
	}
	h.respond(c, http.StatusOK, gin.H{
		"message": "Cart updated.",
		"removed": false,
		"item":    dtos.NewCartItemResource(*item),
	})
}

func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	itemID, ok := paramUUID(c, "id", "cart item")
	if !ok {
		return
	}

	if err := h.Carts.RemoveItem(c.Request.Context(), middleware.CallerFrom(c), itemID); err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, gin.H{"message": "Item removed from cart."})
}

// respond adds the refreshed cart to body.
func (h *CartHandler) respond(c *gin.Context, status int, body gin.H) {
	cart, err := h.Carts.Peek(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	body["cart"] = dtos.NewCartResource(cart)
	c.JSON(status, body)
}
