package handlers

import (
	"net/http"

	"storefront-backend/apperrors"
	"storefront-backend/dtos"
	"storefront-backend/middleware"
	"storefront-backend/models"
	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIHandler serves the resource API under /api/v1. Lists answer with a
// {meta, objects} envelope paged by limit and offset.
type APIHandler struct {
	Catalog *services.CatalogService
	Carts   *services.CartService
	Orders  *services.OrderService
}

// pageOf slices an in-memory list the same way the database-backed lists
// are paged.
func pageOf[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	return all[offset:min(offset+limit, len(all))]
}

func (h *APIHandler) ListCategories(c *gin.Context) {
	categories, err := h.Catalog.Categories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]dtos.CategoryResource, 0, len(categories))
	for _, cat := range categories {
		out = append(out, dtos.NewCategoryResource(cat))
	}

	limit, offset := dtos.ParseLimitOffset(c.Request.URL.Query())
	c.JSON(http.StatusOK, dtos.NewList(c.Request.URL, pageOf(out, limit, offset), limit, offset, int64(len(out))))
}

func (h *APIHandler) GetCategory(c *gin.Context) {
	id, ok := paramUUID(c, "id", "category")
	if !ok {
		return
	}
	category, err := h.Catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewCategoryResource(*category))
}

// ListProducts applies the product lookups. Staff also see inactive
// products.
func (h *APIHandler) ListProducts(c *gin.Context) {
	q := c.Request.URL.Query()
	filter, err := ParseProductFilter(q)
	if err != nil {
		fail(c, err)
		return
	}
	filter.IncludeInactive = middleware.IsAdmin(c)
	filter.Limit, filter.Offset = dtos.ParseLimitOffset(q)

	products, total, err := h.Catalog.FindProducts(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewList(c.Request.URL, dtos.NewProductResources(products), filter.Limit, filter.Offset, total))
}

func (h *APIHandler) GetProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id", "product")
	if !ok {
		return
	}
	product, err := h.Catalog.GetProduct(c.Request.Context(), id, middleware.IsAdmin(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewProductResource(*product))
}

func (h *APIHandler) CreateProduct(c *gin.Context) {
	var req dtos.ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.Catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.NewProductResource(*product))
}

func (h *APIHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id", "product")
	if !ok {
		return
	}
	var req dtos.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.Catalog.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewProductResource(*product))
}

func (h *APIHandler) DeleteProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id", "product")
	if !ok {
		return
	}
	if _, err := h.Catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) GetCart(c *gin.Context) {
	cart, err := h.Carts.Peek(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewCartResource(cart))
}

// CreateCart makes sure the caller has a cart.
func (h *APIHandler) CreateCart(c *gin.Context) {
	ctx := c.Request.Context()
	caller := middleware.CallerFrom(c)
	if _, err := h.Carts.Resolve(ctx, caller); err != nil {
		fail(c, err)
		return
	}
	cart, err := h.Carts.Peek(ctx, caller)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.NewCartResource(cart))
}

// ReplaceCart empties the cart and adds the given lines. Lines are added
// one by one with the usual stock rules; the first failure stops the
// replacement and is reported.
func (h *APIHandler) ReplaceCart(c *gin.Context) {
	var req dtos.CartReplaceRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	caller := middleware.CallerFrom(c)
	if err := h.Carts.Clear(ctx, caller); err != nil {
		fail(c, err)
		return
	}
	for _, line := range req.Items {
		if _, err := h.Carts.AddItem(ctx, caller, line.ProductID, line.Quantity); err != nil {
			fail(c, err)
			return
		}
	}

	cart, err := h.Carts.Peek(ctx, caller)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewCartResource(cart))
}

func (h *APIHandler) ClearCart(c *gin.Context) {
	if err := h.Carts.Clear(c.Request.Context(), middleware.CallerFrom(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) ListCartItems(c *gin.Context) {
	cart, err := h.Carts.Peek(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]dtos.CartItemResource, 0, len(cart.Items))
	for _, item := range cart.Items {
		out = append(out, dtos.NewCartItemResource(item))
	}

	limit, offset := dtos.ParseLimitOffset(c.Request.URL.Query())
	c.JSON(http.StatusOK, dtos.NewList(c.Request.URL, pageOf(out, limit, offset), limit, offset, int64(len(out))))
}

func (h *APIHandler) GetCartItem(c *gin.Context) {
	id, ok := paramUUID(c, "id", "cart item")
	if !ok {
		return
	}
	item, err := h.findCartItem(c, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewCartItemResource(*item))
}

func (h *APIHandler) CreateCartItem(c *gin.Context) {
	var req dtos.CartItemCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, err := h.Carts.AddItem(c.Request.Context(), middleware.CallerFrom(c), req.ProductID, quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.NewCartItemResource(*item))
}

// UpdateCartItem sets the quantity; zero deletes the line and answers 204.
func (h *APIHandler) UpdateCartItem(c *gin.Context) {
	id, ok := paramUUID(c, "id", "cart item")
	if !ok {
		return
	}
	var req dtos.UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, removed, err := h.Carts.UpdateItem(c.Request.Context(), middleware.CallerFrom(c), id, *req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	if removed {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, dtos.NewCartItemResource(*item))
}

func (h *APIHandler) DeleteCartItem(c *gin.Context) {
	id, ok := paramUUID(c, "id", "cart item")
	if !ok {
		return
	}
	if err := h.Carts.RemoveItem(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) findCartItem(c *gin.Context, id uuid.UUID) (*models.CartItem, error) {
	cart, err := h.Carts.Peek(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		return nil, err
	}
	for i := range cart.Items {
		if cart.Items[i].ID == id {
			return &cart.Items[i], nil
		}
	}
	return nil, apperrors.ErrCartItemNotFound
}

// ListOrders lists the caller's orders. Staff see every account and may
// filter by user.
func (h *APIHandler) ListOrders(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	q := c.Request.URL.Query()
	limit, offset := dtos.ParseLimitOffset(q)

	filter := services.OrderFilter{UserID: &userID, Limit: limit, Offset: offset}
	if status := q.Get("status"); status != "" {
		filter.Status = models.OrderStatus(status)
		if !models.IsValidStatus(filter.Status) {
			fail(c, invalidFilter("status"))
			return
		}
	}
	if middleware.IsAdmin(c) {
		filter.UserID = nil
		if raw := q.Get("user"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				fail(c, invalidFilter("user"))
				return
			}
			filter.UserID = &id
		}
	}

	orders, total, err := h.Orders.FindOrders(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewList(c.Request.URL, dtos.NewOrderResources(orders), limit, offset, total))
}

func (h *APIHandler) GetOrder(c *gin.Context) {
	id, ok := paramUUID(c, "id", "order")
	if !ok {
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	var (
		order *models.Order
		err   error
	)
	if middleware.IsAdmin(c) {
		order, err = h.Orders.OrderByID(c.Request.Context(), id)
	} else {
		order, err = h.Orders.GetOrder(c.Request.Context(), userID, id)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewOrderResource(*order))
}

// CreateOrder checks out the caller's cart.
func (h *APIHandler) CreateOrder(c *gin.Context) {
	var req dtos.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.Orders.Checkout(c.Request.Context(), middleware.CallerFrom(c), services.CheckoutRequest{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Phone:           req.Phone,
		Email:           req.Email,
		Notes:           req.Notes,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Location", "/api/v1/orders/"+order.ID.String())
	c.JSON(http.StatusCreated, dtos.NewOrderResource(*order))
}

func (h *APIHandler) ListOrderItems(c *gin.Context) {
	limit, offset := dtos.ParseLimitOffset(c.Request.URL.Query())
	items, total, err := h.Orders.FindOrderItems(c.Request.Context(), h.orderScope(c), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]dtos.OrderItemResource, 0, len(items))
	for _, item := range items {
		out = append(out, dtos.NewOrderItemResource(item))
	}
	c.JSON(http.StatusOK, dtos.NewList(c.Request.URL, out, limit, offset, total))
}

func (h *APIHandler) GetOrderItem(c *gin.Context) {
	id, ok := paramUUID(c, "id", "order item")
	if !ok {
		return
	}
	item, err := h.Orders.GetOrderItem(c.Request.Context(), h.orderScope(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewOrderItemResource(*item))
}

// orderScope is nil for staff and the caller's ID otherwise.
func (h *APIHandler) orderScope(c *gin.Context) *uuid.UUID {
	if middleware.IsAdmin(c) {
		return nil
	}
	id, _ := middleware.CurrentUserID(c)
	return &id
}
