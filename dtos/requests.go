package dtos

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required,max=150"`
	Phone    string `json:"phone" binding:"max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=150"`
	Phone *string `json:"phone" binding:"omitempty,max=20"`
}

// AddToCartRequest defaults to a quantity of one when none is sent.
type AddToCartRequest struct {
	Quantity *int `json:"quantity"`
}

// UpdateCartItemRequest allows zero, which removes the line.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
	BillingAddress  string `json:"billing_address"`
	Phone           string `json:"phone" binding:"required,max=20"`
	Email           string `json:"email" binding:"required,email"`
	Notes           string `json:"notes"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required"`
}

type PaymentCallbackRequest struct {
	Data      string `json:"data" form:"data"`
	Signature string `json:"signature" form:"signature"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
}

type CategoryRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type UpdateCategoryRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=100"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

type ProductRequest struct {
	Title         string           `json:"title" binding:"required,max=200"`
	Description   string           `json:"description"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	StockQuantity int              `json:"stock_quantity" binding:"min=0"`
	IsActive      *bool            `json:"is_active"`
	Featured      bool             `json:"featured"`
	Weight        *decimal.Decimal `json:"weight"`
	Dimensions    string           `json:"dimensions" binding:"max=100"`
	ImageURL      string           `json:"image_url"`
	CategoryID    uuid.UUID        `json:"category_id" binding:"required"`
}

// UpdateProductRequest is a partial update; absent fields are left alone.
type UpdateProductRequest struct {
	Title         *string          `json:"title" binding:"omitempty,max=200"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	ClearDiscount bool             `json:"clear_discount"`
	StockQuantity *int             `json:"stock_quantity" binding:"omitempty,min=0"`
	IsActive      *bool            `json:"is_active"`
	Featured      *bool            `json:"featured"`
	Weight        *decimal.Decimal `json:"weight"`
	Dimensions    *string          `json:"dimensions" binding:"omitempty,max=100"`
	ImageURL      *string          `json:"image_url"`
	CategoryID    *uuid.UUID       `json:"category_id"`
}

// CartItemCreateRequest adds a line through the resource API.
type CartItemCreateRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  *int      `json:"quantity"`
}

type CartLine struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"min=1"`
}

// CartReplaceRequest replaces the whole cart content.
type CartReplaceRequest struct {
	Items []CartLine `json:"items" binding:"dive"`
}
