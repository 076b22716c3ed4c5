package dtos

import (
	"time"

	"storefront-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CategoryResource struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewCategoryResource(c models.Category) CategoryResource {
	return CategoryResource{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		CreatedAt:   c.CreatedAt,
	}
}

type ProductImageResource struct {
	ID       uuid.UUID `json:"id"`
	ImageURL string    `json:"image_url"`
	AltText  string    `json:"alt_text"`
}

// ProductResource is a product with the computed fields clients rely on.
type ProductResource struct {
	ID            uuid.UUID              `json:"id"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	Price         decimal.Decimal        `json:"price"`
	DiscountPrice *decimal.Decimal       `json:"discount_price"`
	CurrentPrice  decimal.Decimal        `json:"current_price"`
	InStock       bool                   `json:"in_stock"`
	IsOnSale      bool                   `json:"is_on_sale"`
	StockQuantity int                    `json:"stock_quantity"`
	IsActive      bool                   `json:"is_active"`
	Featured      bool                   `json:"featured"`
	Weight        *decimal.Decimal       `json:"weight"`
	Dimensions    string                 `json:"dimensions"`
	ImageURL      string                 `json:"image_url"`
	CategoryID    uuid.UUID              `json:"category_id"`
	CategoryName  string                 `json:"category_name"`
	Category      *CategoryResource      `json:"category,omitempty"`
	Images        []ProductImageResource `json:"images,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func NewProductResource(p models.Product) ProductResource {
	r := ProductResource{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		CurrentPrice:  models.EffectivePrice(p),
		InStock:       models.InStock(p),
		IsOnSale:      models.OnSale(p),
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		Featured:      p.Featured,
		Weight:        p.Weight,
		Dimensions:    p.Dimensions,
		ImageURL:      p.ImageURL,
		CategoryID:    p.CategoryID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Category.ID != uuid.Nil {
		category := NewCategoryResource(p.Category)
		r.Category = &category
		r.CategoryName = p.Category.Title
	}
	for _, img := range p.Images {
		r.Images = append(r.Images, ProductImageResource{ID: img.ID, ImageURL: img.ImageURL, AltText: img.AltText})
	}
	return r
}

func NewProductResources(products []models.Product) []ProductResource {
	out := make([]ProductResource, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductResource(p))
	}
	return out
}

type CartItemResource struct {
	ID         uuid.UUID       `json:"id"`
	CartID     uuid.UUID       `json:"cart_id"`
	Product    ProductResource `json:"product"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

func NewCartItemResource(item models.CartItem) CartItemResource {
	return CartItemResource{
		ID:         item.ID,
		CartID:     item.CartID,
		Product:    NewProductResource(item.Product),
		Quantity:   item.Quantity,
		TotalPrice: models.LineTotal(item),
		CreatedAt:  item.CreatedAt,
	}
}

type CartResource struct {
	ID         *uuid.UUID         `json:"id"`
	Items      []CartItemResource `json:"items"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	TotalItems int                `json:"total_items"`
}

// NewCartResource renders a cart. An unsaved empty cart has a null id.
func NewCartResource(cart *models.Cart) CartResource {
	r := CartResource{
		Items:      make([]CartItemResource, 0, len(cart.Items)),
		TotalPrice: models.CartTotal(cart.Items),
		TotalItems: models.CartItemCount(cart.Items),
	}
	if cart.ID != uuid.Nil {
		id := cart.ID
		r.ID = &id
	}
	for _, item := range cart.Items {
		r.Items = append(r.Items, NewCartItemResource(item))
	}
	return r
}

type OrderItemResource struct {
	ID         uuid.UUID       `json:"id"`
	OrderID    uuid.UUID       `json:"order_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Title      string          `json:"title"`
	Product    ProductResource `json:"product"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func NewOrderItemResource(item models.OrderItem) OrderItemResource {
	return OrderItemResource{
		ID:         item.ID,
		OrderID:    item.OrderID,
		ProductID:  item.ProductID,
		Title:      item.Product.Title,
		Product:    NewProductResource(item.Product),
		Quantity:   item.Quantity,
		Price:      item.Price,
		TotalPrice: models.OrderItemTotal(item),
	}
}

type OrderResource struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	OrderNumber     string              `json:"order_number"`
	Status          models.OrderStatus  `json:"status"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	ShippingAddress string              `json:"shipping_address"`
	BillingAddress  string              `json:"billing_address"`
	Phone           string              `json:"phone"`
	Email           string              `json:"email"`
	Notes           string              `json:"notes"`
	Items           []OrderItemResource `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func NewOrderResource(o models.Order) OrderResource {
	r := OrderResource{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderNumber:     o.OrderNumber,
		Status:          o.Status,
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		Phone:           o.Phone,
		Email:           o.Email,
		Notes:           o.Notes,
		Items:           make([]OrderItemResource, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, item := range o.Items {
		r.Items = append(r.Items, NewOrderItemResource(item))
	}
	return r
}

func NewOrderResources(orders []models.Order) []OrderResource {
	out := make([]OrderResource, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResource(o))
	}
	return out
}

type ReviewResource struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func NewReviewResource(r models.Review) ReviewResource {
	name := r.User.Name
	if name == "" {
		name = r.User.Email
	}
	return ReviewResource{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserName:  name,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

type UserResource struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUserResource(u models.User) UserResource {
	return UserResource{ID: u.ID, Email: u.Email, Name: u.Name, Phone: u.Phone, Role: u.Role, CreatedAt: u.CreatedAt}
}
