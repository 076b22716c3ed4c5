package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Prices render as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title         string           `gorm:"not null;index" json:"title"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"price"`
	DiscountPrice *decimal.Decimal `gorm:"type:numeric(10,2)" json:"discount_price"`
	StockQuantity int              `gorm:"not null;default:0" json:"stock_quantity"`
	IsActive      bool             `gorm:"index" json:"is_active"`
	Featured      bool             `gorm:"index" json:"featured"`
	Weight        *decimal.Decimal `gorm:"type:numeric(6,2)" json:"weight,omitempty"`
	Dimensions    string           `json:"dimensions,omitempty"`
	ImageURL      string           `json:"image_url"`
	CategoryID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"category_id"`
	Category      Category         `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Images        []ProductImage   `gorm:"foreignKey:ProductID" json:"images,omitempty"`
	CreatedAt     time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
