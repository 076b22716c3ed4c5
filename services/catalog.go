package services

import (
	"context"
	"errors"
	"strings"

	"storefront-backend/apperrors"
	"storefront-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ProductsPerPage = 12
	FeaturedLimit   = 4
	RelatedLimit    = 4
)

type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

type ProductQuery struct {
	CategoryID *uuid.UUID
	Search     string
	Sort       string // price_low, price_high, name; anything else is newest first
	Page       int
}

type ProductPage struct {
	Products   []models.Product `json:"products"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Total      int64            `json:"total"`
	HasNext    bool             `json:"has_next"`
	HasPrev    bool             `json:"has_previous"`
}

// ListProducts returns one page of active products. Pages below 1 become
// the first page and pages past the end become the last.
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	query := s.DB.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)
	if q.CategoryID != nil {
		query = query.Where("category_id = ?", *q.CategoryID)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		like := containsPattern(search)
		query = query.Where(`LOWER(title) LIKE LOWER(?) ESCAPE '\' OR LOWER(description) LIKE LOWER(?) ESCAPE '\'`, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	totalPages := int((total + ProductsPerPage - 1) / ProductsPerPage)
	if totalPages < 1 {
		totalPages = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	products := []models.Product{}
	err := query.Preload("Category").
		Order(sortOrder(q.Sort)).
		Limit(ProductsPerPage).Offset((page - 1) * ProductsPerPage).
		Find(&products).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	return &ProductPage{
		Products:   products,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}, nil
}

func sortOrder(sort string) string {
	switch sort {
	case "price_low":
		return "price ASC"
	case "price_high":
		return "price DESC"
	case "name":
		return "title ASC"
	default:
		return "created_at DESC"
	}
}

func (s *CatalogService) Featured(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.DB.WithContext(ctx).Preload("Category").
		Where("featured = ? AND is_active = ?", true, true).
		Order("created_at DESC").Limit(FeaturedLimit).
		Find(&products).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return products, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.DB.WithContext(ctx).Order("title ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return categories, nil
}

type ProductDetail struct {
	Product       models.Product   `json:"product"`
	Reviews       []models.Review  `json:"reviews"`
	AverageRating *float64         `json:"average_rating"`
	Related       []models.Product `json:"related_products"`
}

// ProductDetail loads an active product with its reviews (newest first),
// average rating and up to four other active products from its category.
func (s *CatalogService) ProductDetail(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	db := s.DB.WithContext(ctx)

	var product models.Product
	err := db.Preload("Category").Preload("Images").
		Where("id = ? AND is_active = ?", id, true).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	detail := &ProductDetail{Product: product, Reviews: []models.Review{}, Related: []models.Product{}}

	if err := db.Preload("User").Where("product_id = ?", id).
		Order("created_at DESC").Find(&detail.Reviews).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	if len(detail.Reviews) > 0 {
		sum := 0
		for _, r := range detail.Reviews {
			sum += r.Rating
		}
		avg := float64(sum) / float64(len(detail.Reviews))
		detail.AverageRating = &avg
	}

	if err := db.Where("category_id = ? AND is_active = ? AND id <> ?", product.CategoryID, true, product.ID).
		Order("created_at DESC").Limit(RelatedLimit).Find(&detail.Related).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return detail, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := s.DB.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return &category, nil
}

// ProductFilter is the field-lookup filter of the resource API. Nil
// fields are not applied.
type ProductFilter struct {
	CategoryID      *uuid.UUID
	Featured        *bool
	Price           *decimal.Decimal
	PriceGt         *decimal.Decimal
	PriceGte        *decimal.Decimal
	PriceLt         *decimal.Decimal
	PriceLte        *decimal.Decimal
	TitleContains   string
	OrderBy         []string // title, price or created_at, "-" prefix for descending
	IncludeInactive bool
	Limit           int
	Offset          int
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s literally anywhere in
// the value. Use it with ESCAPE '\'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

var orderableProductFields = map[string]bool{"title": true, "price": true, "created_at": true}

// FindProducts lists products matching f together with the total match count.
func (s *CatalogService) FindProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	query := s.DB.WithContext(ctx).Model(&models.Product{})
	if !f.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if f.CategoryID != nil {
		query = query.Where("category_id = ?", *f.CategoryID)
	}
	if f.Featured != nil {
		query = query.Where("featured = ?", *f.Featured)
	}
	for op, v := range map[string]*decimal.Decimal{"=": f.Price, ">": f.PriceGt, ">=": f.PriceGte, "<": f.PriceLt, "<=": f.PriceLte} {
		if v != nil {
			query = query.Where("price "+op+" ?", *v)
		}
	}
	if f.TitleContains != "" {
		query = query.Where(`LOWER(title) LIKE LOWER(?) ESCAPE '\'`, containsPattern(f.TitleContains))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	if len(f.OrderBy) == 0 {
		query = query.Order("created_at DESC")
	}
	for _, field := range f.OrderBy {
		desc := strings.HasPrefix(field, "-")
		name := strings.TrimPrefix(field, "-")
		if !orderableProductFields[name] {
			return nil, 0, apperrors.Withf(apperrors.ErrValidation, "No matching '%s' field for ordering", name)
		}
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: name}, Desc: desc})
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit).Offset(f.Offset)
	}

	products := []models.Product{}
	if err := query.Preload("Category").Find(&products).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return products, total, nil
}

// GetProduct loads a product with its category and images. Inactive
// products are only returned when includeInactive is set.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Product, error) {
	query := s.DB.WithContext(ctx).Preload("Category").Preload("Images").Where("id = ?", id)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var product models.Product
	if err := query.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return &product, nil
}
