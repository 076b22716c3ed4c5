package services

import (
	"context"
	"errors"
	"strings"

	"storefront-backend/apperrors"
	"storefront-backend/dtos"
	"storefront-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	errCategoryTitleTaken = apperrors.Withf(apperrors.ErrConflict, "Category with this title already exists")
	errCategoryInUse      = apperrors.Withf(apperrors.ErrBadRequest, "Cannot delete category with associated products")
)

func (s *CatalogService) CreateCategory(ctx context.Context, req dtos.CategoryRequest) (*models.Category, error) {
	db := s.DB.WithContext(ctx)
	title := strings.TrimSpace(req.Title)
	if err := s.ensureTitleFree(db, title, uuid.Nil); err != nil {
		return nil, err
	}

	category := models.Category{Title: title, Description: req.Description, ImageURL: req.ImageURL}
	if err := db.Create(&category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return &category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req dtos.UpdateCategoryRequest) (*models.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	updates := map[string]any{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperrors.Withf(apperrors.ErrValidation, "title cannot be empty")
		}
		if err := s.ensureTitleFree(db, title, id); err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if len(updates) > 0 {
		if err := db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternal, err)
		}
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory removes an empty category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	var n int64
	if err := db.Model(&models.Product{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	if n > 0 {
		return nil, errCategoryInUse
	}
	if err := db.Delete(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return category, nil
}

// SetCategoryImage stores a new image URL and returns the one it replaced.
func (s *CatalogService) SetCategoryImage(ctx context.Context, id uuid.UUID, imageURL string) (string, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return "", err
	}
	previous := category.ImageURL
	if err := s.DB.WithContext(ctx).Model(category).Update("image_url", imageURL).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return previous, nil
}

func (s *CatalogService) ensureTitleFree(db *gorm.DB, title string, except uuid.UUID) error {
	var n int64
	if err := db.Model(&models.Category{}).Where("title = ? AND id <> ?", title, except).Count(&n).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, err)
	}
	if n > 0 {
		return errCategoryTitleTaken
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req dtos.ProductRequest) (*models.Product, error) {
	if err := validatePricing(*req.Price, req.DiscountPrice); err != nil {
		return nil, err
	}
	if _, err := s.GetCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product := models.Product{
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Price:         *req.Price,
		DiscountPrice: req.DiscountPrice,
		StockQuantity: req.StockQuantity,
		IsActive:      true,
		Featured:      req.Featured,
		Weight:        req.Weight,
		Dimensions:    req.Dimensions,
		ImageURL:      req.ImageURL,
		CategoryID:    req.CategoryID,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.DB.WithContext(ctx).Omit("Category", "Images").Create(&product).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return s.GetProduct(ctx, product.ID, true)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req dtos.UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id, true)
	if err != nil {
		return nil, err
	}

	price := product.Price
	if req.Price != nil {
		price = *req.Price
	}
	discount := product.DiscountPrice
	if req.DiscountPrice != nil {
		discount = req.DiscountPrice
	}
	if req.ClearDiscount {
		discount = nil
	}
	if err := validatePricing(price, discount); err != nil {
		return nil, err
	}

	updates := map[string]any{"price": price, "discount_price": discount}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperrors.Withf(apperrors.ErrValidation, "title cannot be empty")
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.StockQuantity != nil {
		updates["stock_quantity"] = *req.StockQuantity
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	if req.Weight != nil {
		updates["weight"] = *req.Weight
	}
	if req.Dimensions != nil {
		updates["dimensions"] = *req.Dimensions
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.CategoryID != nil {
		if _, err := s.GetCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *req.CategoryID
	}

	if err := s.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return s.GetProduct(ctx, id, true)
}

// DeleteProduct removes a product from the catalog, carts and wishlists.
// Orders keep pointing at the soft-deleted row. The returned product
// carries its images so the caller can clean up storage.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id, true)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM wishlist_products WHERE product_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return product, nil
}

// AddProductImages records uploaded gallery images. The first one becomes
// the main image when the product has none.
func (s *CatalogService) AddProductImages(ctx context.Context, productID uuid.UUID, urls []string, altText string) ([]models.ProductImage, error) {
	product, err := s.GetProduct(ctx, productID, true)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return []models.ProductImage{}, nil
	}

	images := make([]models.ProductImage, 0, len(urls))
	for _, u := range urls {
		images = append(images, models.ProductImage{ProductID: productID, ImageURL: u, AltText: altText})
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&images).Error; err != nil {
			return err
		}
		if product.ImageURL == "" {
			return tx.Model(&models.Product{}).Where("id = ?", productID).Update("image_url", urls[0]).Error
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return images, nil
}

// RemoveProductImage deletes a gallery image. When it was the main image,
// the oldest remaining gallery image takes its place.
func (s *CatalogService) RemoveProductImage(ctx context.Context, productID, imageID uuid.UUID) (*models.ProductImage, error) {
	product, err := s.GetProduct(ctx, productID, true)
	if err != nil {
		return nil, err
	}

	var image models.ProductImage
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND product_id = ?", imageID, productID).First(&image).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrImageNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&image).Error; err != nil {
			return err
		}
		if product.ImageURL != image.ImageURL {
			return nil
		}

		replacement := ""
		var next models.ProductImage
		err = tx.Where("product_id = ?", productID).Order("created_at ASC").First(&next).Error
		if err == nil {
			replacement = next.ImageURL
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Model(&models.Product{}).Where("id = ?", productID).Update("image_url", replacement).Error
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return &image, nil
}

func validatePricing(price decimal.Decimal, discount *decimal.Decimal) error {
	if !price.IsPositive() {
		return apperrors.Withf(apperrors.ErrValidation, "price must be greater than 0")
	}
	if discount != nil && (!discount.IsPositive() || discount.GreaterThanOrEqual(price)) {
		return apperrors.Withf(apperrors.ErrValidation, "discount_price must be greater than 0 and lower than price")
	}
	return nil
}
