package services

import (
	"context"
	"errors"

	"storefront-backend/apperrors"
	"storefront-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WishlistService struct {
	DB *gorm.DB
}

func NewWishlistService(db *gorm.DB) *WishlistService {
	return &WishlistService{DB: db}
}

// Get returns the account's wishlist, creating an empty one on first use.
func (s *WishlistService) Get(ctx context.Context, accountID uuid.UUID) (*models.Wishlist, error) {
	db := s.DB.WithContext(ctx)
	wl, err := s.findOrCreate(db, accountID)
	if err != nil {
		return nil, err
	}
	if err := db.Preload("Products").First(wl, "id = ?", wl.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	if wl.Products == nil {
		wl.Products = []models.Product{}
	}
	return wl, nil
}

// Toggle adds the product if absent and removes it if present. It reports
// whether the product is in the wishlist afterwards.
func (s *WishlistService) Toggle(ctx context.Context, accountID, productID uuid.UUID) (bool, error) {
	db := s.DB.WithContext(ctx)

	var product models.Product
	if err := db.Where("id = ?", productID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.ErrProductNotFound
		}
		return false, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	wl, err := s.findOrCreate(db, accountID)
	if err != nil {
		return false, err
	}

	var n int64
	if err := db.Table("wishlist_products").
		Where("wishlist_id = ? AND product_id = ?", wl.ID, productID).Count(&n).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	assoc := db.Omit("Products.*").Model(wl).Association("Products")
	if n > 0 {
		if err := assoc.Delete(&product); err != nil {
			return false, apperrors.Wrap(apperrors.ErrInternal, err)
		}
		return false, nil
	}
	if err := assoc.Append(&product); err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return true, nil
}

func (s *WishlistService) findOrCreate(db *gorm.DB, accountID uuid.UUID) (*models.Wishlist, error) {
	var wl models.Wishlist
	err := db.Where("user_id = ?", accountID).First(&wl).Error
	if err == nil {
		return &wl, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	wl = models.Wishlist{UserID: accountID}
	if err := db.Create(&wl).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return &wl, nil
}
