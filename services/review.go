package services

import (
	"context"
	"errors"
	"strings"

	"storefront-backend/apperrors"
	"storefront-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewService struct {
	DB *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{DB: db}
}

// Upsert creates the account's review of a product or updates the one it
// already wrote.
func (s *ReviewService) Upsert(ctx context.Context, accountID, productID uuid.UUID, rating int, comment string) (*models.Review, bool, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, false, apperrors.Withf(apperrors.ErrInvalidRating, "Rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, false, apperrors.Withf(apperrors.ErrValidation, "comment is required")
	}

	db := s.DB.WithContext(ctx)
	var product models.Product
	if err := db.Select("id").Where("id = ?", productID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperrors.ErrProductNotFound
		}
		return nil, false, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	var author models.User
	if err := db.Where("id = ?", accountID).First(&author).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperrors.ErrUnauthorized
		}
		return nil, false, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	var review models.Review
	err := db.Where("product_id = ? AND user_id = ?", productID, accountID).First(&review).Error
	switch {
	case err == nil:
		review.Rating = rating
		review.Comment = comment
		if err := db.Model(&review).Updates(map[string]any{"rating": rating, "comment": comment}).Error; err != nil {
			return nil, false, apperrors.Wrap(apperrors.ErrInternal, err)
		}
		review.User = author
		return &review, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		review = models.Review{ProductID: productID, UserID: accountID, Rating: rating, Comment: comment}
		if err := db.Omit("User").Create(&review).Error; err != nil {
			return nil, false, apperrors.Wrap(apperrors.ErrInternal, err)
		}
		review.User = author
		return &review, true, nil
	default:
		return nil, false, apperrors.Wrap(apperrors.ErrInternal, err)
	}
}
