package services

import (
	"context"
	"errors"

	"storefront-backend/apperrors"
	"storefront-backend/models"
	"storefront-backend/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errNoSession = apperrors.Withf(apperrors.ErrBadRequest, "Session required")

type CartService struct {
	DB       *gorm.DB
	Sessions session.Store
	Log      *zap.Logger
}

func NewCartService(db *gorm.DB, sessions session.Store, log *zap.Logger) *CartService {
	return &CartService{DB: db, Sessions: sessions, Log: log}
}

// Resolve returns the caller's cart, creating it on first use. Anonymous
// callers get an ownerless cart whose ID is remembered by their session.
func (s *CartService) Resolve(ctx context.Context, caller Caller) (*models.Cart, error) {
	db := s.DB.WithContext(ctx)
	if caller.Authenticated() {
		return accountCart(db, *caller.AccountID)
	}
	if caller.SessionToken == "" {
		return nil, errNoSession
	}

	cart, err := s.sessionCart(ctx, db, caller.SessionToken)
	if err != nil || cart != nil {
		return cart, err
	}

	cart = &models.Cart{}
	if err := db.Create(cart).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	if err := s.Sessions.SetCartID(ctx, caller.SessionToken, cart.ID); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return cart, nil
}

// Peek returns the caller's cart with items loaded, or an empty unsaved
// cart when none exists yet. It never creates anything.
func (s *CartService) Peek(ctx context.Context, caller Caller) (*models.Cart, error) {
	db := s.DB.WithContext(ctx)

	var cart *models.Cart
	switch {
	case caller.Authenticated():
		var found models.Cart
		err := db.Where("user_id = ?", *caller.AccountID).First(&found).Error
		if err == nil {
			cart = &found
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrInternal, err)
		}
	case caller.SessionToken != "":
		var err error
		if cart, err = s.sessionCart(ctx, db, caller.SessionToken); err != nil {
			return nil, err
		}
	}

	if cart == nil {
		return &models.Cart{UserID: caller.AccountID, Items: []models.CartItem{}}, nil
	}
	return s.Load(ctx, cart.ID)
}

// Load fetches a cart with its items and their products.
func (s *CartService) Load(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.created_at ASC") }).
		Preload("Items.Product").
		Preload("Items.Product.Category").
		First(&cart, "id = ?", cartID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// AddItem adds quantity of a product to the caller's cart. A request larger
// than current stock is rejected outright; adding to an existing line sums
// the quantities and silently clamps the sum to stock.
func (s *CartService) AddItem(ctx context.Context, caller Caller, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, apperrors.ErrInvalidQuantity
	}

	db := s.DB.WithContext(ctx)
	var product models.Product
	if err := db.Where("id = ? AND is_active = ?", productID, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	if quantity > product.StockQuantity {
		return nil, apperrors.ErrInsufficientStock
	}

	cart, err := s.Resolve(ctx, caller)
	if err != nil {
		return nil, err
	}

	var item models.CartItem
	err = db.Where("cart_id = ? AND product_id = ?", cart.ID, product.ID).First(&item).Error
	switch {
	case err == nil:
		item.Quantity = models.ClampToStock(item.Quantity+quantity, product.StockQuantity)
		if err := db.Model(&item).Update("quantity", item.Quantity).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternal, err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: quantity}
		if err := db.Omit("Product").Create(&item).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternal, err)
		}
	default:
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	item.Product = product
	return &item, nil
}

// UpdateItem sets a line's quantity. Zero or less removes the line and
// reports removed=true even if it was already gone.
func (s *CartService) UpdateItem(ctx context.Context, caller Caller, itemID uuid.UUID, quantity int) (item *models.CartItem, removed bool, err error) {
	cartID, err := s.ownedCartID(ctx, caller)
	if err != nil {
		return nil, false, err
	}
	db := s.DB.WithContext(ctx)

	if quantity <= 0 {
		if cartID != uuid.Nil {
			if err := db.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{}).Error; err != nil {
				return nil, false, apperrors.Wrap(apperrors.ErrInternal, err)
			}
		}
		return nil, true, nil
	}

	if cartID == uuid.Nil {
		return nil, false, apperrors.ErrCartItemNotFound
	}

	var line models.CartItem
	if err := db.Preload("Product").Where("id = ? AND cart_id = ?", itemID, cartID).First(&line).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperrors.ErrCartItemNotFound
		}
		return nil, false, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	if quantity > line.Product.StockQuantity {
		return nil, false, apperrors.ErrInsufficientStock
	}

	line.Quantity = quantity
	if err := db.Model(&line).Update("quantity", quantity).Error; err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return &line, false, nil
}

// RemoveItem deletes a line from the caller's cart. Lines in other carts
// are reported as not found.
func (s *CartService) RemoveItem(ctx context.Context, caller Caller, itemID uuid.UUID) error {
	cartID, err := s.ownedCartID(ctx, caller)
	if err != nil {
		return err
	}
	if cartID == uuid.Nil {
		return apperrors.ErrCartItemNotFound
	}

	res := s.DB.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternal, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrCartItemNotFound
	}
	return nil
}

// Clear empties the caller's cart, keeping the cart itself.
func (s *CartService) Clear(ctx context.Context, caller Caller) error {
	cartID, err := s.ownedCartID(ctx, caller)
	if err != nil || cartID == uuid.Nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return nil
}

// MergeSessionCart folds the session's anonymous cart into the account cart,
// summing quantities per product and clamping to stock. The anonymous cart
// is deleted and the session forgets it. Running it again is a no-op.
func (s *CartService) MergeSessionCart(ctx context.Context, accountID uuid.UUID, token string) error {
	if token == "" {
		return nil
	}
	sessionCartID, ok, err := s.Sessions.CartID(ctx, token)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, err)
	}
	if !ok {
		return nil
	}

	merged := 0
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var anon models.Cart
		err := tx.Preload("Items").Preload("Items.Product").
			Where("id = ? AND user_id IS NULL", sessionCartID).First(&anon).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := accountCart(tx, accountID)
		if err != nil {
			return err
		}

		for _, line := range anon.Items {
			var existing models.CartItem
			err := tx.Where("cart_id = ? AND product_id = ?", target.ID, line.ProductID).First(&existing).Error
			found := err == nil
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			quantity := models.ClampToStock(existing.Quantity+line.Quantity, line.Product.StockQuantity)
			switch {
			case quantity == 0 && found:
				err = tx.Delete(&existing).Error
			case quantity == 0:
				continue
			case found:
				err = tx.Model(&existing).Update("quantity", quantity).Error
			default:
				err = tx.Create(&models.CartItem{CartID: target.ID, ProductID: line.ProductID, Quantity: quantity}).Error
			}
			if err != nil {
				return err
			}
			merged++
		}

		if err := tx.Where("cart_id = ?", anon.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&anon).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, err)
	}

	if err := s.Sessions.ClearCartID(ctx, token); err != nil {
		s.Log.Warn("failed to clear session cart reference", zap.Error(err))
	}
	s.Log.Info("merged session cart",
		zap.String("account_id", accountID.String()),
		zap.String("session_cart_id", sessionCartID.String()),
		zap.Int("lines", merged),
	)
	return nil
}

// ownedCartID returns the caller's cart ID without creating a cart, or
// uuid.Nil when the caller has none.
func (s *CartService) ownedCartID(ctx context.Context, caller Caller) (uuid.UUID, error) {
	db := s.DB.WithContext(ctx)
	if caller.Authenticated() {
		var cart models.Cart
		err := db.Select("id").Where("user_id = ?", *caller.AccountID).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, nil
		}
		if err != nil {
			return uuid.Nil, apperrors.Wrap(apperrors.ErrInternal, err)
		}
		return cart.ID, nil
	}
	if caller.SessionToken == "" {
		return uuid.Nil, nil
	}
	cart, err := s.sessionCart(ctx, db, caller.SessionToken)
	if err != nil || cart == nil {
		return uuid.Nil, err
	}
	return cart.ID, nil
}

// sessionCart returns the ownerless cart the session points at, or nil if
// the reference is missing or stale.
func (s *CartService) sessionCart(ctx context.Context, db *gorm.DB, token string) (*models.Cart, error) {
	cartID, ok, err := s.Sessions.CartID(ctx, token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	if !ok {
		return nil, nil
	}

	var cart models.Cart
	err = db.Where("id = ? AND user_id IS NULL", cartID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return &cart, nil
}

// accountCart finds or creates the cart owned by accountID.
func accountCart(db *gorm.DB, accountID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := db.Where("user_id = ?", accountID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	cart = models.Cart{UserID: &accountID}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&cart)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, res.Error)
	}
	if res.RowsAffected == 1 {
		return &cart, nil
	}

	// A concurrent request created it first.
	var existing models.Cart
	if err := db.Where("user_id = ?", accountID).First(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return &existing, nil
}
