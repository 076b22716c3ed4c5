package services

import (
	"context"
	"errors"
	"sort"

	"storefront-backend/apperrors"
	"storefront-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier tells customers about their orders. Implementations must not
// block the caller.
type Notifier interface {
	OrderPlaced(order *models.Order, user *models.User)
	OrderStatusChanged(order *models.Order, user *models.User)
}

type OrderService struct {
	DB       *gorm.DB
	Log      *zap.Logger
	Notifier Notifier
}

func NewOrderService(db *gorm.DB, log *zap.Logger, notifier Notifier) *OrderService {
	return &OrderService{DB: db, Log: log, Notifier: notifier}
}

type CheckoutRequest struct {
	ShippingAddress string
	BillingAddress  string
	Phone           string
	Email           string
	Notes           string
}

// Checkout converts the caller's cart into an order in one transaction:
// stock is re-checked under row locks, every line is captured at its
// current effective price, stock is decremented and the cart is emptied.
// Any failure leaves the database untouched.
func (s *OrderService) Checkout(ctx context.Context, caller Caller, req CheckoutRequest) (*models.Order, error) {
	if !caller.Authenticated() {
		return nil, apperrors.ErrUnauthorized
	}
	accountID := *caller.AccountID

	var order models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", accountID).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrEmptyCart
		}
		if err != nil {
			return err
		}

		var lines []models.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Order("created_at ASC").Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperrors.ErrEmptyCart
		}

		// Lock products in a stable order so concurrent checkouts cannot deadlock.
		productIDs := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			productIDs = append(productIDs, line.ProductID)
		}
		sort.Slice(productIDs, func(i, j int) bool { return productIDs[i].String() < productIDs[j].String() })

		var products []models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", productIDs).Order("id").Find(&products).Error; err != nil {
			return err
		}
		byID := make(map[uuid.UUID]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			product, ok := byID[line.ProductID]
			if !ok || !product.IsActive {
				return apperrors.Withf(apperrors.ErrStockChanged, "A product in your cart is no longer available.")
			}
			if product.StockQuantity < line.Quantity {
				return apperrors.Withf(apperrors.ErrStockChanged,
					"Not enough stock for %s. Available: %d", product.Title, product.StockQuantity)
			}
			price := models.EffectivePrice(product)
			total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			items = append(items, models.OrderItem{ProductID: product.ID, Quantity: line.Quantity, Price: price})
		}

		order = models.Order{
			UserID:          accountID,
			Status:          models.OrderStatusPending,
			TotalAmount:     total,
			ShippingAddress: req.ShippingAddress,
			BillingAddress:  req.BillingAddress,
			Phone:           req.Phone,
			Email:           req.Email,
			Notes:           req.Notes,
		}
		if order.BillingAddress == "" {
			order.BillingAddress = order.ShippingAddress
		}
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Omit(clause.Associations).Create(&items[i]).Error; err != nil {
				return err
			}
			res := tx.Model(&models.Product{}).Where("id = ?", items[i].ProductID).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", items[i].Quantity))
			if res.Error != nil {
				return res.Error
			}
		}

		return tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	loaded, err := s.load(ctx, "id = ?", order.ID)
	if err != nil {
		return nil, err
	}

	s.Log.Info("order placed",
		zap.String("order_id", loaded.ID.String()),
		zap.String("order_number", loaded.OrderNumber),
		zap.String("total", loaded.TotalAmount.StringFixed(2)),
		zap.Int("items", len(loaded.Items)),
	)
	if s.Notifier != nil {
		s.Notifier.OrderPlaced(loaded, &loaded.User)
	}
	return loaded, nil
}

// OrderFilter narrows FindOrders. A nil UserID means every account.
type OrderFilter struct {
	UserID *uuid.UUID
	Status models.OrderStatus
	Limit  int
	Offset int
}

// FindOrders lists orders newest first together with the total match count.
func (s *OrderService) FindOrders(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	query := s.DB.WithContext(ctx).Model(&models.Order{})
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	query = query.Preload("Items").Preload("Items.Product", withDeleted).Order("created_at DESC")
	if f.Limit > 0 {
		query = query.Limit(f.Limit).Offset(f.Offset)
	}

	orders := []models.Order{}
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return orders, total, nil
}

func (s *OrderService) ListOrders(ctx context.Context, accountID uuid.UUID) ([]models.Order, error) {
	orders, _, err := s.FindOrders(ctx, OrderFilter{UserID: &accountID})
	return orders, err
}

// GetOrder returns one of the account's orders. Orders belonging to other
// accounts are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, accountID, orderID uuid.UUID) (*models.Order, error) {
	return s.load(ctx, "id = ? AND user_id = ?", orderID, accountID)
}

// OrderByID loads any order regardless of owner. Reserved for staff.
func (s *OrderService) OrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.load(ctx, "id = ?", orderID)
}

// FindOrderItems lists order lines newest order first. A nil userID means
// lines of every account.
func (s *OrderService) FindOrderItems(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]models.OrderItem, int64, error) {
	query := s.scopedItems(ctx, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	items := []models.OrderItem{}
	err := query.Preload("Product", withDeleted).
		Order("orders.created_at DESC").Order("order_items.created_at ASC").
		Limit(limit).Offset(offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return items, total, nil
}

func (s *OrderService) GetOrderItem(ctx context.Context, userID *uuid.UUID, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := s.scopedItems(ctx, userID).Preload("Product", withDeleted).
		Where("order_items.id = ?", itemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return &item, nil
}

func (s *OrderService) scopedItems(ctx context.Context, userID *uuid.UUID) *gorm.DB {
	query := s.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id AND orders.deleted_at IS NULL")
	if userID != nil {
		query = query.Where("orders.user_id = ?", *userID)
	}
	return query
}

// UpdateStatus moves an order along the status state machine. Cancelling
// returns the ordered quantities to stock.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if !models.IsValidStatus(status) {
		return nil, apperrors.ErrInvalidStatus
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", orderID).First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		if !models.IsValidTransition(order.Status, status) {
			return apperrors.Withf(apperrors.ErrInvalidTransition,
				"Invalid status transition from '%s' to '%s'", order.Status, status)
		}

		if err := tx.Model(&order).Update("status", status).Error; err != nil {
			return err
		}

		if status == models.OrderStatusCancelled {
			var items []models.OrderItem
			if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
				return err
			}
			for _, item := range items {
				if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).
					Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	order, err := s.load(ctx, "id = ?", orderID)
	if err != nil {
		return nil, err
	}
	s.Log.Info("order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
	)
	if s.Notifier != nil {
		s.Notifier.OrderStatusChanged(order, &order.User)
	}
	return order, nil
}

// withDeleted keeps products removed from the catalog visible on the
// orders that bought them.
func withDeleted(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

func (s *OrderService) load(ctx context.Context, where string, args ...any) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items").Preload("Items.Product", withDeleted).Preload("User").
		Where(where, args...).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return &order, nil
}
