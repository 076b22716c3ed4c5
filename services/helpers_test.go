package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront-backend/database/dbtest"
	"storefront-backend/models"
	"storefront-backend/session"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ctx = context.Background()

type fixture struct {
	db       *gorm.DB
	sessions *session.MemoryStore
	carts    *CartService
	orders   *OrderService
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	sessions := session.NewMemoryStore(time.Hour)
	notifier := &recordingNotifier{}
	return &fixture{
		db:       db,
		sessions: sessions,
		carts:    NewCartService(db, sessions, zap.NewNop()),
		orders:   NewOrderService(db, zap.NewNop(), notifier),
		notifier: notifier,
	}
}

func (f *fixture) user(t *testing.T, email string) models.User {
	t.Helper()
	u := models.User{Email: email, Password: "hash", Name: "Test User", Role: models.RoleCustomer}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) category(t *testing.T, title string) models.Category {
	t.Helper()
	c := models.Category{Title: title}
	require.NoError(t, f.db.Create(&c).Error)
	return c
}

func (f *fixture) product(t *testing.T, title, price string, stock int) models.Product {
	t.Helper()
	cat := f.category(t, "Cat "+uuid.NewString()[:8])
	return f.productIn(t, cat.ID, title, price, stock)
}

func (f *fixture) productIn(t *testing.T, categoryID uuid.UUID, title, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Title:         title,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
		CategoryID:    categoryID,
	}
	require.NoError(t, f.db.Create(&p).Error)
	return p
}

func (f *fixture) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.db.First(&p, "id = ?", productID).Error)
	return p.StockQuantity
}

func (f *fixture) count(t *testing.T, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type recordingNotifier struct {
	mu      sync.Mutex
	placed  []string
	changed []string
}

func (n *recordingNotifier) OrderPlaced(order *models.Order, _ *models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, order.OrderNumber)
}

func (n *recordingNotifier) OrderStatusChanged(order *models.Order, _ *models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, string(order.Status))
}
