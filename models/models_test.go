package models

import (
	"testing"

	"storefront-backend/database/dbtest"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// ==================== BeforeCreate Hook Tests ====================

func TestUserBeforeCreateGeneratesUUID(t *testing.T) {
	db := dbtest.New(t)
	user := User{Email: "test@test.com", Password: "hash", Name: "Test"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	if user.ID == uuid.Nil {
		t.Error("UUID should have been generated")
	}
}

func TestUserBeforeCreatePreservesUUID(t *testing.T) {
	db := dbtest.New(t)
	existingID := uuid.New()
	user := User{ID: existingID, Email: "preserve@test.com", Password: "hash"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	if user.ID != existingID {
		t.Error("UUID should have been preserved")
	}
}

func TestProductBeforeCreate(t *testing.T) {
	db := dbtest.New(t)
	cat := Category{Title: "Cat"}
	db.Create(&cat)
	prod := Product{Title: "Test", Price: dec("2.50"), CategoryID: cat.ID, IsActive: true}
	if err := db.Create(&prod).Error; err != nil {
		t.Fatal(err)
	}
	if prod.ID == uuid.Nil {
		t.Error("UUID should have been generated")
	}

	var loaded Product
	db.First(&loaded, "id = ?", prod.ID)
	if !loaded.Price.Equal(dec("2.5")) {
		t.Errorf("expected price 2.5, got %s", loaded.Price)
	}
	if loaded.DiscountPrice != nil {
		t.Errorf("expected nil discount price, got %s", loaded.DiscountPrice)
	}
}

func TestOrderBeforeCreate(t *testing.T) {
	db := dbtest.New(t)
	user := User{Email: "order@test.com", Password: "hash"}
	db.Create(&user)
	order := Order{UserID: user.ID, TotalAmount: dec("10"), ShippingAddress: "Street 1"}
	if err := db.Create(&order).Error; err != nil {
		t.Fatal(err)
	}
	if order.ID == uuid.Nil {
		t.Error("UUID should have been generated")
	}
	if len(order.OrderNumber) != 8 {
		t.Errorf("expected 8-character order number, got %q", order.OrderNumber)
	}

	number := order.OrderNumber
	order.Status = OrderStatusProcessing
	db.Save(&order)
	var reloaded Order
	db.First(&reloaded, "id = ?", order.ID)
	if reloaded.OrderNumber != number {
		t.Errorf("order number changed on save: %s -> %s", number, reloaded.OrderNumber)
	}
}

func TestNewOrderNumberFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		n := NewOrderNumber()
		if len(n) != 8 {
			t.Fatalf("expected length 8, got %q", n)
		}
		for _, r := range n {
			if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
				t.Fatalf("unexpected character %q in %s", r, n)
			}
		}
		seen[n] = true
	}
	if len(seen) < 190 {
		t.Errorf("order numbers collide too often: %d unique of 200", len(seen))
	}
}

// ==================== Pricing Tests ====================

func TestEffectivePriceList(t *testing.T) {
	p := Product{Price: dec("10.00")}
	if !EffectivePrice(p).Equal(dec("10")) {
		t.Errorf("expected 10, got %s", EffectivePrice(p))
	}
	if OnSale(p) {
		t.Error("product without discount should not be on sale")
	}
}

func TestEffectivePriceDiscount(t *testing.T) {
	p := Product{Price: dec("10.00"), DiscountPrice: decPtr("7.50")}
	if !EffectivePrice(p).Equal(dec("7.5")) {
		t.Errorf("expected 7.5, got %s", EffectivePrice(p))
	}
	if !OnSale(p) {
		t.Error("product with discount should be on sale")
	}
}

func TestInStock(t *testing.T) {
	if InStock(Product{StockQuantity: 0}) {
		t.Error("zero stock should not be in stock")
	}
	if !InStock(Product{StockQuantity: 1}) {
		t.Error("positive stock should be in stock")
	}
}

func TestCartTotals(t *testing.T) {
	items := []CartItem{
		{Quantity: 2, Product: Product{Price: dec("3.00")}},
		{Quantity: 1, Product: Product{Price: dec("10.00"), DiscountPrice: decPtr("8.25")}},
	}
	if !CartTotal(items).Equal(dec("14.25")) {
		t.Errorf("expected 14.25, got %s", CartTotal(items))
	}
	if CartItemCount(items) != 3 {
		t.Errorf("expected 3 items, got %d", CartItemCount(items))
	}
	if !CartTotal(nil).IsZero() {
		t.Error("empty cart should total zero")
	}
}

func TestOrderItemTotalUsesCapturedPrice(t *testing.T) {
	item := OrderItem{Quantity: 3, Price: dec("4.10"), Product: Product{Price: dec("99")}}
	if !OrderItemTotal(item).Equal(dec("12.3")) {
		t.Errorf("expected 12.3, got %s", OrderItemTotal(item))
	}
}

func TestClampToStock(t *testing.T) {
	tests := []struct {
		qty, stock, want int
	}{
		{5, 10, 5},
		{12, 10, 10},
		{-1, 10, 0},
		{3, 0, 0},
	}
	for _, tc := range tests {
		if got := ClampToStock(tc.qty, tc.stock); got != tc.want {
			t.Errorf("ClampToStock(%d, %d) = %d, want %d", tc.qty, tc.stock, got, tc.want)
		}
	}
}

// ==================== Status Transition Tests ====================

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
		{OrderStatus("bogus"), OrderStatusPending, false},
	}
	for _, tc := range tests {
		if got := IsValidTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("IsValidTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestPriceMarshalsAsNumber(t *testing.T) {
	b, err := dec("5.99").MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "5.99" {
		t.Errorf("expected unquoted 5.99, got %s", b)
	}
}
