package models

import "github.com/shopspring/decimal"

// EffectivePrice is the discount price when one is set, otherwise the list price.
func EffectivePrice(p Product) decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

func InStock(p Product) bool {
	return p.StockQuantity > 0
}

func OnSale(p Product) bool {
	return p.DiscountPrice != nil
}

// LineTotal prices a cart line at the product's current effective price.
func LineTotal(item CartItem) decimal.Decimal {
	return EffectivePrice(item.Product).Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func CartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineTotal(item))
	}
	return total
}

func CartItemCount(items []CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

// OrderItemTotal uses the captured unit price, never the product's current one.
func OrderItemTotal(item OrderItem) decimal.Decimal {
	return item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// ClampToStock bounds a requested quantity to [0, stock].
func ClampToStock(quantity, stock int) int {
	if quantity > stock {
		quantity = stock
	}
	if quantity < 0 {
		return 0
	}
	return quantity
}
