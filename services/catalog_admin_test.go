package services

import (
	"testing"

	"storefront-backend/apperrors"
	"storefront-backend/dtos"
	"storefront-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCreateCategoryTrimsAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.db)

	cat, err := svc.CreateCategory(ctx, dtos.CategoryRequest{Title: "  Garden  ", Description: "Tools"})
	require.NoError(t, err)
	assert.Equal(t, "Garden", cat.Title)

	_, err = svc.CreateCategory(ctx, dtos.CategoryRequest{Title: "Garden"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUpdateCategory(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.db)
	garden := f.category(t, "Garden")
	f.category(t, "Kitchen")

	updated, err := svc.UpdateCategory(ctx, garden.ID, dtos.UpdateCategoryRequest{Description: ptr("Outdoor")})
	require.NoError(t, err)
	assert.Equal(t, "Garden", updated.Title)
	assert.Equal(t, "Outdoor", updated.Description)

	_, err = svc.UpdateCategory(ctx, garden.ID, dtos.UpdateCategoryRequest{Title: ptr("Kitchen")})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.UpdateCategory(ctx, garden.ID, dtos.UpdateCategoryRequest{Title: ptr("   ")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Keeping its own title is not a conflict.
	_, err = svc.UpdateCategory(ctx, garden.ID, dtos.UpdateCategoryRequest{Title: ptr("Garden")})
	assert.NoError(t, err)

	_, err = svc.UpdateCategory(ctx, uuid.New(), dtos.UpdateCategoryRequest{})
	assert.ErrorIs(t, err, apperrors.ErrCategoryNotFound)
}

func TestDeleteCategoryInUse(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.db)
	cat := f.category(t, "Busy")
	f.productIn(t, cat.ID, "Rake", "9.00", 1)

	_, err := svc.DeleteCategory(ctx, cat.ID)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	assert.Equal(t, int64(1), f.count(t, &models.Category{}, "id = ?", cat.ID))

	empty := f.category(t, "Empty")
	deleted, err := svc.DeleteCategory(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, "Empty", deleted.Title)
	assert.Equal(t, int64(0), f.count(t, &models.Category{}, "id = ?", empty.ID))
}

func TestSetCategoryImageReturnsPrevious(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.db)
	cat := f.category(t, "Pictured")

	previous, err := svc.SetCategoryImage(ctx, cat.ID, "https://img/one.jpg")
	require.NoError(t, err)
	assert.Empty(t, previous)

	previous, err = svc.SetCategoryImage(ctx, cat.ID, "https://img/two.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://img/one.jpg", previous)

	reloaded, err := svc.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img/two.jpg", reloaded.ImageURL)
}

func TestCreateProductPricing(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.db)
	cat := f.category(t, "Priced")

	tests := []struct {
		name     string
		price    string
		discount *decimal.Decimal
		ok       bool
	}{
		{"plain", "10.00", nil, true},
		{"discounted", "10.00", ptr(dec("7.50")), true},
		{"zero price", "0", nil, false},
		{"discount equals price", "10.00", ptr(dec("10.00")), false},
		{"negative discount", "10.00", ptr(dec("-1")), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := svc.CreateProduct(ctx, dtos.ProductRequest{
				Title:         "Item " + tc.name,
				Price:         ptr(dec(tc.price)),
				DiscountPrice: tc.discount,
				StockQuantity: 3,
				CategoryID:    cat.ID,
			})
			if !tc.ok {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.True(t, p.IsActive)
			assert.Equal(t, "Priced", p.Category.Title)
		})
	}
}

func TestCreateProductUnknownCategory(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.db)

	_, err := svc.CreateProduct(ctx, dtos.ProductRequest{Title: "Orphan", Price: ptr(dec("1")), CategoryID: uuid.New()})
	assert.ErrorIs(t, err, apperrors.ErrCategoryNotFound)
}

func TestUpdateProductPartial(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.db)
	p := f.product(t, "Lamp", "20.00", 4)

	updated, err := svc.UpdateProduct(ctx, p.ID, dtos.UpdateProductRequest{DiscountPrice: ptr(dec("15"))})
	require.NoError(t, err)
	assert.Equal(t, "Lamp", updated.Title)
	require.NotNil(t, updated.DiscountPrice)
	assert.True(t, updated.DiscountPrice.Equal(dec("15")))

	// A new price must stay above the current discount.
	_, err = svc.UpdateProduct(ctx, p.ID, dtos.UpdateProductRequest{Price: ptr(dec("12"))})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	updated, err = svc.UpdateProduct(ctx, p.ID, dtos.UpdateProductRequest{Price: ptr(dec("12")), ClearDiscount: true, IsActive: ptr(false)})
	require.NoError(t, err)
	assert.Nil(t, updated.DiscountPrice)
	assert.True(t, updated.Price.Equal(dec("12")))
	assert.False(t, updated.IsActive)
	assert.Equal(t, 4, updated.StockQuantity)
}

func TestDeleteProductKeepsOrderHistory(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.db)
	u := f.user(t, "history@test.com")
	p := f.product(t, "Vase", "8.00", 5)
	_, err := f.carts.AddItem(ctx, AccountCaller(u.ID), p.ID, 2)
	require.NoError(t, err)
	_, err = f.orders.Checkout(ctx, AccountCaller(u.ID), CheckoutRequest{ShippingAddress: "Somewhere", Phone: "1", Email: "h@test.com"})
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, AccountCaller(u.ID), p.ID, 1)
	require.NoError(t, err)

	_, err = svc.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(0), f.count(t, &models.CartItem{}, "product_id = ?", p.ID))
	_, err = svc.GetProduct(ctx, p.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrProductNotFound)

	orders, err := f.orders.ListOrders(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Vase", orders[0].Items[0].Product.Title)
}

func TestProductImagesMainImagePromotion(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.db)
	p := f.product(t, "Painting", "100.00", 1)

	images, err := svc.AddProductImages(ctx, p.ID, []string{"https://img/a.jpg", "https://img/b.jpg"}, "Painting")
	require.NoError(t, err)
	require.Len(t, images, 2)

	product, err := svc.GetProduct(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "https://img/a.jpg", product.ImageURL)
	assert.Len(t, product.Images, 2)

	// Removing a non-main image leaves the main image alone.
	_, err = svc.RemoveProductImage(ctx, p.ID, images[1].ID)
	require.NoError(t, err)
	product, _ = svc.GetProduct(ctx, p.ID, true)
	assert.Equal(t, "https://img/a.jpg", product.ImageURL)

	_, err = svc.RemoveProductImage(ctx, p.ID, images[0].ID)
	require.NoError(t, err)
	product, _ = svc.GetProduct(ctx, p.ID, true)
	assert.Empty(t, product.ImageURL)

	_, err = svc.RemoveProductImage(ctx, p.ID, images[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrImageNotFound)
}

func TestFindProductsLookups(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.db)
	cat := f.category(t, "Lookups")
	f.productIn(t, cat.ID, "Blue Cup", "4.00", 1)
	f.productIn(t, cat.ID, "Red Cup", "6.00", 1)
	hidden := f.productIn(t, cat.ID, "Old Cup", "5.00", 1)
	require.NoError(t, f.db.Model(&hidden).Update("is_active", false).Error)

	products, total, err := svc.FindProducts(ctx, ProductFilter{PriceGt: ptr(dec("4")), OrderBy: []string{"-price"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"Red Cup"}, titles(products))

	products, total, err = svc.FindProducts(ctx, ProductFilter{TitleContains: "cup", IncludeInactive: true, OrderBy: []string{"price"}, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"Blue Cup", "Old Cup"}, titles(products))

	products, _, err = svc.FindProducts(ctx, ProductFilter{Price: ptr(dec("6"))})
	require.NoError(t, err)
	assert.Equal(t, []string{"Red Cup"}, titles(products))

	_, _, err = svc.FindProducts(ctx, ProductFilter{OrderBy: []string{"stock_quantity"}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFindOrderItemsScope(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@test.com")
	bob := f.user(t, "bob@test.com")
	p := f.product(t, "Spoon", "1.00", 10)
	checkout := CheckoutRequest{ShippingAddress: "Street", Phone: "1", Email: "x@test.com"}

	for _, u := range []models.User{alice, bob} {
		_, err := f.carts.AddItem(ctx, AccountCaller(u.ID), p.ID, 1)
		require.NoError(t, err)
		_, err = f.orders.Checkout(ctx, AccountCaller(u.ID), checkout)
		require.NoError(t, err)
	}

	items, total, err := f.orders.FindOrderItems(ctx, &alice.ID, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Spoon", items[0].Product.Title)

	_, total, err = f.orders.FindOrderItems(ctx, nil, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	bobs, _, err := f.orders.FindOrderItems(ctx, &bob.ID, 20, 0)
	require.NoError(t, err)
	_, err = f.orders.GetOrderItem(ctx, &alice.ID, bobs[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	item, err := f.orders.GetOrderItem(ctx, nil, bobs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, bobs[0].ID, item.ID)
}
