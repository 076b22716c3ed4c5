package handlers

import (
	"net/url"
	"strconv"

	"storefront-backend/apperrors"
	"storefront-backend/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ParseProductFilter reads the resource API's product lookups:
// category, featured, price, price__gt/gte/lt/lte, title__icontains and
// order_by (repeatable, "-" prefix for descending).
func ParseProductFilter(q url.Values) (services.ProductFilter, error) {
	var f services.ProductFilter

	if raw := q.Get("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, invalidFilter("category")
		}
		f.CategoryID = &id
	}
	if raw := q.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return f, invalidFilter("featured")
		}
		f.Featured = &featured
	}

	prices := []struct {
		key string
		dst **decimal.Decimal
	}{
		{"price", &f.Price},
		{"price__gt", &f.PriceGt},
		{"price__gte", &f.PriceGte},
		{"price__lt", &f.PriceLt},
		{"price__lte", &f.PriceLte},
	}
	for _, p := range prices {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return f, invalidFilter(p.key)
		}
		*p.dst = &d
	}

	f.TitleContains = q.Get("title__icontains")
	f.OrderBy = q["order_by"]
	return f, nil
}

func invalidFilter(key string) error {
	return apperrors.Withf(apperrors.ErrValidation, "Invalid value for filter '%s'", key)
}
