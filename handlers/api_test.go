package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"storefront-backend/middleware"
	"storefront-backend/models"
)

func apiKeyRequest(method, url string, body interface{}) *http.Request {
	req := jsonRequest(method, url, body)
	req.Header.Set(middleware.APIKeyHeader, testAPIKey)
	return req
}

func listObjects(t *testing.T, resp map[string]interface{}) []interface{} {
	t.Helper()
	objects, ok := resp["objects"].([]interface{})
	if !ok {
		t.Fatalf("expected objects in list response, got %v", resp)
	}
	return objects
}

func listMeta(resp map[string]interface{}) map[string]interface{} {
	meta, _ := resp["meta"].(map[string]interface{})
	return meta
}

func TestAPIListProductsEnvelope(t *testing.T) {
	srv := newTestServer(t)
	cat := seedCategory(srv.db, "Envelope")
	for i := 0; i < 5; i++ {
		seedProduct(srv.db, fmt.Sprintf("Item %d", i), cat.ID, "1.00", 1)
	}

	w := srv.do(jsonRequest("GET", "/api/v1/products?limit=2&offset=2&order_by=title", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	objects := listObjects(t, resp)
	if len(objects) != 2 || objects[0].(map[string]interface{})["title"] != "Item 2" {
		t.Errorf("expected Item 2 and Item 3, got %v", objects)
	}

	meta := listMeta(resp)
	if meta["total_count"].(float64) != 5 || meta["limit"].(float64) != 2 || meta["offset"].(float64) != 2 {
		t.Errorf("unexpected meta: %v", meta)
	}
	next, _ := meta["next"].(string)
	if !strings.Contains(next, "offset=4") || !strings.Contains(next, "order_by=title") {
		t.Errorf("expected next link to keep the query, got %q", next)
	}
	previous, _ := meta["previous"].(string)
	if !strings.Contains(previous, "offset=0") {
		t.Errorf("expected previous link to offset 0, got %q", previous)
	}
}

func TestAPIListProductsLastPage(t *testing.T) {
	srv := newTestServer(t)
	cat := seedCategory(srv.db, "Short")
	seedProduct(srv.db, "Only", cat.ID, "1.00", 1)

	resp := parseResponse(srv.do(jsonRequest("GET", "/api/v1/products", nil)))
	meta := listMeta(resp)
	if meta["next"] != nil || meta["previous"] != nil {
		t.Errorf("expected no links on a single page, got %v", meta)
	}
	if meta["limit"].(float64) != 20 {
		t.Errorf("expected default limit 20, got %v", meta["limit"])
	}
}

func TestAPIProductFilters(t *testing.T) {
	srv := newTestServer(t)
	cat := seedCategory(srv.db, "Filters")
	other := seedCategory(srv.db, "Other")
	seedProduct(srv.db, "Cheap Mug", cat.ID, "3.00", 1)
	pricey := seedProduct(srv.db, "Fancy Mug", cat.ID, "30.00", 1)
	seedProduct(srv.db, "Plate", other.ID, "8.00", 1)
	srv.db.Model(&pricey).Update("featured", true)

	tests := []struct {
		query string
		want  []string
	}{
		{"price__lt=10&order_by=title", []string{"Cheap Mug", "Plate"}},
		{"price__gte=8&order_by=-price", []string{"Fancy Mug", "Plate"}},
		{"featured=true", []string{"Fancy Mug"}},
		{"title__icontains=MUG&order_by=price", []string{"Cheap Mug", "Fancy Mug"}},
		{"category=" + other.ID.String(), []string{"Plate"}},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			w := srv.do(jsonRequest("GET", "/api/v1/products?"+tc.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			objects := listObjects(t, parseResponse(w))
			if len(objects) != len(tc.want) {
				t.Fatalf("expected %d products, got %d", len(tc.want), len(objects))
			}
			for i, title := range tc.want {
				if got := objects[i].(map[string]interface{})["title"]; got != title {
					t.Errorf("position %d: expected %s, got %v", i, title, got)
				}
			}
		})
	}
}

func TestAPIProductFiltersInvalid(t *testing.T) {
	srv := newTestServer(t)

	for _, query := range []string{"order_by=stock_quantity", "price__lt=cheap", "featured=maybe", "category=7"} {
		w := srv.do(jsonRequest("GET", "/api/v1/products?"+query, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", query, w.Code)
		}
	}
}

func TestAPIStaffSeeInactiveProducts(t *testing.T) {
	srv := newTestServer(t)
	_, adminToken := seedTestUser(srv.db, "admin@test.com", models.RoleAdmin)
	cat := seedCategory(srv.db, "Hidden")
	seedProduct(srv.db, "Visible", cat.ID, "1.00", 1)
	hidden := seedProduct(srv.db, "Retired", cat.ID, "1.00", 1)
	srv.db.Model(&hidden).Update("is_active", false)

	anon := listObjects(t, parseResponse(srv.do(jsonRequest("GET", "/api/v1/products", nil))))
	if len(anon) != 1 {
		t.Errorf("expected 1 product for anonymous caller, got %d", len(anon))
	}
	staff := listObjects(t, parseResponse(srv.do(authRequest("GET", "/api/v1/products", nil, adminToken))))
	if len(staff) != 2 {
		t.Errorf("expected 2 products for staff, got %d", len(staff))
	}

	w := srv.do(jsonRequest("GET", "/api/v1/products/"+hidden.ID.String(), nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for inactive product, got %d", w.Code)
	}
}

func TestAPIListCategories(t *testing.T) {
	srv := newTestServer(t)
	seedCategory(srv.db, "Books")
	seedCategory(srv.db, "Art")

	resp := parseResponse(srv.do(jsonRequest("GET", "/api/v1/categories?limit=1", nil)))
	objects := listObjects(t, resp)
	if len(objects) != 1 || objects[0].(map[string]interface{})["title"] != "Art" {
		t.Errorf("expected Art first, got %v", objects)
	}
	if listMeta(resp)["total_count"].(float64) != 2 {
		t.Errorf("expected total 2, got %v", listMeta(resp)["total_count"])
	}
}

func TestAPIPrivateRequiresCredentials(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(jsonRequest("GET", "/api/v1/cart", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}

	req := jsonRequest("GET", "/api/v1/cart", nil)
	req.Header.Set(middleware.APIKeyHeader, "wrong-key")
	if w := srv.do(req); w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 for unknown key, got %d", w.Code)
	}

	req = jsonRequest("GET", "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	if w := srv.do(req); w.Code != http.StatusUnauthorized {
		t.Errorf("expected rejected token to fail even on public lists, got %d", w.Code)
	}
}

func TestAPIKeyCartItems(t *testing.T) {
	srv := newTestServer(t)
	seedTestUser(srv.db, testAPIEmail, models.RoleCustomer)
	cat := seedCategory(srv.db, "API Cart")
	prod := seedProduct(srv.db, "Pen", cat.ID, "2.50", 10)

	w := srv.do(apiKeyRequest("POST", "/api/v1/cart-items", map[string]interface{}{"product_id": prod.ID, "quantity": 3}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	itemID := parseResponse(w)["id"].(string)

	w = srv.do(apiKeyRequest("GET", "/api/v1/cart-items", nil))
	if objects := listObjects(t, parseResponse(w)); len(objects) != 1 {
		t.Fatalf("expected 1 cart item, got %d", len(objects))
	}

	w = srv.do(apiKeyRequest("PUT", "/api/v1/cart-items/"+itemID, map[string]int{"quantity": 4}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if parseResponse(w)["quantity"].(float64) != 4 {
		t.Errorf("expected quantity 4, got %v", parseResponse(w)["quantity"])
	}

	w = srv.do(apiKeyRequest("GET", "/api/v1/cart", nil))
	if parseResponse(w)["total_price"].(float64) != 10 {
		t.Errorf("expected total 10, got %v", parseResponse(w)["total_price"])
	}

	w = srv.do(apiKeyRequest("PUT", "/api/v1/cart-items/"+itemID, map[string]int{"quantity": 0}))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 when quantity drops to zero, got %d", w.Code)
	}
	w = srv.do(apiKeyRequest("GET", "/api/v1/cart-items/"+itemID, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 after removal, got %d", w.Code)
	}
}

func TestAPIReplaceAndClearCart(t *testing.T) {
	srv := newTestServer(t)
	_, token := seedTestUser(srv.db, "replace@test.com", models.RoleCustomer)
	cat := seedCategory(srv.db, "Replace")
	a := seedProduct(srv.db, "A", cat.ID, "1.00", 10)
	b := seedProduct(srv.db, "B", cat.ID, "2.00", 10)

	srv.do(authRequest("POST", "/api/v1/cart-items", map[string]interface{}{"product_id": a.ID}, token))

	w := srv.do(authRequest("PUT", "/api/v1/cart", map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": b.ID, "quantity": 2}},
	}, token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	items := parseResponse(w)["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 line after replace, got %d", len(items))
	}
	if parseResponse(w)["total_price"].(float64) != 4 {
		t.Errorf("expected total 4, got %v", parseResponse(w)["total_price"])
	}

	w = srv.do(authRequest("DELETE", "/api/v1/cart", nil, token))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}
	w = srv.do(authRequest("GET", "/api/v1/cart", nil, token))
	if items := parseResponse(w)["items"].([]interface{}); len(items) != 0 {
		t.Errorf("expected empty cart, got %d lines", len(items))
	}
}

func TestAPIOrdersScope(t *testing.T) {
	srv := newTestServer(t)
	me, token := seedTestUser(srv.db, "me@test.com", models.RoleCustomer)
	other, _ := seedTestUser(srv.db, "other@test.com", models.RoleCustomer)
	_, adminToken := seedTestUser(srv.db, "admin@test.com", models.RoleAdmin)
	cat := seedCategory(srv.db, "Scope")
	prod := seedProduct(srv.db, "Widget", cat.ID, "5.00", 10)
	seedOrder(srv.db, me.ID, prod, 1, models.OrderStatusPending)
	theirs := seedOrder(srv.db, other.ID, prod, 2, models.OrderStatusShipped)

	mine := listObjects(t, parseResponse(srv.do(authRequest("GET", "/api/v1/orders", nil, token))))
	if len(mine) != 1 {
		t.Errorf("expected 1 own order, got %d", len(mine))
	}
	if w := srv.do(authRequest("GET", "/api/v1/orders/"+theirs.ID.String(), nil, token)); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for another account's order, got %d", w.Code)
	}

	all := listObjects(t, parseResponse(srv.do(authRequest("GET", "/api/v1/orders", nil, adminToken))))
	if len(all) != 2 {
		t.Errorf("expected staff to see 2 orders, got %d", len(all))
	}
	shipped := listObjects(t, parseResponse(srv.do(authRequest("GET", "/api/v1/orders?status=shipped", nil, adminToken))))
	if len(shipped) != 1 {
		t.Errorf("expected 1 shipped order, got %d", len(shipped))
	}
	if w := srv.do(authRequest("GET", "/api/v1/orders/"+theirs.ID.String(), nil, adminToken)); w.Code != http.StatusOK {
		t.Errorf("expected staff to read any order, got %d", w.Code)
	}

	items := listObjects(t, parseResponse(srv.do(authRequest("GET", "/api/v1/order-items", nil, token))))
	if len(items) != 1 {
		t.Fatalf("expected 1 own order item, got %d", len(items))
	}
	theirItem := theirs.Items[0].ID.String()
	if w := srv.do(authRequest("GET", "/api/v1/order-items/"+theirItem, nil, token)); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for another account's order item, got %d", w.Code)
	}
	if w := srv.do(authRequest("GET", "/api/v1/order-items/"+theirItem, nil, adminToken)); w.Code != http.StatusOK {
		t.Errorf("expected staff to read any order item, got %d", w.Code)
	}
}

func TestAPICreateOrder(t *testing.T) {
	srv := newTestServer(t)
	_, token := seedTestUser(srv.db, "api-buyer@test.com", models.RoleCustomer)
	cat := seedCategory(srv.db, "API Orders")
	prod := seedProduct(srv.db, "Notebook", cat.ID, "4.00", 5)

	srv.do(authRequest("POST", "/api/v1/cart-items", map[string]interface{}{"product_id": prod.ID, "quantity": 2}, token))

	w := srv.do(authRequest("POST", "/api/v1/orders", checkoutBody, token))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if w.Header().Get("Location") != "/api/v1/orders/"+resp["id"].(string) {
		t.Errorf("unexpected Location header %q", w.Header().Get("Location"))
	}
	if resp["total_amount"].(float64) != 8 {
		t.Errorf("expected total 8, got %v", resp["total_amount"])
	}
}

func TestAPIStaffProductWrites(t *testing.T) {
	srv := newTestServer(t)
	_, token := seedTestUser(srv.db, "customer@test.com", models.RoleCustomer)
	_, adminToken := seedTestUser(srv.db, "admin@test.com", models.RoleAdmin)
	cat := seedCategory(srv.db, "Staff")
	body := map[string]interface{}{"title": "Desk", "price": "120.00", "stock_quantity": 2, "category_id": cat.ID}

	if w := srv.do(authRequest("POST", "/api/v1/products", body, token)); w.Code != http.StatusForbidden {
		t.Errorf("expected status 403 for customer, got %d", w.Code)
	}

	w := srv.do(authRequest("POST", "/api/v1/products", body, adminToken))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	id := parseResponse(w)["id"].(string)

	w = srv.do(authRequest("PUT", "/api/v1/products/"+id, map[string]interface{}{"stock_quantity": 7}, adminToken))
	if w.Code != http.StatusOK || parseResponse(w)["stock_quantity"].(float64) != 7 {
		t.Errorf("expected stock 7 after update, got %d: %s", w.Code, w.Body.String())
	}

	if w := srv.do(authRequest("DELETE", "/api/v1/products/"+id, nil, adminToken)); w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}
	if w := srv.do(jsonRequest("GET", "/api/v1/products/"+id, nil)); w.Code != http.StatusNotFound {
		t.Errorf("expected deleted product to be gone, got %d", w.Code)
	}
}
