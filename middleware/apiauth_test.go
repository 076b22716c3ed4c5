package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-backend/database/dbtest"
	"storefront-backend/models"
	"storefront-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiRouter(t *testing.T, required bool) (*gin.Engine, models.User) {
	t.Helper()
	db := dbtest.New(t)
	service := models.User{Email: "integration@test.com", Password: "x", Role: models.RoleAdmin}
	require.NoError(t, db.Create(&service).Error)

	chain := []Authenticator{
		BearerAuthenticator{},
		APIKeyAuthenticator{DB: db, Keys: map[string]string{
			"good-key":   "integration@test.com",
			"orphan-key": "nobody@test.com",
		}},
	}

	r := gin.New()
	r.Use(Authenticate(required, chain...))
	r.GET("/resource", func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, id.String()+" "+c.GetString(UserRoleKey))
	})
	return r, service
}

func apiGet(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/resource", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPIKeyAuthenticator(t *testing.T) {
	r, service := apiRouter(t, true)

	w := apiGet(r, map[string]string{APIKeyHeader: "good-key"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ID.String()+" admin", w.Body.String())

	for _, key := range []string{"bad-key", "orphan-key"} {
		w = apiGet(r, map[string]string{APIKeyHeader: key})
		assert.Equal(t, http.StatusUnauthorized, w.Code, key)
	}
}

func TestBearerAuthenticator(t *testing.T) {
	r, _ := apiRouter(t, true)
	userID := uuid.New()
	token, err := utils.GenerateToken(userID, "jwt@test.com", "customer")
	require.NoError(t, err)

	w := apiGet(r, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String()+" customer", w.Body.String())

	w = apiGet(r, map[string]string{"Authorization": "Basic abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateRequired(t *testing.T) {
	r, _ := apiRouter(t, true)
	w := apiGet(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateOptional(t *testing.T) {
	r, _ := apiRouter(t, false)

	w := apiGet(r, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())

	// A bad credential is still rejected on public routes.
	w = apiGet(r, map[string]string{APIKeyHeader: "bad-key"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
