package middleware

import (
	"net/http"
	"strings"

	"storefront-backend/models"
	"storefront-backend/services"
	"storefront-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set by the middleware in this package.
const (
	UserIDKey       = "user_id"
	UserRoleKey     = "user_role"
	UserEmailKey    = "user_email"
	SessionTokenKey = "session_token"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		claims, ok := bearerClaims(c, authHeader)
		if !ok {
			return
		}
		setIdentity(c, claims.UserID, claims.Email, claims.Role)
		c.Next()
	}
}

// OptionalAuthMiddleware honours a bearer token when one is sent and lets
// anonymous requests through. A token that is sent but invalid is rejected.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		claims, ok := bearerClaims(c, authHeader)
		if !ok {
			return
		}
		setIdentity(c, claims.UserID, claims.Email, claims.Role)
		c.Next()
	}
}

func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(UserRoleKey)
		if !exists || role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerClaims(c *gin.Context, authHeader string) (*utils.Claims, bool) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
		c.Abort()
		return nil, false
	}

	claims, err := utils.ValidateToken(parts[1])
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		c.Abort()
		return nil, false
	}
	return claims, true
}

func setIdentity(c *gin.Context, userID uuid.UUID, email, role string) {
	c.Set(UserIDKey, userID)
	c.Set(UserEmailKey, email)
	c.Set(UserRoleKey, role)
}

// CurrentUserID returns the authenticated account, if any.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func IsAdmin(c *gin.Context) bool {
	return c.GetString(UserRoleKey) == models.RoleAdmin
}

// CallerFrom builds the services.Caller for the request from whatever the
// auth and session middleware established.
func CallerFrom(c *gin.Context) services.Caller {
	caller := services.Caller{SessionToken: c.GetString(SessionTokenKey)}
	if id, ok := CurrentUserID(c); ok {
		caller.AccountID = &id
	}
	return caller
}
