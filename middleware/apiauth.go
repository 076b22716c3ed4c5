package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront-backend/models"
	"storefront-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const APIKeyHeader = "X-API-Key"

// Identity is who an API credential acts for.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// errCredentialRejected means a credential was presented but is not valid.
var errCredentialRejected = errors.New("credential rejected")

// Authenticator recognises one kind of API credential. It returns
// (nil, nil) when the request carries no credential of its kind.
type Authenticator interface {
	Authenticate(c *gin.Context) (*Identity, error)
}

// BearerAuthenticator accepts the same JWTs as the storefront API.
type BearerAuthenticator struct{}

func (BearerAuthenticator) Authenticate(c *gin.Context) (*Identity, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, nil
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, errCredentialRejected
	}
	claims, err := utils.ValidateToken(token)
	if err != nil {
		return nil, errCredentialRejected
	}
	return &Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

// APIKeyAuthenticator maps static keys from configuration to the account
// with the configured e-mail address.
type APIKeyAuthenticator struct {
	DB   *gorm.DB
	Keys map[string]string
}

func (a APIKeyAuthenticator) Authenticate(c *gin.Context) (*Identity, error) {
	key := c.GetHeader(APIKeyHeader)
	if key == "" {
		return nil, nil
	}
	email, ok := a.Keys[key]
	if !ok {
		return nil, errCredentialRejected
	}
	return a.lookup(c.Request.Context(), email)
}

func (a APIKeyAuthenticator) lookup(ctx context.Context, email string) (*Identity, error) {
	var user models.User
	err := a.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errCredentialRejected
	}
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// Authenticate runs the chain and stores the first identity found. With
// required=false anonymous requests pass; a rejected credential never does.
func Authenticate(required bool, chain ...Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, auth := range chain {
			identity, err := auth.Authenticate(c)
			if errors.Is(err, errCredentialRejected) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				c.Abort()
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
				c.Abort()
				return
			}
			if identity != nil {
				setIdentity(c, identity.UserID, identity.Email, identity.Role)
				c.Next()
				return
			}
		}

		if required {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireIdentity rejects requests that no earlier middleware authenticated.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
