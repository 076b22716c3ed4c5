package middleware

import (
	"net/http"
	"time"

	"storefront-backend/session"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookie = "store_session"
	SessionHeader = "X-Session-ID"
)

// SessionMiddleware identifies anonymous visitors. The token comes from the
// session cookie or, for API clients, the X-Session-ID header. Visitors
// without a valid token get a fresh one in both places.
func SessionMiddleware(ttl time.Duration, secure bool) gin.HandlerFunc {
	maxAge := int(ttl / time.Second)
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || !session.ValidToken(token) {
			token = c.GetHeader(SessionHeader)
		}

		if !session.ValidToken(token) {
			token = session.NewToken()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, token, maxAge, "/", "", secure, true)
		}

		c.Header(SessionHeader, token)
		c.Set(SessionTokenKey, token)
		c.Next()
	}
}
