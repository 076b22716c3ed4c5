package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-backend/session"

	"github.com/gin-gonic/gin"
)

func sessionRouter() *gin.Engine {
	r := gin.New()
	r.Use(SessionMiddleware(time.Hour, false))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(SessionTokenKey))
	})
	return r
}

func TestSessionMiddlewareIssuesToken(t *testing.T) {
	w := httptest.NewRecorder()
	sessionRouter().ServeHTTP(w, httptest.NewRequest("GET", "/whoami", nil))

	token := w.Body.String()
	if !session.ValidToken(token) {
		t.Fatalf("expected a fresh token, got %q", token)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie || cookies[0].Value != token {
		t.Fatalf("expected %s cookie with the token, got %+v", SessionCookie, cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	if w.Header().Get(SessionHeader) != token {
		t.Errorf("expected %s header %s, got %s", SessionHeader, token, w.Header().Get(SessionHeader))
	}
}

func TestSessionMiddlewareReusesCookie(t *testing.T) {
	token := session.NewToken()
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})

	w := httptest.NewRecorder()
	sessionRouter().ServeHTTP(w, req)

	if w.Body.String() != token {
		t.Errorf("expected token %s, got %s", token, w.Body.String())
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("no new cookie should be set for a known session")
	}
}

func TestSessionMiddlewareAcceptsHeader(t *testing.T) {
	token := session.NewToken()
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(SessionHeader, token)

	w := httptest.NewRecorder()
	sessionRouter().ServeHTTP(w, req)

	if w.Body.String() != token {
		t.Errorf("expected token %s, got %s", token, w.Body.String())
	}
}

func TestSessionMiddlewareReplacesGarbage(t *testing.T) {
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "../../etc/passwd"})

	w := httptest.NewRecorder()
	sessionRouter().ServeHTTP(w, req)

	if w.Body.String() == "../../etc/passwd" || !session.ValidToken(w.Body.String()) {
		t.Errorf("expected a replacement token, got %q", w.Body.String())
	}
}
