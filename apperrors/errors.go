package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error is an application error carrying the HTTP status it maps to.
type Error struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code and message so wrapped copies still compare equal to
// the sentinel they were derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Wrap returns a copy of sentinel carrying cause.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Code: sentinel.Code, Message: sentinel.Message, Err: cause}
}

// Withf returns a copy of sentinel with a more specific message. The copy
// unwraps to the sentinel, so errors.Is still matches it.
func Withf(sentinel *Error, format string, args ...any) *Error {
	return &Error{Code: sentinel.Code, Message: fmt.Sprintf(format, args...), Err: sentinel}
}

var (
	ErrBadRequest   = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden    = New(http.StatusForbidden, "Forbidden", nil)
	ErrNotFound     = New(http.StatusNotFound, "Not found", nil)
	ErrConflict     = New(http.StatusConflict, "Conflict", nil)
	ErrInternal     = New(http.StatusInternalServerError, "Internal server error", nil)
)

// Not-found variants. Records owned by someone else report the same errors.
var (
	ErrProductNotFound  = New(http.StatusNotFound, "Product not found", nil)
	ErrCategoryNotFound = New(http.StatusNotFound, "Category not found", nil)
	ErrCartItemNotFound = New(http.StatusNotFound, "Cart item not found", nil)
	ErrOrderNotFound    = New(http.StatusNotFound, "Order not found", nil)
	ErrImageNotFound    = New(http.StatusNotFound, "Image not found", nil)
)

// Validation and business rule errors.
var (
	ErrValidation        = New(http.StatusBadRequest, "Validation error", nil)
	ErrInvalidQuantity   = New(http.StatusBadRequest, "Quantity must be at least 1", nil)
	ErrInsufficientStock = New(http.StatusBadRequest, "Not enough stock available.", nil)
	ErrStockChanged      = New(http.StatusConflict, "Stock changed", nil)
	ErrEmptyCart         = New(http.StatusBadRequest, "Your cart is empty.", nil)
	ErrInvalidRating     = New(http.StatusBadRequest, "Invalid rating", nil)
	ErrInvalidTransition = New(http.StatusBadRequest, "Invalid status transition", nil)
	ErrInvalidStatus     = New(http.StatusBadRequest, "Invalid status", nil)
	ErrPaymentNotReady   = New(http.StatusServiceUnavailable, "Payments are not configured", nil)
)

// Authentication errors.
var (
	ErrInvalidCredentials = New(http.StatusUnauthorized, "Invalid credentials", nil)
	ErrEmailTaken         = New(http.StatusConflict, "Email already registered", nil)
)

// As extracts an *Error from err, falling back to ErrInternal wrapping it.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternal, err)
}

// ErrorMiddleware renders the last error attached with c.Error as
// {"error": message}. Server errors are logged with their cause.
func ErrorMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr := As(err)
		if appErr.Code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString("request_id")),
				zap.Error(err),
			)
		}
		c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr.Message})
	}
}
