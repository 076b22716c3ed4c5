package handlers

import (
	"errors"
	"net/http"
	"strings"

	"storefront-backend/apperrors"
	"storefront-backend/dtos"
	"storefront-backend/logger"
	"storefront-backend/middleware"
	"storefront-backend/models"
	"storefront-backend/services"
	"storefront-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Welcomer greets newly registered accounts.
type Welcomer interface {
	Welcome(user *models.User)
}

type AuthHandler struct {
	DB       *gorm.DB
	Carts    *services.CartService
	Welcomer Welcomer
	Log      *zap.Logger
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dtos.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	email := normalizeEmail(req.Email)

	var existing models.User
	err := h.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		fail(c, apperrors.ErrEmailTaken)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, apperrors.Wrap(apperrors.ErrInternal, err))
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Email:    email,
		Password: string(hashedPassword),
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		Role:     models.RoleCustomer,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	h.mergeSessionCart(c, user.ID)
	if h.Welcomer != nil {
		h.Welcomer.Welcome(&user)
	}
	h.issueTokens(c, http.StatusCreated, &user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dtos.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		fail(c, apperrors.ErrInvalidCredentials)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		fail(c, apperrors.ErrInvalidCredentials)
		return
	}

	h.mergeSessionCart(c, user.ID)
	h.issueTokens(c, http.StatusOK, &user)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dtos.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	claims, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	// Re-read the account so deleted users and role changes take effect.
	var user models.User
	if err := h.DB.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	h.issueTokens(c, http.StatusOK, &user)
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		fail(c, apperrors.ErrUnauthorized)
		return
	}

	var user models.User
	if err := h.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, dtos.NewUserResource(user))
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		fail(c, apperrors.ErrUnauthorized)
		return
	}
	var req dtos.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
		updates["name"] = user.Name
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
		updates["phone"] = user.Phone
	}
	if len(updates) > 0 {
		if err := h.DB.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
	}
	c.JSON(http.StatusOK, dtos.NewUserResource(user))
}

// mergeSessionCart folds the visitor's anonymous cart into the account.
// A failed merge is logged; it never blocks signing in.
func (h *AuthHandler) mergeSessionCart(c *gin.Context, userID uuid.UUID) {
	token := c.GetString(middleware.SessionTokenKey)
	if h.Carts == nil || token == "" {
		return
	}
	if err := h.Carts.MergeSessionCart(c.Request.Context(), userID, token); err != nil {
		logger.FromContext(c, h.Log).Error("failed to merge session cart",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

func (h *AuthHandler) issueTokens(c *gin.Context, status int, user *models.User) {
	token, err := utils.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}

	c.JSON(status, gin.H{
		"token":         token,
		"refresh_token": refreshToken,
		"user":          dtos.NewUserResource(*user),
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
