package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitalpoint/wellness-backend/internal/models"
	"gorm.io/gorm"
)

// UserHandler serves user profile endpoints.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// Me returns the current user's profile projection.
func (h *UserHandler) Me(c *gin.Context) {
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, CurrentUserID(c)).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, CodeNotFound, "user not found")
			return
		}
		RespondError(c, http.StatusInternalServerError, CodeInternal, "get user failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                      user.ID,
		"username":                user.Username,
		"email":                   user.Email,
		"points":                  user.Points,
		"level":                   user.Level,
		"streak":                  user.Streak,
		"badges":                  user.Badges,
		"unlockedPremiumDiscount": user.UnlockedPremiumDiscount,
		"discountPercentage":      user.DiscountPercentage,
		"avatar":                  user.AvatarURL,
		"lastActive":              user.LastActive,
		"createdAt":               user.CreatedAt,
	})
}
