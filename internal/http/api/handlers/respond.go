package handlers

import (
	"github.com/gin-gonic/gin"
)

// Error codes returned in the error body alongside the message.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeAlreadyEnrolled = "ALREADY_ENROLLED"
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeInternal        = "INTERNAL_ERROR"
)

// ContextUserID is the gin context key under which the auth middleware
// stores the authenticated user's ID.
const ContextUserID = "userID"

// RespondError writes the uniform error body.
func RespondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": message, "code": code})
}

// CurrentUserID returns the authenticated user's ID from the request
// context. Zero means the auth middleware did not run.
func CurrentUserID(c *gin.Context) uint64 {
	value, ok := c.Get(ContextUserID)
	if !ok {
		return 0
	}
	userID, ok := value.(uint64)
	if !ok {
		return 0
	}
	return userID
}
