package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitalpoint/wellness-backend/internal/analytics"
)

// AnalyticsHandler serves engagement report endpoints.
type AnalyticsHandler struct {
	service *analytics.Service
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Me returns the current user's engagement report.
func (h *AnalyticsHandler) Me(c *gin.Context) {
	report, errReport := h.service.UserReportFor(c.Request.Context(), CurrentUserID(c))
	if errReport != nil {
		if errors.Is(errReport, analytics.ErrUserNotFound) {
			RespondError(c, http.StatusNotFound, CodeNotFound, "user not found")
			return
		}
		RespondError(c, http.StatusInternalServerError, CodeInternal, "build report failed")
		return
	}
	c.JSON(http.StatusOK, report)
}

// Platform returns platform-wide engagement analytics.
func (h *AnalyticsHandler) Platform(c *gin.Context) {
	report, errReport := h.service.PlatformReport(c.Request.Context())
	if errReport != nil {
		RespondError(c, http.StatusInternalServerError, CodeInternal, "build report failed")
		return
	}
	c.JSON(http.StatusOK, report)
}
