package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vitalpoint/wellness-backend/internal/points"
)

// EventHandler serves event recording and history endpoints.
type EventHandler struct {
	engine *points.Engine
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(engine *points.Engine) *EventHandler {
	return &EventHandler{engine: engine}
}

// recordEventRequest defines the request body for event recording.
type recordEventRequest struct {
	EventType string         `json:"event_type"`
	Metadata  map[string]any `json:"metadata"`
}

// Record appends an event for the current user and returns the updated
// point totals.
func (h *EventHandler) Record(c *gin.Context) {
	var body recordEventRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		RespondError(c, http.StatusBadRequest, CodeValidation, "invalid json")
		return
	}
	if body.EventType == "" {
		RespondError(c, http.StatusBadRequest, CodeValidation, "missing event_type")
		return
	}

	result, errRecord := h.engine.Record(c.Request.Context(), CurrentUserID(c), body.EventType, body.Metadata)
	if errRecord != nil {
		if errors.Is(errRecord, points.ErrUserNotFound) {
			RespondError(c, http.StatusNotFound, CodeNotFound, "user not found")
			return
		}
		RespondError(c, http.StatusInternalServerError, CodeInternal, "record event failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event": gin.H{
			"id":            result.Event.ID,
			"eventType":     result.Event.EventType,
			"pointsAwarded": result.Event.PointsAwarded,
			"timestamp":     result.Event.Timestamp,
		},
		"pointsAwarded":           result.Event.PointsAwarded,
		"totalPoints":             result.User.Points,
		"level":                   result.User.Level,
		"levelUp":                 result.LevelUp,
		"unlockedPremiumDiscount": result.User.UnlockedPremiumDiscount,
		"discountPercentage":      result.User.DiscountPercentage,
		"message":                 result.Message,
	})
}

// History returns the current user's most recent events.
func (h *EventHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	events, errHistory := h.engine.History(c.Request.Context(), CurrentUserID(c), limit)
	if errHistory != nil {
		RespondError(c, http.StatusInternalServerError, CodeInternal, "list events failed")
		return
	}

	out := make([]gin.H, 0, len(events))
	for _, event := range events {
		out = append(out, gin.H{
			"id":            event.ID,
			"eventType":     event.EventType,
			"pointsAwarded": event.PointsAwarded,
			"metadata":      event.Metadata,
			"timestamp":     event.Timestamp,
		})
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}
