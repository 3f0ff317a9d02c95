package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vitalpoint/wellness-backend/internal/challenges"
	"github.com/vitalpoint/wellness-backend/internal/models"
)

// ChallengeHandler serves challenge endpoints.
type ChallengeHandler struct {
	engine *challenges.Engine
}

// NewChallengeHandler constructs a ChallengeHandler.
func NewChallengeHandler(engine *challenges.Engine) *ChallengeHandler {
	return &ChallengeHandler{engine: engine}
}

// Active lists the current user's active, unexpired challenges.
func (h *ChallengeHandler) Active(c *gin.Context) {
	rows, errList := h.engine.ActiveForUser(c.Request.Context(), CurrentUserID(c))
	if errList != nil {
		RespondError(c, http.StatusInternalServerError, CodeInternal, "list challenges failed")
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, challenge := range rows {
		out = append(out, challengeBody(&challenge))
	}
	c.JSON(http.StatusOK, gin.H{"challenges": out})
}

// Personalized generates a challenge from the current user's activity gaps.
func (h *ChallengeHandler) Personalized(c *gin.Context) {
	challenge, errGenerate := h.engine.GeneratePersonalized(c.Request.Context(), CurrentUserID(c))
	if errGenerate != nil {
		RespondError(c, http.StatusInternalServerError, CodeInternal, "generate challenge failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenge": challengeBody(challenge)})
}

// progressRequest defines the request body for progress updates.
type progressRequest struct {
	Increment int `json:"increment"`
}

// Progress increments a challenge's progress counter. The challenge must
// belong to the current user.
func (h *ChallengeHandler) Progress(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		RespondError(c, http.StatusBadRequest, CodeValidation, "invalid challenge id")
		return
	}

	// The body is optional; a missing increment defaults to 1.
	var body progressRequest
	if c.Request.ContentLength > 0 {
		if errBind := c.ShouldBindJSON(&body); errBind != nil {
			RespondError(c, http.StatusBadRequest, CodeValidation, "invalid json")
			return
		}
	}

	challenge, errGet := h.engine.Get(c.Request.Context(), id)
	if errGet != nil {
		if errors.Is(errGet, challenges.ErrChallengeNotFound) {
			RespondError(c, http.StatusNotFound, CodeNotFound, "challenge not found")
			return
		}
		RespondError(c, http.StatusInternalServerError, CodeInternal, "get challenge failed")
		return
	}
	if challenge.UserID != CurrentUserID(c) {
		RespondError(c, http.StatusForbidden, CodeForbidden, "challenge belongs to another user")
		return
	}

	updated, errUpdate := h.engine.UpdateProgress(c.Request.Context(), id, body.Increment)
	if errUpdate != nil {
		RespondError(c, http.StatusInternalServerError, CodeInternal, "update progress failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"challenge": challengeBody(updated),
		"completed": updated.Status == models.ChallengeStatusCompleted,
	})
}

func challengeBody(challenge *models.Challenge) gin.H {
	return gin.H{
		"id":              challenge.ID,
		"challengeType":   challenge.ChallengeType,
		"title":           challenge.Title,
		"description":     challenge.Description,
		"category":        challenge.Category,
		"difficulty":      challenge.Difficulty,
		"targetValue":     challenge.TargetValue,
		"currentProgress": challenge.CurrentProgress,
		"status":          challenge.Status,
		"rewardPoints":    challenge.RewardPoints,
		"startDate":       challenge.StartDate,
		"endDate":         challenge.EndDate,
		"completedAt":     challenge.CompletedAt,
	}
}
