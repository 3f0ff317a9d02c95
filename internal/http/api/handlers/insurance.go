package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vitalpoint/wellness-backend/internal/insurance"
	"github.com/vitalpoint/wellness-backend/internal/models"
)

// InsuranceHandler serves plan, enrollment, and discount endpoints.
type InsuranceHandler struct {
	engine *insurance.Engine
}

// NewInsuranceHandler constructs an InsuranceHandler.
func NewInsuranceHandler(engine *insurance.Engine) *InsuranceHandler {
	return &InsuranceHandler{engine: engine}
}

// Plans lists all available insurance plans.
func (h *InsuranceHandler) Plans(c *gin.Context) {
	plans, errList := h.engine.Plans(c.Request.Context())
	if errList != nil {
		RespondError(c, http.StatusInternalServerError, CodeInternal, "list plans failed")
		return
	}

	out := make([]gin.H, 0, len(plans))
	for _, plan := range plans {
		out = append(out, planBody(&plan))
	}
	c.JSON(http.StatusOK, gin.H{"plans": out})
}

// Plan returns a single plan by ID.
func (h *InsuranceHandler) Plan(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		RespondError(c, http.StatusBadRequest, CodeValidation, "invalid plan id")
		return
	}

	plan, errGet := h.engine.Plan(c.Request.Context(), id)
	if errGet != nil {
		if errors.Is(errGet, insurance.ErrPlanNotFound) {
			RespondError(c, http.StatusNotFound, CodeNotFound, "plan not found")
			return
		}
		RespondError(c, http.StatusInternalServerError, CodeInternal, "get plan failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": planBody(plan)})
}

// enrollRequest defines the request body for plan enrollment.
type enrollRequest struct {
	PlanID uint64 `json:"plan_id"`
}

// Enroll enrolls the current user in a plan and applies the initial
// activity discount.
func (h *InsuranceHandler) Enroll(c *gin.Context) {
	var body enrollRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		RespondError(c, http.StatusBadRequest, CodeValidation, "invalid json")
		return
	}
	if body.PlanID == 0 {
		RespondError(c, http.StatusBadRequest, CodeValidation, "missing plan_id")
		return
	}

	enrollment, initial, errEnroll := h.engine.Enroll(c.Request.Context(), CurrentUserID(c), body.PlanID)
	if errEnroll != nil {
		switch {
		case errors.Is(errEnroll, insurance.ErrPlanNotFound):
			RespondError(c, http.StatusNotFound, CodeNotFound, "plan not found")
		case errors.Is(errEnroll, insurance.ErrAlreadyEnrolled):
			RespondError(c, http.StatusConflict, CodeAlreadyEnrolled, "user already has active insurance")
		default:
			RespondError(c, http.StatusInternalServerError, CodeInternal, "enroll failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"enrollment":        enrollmentBody(enrollment),
		"initialDiscount":   initial,
		"formattedDiscount": insurance.FormatDiscount(initial),
	})
}

// Current returns the current user's active enrollment with plan details.
func (h *InsuranceHandler) Current(c *gin.Context) {
	enrollment, errGet := h.engine.CurrentForUser(c.Request.Context(), CurrentUserID(c))
	if errGet != nil {
		if errors.Is(errGet, insurance.ErrNoActiveInsurance) {
			RespondError(c, http.StatusNotFound, CodeNotFound, "no active insurance found")
			return
		}
		RespondError(c, http.StatusInternalServerError, CodeInternal, "get insurance failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"insurance": enrollmentBody(enrollment)})
}

// CalculateDiscount derives the current user's activity discount without
// applying it.
func (h *InsuranceHandler) CalculateDiscount(c *gin.Context) {
	discount := h.engine.CalculateDiscount(c.Request.Context(), CurrentUserID(c))
	c.JSON(http.StatusOK, gin.H{
		"discount":          discount,
		"formattedDiscount": insurance.FormatDiscount(discount),
	})
}

func planBody(plan *models.InsurancePlan) gin.H {
	return gin.H{
		"id":          plan.ID,
		"name":        plan.Name,
		"type":        plan.Type,
		"premium":     plan.Premium,
		"coverage":    plan.Coverage,
		"features":    plan.Features,
		"maxDiscount": plan.MaxDiscount,
	}
}

func enrollmentBody(enrollment *insurance.Enrollment) gin.H {
	return gin.H{
		"id":              enrollment.ID,
		"planId":          enrollment.PlanID,
		"currentDiscount": enrollment.CurrentDiscount,
		"startDate":       enrollment.StartDate,
		"lastUpdateDate":  enrollment.LastUpdateDate,
		"status":          enrollment.Status,
		"plan":            planBody(&enrollment.PlanDetails),
	}
}
