package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vitalpoint/wellness-backend/internal/analytics"
	"github.com/vitalpoint/wellness-backend/internal/challenges"
	"github.com/vitalpoint/wellness-backend/internal/config"
	"github.com/vitalpoint/wellness-backend/internal/http/api/handlers"
	"github.com/vitalpoint/wellness-backend/internal/insurance"
	"github.com/vitalpoint/wellness-backend/internal/leaderboard"
	"github.com/vitalpoint/wellness-backend/internal/models"
	"github.com/vitalpoint/wellness-backend/internal/points"
	"github.com/vitalpoint/wellness-backend/internal/ratelimit"
	"github.com/vitalpoint/wellness-backend/internal/security"
	"gorm.io/gorm"
)

// RegisterRoutes registers all API routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, rlCfg config.RateLimitConfig, limiter *ratelimit.Manager) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	apiGroup := r.Group("/api")
	apiGroup.Use(userAuthMiddleware(db, jwtCfg))
	apiGroup.Use(rateLimitMiddleware(limiter, rlCfg.PerSecond))

	eventHandler := handlers.NewEventHandler(points.NewEngine(db))
	apiGroup.POST("/events", eventHandler.Record)
	apiGroup.GET("/events/history", eventHandler.History)

	challengeHandler := handlers.NewChallengeHandler(challenges.NewEngine(db))
	apiGroup.GET("/challenges/active", challengeHandler.Active)
	apiGroup.GET("/challenges/personalized", challengeHandler.Personalized)
	apiGroup.POST("/challenges/:id/progress", challengeHandler.Progress)

	insuranceHandler := handlers.NewInsuranceHandler(insurance.NewEngine(db))
	apiGroup.GET("/insurance/plans", insuranceHandler.Plans)
	apiGroup.GET("/insurance/plans/:id", insuranceHandler.Plan)
	apiGroup.POST("/insurance/enroll", insuranceHandler.Enroll)
	apiGroup.GET("/insurance/current", insuranceHandler.Current)
	apiGroup.GET("/insurance/calculate-discount", insuranceHandler.CalculateDiscount)

	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboard.NewRanker(db))
	apiGroup.GET("/leaderboard", leaderboardHandler.List)
	apiGroup.GET("/leaderboard/nearby", leaderboardHandler.Nearby)

	analyticsHandler := handlers.NewAnalyticsHandler(analytics.NewService(db))
	apiGroup.GET("/analytics/me", analyticsHandler.Me)
	apiGroup.GET("/analytics/platform", analyticsHandler.Platform)

	userHandler := handlers.NewUserHandler(db)
	apiGroup.GET("/users/me", userHandler.Me)
}

// userAuthMiddleware validates bearer JWTs and loads the user into the
// request context. Identity is established upstream; tokens only carry
// the user ID.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortError(c, http.StatusUnauthorized, handlers.CodeUnauthorized, "missing authorization header")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			abortError(c, http.StatusUnauthorized, handlers.CodeUnauthorized, "invalid authorization format")
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			abortError(c, http.StatusUnauthorized, handlers.CodeUnauthorized, "empty token")
			return
		}

		userID, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			abortError(c, http.StatusUnauthorized, handlers.CodeUnauthorized, "invalid token")
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, userID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				abortError(c, http.StatusUnauthorized, handlers.CodeUnauthorized, "user not found")
				return
			}
			abortError(c, http.StatusInternalServerError, handlers.CodeInternal, "load user failed")
			return
		}

		c.Set(handlers.ContextUserID, user.ID)
		c.Next()
	}
}

// rateLimitMiddleware enforces the per-user request ceiling. A nil
// manager or non-positive limit disables enforcement.
func rateLimitMiddleware(limiter *ratelimit.Manager, perSecond int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || perSecond <= 0 {
			c.Next()
			return
		}

		key := ratelimit.KeyForUser(handlers.CurrentUserID(c))
		result, errAllow := limiter.Allow(c.Request.Context(), key, perSecond)
		if errAllow != nil {
			// Limiter trouble never blocks traffic.
			c.Next()
			return
		}
		if !result.Allowed {
			abortError(c, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
			return
		}
		c.Next()
	}
}

func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}
