package front

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/personal-organizer/organizer/internal/config"
	"github.com/personal-organizer/organizer/internal/goals"
	"github.com/personal-organizer/organizer/internal/habits"
	handlers "github.com/personal-organizer/organizer/internal/http/api/front/handlers"
	"github.com/personal-organizer/organizer/internal/models"
	"github.com/personal-organizer/organizer/internal/ratelimit"
	"github.com/personal-organizer/organizer/internal/security"
	"github.com/personal-organizer/organizer/internal/stats"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegisterFrontRoutes registers the public and authenticated API routes.
// A nil limiter disables rate limiting; a nil now defaults to time.Now.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, limiter *ratelimit.Manager, now func() time.Time) {
	if r == nil || db == nil {
		return
	}
	if now == nil {
		now = time.Now
	}

	habitSvc := habits.NewService(db, now)
	goalSvc := goals.NewService(db, now)
	statsSvc := stats.NewService(db, habitSvc)

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authHandler := handlers.NewAuthHandler(db, jwtCfg, now)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(userAuthMiddleware(db, jwtCfg))
	authed.Use(rateLimitMiddleware(limiter))

	userHandler := handlers.NewUserHandler(db)
	authed.GET("/users/me", userHandler.Me)
	authed.PUT("/users/me", userHandler.UpdateMe)

	habitHandler := handlers.NewHabitHandler(habitSvc)
	authed.GET("/habits", habitHandler.List)
	authed.POST("/habits", habitHandler.Create)
	authed.GET("/habits/:id", habitHandler.Get)
	authed.PUT("/habits/:id", habitHandler.Update)
	authed.DELETE("/habits/:id", habitHandler.Delete)
	authed.POST("/habits/:id/log", habitHandler.Log)
	authed.DELETE("/habits/:id/log", habitHandler.Unlog)
	authed.GET("/habits/:id/logs", habitHandler.Logs)

	goalHandler := handlers.NewGoalHandler(goalSvc)
	authed.GET("/goals", goalHandler.List)
	authed.POST("/goals", goalHandler.Create)
	authed.GET("/goals/:id", goalHandler.Get)
	authed.PUT("/goals/:id", goalHandler.Update)
	authed.DELETE("/goals/:id", goalHandler.Delete)
	authed.POST("/goals/:id/duplicate", goalHandler.Duplicate)
	authed.GET("/goals/:id/steps", goalHandler.Steps)
	authed.POST("/goals/:id/steps", goalHandler.AddStep)
	authed.PUT("/goals/:id/steps/:stepId", goalHandler.UpdateStep)
	authed.DELETE("/goals/:id/steps/:stepId", goalHandler.DeleteStep)

	templateHandler := handlers.NewTemplateHandler(goalSvc)
	authed.GET("/templates", templateHandler.List)
	authed.POST("/templates", templateHandler.Create)
	authed.GET("/templates/:id", templateHandler.Get)
	authed.POST("/templates/:id/goals", templateHandler.CreateGoal)

	statsHandler := handlers.NewStatsHandler(statsSvc)
	authed.GET("/dashboard", statsHandler.Dashboard)
	authed.GET("/stats", statsHandler.Overview)
}

// RequestLogger logs one entry per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}
		if userID := c.GetString(handlers.ContextUserIDKey); userID != "" {
			fields["user_id"] = userID
		}
		entry := log.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "route not found"})
}

// userAuthMiddleware validates user JWTs and loads the user id into the context.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			abortUnauthorized(c, "invalid authorization format")
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			abortUnauthorized(c, "empty token")
			return
		}

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		var count int64
		if errCount := db.WithContext(c.Request.Context()).
			Model(&models.User{}).
			Where("id = ?", claims.UserID).
			Count(&count).Error; errCount != nil {
			log.WithError(errCount).Error("auth: load user failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "authentication failed"})
			return
		}
		if count == 0 {
			abortUnauthorized(c, "user not found")
			return
		}

		c.Set(handlers.ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// rateLimitMiddleware enforces the per-user request limit.
func rateLimitMiddleware(limiter *ratelimit.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.Limit() <= 0 {
			c.Next()
			return
		}
		key := ratelimit.KeyForClient(c.ClientIP())
		if userID := c.GetString(handlers.ContextUserIDKey); userID != "" {
			key = ratelimit.KeyForUser(userID)
		}

		result, errAllow := limiter.AllowKey(c.Request.Context(), key)
		if errAllow != nil {
			log.WithError(errAllow).Warn("rate limit check failed")
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Reset.IsZero() {
			c.Header("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))
		}
		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": message})
}
