// Package handlers wires the HTTP surface around the generation core:
// the generation endpoint, input validation, health reporting, and admin
// key management.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/curiouspeterson/dispatch-scheduler-api/internal/metrics"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/auth"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/database"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/models"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/scheduler"
)

// Handler contains dependencies for the route handlers.
type Handler struct {
	DB      *gorm.DB
	Auth    *auth.Service
	Metrics *metrics.Recorder
}

// AuthMiddleware verifies the JWT token for admin routes.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC API key for scheduling routes.
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearerToken(c)
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			c.Abort()
			return
		}

		userID, err := h.Auth.VerifyAPIKey(key)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			c.Abort()
			return
		}

		// Fetch or create the key record to track usage.
		var apiKey database.APIKey
		h.DB.Where(database.APIKey{Key: key}).FirstOrCreate(&apiKey, database.APIKey{
			Key:       key,
			Name:      userID,
			RateLimit: 10000,
		})

		c.Set("apiKey", &apiKey)
		c.Set("userID", userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	}
	return token
}

// GenerateRequest is the body of the schedule generation endpoint.
type GenerateRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	// DryRun skips persistence so a caller can preview the result.
	DryRun bool `json:"dry_run"`
}

// GenerateSchedule runs schedule generation over the requested window.
// A result with success=false is returned with HTTP 400 and never
// persisted; assignments and coverage are still included so the caller
// can inspect the broken schedule.
func (h *Handler) GenerateSchedule(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := time.ParseInLocation(database.DateFormat, req.StartDate, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return
	}
	end, err := time.ParseInLocation(database.DateFormat, req.EndDate, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
		return
	}

	input, err := database.LoadGenerationInput(h.DB)
	if err != nil {
		logrus.WithError(err).Error("loading generation input")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load scheduling data"})
		return
	}

	started := time.Now()
	result := scheduler.NewGenerator(input).Generate(scheduler.Options{StartDate: start, EndDate: end})
	elapsed := time.Since(started)

	stats := runStats(result, elapsed)
	h.Metrics.Record(stats)
	if err := database.RecordRun(h.DB, database.GenerationRun{
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Success:            result.Success,
		CoverageDeficits:   stats.CoverageDeficits,
		OvertimeViolations: stats.OvertimeViolations,
		PatternErrors:      stats.PatternErrors,
		DurationMs:         elapsed.Milliseconds(),
	}); err != nil {
		logrus.WithError(err).Warn("recording generation run")
	}

	h.RecordUsage(c, len(result.Coverage), len(result.Assignments))

	if result.Success && !req.DryRun {
		if err := database.ReplaceAssignments(h.DB, start, end, result.Assignments); err != nil {
			logrus.WithError(err).Error("persisting assignments")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not persist assignments"})
			return
		}
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

// runStats counts violations by kind across warnings and errors.
func runStats(result models.GenerationResult, elapsed time.Duration) metrics.RunStats {
	stats := metrics.RunStats{
		Success:     result.Success,
		Duration:    elapsed,
		CompletedAt: time.Now(),
	}
	count := func(violations []models.Violation) {
		for _, v := range violations {
			switch v.Kind {
			case models.ViolationCoverageDeficit:
				stats.CoverageDeficits++
			case models.ViolationOvertime:
				stats.OvertimeViolations++
			case models.ViolationPatternConflict, models.ViolationInvalidPatternData:
				stats.PatternErrors++
			}
		}
	}
	count(result.Warnings)
	count(result.Errors)
	return stats
}

// RecordUsage upserts the per-key daily usage counters.
func (h *Handler) RecordUsage(c *gin.Context, datesCovered, assignments int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	today := time.Now().Format(database.DateFormat)

	// Single-query upsert, supported by both Postgres and SQLite.
	h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"dates_covered": gorm.Expr("dates_covered + ?", datesCovered),
			"assignments":   gorm.Expr("assignments + ?", assignments),
		}),
	}).Create(&database.APIUsage{
		KeyID:        apiKey.ID,
		Date:         today,
		RequestCount: 1,
		DatesCovered: datesCovered,
		Assignments:  assignments,
	})
}

// Login handles admin login.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.AdminUser
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.Auth.CreateToken(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// GenerateKey creates a new API key using the HMAC strategy.
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if req.RateLimit == 0 {
		req.RateLimit = 10000
	}

	key := h.Auth.GenerateAPIKey(req.Name)

	preview := "****"
	if len(key) > 8 {
		preview = key[:3] + "..." + key[len(key)-4:]
	}

	apiKey := database.APIKey{
		Key:        key,
		Name:       req.Name,
		KeyPreview: preview,
		RateLimit:  req.RateLimit,
	}
	if err := h.DB.Create(&apiKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create key record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": req.Name, "key": key})
}

// ListKeys returns all API keys.
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	h.DB.Find(&keys)
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey deletes an API key.
func (h *Handler) RevokeKey(c *gin.Context) {
	id := c.Param("id")
	if err := h.DB.Delete(&database.APIKey{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the rate limit for a key.
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate_limit is required"})
			return
		}
	}
	if req.RateLimit == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate limit"})
		return
	}

	if err := h.DB.Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", req.RateLimit).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update key limit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}

// GetUsage returns usage stats for a key.
func (h *Handler) GetUsage(c *gin.Context) {
	id := c.Param("id")
	var usage []database.APIUsage
	h.DB.Where("key_id = ?", id).Order("date desc").Limit(30).Find(&usage)
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}
