// Package handler is the entry point for serverless deployments: it
// builds the same router as cmd/server once at cold start and serves
// requests through it.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/curiouspeterson/dispatch-scheduler-api/internal/config"
	"github.com/curiouspeterson/dispatch-scheduler-api/internal/metrics"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/auth"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/database"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/handlers"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing).
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("loading configuration")
	}

	db, err := database.InitDB(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		logrus.WithError(err).Fatal("initializing database")
	}
	_ = auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword)

	metrics.RegisterDefault()

	h := &handlers.Handler{
		DB:      db,
		Auth:    auth.NewService(cfg.JWTSecret, cfg.APIMasterSecret),
		Metrics: metrics.NewRecorder(),
	}

	gin.SetMode(gin.ReleaseMode)
	r = gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Dispatch Schedule Generation API",
			"version": "1.0.0",
		})
	})

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/schedule/generate", h.GenerateSchedule)
		api.POST("/schedule/validate", h.ValidateInput)
		api.GET("/usage", h.GetMyUsage)
	}
}

// Handler serves one request through the shared router.
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
