package main

import (
	"net/http"
	"os"

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

func main() {
	// Load .env if it exists. Try root and parent directories for
	// flexibility.
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("loading configuration")
	}

	setupLogging(cfg.LogLevel)

	if cfg.IsProduction() && os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		logrus.WithError(err).Fatal("initializing database")
	}

	if err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logrus.WithError(err).Fatal("bootstrapping admin user")
	}

	metrics.RegisterDefault()

	h := &handlers.Handler{
		DB:      db,
		Auth:    auth.NewService(cfg.JWTSecret, cfg.APIMasterSecret),
		Metrics: metrics.NewRecorder(),
	}

	r := gin.Default()

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

	logrus.WithField("port", cfg.Port).Info("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("could not run server")
	}
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}
