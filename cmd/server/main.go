package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/talentwatch/perfpredict/internal/cache"
	"github.com/talentwatch/perfpredict/internal/errors"
	"github.com/talentwatch/perfpredict/internal/history"
	"github.com/talentwatch/perfpredict/internal/monitoring"
	"github.com/talentwatch/perfpredict/internal/prediction"
	"github.com/talentwatch/perfpredict/internal/ratelimit"
	"github.com/talentwatch/perfpredict/internal/security"
	"github.com/talentwatch/perfpredict/internal/types"
)

// app bundles the services the HTTP layer depends on
type app struct {
	predictor *prediction.Predictor
	history   *history.Store
	metrics   *monitoring.Metrics
	logger    *monitoring.Logger
	cache     *cache.Cache
	limiter   *ratelimit.RateLimiter
}

func main() {
	// Structured logging setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	modelDir := getEnvOrDefault("MODEL_DIR", dataDir)
	port := getEnvOrDefault("PORT", "8080")

	predictor := prediction.NewFromDirs(modelDir, dataDir)
	if predictor.ModelLoaded() {
		slog.Info("Model classifier loaded", "version", predictor.ModelVersion())
	} else {
		slog.Warn("No model artifact found, predictions will use rule-based scoring")
	}

	store, err := history.Open(dataDir)
	if err != nil {
		slog.Error("Failed to initialize prediction history", "error", err)
		os.Exit(1)
	}
	defer errors.SafeClose(store, "prediction history store")

	appMetrics := monitoring.NewMetrics()
	a := &app{
		predictor: predictor,
		history:   store,
		metrics:   appMetrics,
		logger:    monitoring.NewLogger(),
		cache:     cache.NewCache(15 * time.Minute),
		limiter:   ratelimit.NewRateLimiter(ratelimit.DefaultConfig(), appMetrics),
	}

	r := setupRouter(a)

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// setupRouter wires middleware and routes; shared by main and the tests
func setupRouter(a *app) *gin.Engine {
	r := gin.New()

	// Monitoring middleware first to capture all requests
	r.Use(monitoring.MonitoringMiddleware(a.metrics, a.logger))

	// Error handling middleware
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.Use(security.SecurityHeadersMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(corsConfig))

	r.Use(a.limiter.IPRateLimitMiddleware())
	r.Use(a.cache.Middleware(a.metrics))

	r.POST("/predict", a.handlePredict)
	r.GET("/model/status", a.handleModelStatus)
	r.GET("/health", a.handleHealth)
	r.GET("/metrics", a.handleMetrics)
	r.GET("/cache/stats", a.handleCacheStats)
	r.GET("/history/recent", a.handleRecentHistory)

	return r
}

// handlePredict classifies one employee record. The engine itself never
// fails, so the only error path here is a body that is not a JSON object.
func (a *app) handlePredict(c *gin.Context) {
	var record types.EmployeeRecord
	if err := c.BindJSON(&record); err != nil {
		appErr := errors.NewValidationError("request body must be a JSON object")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	start := time.Now()
	res := a.predictor.PredictWithProbability(record)
	duration := time.Since(start)

	a.metrics.RecordPrediction(res.Method)
	a.logger.PredictionLogger(res.Prediction, res.PredictionLabel, res.Method, duration)

	// Record history without blocking the response
	subject := subjectRef(record)
	go func() {
		if _, err := a.history.Save(subject, res); err != nil {
			slog.Error("Failed to save prediction history", "error", err, "subject", subject)
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"prediction":        res.Prediction,
		"prediction_label":  res.PredictionLabel,
		"probabilities":     res.Probabilities,
		"key_factors":       res.KeyFactors,
		"prediction_method": res.Method,
		"model_used":        a.predictor.ModelLoaded(),
	})
}

func (a *app) handleModelStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"model_loaded":            a.predictor.ModelLoaded(),
		"model_version":           a.predictor.ModelVersion(),
		"encodings_from_artifact": a.predictor.EncodingsFromArtifact(),
	})
}

func (a *app) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"timestamp":    time.Now().Format(time.RFC3339),
		"version":      "1.0.0",
		"model_loaded": a.predictor.ModelLoaded(),
		"metrics":      a.metrics.GetStats(),
	})
}

func (a *app) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, a.metrics.GetStats())
}

func (a *app) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, a.cache.Stats())
}

func (a *app) handleRecentHistory(c *gin.Context) {
	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	entries, err := a.history.Recent(limit)
	if err != nil {
		a.logger.APIErrorLogger(err, "GET", "/history/recent", c.ClientIP(), http.StatusInternalServerError)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve prediction history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":   entries,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// subjectRef pulls an identifier out of the raw record for history entries
func subjectRef(record types.EmployeeRecord) string {
	for _, key := range []string{"employee_id", "EmpID", "emp_id", "employee_name", "Employee_Name", "name"} {
		if v, ok := record[key]; ok {
			switch s := v.(type) {
			case string:
				if s != "" {
					return s
				}
			case float64:
				return strconv.FormatFloat(s, 'f', -1, 64)
			}
		}
	}
	return "unknown"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
