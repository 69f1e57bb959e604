package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/lavametrics/backend/src/config"
	"github.com/username/lavametrics/backend/src/database"
	"github.com/username/lavametrics/backend/src/handlers"
	"github.com/username/lavametrics/backend/src/logger"
	"github.com/username/lavametrics/backend/src/processors"
	"github.com/username/lavametrics/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
			"http://localhost:5173": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Lavametrics backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	logger.L.Info("Report cache initialized.")

	logger.L.Info("Initializing services and handlers...")
	business := config.Cfg.Business
	analytics := config.Cfg.Analytics

	normalizer := processors.NewRecordNormalizer(business)
	aggregator := processors.NewAggregationProcessor(business)
	growthProcessor := processors.NewGrowthProcessor(analytics)
	customerProcessor := processors.NewCustomerProcessor(analytics, business.Location)
	heatmapProcessor := processors.NewHeatmapProcessor(business)
	comparisonProcessor := processors.NewComparisonProcessor(business)

	importService := services.NewImportService(normalizer, reportCache)
	analyticsService := services.NewAnalyticsService(
		aggregator, growthProcessor, customerProcessor,
		heatmapProcessor, comparisonProcessor,
		business, analytics, reportCache,
	)

	importHandler := handlers.NewImportHandler(importService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/import", importHandler.HandleImport)
	apiRouter.HandleFunc("GET /api/imports/history", importHandler.HandleImportHistory)

	apiRouter.HandleFunc("GET /api/analytics/summary", analyticsHandler.HandleSummary)
	apiRouter.HandleFunc("GET /api/analytics/monthly", analyticsHandler.HandleMonthly)
	apiRouter.HandleFunc("GET /api/analytics/weekly", analyticsHandler.HandleWeekly)
	apiRouter.HandleFunc("GET /api/analytics/daily", analyticsHandler.HandleDaily)
	apiRouter.HandleFunc("GET /api/analytics/seasonal", analyticsHandler.HandleSeasonal)
	apiRouter.HandleFunc("GET /api/analytics/forecast", analyticsHandler.HandleForecast)
	apiRouter.HandleFunc("GET /api/analytics/customers", analyticsHandler.HandleCustomers)
	apiRouter.HandleFunc("GET /api/analytics/heatmap", analyticsHandler.HandleHeatmap)
	apiRouter.HandleFunc("GET /api/analytics/compare", analyticsHandler.HandleCompare)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Lavametrics backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
