package routes

import (
	"net/http"

	"weatherclassifier/internal/config"
	"weatherclassifier/internal/handlers"
	"weatherclassifier/internal/logger"
	"weatherclassifier/internal/metrics"
	"weatherclassifier/internal/middleware"
	"weatherclassifier/internal/services"
)

// SetupRoutes registers the prediction, history, log and metrics endpoints
// and wraps the mux with the authentication middleware.
func SetupRoutes(manager *services.Manager, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", metrics.Handler())

	// Classification
	mux.HandleFunc("/api/predict", handlers.PredictHandler(manager, cfg, logger))
	mux.HandleFunc("/api/view", handlers.ViewWebsocketHandler(manager, logger))

	// History
	mux.HandleFunc("/api/history/date", handlers.HistoryByDateHandler(manager, logger))
	mux.HandleFunc("/api/history/time-range", handlers.HistoryByTimeRangeHandler(manager, logger))
	mux.HandleFunc("/api/history/statistics", handlers.StatisticsHandler(manager, logger))
	mux.HandleFunc("/api/history/hourly", handlers.HourlyStatisticsHandler(manager, logger))
	mux.HandleFunc("/api/history/all", handlers.AllHistoryHandler(manager, logger))
	mux.HandleFunc("/api/history/export", handlers.ExportHistoryHandler(manager, logger))
	mux.HandleFunc("/api/history/cleanup", handlers.CleanupHistoryHandler(manager, logger))

	// Log endpoints
	for _, level := range []struct{ path, file string }{
		{"info", "info.log"},
		{"warning", "warning.log"},
		{"error", "error.log"},
	} {
		mux.HandleFunc("/logs/"+level.path, handlers.ShowLogsHandler(logger, level.file))
		mux.HandleFunc("/logs/"+level.path+"/clear", handlers.ClearLogsHandler(logger, level.file))
	}

	return middleware.AuthMiddleware(cfg.APIToken, mux)
}
