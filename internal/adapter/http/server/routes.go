package server

import (
	"context"
	"net/http"

	"github.com/courierops/fieldtrack/internal/adapter/http/middleware"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/logger"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware, mode types.ServiceMode, log logger.Logger) {
	// System Health
	mux.HandleFunc("/health", routes.health.HealthCheck)

	setupSwaggerRoutes(mux, mode, log)
	setupMetricsRoute(mux)

	switch mode {
	case types.TelemetryService:
		setupTelemetryRoutes(mux, routes, m)
	case types.AnalyticsService:
		setupAnalyticsRoutes(mux, routes, m)
	}
}

// setupTelemetryRoutes setups routes for the telemetry service
func setupTelemetryRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /telemetry/fixes", m.RequireRoles(routes.telemetry.PushFix, types.RoleWorker))        // Push a device position fix
	mux.Handle("POST /telemetry/tracking", m.RequireRoles(routes.telemetry.SetTracking, types.RoleWorker)) // Enable/disable tracking
	mux.Handle("GET /telemetry/settings", m.RequireRoles(routes.telemetry.GetSettings, types.RoleWorker))  // Current tracking settings
	mux.Handle("GET /telemetry/workers/{worker_id}/last", m.RequireRoles(routes.telemetry.LastPosition, types.RoleManager))
	mux.Handle("GET /ws/feed/{worker_id}", m.RequireRoles(routes.feed.Subscribe, types.RoleManager)) // WebSocket live position feed
}

// setupAnalyticsRoutes setups routes for the analytics service
func setupAnalyticsRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("GET /analytics/daily", m.RequireRoles(routes.analytics.Daily, types.RoleManager))   // Daily metrics per worker or per date
	mux.Handle("GET /analytics/rollup", m.RequireRoles(routes.analytics.Rollup, types.RoleManager)) // Period rollup
	mux.Handle("GET /analytics/rankings", m.RequireRoles(routes.analytics.Rankings, types.RoleManager, types.RoleWorker))
	mux.Handle("GET /analytics/zones", m.RequireRoles(routes.analytics.ZoneStats, types.RoleManager)) // Zone visit analytics
	mux.Handle("GET /analytics/zones/workers/{worker_id}", m.RequireRoles(routes.analytics.WorkerZoneEvents, types.RoleManager))
	mux.Handle("POST /analytics/recompute", m.RequireRoles(routes.analytics.Recompute, types.RoleManager)) // Rebuild a day
	mux.Handle("GET /analytics/weights", m.RequireRoles(routes.analytics.GetWeights, types.RoleManager))
	mux.Handle("PUT /analytics/weights", m.RequireRoles(routes.analytics.UpdateWeights, types.RoleManager)) // Update scoring weights
	mux.Handle("GET /analytics/export", m.RequireRoles(routes.analytics.Export, types.RoleManager))         // CSV export
}

// setupSwaggerRoutes configures Swagger UI endpoints based on service mode
func setupSwaggerRoutes(mux *http.ServeMux, mode types.ServiceMode, log logger.Logger) {
	var instanceName string

	switch mode {
	case types.TelemetryService:
		instanceName = "telemetry"
	case types.AnalyticsService:
		instanceName = "analytics"
	default:
		log.Warn(wrap.WithAction(context.Background(), "setup swagger routes"), "unknown service mode for swagger setup", "mode", mode)
		return
	}

	// Swagger UI endpoint
	swaggerURL := httpSwagger.InstanceName(instanceName)
	mux.HandleFunc("/swagger/", httpSwagger.Handler(swaggerURL))
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
