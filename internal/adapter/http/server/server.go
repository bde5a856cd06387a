package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/courierops/fieldtrack/config"
	"github.com/courierops/fieldtrack/internal/adapter/http/handler"
	"github.com/courierops/fieldtrack/internal/adapter/http/middleware"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/logger"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	ws "github.com/courierops/fieldtrack/pkg/wsHub"
)

const serverIPAddress = "%s:%s"

type API struct {
	mode   types.ServiceMode
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	health    *handler.Health
	telemetry *handler.Telemetry
	analytics *handler.Analytics
	feed      *handler.Feed
}

// Deps carries the service-side collaborators each mode may need. The
// mode switch picks the ones it actually wires.
type Deps struct {
	Auth      middleware.AuthService
	Telemetry handler.TelemetryService
	Metrics   handler.MetricService
	Rankings  handler.RankingService
	Zones     handler.ZoneAnalyticsService
	Exporter  handler.ExportService
	Weights   handler.WeightsService
	FeedHub   *ws.ConnectionHub
}

func New(cfg config.Config, deps Deps, logger logger.Logger) (*API, error) {
	var addr string
	routes := &handlers{}

	if deps.Auth == nil {
		return nil, errors.New("auth service is required")
	}

	switch cfg.Mode {
	case types.TelemetryService:
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.TelemetryService)
		routes.health = handler.NewHealth("telemetry", logger)
		routes.telemetry = handler.NewTelemetry(deps.Telemetry, logger)
		routes.feed = handler.NewFeed(deps.FeedHub, logger)
	case types.AnalyticsService:
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.AnalyticsService)
		routes.health = handler.NewHealth("analytics", logger)
		routes.analytics = handler.NewAnalytics(deps.Metrics, deps.Rankings, deps.Zones, deps.Exporter, deps.Weights, logger)
	default:
		return nil, fmt.Errorf("invalid mode: %s", cfg.Mode)
	}

	mid := middleware.NewMiddleware(deps.Auth, logger)

	api := &API{
		mode: cfg.Mode,

		mux:    http.NewServeMux(),
		routes: routes,
		m:      mid,
		addr:   addr,
		cfg:    cfg,
		log:    logger,
	}

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.withMiddleware(),
	}

	setupRoutes(api.mux, api.routes, api.m, api.mode, api.log)

	return api, nil
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// withMiddleware applies middlewares to the mux
func (a *API) withMiddleware() http.Handler {
	service := "telemetry"
	if a.mode == types.AnalyticsService {
		service = "analytics"
	}
	return a.m.Recover(a.m.RequestID(a.m.Metrics(service)(a.m.Auth(a.mux))))
}
