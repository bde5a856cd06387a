package microservices

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/courierops/fieldtrack/config"
	httpserver "github.com/courierops/fieldtrack/internal/adapter/http/server"
	repo "github.com/courierops/fieldtrack/internal/adapter/postgres"
	"github.com/courierops/fieldtrack/internal/service/aggregate"
	"github.com/courierops/fieldtrack/internal/service/export"
	"github.com/courierops/fieldtrack/internal/service/identity"
	"github.com/courierops/fieldtrack/internal/service/ranking"
	"github.com/courierops/fieldtrack/internal/service/zone"
	"github.com/courierops/fieldtrack/pkg/logger"
	postgresclient "github.com/courierops/fieldtrack/pkg/postgres"
	"github.com/courierops/fieldtrack/pkg/trm"
)

// AnalyticsService serves daily performance, rankings, zone analytics
// and exports.
type AnalyticsService struct {
	postgresDB *postgresclient.PostgreDB
	httpServer *httpserver.API

	cfg config.Config
	log logger.Logger
}

func NewAnalytics(ctx context.Context, cfg config.Config, log logger.Logger) (*AnalyticsService, error) {
	db, err := postgresclient.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "Failed to setup database", err)
		return nil, err
	}

	txManager := trm.New(db.Pool)

	// repositories
	fixRepo := repo.NewFixRepo(db.Pool)
	dailyRepo := repo.NewDailyMetricRepo(db.Pool)
	zoneRepo := repo.NewZoneRepo(db.Pool)
	zoneEventRepo := repo.NewZoneEventRepo(db.Pool)
	weightsRepo := repo.NewWeightsRepo(db.Pool)
	ledgerRepo := repo.NewLedgerRepo(db.Pool)

	// services
	weightsCfg := ranking.NewWeightsConfig(weightsRepo, log)
	if err := weightsCfg.Load(ctx); err != nil {
		log.Error(ctx, "Failed to load score weights", err)
		return nil, err
	}

	aggregateSvc := aggregate.NewAggregateService(fixRepo, dailyRepo, aggregate.NewDefaultScorer(), txManager, log)
	rankingSvc := ranking.NewRankingService(ledgerRepo, weightsCfg, log)
	zoneSvc := zone.NewZoneService(zoneRepo, zoneEventRepo)
	exportSvc := export.NewExportService(dailyRepo, zoneEventRepo, rankingSvc)
	identitySvc := identity.NewIdentityService(cfg.Auth.JWTSecret, log)

	server, err := httpserver.New(cfg, httpserver.Deps{
		Auth:     identitySvc,
		Metrics:  aggregateSvc,
		Rankings: rankingSvc,
		Zones:    zoneSvc,
		Exporter: exportSvc,
		Weights:  weightsCfg,
	}, log)
	if err != nil {
		log.Error(ctx, "Failed to setup http server", err)
		return nil, err
	}

	return &AnalyticsService{
		postgresDB: db,
		httpServer: server,
		cfg:        cfg,
		log:        log,
	}, nil
}

func (s *AnalyticsService) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	s.httpServer.Run(ctx, errCh)
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "analytics service closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "Analytics service has been started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shutting down application", "signal", sig.String())
		return nil
	}
}

func (s *AnalyticsService) close(ctx context.Context) {
	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	if s.postgresDB != nil && s.postgresDB.Pool != nil {
		s.postgresDB.Pool.Close()
	}
}
