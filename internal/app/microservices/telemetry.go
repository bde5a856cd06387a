package microservices

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/courierops/fieldtrack/config"
	httpserver "github.com/courierops/fieldtrack/internal/adapter/http/server"
	repo "github.com/courierops/fieldtrack/internal/adapter/postgres"
	"github.com/courierops/fieldtrack/internal/adapter/rabbit"
	"github.com/courierops/fieldtrack/internal/service/identity"
	"github.com/courierops/fieldtrack/internal/service/ingest"
	"github.com/courierops/fieldtrack/pkg/logger"
	postgresclient "github.com/courierops/fieldtrack/pkg/postgres"
	rabbitclient "github.com/courierops/fieldtrack/pkg/rabbit"
	ws "github.com/courierops/fieldtrack/pkg/wsHub"
)

// TelemetryService accepts position fixes over HTTP, fans accepted fixes
// out to the broker and streams them to websocket subscribers.
type TelemetryService struct {
	postgresDB *postgresclient.PostgreDB
	rabbitMQ   *rabbitclient.RabbitMQ
	httpServer *httpserver.API
	feedHub    *ws.ConnectionHub

	cfg config.Config
	log logger.Logger
}

func NewTelemetry(ctx context.Context, cfg config.Config, log logger.Logger) (*TelemetryService, error) {
	db, err := postgresclient.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "Failed to setup database", err)
		return nil, err
	}

	rabbitMQ, err := rabbitclient.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Error(ctx, "Failed to setup rabbitmq", err)
		return nil, err
	}

	broker := rabbit.NewTelemetryBroker(rabbitMQ, log)
	if err := broker.Setup(ctx); err != nil {
		log.Error(ctx, "Failed to declare broker topology", err)
		return nil, err
	}

	// repositories
	fixRepo := repo.NewFixRepo(db.Pool)
	settingsRepo := repo.NewSettingsRepo(db.Pool)

	// services
	feedHub := ws.NewConnHub(log)
	ingestSvc := ingest.NewIngestService(fixRepo, settingsRepo, broker, feedHub, log)
	identitySvc := identity.NewIdentityService(cfg.Auth.JWTSecret, log)

	server, err := httpserver.New(cfg, httpserver.Deps{
		Auth:      identitySvc,
		Telemetry: ingestSvc,
		FeedHub:   feedHub,
	}, log)
	if err != nil {
		log.Error(ctx, "Failed to setup http server", err)
		return nil, err
	}

	return &TelemetryService{
		postgresDB: db,
		rabbitMQ:   rabbitMQ,
		httpServer: server,
		feedHub:    feedHub,
		cfg:        cfg,
		log:        log,
	}, nil
}

func (s *TelemetryService) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	s.httpServer.Run(ctx, errCh)
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "telemetry service closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "Telemetry service has been started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shutting down application", "signal", sig.String())
		return nil
	}
}

func (s *TelemetryService) close(ctx context.Context) {
	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	if s.feedHub != nil {
		s.feedHub.Close()
	}

	if s.rabbitMQ != nil {
		if err := s.rabbitMQ.Close(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close rabbitmq connection", "error", err.Error())
		}
	}

	if s.postgresDB != nil && s.postgresDB.Pool != nil {
		s.postgresDB.Pool.Close()
	}
}
