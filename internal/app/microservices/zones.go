package microservices

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/courierops/fieldtrack/config"
	repo "github.com/courierops/fieldtrack/internal/adapter/postgres"
	"github.com/courierops/fieldtrack/internal/adapter/rabbit"
	"github.com/courierops/fieldtrack/internal/service/zone"
	"github.com/courierops/fieldtrack/pkg/logger"
	postgresclient "github.com/courierops/fieldtrack/pkg/postgres"
	rabbitclient "github.com/courierops/fieldtrack/pkg/rabbit"
)

// ZoneDetectorService consumes the accepted-fix stream and turns
// geofence crossings into stored zone events.
type ZoneDetectorService struct {
	postgresDB *postgresclient.PostgreDB
	rabbitMQ   *rabbitclient.RabbitMQ
	broker     *rabbit.TelemetryBroker
	detector   *zone.Detector

	cfg config.Config
	log logger.Logger
}

func NewZoneDetector(ctx context.Context, cfg config.Config, log logger.Logger) (*ZoneDetectorService, error) {
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

	zoneRepo := repo.NewZoneRepo(db.Pool)
	zoneEventRepo := repo.NewZoneEventRepo(db.Pool)

	detector := zone.NewDetector(zoneRepo, zoneEventRepo, log)
	if err := detector.Rebuild(ctx); err != nil {
		log.Error(ctx, "Failed to rebuild zone occupancy state", err)
		return nil, err
	}

	return &ZoneDetectorService{
		postgresDB: db,
		rabbitMQ:   rabbitMQ,
		broker:     broker,
		detector:   detector,
		cfg:        cfg,
		log:        log,
	}, nil
}

func (s *ZoneDetectorService) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := s.broker.ConsumeFixes(ctx, s.detector.Process); err != nil {
			errCh <- err
		}
	}()

	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "zone detector service closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "Zone detector service has been started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shutting down application", "signal", sig.String())
		return nil
	}
}

func (s *ZoneDetectorService) close(ctx context.Context) {
	if s.rabbitMQ != nil {
		if err := s.rabbitMQ.Close(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close rabbitmq connection", "error", err.Error())
		}
	}

	if s.postgresDB != nil && s.postgresDB.Pool != nil {
		s.postgresDB.Pool.Close()
	}
}
