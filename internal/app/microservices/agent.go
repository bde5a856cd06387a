package microservices

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courierops/fieldtrack/config"
	"github.com/courierops/fieldtrack/internal/adapter/telemetryapi"
	"github.com/courierops/fieldtrack/internal/sampler"
	"github.com/courierops/fieldtrack/pkg/logger"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

// AgentService runs the on-device position sampler against a replayed
// position stream and pushes fixes to the telemetry service.
type AgentService struct {
	sampler *sampler.Sampler

	cfg config.Config
	log logger.Logger
}

func NewAgent(ctx context.Context, cfg config.Config, log logger.Logger) (*AgentService, error) {
	if cfg.Agent.ReplayFile == "" {
		return nil, errors.New("agent replay file is required")
	}
	workerID, err := uuid.Parse(cfg.Agent.WorkerID)
	if err != nil {
		return nil, errors.New("agent worker id must be a valid uuid")
	}

	baseInterval := time.Duration(cfg.Sampler.BaseIntervalSeconds) * time.Second
	source := sampler.NewReplaySource(cfg.Agent.ReplayFile, baseInterval)
	pusher := telemetryapi.New(cfg.Agent.APIBaseURL, cfg.Agent.APIToken, nil)

	smp := sampler.New(sampler.Config{
		WorkerID:     workerID,
		BaseInterval: baseInterval,
		Subscription: sampler.Options{
			HighAccuracy: cfg.Sampler.HighAccuracy,
			Timeout:      cfg.Sampler.RequestTimeout,
			MaxFixAge:    cfg.Sampler.MaxFixAge,
		},
		Notify: func(err error) {
			log.Warn(ctx, "tracking stopped", "reason", err.Error())
		},
	}, source, pusher, nil, log)

	return &AgentService{
		sampler: smp,
		cfg:     cfg,
		log:     log,
	}, nil
}

func (s *AgentService) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.sampler.Enable(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.sampler.Disable(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn(ctx, "Failed to stop the sampler", "error", err.Error())
		}
		s.log.Info(ctx, "agent closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "Agent has been started", "worker_id", s.cfg.Agent.WorkerID)

	<-shutdownCh
	s.log.Info(ctx, "shutting down application")
	return nil
}
