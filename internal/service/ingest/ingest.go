package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/logger"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/courierops/fieldtrack/pkg/metrics"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

const serviceName = "telemetry"

// maxFixSkew bounds how far a reported timestamp may sit from server time.
const maxFixSkew = 24 * time.Hour

const defaultTrackingInterval = 30

type IngestService struct {
	fixes    FixRepo
	settings SettingsRepo
	broker   FixBroker
	feed     LiveFeed
	l        logger.Logger
}

func NewIngestService(fixes FixRepo, settings SettingsRepo, broker FixBroker, feed LiveFeed, l logger.Logger) *IngestService {
	return &IngestService{
		fixes:    fixes,
		settings: settings,
		broker:   broker,
		feed:     feed,
		l:        l,
	}
}

// Submit runs one fix through the ingestion gates. A false return with a
// nil error means the fix was acknowledged but intentionally not stored.
func (s *IngestService) Submit(ctx context.Context, fix *models.Fix) (bool, error) {
	ctx = wrap.WithAction(wrap.WithWorkerID(ctx, fix.WorkerID.String()), types.ActionFixIngest)

	if fix.RecordedAt.IsZero() {
		fix.RecordedAt = time.Now()
	}

	if skew := time.Until(fix.RecordedAt); skew > maxFixSkew || skew < -maxFixSkew {
		metrics.FixesDiscardedTotal.WithLabelValues(serviceName, "stale").Inc()
		return false, wrap.Error(ctx, fmt.Errorf("recorded_at %s outside accepted window: %w",
			fix.RecordedAt.Format(time.RFC3339), types.ErrValidationFailed))
	}

	if !fix.Storable() {
		// Garbage accuracy: acknowledged so the client does not retry,
		// but never persisted.
		metrics.FixesDiscardedTotal.WithLabelValues(serviceName, "accuracy").Inc()
		s.l.Debug(wrap.WithAction(ctx, types.ActionFixDiscarded),
			"fix discarded", "accuracy_m", fix.AccuracyM)
		return false, nil
	}

	if err := s.fixes.Insert(ctx, fix); err != nil {
		return false, wrap.Error(ctx, fmt.Errorf("could not store fix: %w", err))
	}
	metrics.FixesIngestedTotal.WithLabelValues(serviceName).Inc()

	// Downstream delivery is best effort: the fix is already durable and
	// the detector reconciles from storage on restart.
	if err := s.broker.PublishFixAccepted(ctx, fix.ToMessage()); err != nil {
		metrics.RabbitMQMessagesPublished.WithLabelValues(serviceName, "zone_detection", "error").Inc()
		s.l.Warn(ctx, "failed to publish accepted fix", "err", err.Error())
	} else {
		metrics.RabbitMQMessagesPublished.WithLabelValues(serviceName, "zone_detection", "success").Inc()
	}

	s.feed.Broadcast(fix.WorkerID, map[string]any{
		"type":        "fix",
		"worker_id":   fix.WorkerID,
		"latitude":    fix.Latitude,
		"longitude":   fix.Longitude,
		"accuracy_m":  fix.AccuracyM,
		"recorded_at": fix.RecordedAt,
	})

	return true, nil
}

// LastPosition returns the most recent stored fix for one worker.
func (s *IngestService) LastPosition(ctx context.Context, workerID uuid.UUID) (*models.Fix, error) {
	return s.fixes.GetLast(ctx, workerID)
}

// Settings returns a worker's tracking settings, falling back to defaults
// when the worker has never toggled tracking.
func (s *IngestService) Settings(ctx context.Context, workerID uuid.UUID) (models.TrackingSettings, error) {
	settings, err := s.settings.Get(ctx, workerID)
	if err != nil {
		if errors.Is(err, types.ErrWorkerNotFound) {
			return models.TrackingSettings{
				WorkerID:        workerID,
				Enabled:         false,
				IntervalSeconds: defaultTrackingInterval,
			}, nil
		}
		return models.TrackingSettings{}, err
	}
	return settings, nil
}

// SetTracking persists the tracking toggle and returns the row as stored.
// The response, not the request, is the state the client should trust.
func (s *IngestService) SetTracking(ctx context.Context, settings models.TrackingSettings) (models.TrackingSettings, error) {
	ctx = wrap.WithAction(wrap.WithWorkerID(ctx, settings.WorkerID.String()), "set_tracking")

	if settings.IntervalSeconds <= 0 {
		settings.IntervalSeconds = defaultTrackingInterval
	}

	stored, err := s.settings.Upsert(ctx, settings)
	if err != nil {
		return models.TrackingSettings{}, wrap.Error(ctx, fmt.Errorf("could not update tracking settings: %w", err))
	}

	s.l.Info(ctx, "tracking settings updated",
		"enabled", stored.Enabled, "interval_seconds", stored.IntervalSeconds)

	return stored, nil
}
