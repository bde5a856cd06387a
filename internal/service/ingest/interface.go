package ingest

import (
	"context"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

type FixRepo interface {
	Insert(ctx context.Context, fix *models.Fix) error
	GetLast(ctx context.Context, workerID uuid.UUID) (*models.Fix, error)
}

type SettingsRepo interface {
	Get(ctx context.Context, workerID uuid.UUID) (models.TrackingSettings, error)
	Upsert(ctx context.Context, s models.TrackingSettings) (models.TrackingSettings, error)
}

type FixBroker interface {
	PublishFixAccepted(ctx context.Context, msg models.FixAcceptedMessage) error
}

// LiveFeed pushes accepted fixes to connected dashboard clients.
type LiveFeed interface {
	Broadcast(workerID uuid.UUID, msg map[string]any)
}
