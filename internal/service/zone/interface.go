package zone

import (
	"context"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

type ZoneRepo interface {
	ListActive(ctx context.Context) ([]models.Zone, error)
}

type ZoneEventRepo interface {
	Insert(ctx context.Context, event *models.ZoneEvent) error
	LastEvents(ctx context.Context) ([]models.ZoneEvent, error)
	ListByWorker(ctx context.Context, workerID uuid.UUID, from, to time.Time) ([]models.ZoneEvent, error)
	Stats(ctx context.Context, from, to time.Time) ([]models.ZoneStat, error)
}
