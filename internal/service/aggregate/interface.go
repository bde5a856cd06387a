package aggregate

import (
	"context"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

type FixRepo interface {
	ListUsableByWorkerDate(ctx context.Context, workerID uuid.UUID, date time.Time) ([]models.Fix, error)
	ListWorkersWithFixes(ctx context.Context, date time.Time) ([]uuid.UUID, error)
}

type DailyMetricRepo interface {
	Replace(ctx context.Context, m *models.DailyMetric) error
	Delete(ctx context.Context, workerID uuid.UUID, date time.Time) error
	Get(ctx context.Context, workerID uuid.UUID, date time.Time) (*models.DailyMetric, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.DailyMetric, error)
	Rollup(ctx context.Context, from, to time.Time, workerID *uuid.UUID) ([]models.RollupRow, error)
}

// Scorer turns a day's movement summary into efficiency scores. Both
// results are expected in [0, 100].
type Scorer interface {
	Score(distanceKm, durationMin float64, segmentSpeedsKmh []float64) (efficiency, fuelEfficiency float64)
}
