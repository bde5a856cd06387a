package ranking

import (
	"context"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
)

type WeightsRepo interface {
	Get(ctx context.Context) (models.ScoreWeights, error)
	Upsert(ctx context.Context, w models.ScoreWeights) (models.ScoreWeights, error)
}

// LedgerReader exposes the external order/expense data rankings are
// computed from.
type LedgerReader interface {
	TotalsByWorker(ctx context.Context, from, to time.Time) ([]models.LedgerTotals, error)
	Workers(ctx context.Context) ([]models.WorkerInfo, error)
}
