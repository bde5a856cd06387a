package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/logger"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/courierops/fieldtrack/pkg/metrics"
	"github.com/courierops/fieldtrack/pkg/trm"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

const serviceName = "analytics"

type AggregateService struct {
	fixes  FixRepo
	daily  DailyMetricRepo
	scorer Scorer
	trm    trm.TxManager
	l      logger.Logger
}

func NewAggregateService(fixes FixRepo, daily DailyMetricRepo, scorer Scorer, txm trm.TxManager, l logger.Logger) *AggregateService {
	return &AggregateService{
		fixes:  fixes,
		daily:  daily,
		scorer: scorer,
		trm:    txm,
		l:      l,
	}
}

// Recompute rebuilds the (worker, date) metric row from stored fixes in
// one transaction. A day with no usable fixes ends with no row at all,
// including dropping a row a previous run may have written.
func (s *AggregateService) Recompute(ctx context.Context, workerID uuid.UUID, date time.Time) error {
	ctx = wrap.WithAction(wrap.WithWorkerID(ctx, workerID.String()), types.ActionRecomputeMetrics)

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		fixes, err := s.fixes.ListUsableByWorkerDate(ctx, workerID, date)
		if err != nil {
			return wrap.Error(ctx, fmt.Errorf("could not load fixes: %w", err))
		}

		if len(fixes) == 0 {
			if err := s.daily.Delete(ctx, workerID, date); err != nil {
				return wrap.Error(ctx, fmt.Errorf("could not drop stale metric row: %w", err))
			}
			return nil
		}

		m := ComputeDailyMetric(workerID, date, fixes, s.scorer)
		if err := s.daily.Replace(ctx, &m); err != nil {
			return wrap.Error(ctx, fmt.Errorf("could not replace metric row: %w", err))
		}

		return nil
	})
	if err != nil {
		return wrap.Error(ctx, err)
	}

	return nil
}

// RecomputeDate reruns the aggregation for every worker that reported
// usable fixes on the given day. Returns the number of workers processed.
func (s *AggregateService) RecomputeDate(ctx context.Context, date time.Time) (int, error) {
	ctx = wrap.WithAction(ctx, types.ActionRecomputeMetrics)
	started := time.Now()

	workers, err := s.fixes.ListWorkersWithFixes(ctx, date)
	if err != nil {
		metrics.RecordAggregationRun(serviceName, "error", time.Since(started))
		return 0, wrap.Error(ctx, fmt.Errorf("could not list workers: %w", err))
	}

	processed := 0
	for _, workerID := range workers {
		if err := s.Recompute(ctx, workerID, date); err != nil {
			metrics.RecordAggregationRun(serviceName, "error", time.Since(started))
			return processed, wrap.Error(ctx, fmt.Errorf("recompute worker %s: %w", workerID, err))
		}
		processed++
	}

	metrics.RecordAggregationRun(serviceName, "success", time.Since(started))
	s.l.Info(ctx, "daily metrics recomputed",
		"date", date.Format("2006-01-02"), "workers_processed", processed)

	return processed, nil
}

// Daily returns one worker's metric row, or ErrNoData when the day has
// nothing stored.
func (s *AggregateService) Daily(ctx context.Context, workerID uuid.UUID, date time.Time) (*models.DailyMetric, error) {
	return s.daily.Get(ctx, workerID, date)
}

// DailyAll returns every stored metric row for a day, best efficiency
// first. An empty day yields an empty list, never an error.
func (s *AggregateService) DailyAll(ctx context.Context, date time.Time) ([]models.DailyMetric, error) {
	list, err := s.daily.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.DailyMetric{}
	}
	return list, nil
}

// Rollup aggregates stored daily rows over [from, to] per worker. A
// non-nil workerID narrows the result to that worker.
func (s *AggregateService) Rollup(ctx context.Context, from, to time.Time, workerID *uuid.UUID) ([]models.RollupRow, error) {
	rows, err := s.daily.Rollup(ctx, from, to, workerID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.RollupRow{}
	}
	return rows, nil
}

// PeriodBounds resolves a named period ending at ref into [from, to].
func PeriodBounds(period types.Period, ref time.Time) (time.Time, time.Time) {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())

	switch period {
	case types.PeriodWeek:
		return day.AddDate(0, 0, -6), day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	case types.PeriodMonth:
		// AddDate normalizes overflowed days (Mar 31 minus a month lands
		// in early March), so clamp to the previous month's last day.
		lastOfPrev := time.Date(day.Year(), day.Month(), 0, 0, 0, 0, 0, day.Location())
		d := day.Day()
		if d > lastOfPrev.Day() {
			d = lastOfPrev.Day()
		}
		from := time.Date(lastOfPrev.Year(), lastOfPrev.Month(), d, 0, 0, 0, 0, day.Location()).AddDate(0, 0, 1)
		return from, day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	default:
		return day, day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
}
