package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/courierops/fieldtrack/pkg/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DailyMetricRepo struct {
	db *pgxpool.Pool
}

func NewDailyMetricRepo(db *pgxpool.Pool) *DailyMetricRepo {
	return &DailyMetricRepo{db: db}
}

// Replace overwrites the (worker, date) row with freshly computed values.
// Recomputing the same day always converges to the same stored state.
func (r *DailyMetricRepo) Replace(ctx context.Context, m *models.DailyMetric) error {
	const op = "DailyMetricRepo.Replace"
	query := `
		INSERT INTO daily_metrics (worker_id, date, distance_km, duration_min, avg_speed_kmh, efficiency, fuel_efficiency, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (worker_id, date) DO UPDATE
		SET distance_km = EXCLUDED.distance_km,
		    duration_min = EXCLUDED.duration_min,
		    avg_speed_kmh = EXCLUDED.avg_speed_kmh,
		    efficiency = EXCLUDED.efficiency,
		    fuel_efficiency = EXCLUDED.fuel_efficiency,
		    computed_at = now()
		RETURNING computed_at;`

	if err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		m.WorkerID, m.Date.Format("2006-01-02"), m.DistanceKm, m.DurationMin,
		m.AvgSpeedKmh, m.Efficiency, m.FuelEfficiency,
	).Scan(&m.ComputedAt); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return nil
}

// Delete removes the (worker, date) row. Used when a recompute finds no
// usable fixes for a day that previously had some.
func (r *DailyMetricRepo) Delete(ctx context.Context, workerID uuid.UUID, date time.Time) error {
	const op = "DailyMetricRepo.Delete"
	query := `DELETE FROM daily_metrics WHERE worker_id = $1 AND date = $2;`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, workerID, date.Format("2006-01-02")); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return nil
}

func (r *DailyMetricRepo) Get(ctx context.Context, workerID uuid.UUID, date time.Time) (*models.DailyMetric, error) {
	const op = "DailyMetricRepo.Get"
	query := `
		SELECT worker_id, date, distance_km, duration_min, avg_speed_kmh, efficiency, fuel_efficiency, computed_at
		FROM daily_metrics
		WHERE worker_id = $1 AND date = $2;`

	var m models.DailyMetric
	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, workerID, date.Format("2006-01-02")).Scan(
		&m.WorkerID, &m.Date, &m.DistanceKm, &m.DurationMin,
		&m.AvgSpeedKmh, &m.Efficiency, &m.FuelEfficiency, &m.ComputedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNoData
		}
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return &m, nil
}

// ListByDate returns every stored row for one day, best efficiency first.
func (r *DailyMetricRepo) ListByDate(ctx context.Context, date time.Time) ([]models.DailyMetric, error) {
	const op = "DailyMetricRepo.ListByDate"
	query := `
		SELECT worker_id, date, distance_km, duration_min, avg_speed_kmh, efficiency, fuel_efficiency, computed_at
		FROM daily_metrics
		WHERE date = $1
		ORDER BY efficiency DESC, worker_id ASC;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, date.Format("2006-01-02"))
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var list []models.DailyMetric
	for rows.Next() {
		var m models.DailyMetric
		if err := rows.Scan(&m.WorkerID, &m.Date, &m.DistanceKm, &m.DurationMin,
			&m.AvgSpeedKmh, &m.Efficiency, &m.FuelEfficiency, &m.ComputedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// ListRange returns stored rows inside [from, to], optionally filtered to
// one worker, ordered by date then worker.
func (r *DailyMetricRepo) ListRange(ctx context.Context, from, to time.Time, workerID *uuid.UUID) ([]models.DailyMetric, error) {
	const op = "DailyMetricRepo.ListRange"
	query := `
		SELECT worker_id, date, distance_km, duration_min, avg_speed_kmh, efficiency, fuel_efficiency, computed_at
		FROM daily_metrics
		WHERE date BETWEEN $1 AND $2
		  AND ($3::uuid IS NULL OR worker_id = $3)
		ORDER BY date ASC, worker_id ASC;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, from.Format("2006-01-02"), to.Format("2006-01-02"), workerID)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var list []models.DailyMetric
	for rows.Next() {
		var m models.DailyMetric
		if err := rows.Scan(&m.WorkerID, &m.Date, &m.DistanceKm, &m.DurationMin,
			&m.AvgSpeedKmh, &m.Efficiency, &m.FuelEfficiency, &m.ComputedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// Rollup aggregates stored daily rows into one row per worker over
// [from, to]. Days without a stored row simply contribute nothing.
func (r *DailyMetricRepo) Rollup(ctx context.Context, from, to time.Time, workerID *uuid.UUID) ([]models.RollupRow, error) {
	const op = "DailyMetricRepo.Rollup"
	query := `
		SELECT worker_id,
		       SUM(distance_km),
		       SUM(duration_min),
		       CASE WHEN SUM(duration_min) > 0
		            THEN SUM(distance_km) / (SUM(duration_min) / 60.0)
		            ELSE 0 END,
		       AVG(efficiency),
		       COUNT(*)
		FROM daily_metrics
		WHERE date BETWEEN $1 AND $2
		  AND ($3::uuid IS NULL OR worker_id = $3)
		GROUP BY worker_id
		ORDER BY AVG(efficiency) DESC, worker_id ASC;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, from.Format("2006-01-02"), to.Format("2006-01-02"), workerID)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var list []models.RollupRow
	for rows.Next() {
		row := models.RollupRow{PeriodStart: from, PeriodEnd: to}
		if err := rows.Scan(&row.WorkerID, &row.DistanceKm, &row.DurationMin,
			&row.AvgSpeedKmh, &row.AvgEfficiency, &row.DaysActive); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		list = append(list, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}
