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

type FixRepo struct {
	db *pgxpool.Pool
}

func NewFixRepo(db *pgxpool.Pool) *FixRepo {
	return &FixRepo{db: db}
}

// Insert stores one fix. Re-delivery of the same (worker, recorded_at) pair
// overwrites the old row so retried pushes stay idempotent.
func (r *FixRepo) Insert(ctx context.Context, fix *models.Fix) error {
	const op = "FixRepo.Insert"
	query := `
		INSERT INTO position_fixes (worker_id, latitude, longitude, accuracy_m, speed_ms, heading, battery, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (worker_id, recorded_at) DO UPDATE
		SET latitude = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude,
		    accuracy_m = EXCLUDED.accuracy_m,
		    speed_ms = EXCLUDED.speed_ms,
		    heading = EXCLUDED.heading,
		    battery = EXCLUDED.battery
		RETURNING created_at;`

	if err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		fix.WorkerID, fix.Latitude, fix.Longitude, fix.AccuracyM,
		fix.SpeedMS, fix.Heading, fix.Battery, fix.RecordedAt,
	).Scan(&fix.CreatedAt); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return nil
}

// ListUsableByWorkerDate returns a worker's aggregation-grade fixes for one
// calendar day, oldest first.
func (r *FixRepo) ListUsableByWorkerDate(ctx context.Context, workerID uuid.UUID, date time.Time) ([]models.Fix, error) {
	const op = "FixRepo.ListUsableByWorkerDate"
	query := `
		SELECT worker_id, latitude, longitude, accuracy_m, speed_ms, heading, battery, recorded_at, created_at
		FROM position_fixes
		WHERE worker_id = $1
		  AND DATE(recorded_at) = $2
		  AND accuracy_m <= $3
		ORDER BY recorded_at ASC;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, workerID, date.Format("2006-01-02"), models.MaxUsableAccuracyM)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var fixes []models.Fix
	for rows.Next() {
		var f models.Fix
		if err := rows.Scan(&f.WorkerID, &f.Latitude, &f.Longitude, &f.AccuracyM,
			&f.SpeedMS, &f.Heading, &f.Battery, &f.RecordedAt, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		fixes = append(fixes, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return fixes, nil
}

// ListWorkersWithFixes returns the distinct workers that reported at least
// one usable fix on the given day.
func (r *FixRepo) ListWorkersWithFixes(ctx context.Context, date time.Time) ([]uuid.UUID, error) {
	const op = "FixRepo.ListWorkersWithFixes"
	query := `
		SELECT DISTINCT worker_id
		FROM position_fixes
		WHERE DATE(recorded_at) = $1 AND accuracy_m <= $2;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, date.Format("2006-01-02"), models.MaxUsableAccuracyM)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ids, nil
}

// GetLast returns a worker's most recent stored fix.
func (r *FixRepo) GetLast(ctx context.Context, workerID uuid.UUID) (*models.Fix, error) {
	const op = "FixRepo.GetLast"
	query := `
		SELECT worker_id, latitude, longitude, accuracy_m, speed_ms, heading, battery, recorded_at, created_at
		FROM position_fixes
		WHERE worker_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1;`

	var f models.Fix
	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, workerID).Scan(
		&f.WorkerID, &f.Latitude, &f.Longitude, &f.AccuracyM,
		&f.SpeedMS, &f.Heading, &f.Battery, &f.RecordedAt, &f.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNoData
		}
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return &f, nil
}
