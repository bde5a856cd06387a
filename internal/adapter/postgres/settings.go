package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/courierops/fieldtrack/pkg/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SettingsRepo struct {
	db *pgxpool.Pool
}

func NewSettingsRepo(db *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) Get(ctx context.Context, workerID uuid.UUID) (models.TrackingSettings, error) {
	const op = "SettingsRepo.Get"
	query := `
		SELECT worker_id, tracking_enabled, tracking_interval, updated_at
		FROM tracking_settings
		WHERE worker_id = $1;`

	var s models.TrackingSettings
	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, workerID).Scan(
		&s.WorkerID, &s.Enabled, &s.IntervalSeconds, &s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TrackingSettings{}, types.ErrWorkerNotFound
		}
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return models.TrackingSettings{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return s, nil
}

func (r *SettingsRepo) Upsert(ctx context.Context, s models.TrackingSettings) (models.TrackingSettings, error) {
	const op = "SettingsRepo.Upsert"
	query := `
		INSERT INTO tracking_settings (worker_id, tracking_enabled, tracking_interval, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (worker_id) DO UPDATE
		SET tracking_enabled = EXCLUDED.tracking_enabled,
		    tracking_interval = EXCLUDED.tracking_interval,
		    updated_at = now()
		RETURNING updated_at;`

	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, s.WorkerID, s.Enabled, s.IntervalSeconds).
		Scan(&s.UpdatedAt); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return models.TrackingSettings{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return s, nil
}
