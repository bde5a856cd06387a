package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WeightsRepo persists the single leaderboard weighting row.
type WeightsRepo struct {
	db *pgxpool.Pool
}

func NewWeightsRepo(db *pgxpool.Pool) *WeightsRepo {
	return &WeightsRepo{db: db}
}

func (r *WeightsRepo) Get(ctx context.Context) (models.ScoreWeights, error) {
	const op = "WeightsRepo.Get"
	query := `
		SELECT courses_weight, profit_weight, last_updated, updated_by
		FROM score_weights
		WHERE id = 1;`

	var w models.ScoreWeights
	if err := TxorDB(ctx, r.db).QueryRow(ctx, query).Scan(
		&w.CoursesWeight, &w.ProfitWeight, &w.LastUpdated, &w.UpdatedBy,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ScoreWeights{}, types.ErrNoWeightsConfigured
		}
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return models.ScoreWeights{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return w, nil
}

func (r *WeightsRepo) Upsert(ctx context.Context, w models.ScoreWeights) (models.ScoreWeights, error) {
	const op = "WeightsRepo.Upsert"
	query := `
		INSERT INTO score_weights (id, courses_weight, profit_weight, last_updated, updated_by)
		VALUES (1, $1, $2, now(), $3)
		ON CONFLICT (id) DO UPDATE
		SET courses_weight = EXCLUDED.courses_weight,
		    profit_weight = EXCLUDED.profit_weight,
		    last_updated = now(),
		    updated_by = EXCLUDED.updated_by
		RETURNING last_updated;`

	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, w.CoursesWeight, w.ProfitWeight, w.UpdatedBy).
		Scan(&w.LastUpdated); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return models.ScoreWeights{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return w, nil
}
