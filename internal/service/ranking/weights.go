package ranking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/logger"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
)

// WeightsConfig holds the scoring weights in memory. Loaded once at
// startup, refreshed only through Update; readers never touch the
// database on the hot path.
type WeightsConfig struct {
	repo WeightsRepo
	l    logger.Logger

	mu      sync.RWMutex
	current models.ScoreWeights
}

func NewWeightsConfig(repo WeightsRepo, l logger.Logger) *WeightsConfig {
	return &WeightsConfig{
		repo:    repo,
		l:       l,
		current: models.DefaultScoreWeights(),
	}
}

// Load pulls the persisted weights. Missing row falls back to defaults.
func (c *WeightsConfig) Load(ctx context.Context) error {
	w, err := c.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, types.ErrNoWeightsConfigured) {
			c.l.Info(ctx, "no score weights stored, using defaults",
				"formula", models.DefaultScoreWeights().Formula())
			return nil
		}
		return wrap.Error(ctx, fmt.Errorf("could not load score weights: %w", err))
	}

	c.mu.Lock()
	c.current = w
	c.mu.Unlock()

	c.l.Info(ctx, "score weights loaded", "formula", w.Formula())
	return nil
}

// Get returns the current weights snapshot.
func (c *WeightsConfig) Get() models.ScoreWeights {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Update validates, persists and swaps in new weights. Out-of-bounds
// values leave both the stored and the in-memory configuration untouched.
func (c *WeightsConfig) Update(ctx context.Context, courses, profit float64, updatedBy string) (models.ScoreWeights, error) {
	ctx = wrap.WithAction(ctx, types.ActionWeightsUpdate)

	candidate := models.ScoreWeights{
		CoursesWeight: courses,
		ProfitWeight:  profit,
		UpdatedBy:     updatedBy,
	}
	if !candidate.InBounds() {
		return models.ScoreWeights{}, wrap.Error(ctx, fmt.Errorf(
			"weights courses=%g profit=%g out of bounds: %w", courses, profit, types.ErrValidationFailed))
	}

	stored, err := c.repo.Upsert(ctx, candidate)
	if err != nil {
		return models.ScoreWeights{}, wrap.Error(ctx, fmt.Errorf("could not persist score weights: %w", err))
	}

	c.mu.Lock()
	c.current = stored
	c.mu.Unlock()

	c.l.Info(ctx, "score weights updated",
		"formula", stored.Formula(), "updated_by", updatedBy)

	return stored, nil
}
