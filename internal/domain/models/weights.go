package models

import (
	"fmt"
	"time"
)

// Bounds for the score weights configuration.
const (
	MaxCoursesWeight = 10.0
	MaxProfitWeight  = 1.0
)

// ScoreWeights is the persisted leaderboard weighting configuration.
// Loaded once at process start, refreshed only through the update endpoint.
type ScoreWeights struct {
	CoursesWeight float64   `json:"courses_weight"`
	ProfitWeight  float64   `json:"profit_weight"`
	LastUpdated   time.Time `json:"last_updated,omitzero"`
	UpdatedBy     string    `json:"updated_by,omitempty"`
}

// InBounds reports whether both weights sit inside their allowed ranges.
func (w ScoreWeights) InBounds() bool {
	return w.CoursesWeight >= 0 && w.CoursesWeight <= MaxCoursesWeight &&
		w.ProfitWeight >= 0 && w.ProfitWeight <= MaxProfitWeight
}

// Formula renders the human-readable scoring formula returned by the
// weight-update endpoint.
func (w ScoreWeights) Formula() string {
	return fmt.Sprintf("score = orders x %g + net_profit x %g", w.CoursesWeight, w.ProfitWeight)
}

// DefaultScoreWeights is used when no row has been persisted yet.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{CoursesWeight: 1, ProfitWeight: 0.001}
}
