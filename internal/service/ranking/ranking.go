package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/logger"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
)

// DefaultTopN bounds leaderboard size when the caller does not ask for a
// specific limit.
const DefaultTopN = 50

type RankingService struct {
	ledger  LedgerReader
	weights *WeightsConfig
	l       logger.Logger
}

func NewRankingService(ledger LedgerReader, weights *WeightsConfig, l logger.Logger) *RankingService {
	return &RankingService{
		ledger:  ledger,
		weights: weights,
		l:       l,
	}
}

// Rank builds the leaderboard over [from, to]. The salary variant
// subtracts each worker's salary cost amortized over the window.
func (s *RankingService) Rank(ctx context.Context, from, to time.Time, metric types.RankingMetric, topN int) ([]models.RankingEntry, error) {
	ctx = wrap.WithAction(ctx, "rank_workers")

	if topN <= 0 {
		topN = DefaultTopN
	}

	totals, err := s.ledger.TotalsByWorker(ctx, from, to)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("could not load ledger totals: %w", err))
	}
	if len(totals) == 0 {
		return []models.RankingEntry{}, nil
	}

	directory, err := s.ledger.Workers(ctx)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("could not load worker directory: %w", err))
	}
	byID := make(map[string]models.WorkerInfo, len(directory))
	for _, w := range directory {
		byID[w.ID.String()] = w
	}

	weights := s.weights.Get()
	periodDays := periodDays(from, to)

	entries := make([]models.RankingEntry, 0, len(totals))
	for _, t := range totals {
		info := byID[t.WorkerID.String()]

		entry := models.RankingEntry{
			WorkerID:   t.WorkerID,
			WorkerName: info.Name,
			Orders:     t.Orders,
			NetProfit:  t.Revenue - t.Expenses,
		}
		// The salary variant charges the amortized salary against profit
		// before weighting, so both variants score the same quantity.
		profit := entry.NetProfit
		if metric == types.MetricGlobalSalary {
			entry.SalaryCost = salaryCost(info.MonthlySalary, from, periodDays)
			profit -= entry.SalaryCost
		}
		entry.Score = float64(entry.Orders)*weights.CoursesWeight + profit*weights.ProfitWeight

		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].WorkerID.String() < entries[j].WorkerID.String()
	})

	if len(entries) > topN {
		entries = entries[:topN]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries, nil
}

// salaryCost amortizes a monthly salary over the ranking window using the
// calendar length of the month the window starts in.
func salaryCost(monthlySalary float64, from time.Time, periodDays int) float64 {
	if monthlySalary <= 0 {
		return 0
	}
	daysInMonth := time.Date(from.Year(), from.Month()+1, 0, 0, 0, 0, 0, from.Location()).Day()
	return monthlySalary / float64(daysInMonth) * float64(periodDays)
}

func periodDays(from, to time.Time) int {
	days := int(to.Sub(from).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return days
}
