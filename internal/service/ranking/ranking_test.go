package ranking

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/logger"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

type fakeWeightsRepo struct {
	stored    *models.ScoreWeights
	upsertErr error
}

func (f *fakeWeightsRepo) Get(context.Context) (models.ScoreWeights, error) {
	if f.stored == nil {
		return models.ScoreWeights{}, types.ErrNoWeightsConfigured
	}
	return *f.stored, nil
}

func (f *fakeWeightsRepo) Upsert(_ context.Context, w models.ScoreWeights) (models.ScoreWeights, error) {
	if f.upsertErr != nil {
		return models.ScoreWeights{}, f.upsertErr
	}
	w.LastUpdated = time.Now()
	f.stored = &w
	return w, nil
}

type fakeLedger struct {
	totals  []models.LedgerTotals
	workers []models.WorkerInfo
}

func (f *fakeLedger) TotalsByWorker(context.Context, time.Time, time.Time) ([]models.LedgerTotals, error) {
	return f.totals, nil
}

func (f *fakeLedger) Workers(context.Context) ([]models.WorkerInfo, error) {
	return f.workers, nil
}

func testLogger() logger.Logger {
	return logger.InitLogger("ranking-test", "error")
}

func TestWeightsDefaultsWhenNothingStored(t *testing.T) {
	cfg := NewWeightsConfig(&fakeWeightsRepo{}, testLogger())

	if err := cfg.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := cfg.Get()
	want := models.DefaultScoreWeights()
	if got.CoursesWeight != want.CoursesWeight || got.ProfitWeight != want.ProfitWeight {
		t.Fatalf("weights = %+v, want defaults %+v", got, want)
	}
}

func TestWeightsUpdateValidatesBounds(t *testing.T) {
	repo := &fakeWeightsRepo{}
	cfg := NewWeightsConfig(repo, testLogger())

	before := cfg.Get()

	tests := []struct {
		name    string
		courses float64
		profit  float64
	}{
		{"courses too large", 11, 0.5},
		{"courses negative", -1, 0.5},
		{"profit too large", 2, 1.5},
		{"profit negative", 2, -0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cfg.Update(context.Background(), tt.courses, tt.profit, "manager-1")
			if !errors.Is(err, types.ErrValidationFailed) {
				t.Fatalf("Update error = %v, want ErrValidationFailed", err)
			}
			if got := cfg.Get(); got != before {
				t.Fatalf("weights changed on invalid update: %+v", got)
			}
			if repo.stored != nil {
				t.Fatal("invalid weights reached storage")
			}
		})
	}
}

func TestWeightsUpdatePersistsAndSwaps(t *testing.T) {
	repo := &fakeWeightsRepo{}
	cfg := NewWeightsConfig(repo, testLogger())

	stored, err := cfg.Update(context.Background(), 2, 0.01, "manager-1")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if stored.CoursesWeight != 2 || stored.ProfitWeight != 0.01 {
		t.Fatalf("stored weights = %+v", stored)
	}
	if got := cfg.Get(); got.CoursesWeight != 2 {
		t.Fatalf("in-memory weights = %+v, want updated", got)
	}
	if want := "score = orders x 2 + net_profit x 0.01"; stored.Formula() != want {
		t.Fatalf("formula = %q, want %q", stored.Formula(), want)
	}
}

func TestRankGlobalScore(t *testing.T) {
	w1, w2 := uuid.MustNew(), uuid.MustNew()

	ledger := &fakeLedger{
		totals: []models.LedgerTotals{
			{WorkerID: w1, Orders: 3, Revenue: 700, Expenses: 200},
			{WorkerID: w2, Orders: 5, Revenue: 300, Expenses: 250},
		},
		workers: []models.WorkerInfo{
			{ID: w1, Name: "Aigerim"},
			{ID: w2, Name: "Dias"},
		},
	}

	cfg := NewWeightsConfig(&fakeWeightsRepo{}, testLogger())
	svc := NewRankingService(ledger, cfg, testLogger())

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	entries, err := svc.Rank(context.Background(), from, to, types.MetricGlobal, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	// Default weights: 1 per order + 0.001 per profit unit.
	// w1: 3 + 500*0.001 = 3.5, w2: 5 + 50*0.001 = 5.05.
	if entries[0].WorkerID != w2 {
		t.Fatalf("top worker = %v, want %v", entries[0].WorkerID, w2)
	}
	if math.Abs(entries[1].Score-3.5) > 1e-9 {
		t.Fatalf("second score = %v, want 3.5", entries[1].Score)
	}
	if entries[0].Rank != 1 || entries[1].Rank != 2 {
		t.Fatalf("ranks = %d, %d, want 1, 2", entries[0].Rank, entries[1].Rank)
	}
}

func TestRankSalaryVariantSubtractsAmortizedSalary(t *testing.T) {
	w1 := uuid.MustNew()

	ledger := &fakeLedger{
		totals:  []models.LedgerTotals{{WorkerID: w1, Orders: 10, Revenue: 1000, Expenses: 0}},
		workers: []models.WorkerInfo{{ID: w1, Name: "Aigerim", MonthlySalary: 310000}},
	}

	cfg := NewWeightsConfig(&fakeWeightsRepo{}, testLogger())
	svc := NewRankingService(ledger, cfg, testLogger())

	// March has 31 days; a 31-day window costs the full monthly salary.
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	entries, err := svc.Rank(context.Background(), from, to, types.MetricGlobalSalary, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if math.Abs(entries[0].SalaryCost-310000) > 1e-6 {
		t.Fatalf("salary cost = %v, want 310000", entries[0].SalaryCost)
	}

	// Salary is charged against profit before the profit weight applies:
	// score = 10 x 1 + (1000 - 310000) x 0.001.
	if want := 10.0 + (1000-310000)*0.001; math.Abs(entries[0].Score-want) > 1e-6 {
		t.Fatalf("score = %v, want %v", entries[0].Score, want)
	}
}

func TestRankSalaryVariantMatchesGlobalFormulaOnProfit(t *testing.T) {
	w1 := uuid.MustNew()

	ledger := &fakeLedger{
		totals:  []models.LedgerTotals{{WorkerID: w1, Orders: 0, Revenue: 5000, Expenses: 1000}},
		workers: []models.WorkerInfo{{ID: w1, Name: "Dias", MonthlySalary: 0}},
	}

	cfg := NewWeightsConfig(&fakeWeightsRepo{}, testLogger())
	svc := NewRankingService(ledger, cfg, testLogger())

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	global, err := svc.Rank(context.Background(), from, to, types.MetricGlobal, 0)
	if err != nil {
		t.Fatalf("Rank global: %v", err)
	}
	salaried, err := svc.Rank(context.Background(), from, to, types.MetricGlobalSalary, 0)
	if err != nil {
		t.Fatalf("Rank salary: %v", err)
	}

	// With no salary the variants must agree exactly.
	if global[0].Score != salaried[0].Score {
		t.Fatalf("scores diverge without salary: %v != %v", global[0].Score, salaried[0].Score)
	}
}

func TestRankTieBreaksByWorkerID(t *testing.T) {
	w1, w2 := uuid.MustNew(), uuid.MustNew()
	lo, hi := w1, w2
	if hi.String() < lo.String() {
		lo, hi = hi, lo
	}

	ledger := &fakeLedger{
		totals: []models.LedgerTotals{
			{WorkerID: hi, Orders: 4, Revenue: 100, Expenses: 100},
			{WorkerID: lo, Orders: 4, Revenue: 100, Expenses: 100},
		},
		workers: []models.WorkerInfo{{ID: w1, Name: "A"}, {ID: w2, Name: "B"}},
	}

	cfg := NewWeightsConfig(&fakeWeightsRepo{}, testLogger())
	svc := NewRankingService(ledger, cfg, testLogger())

	entries, err := svc.Rank(context.Background(), time.Now().AddDate(0, 0, -7), time.Now(), types.MetricGlobal, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if entries[0].WorkerID != lo {
		t.Fatalf("tie broken wrong: first = %v, want %v", entries[0].WorkerID, lo)
	}
}

func TestRankEmptyWindow(t *testing.T) {
	cfg := NewWeightsConfig(&fakeWeightsRepo{}, testLogger())
	svc := NewRankingService(&fakeLedger{}, cfg, testLogger())

	entries, err := svc.Rank(context.Background(), time.Now().AddDate(0, 0, -7), time.Now(), types.MetricGlobal, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(entries))
	}
}

func TestRankTopN(t *testing.T) {
	ledger := &fakeLedger{}
	for i := 0; i < 5; i++ {
		id := uuid.MustNew()
		ledger.totals = append(ledger.totals, models.LedgerTotals{WorkerID: id, Orders: i + 1})
		ledger.workers = append(ledger.workers, models.WorkerInfo{ID: id, Name: "w"})
	}

	cfg := NewWeightsConfig(&fakeWeightsRepo{}, testLogger())
	svc := NewRankingService(ledger, cfg, testLogger())

	entries, err := svc.Rank(context.Background(), time.Now().AddDate(0, 0, -7), time.Now(), types.MetricGlobal, 3)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Orders != 5 {
		t.Fatalf("top entry orders = %d, want 5", entries[0].Orders)
	}
}
