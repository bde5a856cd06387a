package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

type fakeMetricSource struct {
	rows []models.DailyMetric
}

func (f *fakeMetricSource) ListRange(context.Context, time.Time, time.Time, *uuid.UUID) ([]models.DailyMetric, error) {
	return f.rows, nil
}

type fakeEventSource struct {
	events []models.ZoneEvent
}

func (f *fakeEventSource) ListRange(context.Context, time.Time, time.Time, *uuid.UUID) ([]models.ZoneEvent, error) {
	return f.events, nil
}

type fakeRanker struct {
	entries []models.RankingEntry
}

func (f *fakeRanker) Rank(context.Context, time.Time, time.Time, types.RankingMetric, int) ([]models.RankingEntry, error) {
	return f.entries, nil
}

func window() (time.Time, time.Time) {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
}

func TestExportDaily(t *testing.T) {
	workerID := uuid.MustNew()
	from, to := window()

	svc := NewExportService(&fakeMetricSource{rows: []models.DailyMetric{{
		WorkerID:    workerID,
		Date:        from,
		DistanceKm:  42.3,
		DurationMin: 540,
		AvgSpeedKmh: 4.7,
		Efficiency:  61.5,
	}}}, &fakeEventSource{}, &fakeRanker{})

	table, err := svc.Export(context.Background(), Request{Type: types.ExportDaily, From: from, To: to})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if table.Name != "daily_metrics" {
		t.Fatalf("table name = %q", table.Name)
	}
	if len(table.Header) != 7 {
		t.Fatalf("header columns = %d, want 7", len(table.Header))
	}
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(table.Rows))
	}

	row := table.Rows[0]
	if row[0] != workerID.String() {
		t.Fatalf("row worker = %q", row[0])
	}
	if row[1] != "2026-03-01" {
		t.Fatalf("row date = %q", row[1])
	}
	if row[2] != "42.30" {
		t.Fatalf("row distance = %q, want 42.30", row[2])
	}
	if len(row) != len(table.Header) {
		t.Fatalf("row width %d != header width %d", len(row), len(table.Header))
	}
}

func TestExportZoneEventsDwellColumn(t *testing.T) {
	from, to := window()
	dwell := 750.0

	svc := NewExportService(&fakeMetricSource{}, &fakeEventSource{events: []models.ZoneEvent{
		{WorkerID: uuid.MustNew(), ZoneID: uuid.MustNew(), EventType: "enter", OccurredAt: from},
		{WorkerID: uuid.MustNew(), ZoneID: uuid.MustNew(), EventType: "exit", OccurredAt: from.Add(time.Hour), DwellSeconds: &dwell},
	}}, &fakeRanker{})

	table, err := svc.Export(context.Background(), Request{Type: types.ExportZoneEvents, From: from, To: to})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	if got := table.Rows[0][4]; got != "" {
		t.Fatalf("enter dwell column = %q, want empty", got)
	}
	if got := table.Rows[1][4]; got != "750.00" {
		t.Fatalf("exit dwell column = %q, want 750.00", got)
	}
}

func TestExportRankings(t *testing.T) {
	from, to := window()

	svc := NewExportService(&fakeMetricSource{}, &fakeEventSource{}, &fakeRanker{entries: []models.RankingEntry{
		{Rank: 1, WorkerID: uuid.MustNew(), WorkerName: "Dias", Orders: 5, NetProfit: 50, Score: 5.05},
	}})

	table, err := svc.Export(context.Background(), Request{Type: types.ExportRankings, From: from, To: to})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(table.Rows))
	}
	if table.Rows[0][0] != "1" || table.Rows[0][2] != "Dias" {
		t.Fatalf("row = %v", table.Rows[0])
	}
}

func TestExportUnknownType(t *testing.T) {
	from, to := window()
	svc := NewExportService(&fakeMetricSource{}, &fakeEventSource{}, &fakeRanker{})

	_, err := svc.Export(context.Background(), Request{Type: "pdf", From: from, To: to})
	if !errors.Is(err, types.ErrValidationFailed) {
		t.Fatalf("Export error = %v, want ErrValidationFailed", err)
	}
}

func TestExportEmptyWindowHeaderOnly(t *testing.T) {
	from, to := window()
	svc := NewExportService(&fakeMetricSource{}, &fakeEventSource{}, &fakeRanker{})

	table, err := svc.Export(context.Background(), Request{Type: types.ExportDaily, From: from, To: to})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(table.Header) == 0 {
		t.Fatal("empty window lost the header")
	}
	if len(table.Rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(table.Rows))
	}
}
