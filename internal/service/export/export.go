package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

type MetricSource interface {
	ListRange(ctx context.Context, from, to time.Time, workerID *uuid.UUID) ([]models.DailyMetric, error)
}

type EventSource interface {
	ListRange(ctx context.Context, from, to time.Time, workerID *uuid.UUID) ([]models.ZoneEvent, error)
}

type Ranker interface {
	Rank(ctx context.Context, from, to time.Time, metric types.RankingMetric, topN int) ([]models.RankingEntry, error)
}

// Table is a flattened dataset ready for serialization. The handler
// decides the wire format; this layer only decides the columns.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Request selects one exportable dataset and its window.
type Request struct {
	Type     types.ExportType
	From     time.Time
	To       time.Time
	WorkerID *uuid.UUID
}

type ExportService struct {
	metrics MetricSource
	events  EventSource
	ranker  Ranker
}

func NewExportService(metrics MetricSource, events EventSource, ranker Ranker) *ExportService {
	return &ExportService{
		metrics: metrics,
		events:  events,
		ranker:  ranker,
	}
}

// Export flattens the requested dataset. Unknown types fail validation;
// an empty window yields a header-only table.
func (s *ExportService) Export(ctx context.Context, req Request) (Table, error) {
	ctx = wrap.WithAction(ctx, "export_dataset")

	switch req.Type {
	case types.ExportDaily:
		return s.exportDaily(ctx, req)
	case types.ExportRankings:
		return s.exportRankings(ctx, req)
	case types.ExportZoneEvents:
		return s.exportZoneEvents(ctx, req)
	default:
		return Table{}, wrap.Error(ctx, fmt.Errorf("unknown export type %q: %w", req.Type, types.ErrValidationFailed))
	}
}

func (s *ExportService) exportDaily(ctx context.Context, req Request) (Table, error) {
	rows, err := s.metrics.ListRange(ctx, req.From, req.To, req.WorkerID)
	if err != nil {
		return Table{}, wrap.Error(ctx, fmt.Errorf("could not load daily metrics: %w", err))
	}

	t := Table{
		Name:   "daily_metrics",
		Header: []string{"worker_id", "date", "distance_km", "duration_min", "avg_speed_kmh", "efficiency", "fuel_efficiency"},
	}
	for _, m := range rows {
		t.Rows = append(t.Rows, []string{
			m.WorkerID.String(),
			m.Date.Format("2006-01-02"),
			formatFloat(m.DistanceKm),
			formatFloat(m.DurationMin),
			formatFloat(m.AvgSpeedKmh),
			formatFloat(m.Efficiency),
			formatFloat(m.FuelEfficiency),
		})
	}

	return t, nil
}

func (s *ExportService) exportRankings(ctx context.Context, req Request) (Table, error) {
	entries, err := s.ranker.Rank(ctx, req.From, req.To, types.MetricGlobal, 0)
	if err != nil {
		return Table{}, wrap.Error(ctx, fmt.Errorf("could not compute rankings: %w", err))
	}

	t := Table{
		Name:   "rankings",
		Header: []string{"rank", "worker_id", "worker_name", "orders", "net_profit", "score"},
	}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(e.Rank),
			e.WorkerID.String(),
			e.WorkerName,
			strconv.Itoa(e.Orders),
			formatFloat(e.NetProfit),
			formatFloat(e.Score),
		})
	}

	return t, nil
}

func (s *ExportService) exportZoneEvents(ctx context.Context, req Request) (Table, error) {
	events, err := s.events.ListRange(ctx, req.From, req.To, req.WorkerID)
	if err != nil {
		return Table{}, wrap.Error(ctx, fmt.Errorf("could not load zone events: %w", err))
	}

	t := Table{
		Name:   "zone_events",
		Header: []string{"worker_id", "zone_id", "event_type", "occurred_at", "dwell_seconds"},
	}
	for _, e := range events {
		dwell := ""
		if e.DwellSeconds != nil {
			dwell = formatFloat(*e.DwellSeconds)
		}
		t.Rows = append(t.Rows, []string{
			e.WorkerID.String(),
			e.ZoneID.String(),
			e.EventType,
			e.OccurredAt.Format(time.RFC3339),
			dwell,
		})
	}

	return t, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
