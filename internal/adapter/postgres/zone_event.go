package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/courierops/fieldtrack/pkg/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ZoneEventRepo struct {
	db *pgxpool.Pool
}

func NewZoneEventRepo(db *pgxpool.Pool) *ZoneEventRepo {
	return &ZoneEventRepo{db: db}
}

func (r *ZoneEventRepo) Insert(ctx context.Context, event *models.ZoneEvent) error {
	const op = "ZoneEventRepo.Insert"
	query := `
		INSERT INTO zone_events (worker_id, zone_id, event_type, occurred_at, dwell_seconds)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;`

	if err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		event.WorkerID, event.ZoneID, event.EventType, event.OccurredAt, event.DwellSeconds,
	).Scan(&event.ID); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return nil
}

// LastEvents returns the most recent event per (worker, zone) pair. The
// detector rebuilds its in-memory occupancy state from this on startup.
func (r *ZoneEventRepo) LastEvents(ctx context.Context) ([]models.ZoneEvent, error) {
	const op = "ZoneEventRepo.LastEvents"
	query := `
		SELECT DISTINCT ON (worker_id, zone_id)
		       id, worker_id, zone_id, event_type, occurred_at, dwell_seconds
		FROM zone_events
		ORDER BY worker_id, zone_id, occurred_at DESC;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var events []models.ZoneEvent
	for rows.Next() {
		var e models.ZoneEvent
		if err := rows.Scan(&e.ID, &e.WorkerID, &e.ZoneID, &e.EventType, &e.OccurredAt, &e.DwellSeconds); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

// ListByWorker returns a worker's crossings inside [from, to], oldest first.
func (r *ZoneEventRepo) ListByWorker(ctx context.Context, workerID uuid.UUID, from, to time.Time) ([]models.ZoneEvent, error) {
	const op = "ZoneEventRepo.ListByWorker"
	query := `
		SELECT id, worker_id, zone_id, event_type, occurred_at, dwell_seconds
		FROM zone_events
		WHERE worker_id = $1 AND occurred_at BETWEEN $2 AND $3
		ORDER BY occurred_at ASC;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, workerID, from, to)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var events []models.ZoneEvent
	for rows.Next() {
		var e models.ZoneEvent
		if err := rows.Scan(&e.ID, &e.WorkerID, &e.ZoneID, &e.EventType, &e.OccurredAt, &e.DwellSeconds); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

// ListRange returns every crossing inside [from, to], optionally filtered
// to one worker. Feeds the export facade.
func (r *ZoneEventRepo) ListRange(ctx context.Context, from, to time.Time, workerID *uuid.UUID) ([]models.ZoneEvent, error) {
	const op = "ZoneEventRepo.ListRange"
	query := `
		SELECT id, worker_id, zone_id, event_type, occurred_at, dwell_seconds
		FROM zone_events
		WHERE occurred_at BETWEEN $1 AND $2
		  AND ($3::uuid IS NULL OR worker_id = $3)
		ORDER BY occurred_at ASC;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, from, to, workerID)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var events []models.ZoneEvent
	for rows.Next() {
		var e models.ZoneEvent
		if err := rows.Scan(&e.ID, &e.WorkerID, &e.ZoneID, &e.EventType, &e.OccurredAt, &e.DwellSeconds); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

// Stats aggregates zone activity over [from, to]: visit counts, average
// dwell minutes and distinct workers per zone.
func (r *ZoneEventRepo) Stats(ctx context.Context, from, to time.Time) ([]models.ZoneStat, error) {
	const op = "ZoneEventRepo.Stats"
	query := `
		SELECT z.id, z.name,
		       COUNT(*) FILTER (WHERE e.event_type = 'enter'),
		       COALESCE(AVG(e.dwell_seconds) FILTER (WHERE e.event_type = 'exit'), 0) / 60.0,
		       COUNT(DISTINCT e.worker_id)
		FROM zone_events e
		JOIN zones z ON z.id = e.zone_id
		WHERE e.occurred_at BETWEEN $1 AND $2
		GROUP BY z.id, z.name
		ORDER BY z.name ASC;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, from, to)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var stats []models.ZoneStat
	for rows.Next() {
		var s models.ZoneStat
		if err := rows.Scan(&s.ZoneID, &s.ZoneName, &s.EnterCount, &s.AvgDwellMin, &s.UniqueWorkers); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}
