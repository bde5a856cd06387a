package zone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/geo"
	"github.com/courierops/fieldtrack/pkg/logger"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/courierops/fieldtrack/pkg/metrics"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

const serviceName = "zones"

type pairKey struct {
	worker uuid.UUID
	zone   uuid.UUID
}

// occupancy is the open-enter state for one (worker, zone) pair.
type occupancy struct {
	enteredAt time.Time
}

// Detector turns the accepted-fix stream into zone enter/exit events. One
// state machine per (worker, zone) pair, initial state outside. State
// lives in memory and is rebuilt from the last stored event on startup.
type Detector struct {
	zones  ZoneRepo
	events ZoneEventRepo
	l      logger.Logger

	mu     sync.Mutex
	active []models.Zone
	inside map[pairKey]occupancy
}

func NewDetector(zones ZoneRepo, events ZoneEventRepo, l logger.Logger) *Detector {
	return &Detector{
		zones:  zones,
		events: events,
		l:      l,
		inside: map[pairKey]occupancy{},
	}
}

// Rebuild loads the active zones and reopens in-memory state from the
// last stored event per pair. Call once before consuming fixes.
func (d *Detector) Rebuild(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, types.ActionZoneDetect)

	zones, err := d.zones.ListActive(ctx)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("could not load zones: %w", err))
	}

	last, err := d.events.LastEvents(ctx)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("could not load last events: %w", err))
	}

	inside := map[pairKey]occupancy{}
	for _, e := range last {
		if e.EventType == string(types.ZoneEnter) {
			inside[pairKey{worker: e.WorkerID, zone: e.ZoneID}] = occupancy{enteredAt: e.OccurredAt}
		}
	}

	d.mu.Lock()
	d.active = zones
	d.inside = inside
	d.mu.Unlock()

	d.l.Info(ctx, "zone detector state rebuilt",
		"zones", len(zones), "open_enters", len(inside))

	return nil
}

// Process runs one accepted fix through every active zone. Degraded fixes
// never move the state machine.
func (d *Detector) Process(ctx context.Context, msg models.FixAcceptedMessage) error {
	ctx = wrap.WithAction(wrap.WithWorkerID(ctx, msg.WorkerID.String()), types.ActionZoneDetect)

	if msg.AccuracyM > models.MaxUsableAccuracyM {
		return nil
	}

	d.mu.Lock()
	zones := d.active
	d.mu.Unlock()

	for _, z := range zones {
		if err := d.processZone(ctx, z, msg); err != nil {
			return err
		}
	}

	return nil
}

func (d *Detector) processZone(ctx context.Context, z models.Zone, msg models.FixAcceptedMessage) error {
	key := pairKey{worker: msg.WorkerID, zone: z.ID}
	within := geo.DistanceM(msg.Latitude, msg.Longitude, z.CenterLat, z.CenterLng) <= z.RadiusM

	d.mu.Lock()
	state, inside := d.inside[key]
	d.mu.Unlock()

	switch {
	case within && !inside:
		event := models.ZoneEvent{
			WorkerID:   msg.WorkerID,
			ZoneID:     z.ID,
			EventType:  string(types.ZoneEnter),
			OccurredAt: msg.RecordedAt,
		}
		if err := d.events.Insert(ctx, &event); err != nil {
			return wrap.Error(wrap.WithZoneID(ctx, z.ID.String()), fmt.Errorf("could not store enter event: %w", err))
		}

		d.mu.Lock()
		d.inside[key] = occupancy{enteredAt: msg.RecordedAt}
		d.mu.Unlock()

		metrics.ZoneEventsTotal.WithLabelValues(serviceName, string(types.ZoneEnter)).Inc()
		d.l.Info(wrap.WithZoneID(ctx, z.ID.String()), "zone entered", "zone", z.Name)

	case !within && inside:
		// A late fix timestamped before the enter cannot witness an
		// exit; dwell stays non-negative and the occupancy stands.
		if msg.RecordedAt.Before(state.enteredAt) {
			return nil
		}
		dwell := msg.RecordedAt.Sub(state.enteredAt).Seconds()
		event := models.ZoneEvent{
			WorkerID:     msg.WorkerID,
			ZoneID:       z.ID,
			EventType:    string(types.ZoneExit),
			OccurredAt:   msg.RecordedAt,
			DwellSeconds: &dwell,
		}
		if err := d.events.Insert(ctx, &event); err != nil {
			return wrap.Error(wrap.WithZoneID(ctx, z.ID.String()), fmt.Errorf("could not store exit event: %w", err))
		}

		d.mu.Lock()
		delete(d.inside, key)
		d.mu.Unlock()

		metrics.ZoneEventsTotal.WithLabelValues(serviceName, string(types.ZoneExit)).Inc()
		d.l.Info(wrap.WithZoneID(ctx, z.ID.String()), "zone exited",
			"zone", z.Name, "dwell_seconds", dwell)
	}

	// No boundary crossing, no event.
	return nil
}
