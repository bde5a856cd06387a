package zone

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/logger"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

type fakeZoneRepo struct {
	zones []models.Zone
}

func (f *fakeZoneRepo) ListActive(context.Context) ([]models.Zone, error) {
	return f.zones, nil
}

type fakeEventRepo struct {
	inserted []models.ZoneEvent
	last     []models.ZoneEvent
}

func (f *fakeEventRepo) Insert(_ context.Context, e *models.ZoneEvent) error {
	e.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, *e)
	return nil
}

func (f *fakeEventRepo) LastEvents(context.Context) ([]models.ZoneEvent, error) {
	return f.last, nil
}

func (f *fakeEventRepo) ListByWorker(context.Context, uuid.UUID, time.Time, time.Time) ([]models.ZoneEvent, error) {
	return nil, nil
}

func (f *fakeEventRepo) Stats(context.Context, time.Time, time.Time) ([]models.ZoneStat, error) {
	return nil, nil
}

// testZone is a 500 m geofence around a depot.
func testZone() models.Zone {
	return models.Zone{
		ID:        uuid.MustNew(),
		Name:      "depot-north",
		CenterLat: 51.1283,
		CenterLng: 71.4305,
		RadiusM:   500,
		ZoneType:  "depot",
		Active:    true,
	}
}

func newTestDetector(t *testing.T, zones *fakeZoneRepo, events *fakeEventRepo) *Detector {
	t.Helper()
	d := NewDetector(zones, events, logger.InitLogger("zone-test", "error"))
	if err := d.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return d
}

func fixAt(workerID uuid.UUID, lat, lon float64, at time.Time) models.FixAcceptedMessage {
	return models.FixAcceptedMessage{
		WorkerID:   workerID,
		Latitude:   lat,
		Longitude:  lon,
		AccuracyM:  20,
		RecordedAt: at,
	}
}

func TestDetectorEnterExitWithDwell(t *testing.T) {
	z := testZone()
	events := &fakeEventRepo{}
	d := newTestDetector(t, &fakeZoneRepo{zones: []models.Zone{z}}, events)

	workerID := uuid.MustNew()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// Well outside (about 2 km north), then at the center, then outside
	// again 12.5 minutes later.
	steps := []models.FixAcceptedMessage{
		fixAt(workerID, 51.1463, 71.4305, start),
		fixAt(workerID, 51.1283, 71.4305, start.Add(1*time.Minute)),
		fixAt(workerID, 51.1463, 71.4305, start.Add(1*time.Minute+12*time.Minute+30*time.Second)),
	}
	for _, msg := range steps {
		if err := d.Process(context.Background(), msg); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}

	if len(events.inserted) != 2 {
		t.Fatalf("events = %d, want 2 (enter + exit)", len(events.inserted))
	}

	enter := events.inserted[0]
	if enter.EventType != string(types.ZoneEnter) {
		t.Fatalf("first event = %q, want enter", enter.EventType)
	}
	if enter.DwellSeconds != nil {
		t.Fatal("enter event carries dwell")
	}

	exit := events.inserted[1]
	if exit.EventType != string(types.ZoneExit) {
		t.Fatalf("second event = %q, want exit", exit.EventType)
	}
	if exit.DwellSeconds == nil {
		t.Fatal("exit event missing dwell")
	}
	if want := 12.5 * 60; math.Abs(*exit.DwellSeconds-want) > 0.001 {
		t.Fatalf("dwell = %v s, want %v", *exit.DwellSeconds, want)
	}
}

func TestDetectorIgnoresOutOfOrderFixBeforeEnter(t *testing.T) {
	z := testZone()
	events := &fakeEventRepo{}
	d := newTestDetector(t, &fakeZoneRepo{zones: []models.Zone{z}}, events)

	workerID := uuid.MustNew()
	enteredAt := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	// Enter at 10:00, then a delayed outside fix timestamped 09:55.
	if err := d.Process(context.Background(), fixAt(workerID, 51.1283, 71.4305, enteredAt)); err != nil {
		t.Fatalf("Process enter: %v", err)
	}
	if err := d.Process(context.Background(), fixAt(workerID, 51.1463, 71.4305, enteredAt.Add(-5*time.Minute))); err != nil {
		t.Fatalf("Process stale fix: %v", err)
	}

	if len(events.inserted) != 1 {
		t.Fatalf("events = %d, want just the enter", len(events.inserted))
	}

	// The occupancy survives, so a later genuine exit still closes it
	// with a non-negative dwell measured from the enter.
	if err := d.Process(context.Background(), fixAt(workerID, 51.1463, 71.4305, enteredAt.Add(10*time.Minute))); err != nil {
		t.Fatalf("Process exit: %v", err)
	}
	if len(events.inserted) != 2 {
		t.Fatalf("events = %d, want enter + exit", len(events.inserted))
	}
	exit := events.inserted[1]
	if exit.DwellSeconds == nil || *exit.DwellSeconds != 600 {
		t.Fatalf("dwell = %v, want 600", exit.DwellSeconds)
	}
}

func TestDetectorNoEventWithoutCrossing(t *testing.T) {
	z := testZone()
	events := &fakeEventRepo{}
	d := newTestDetector(t, &fakeZoneRepo{zones: []models.Zone{z}}, events)

	workerID := uuid.MustNew()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// Stays inside the whole time.
	for i := 0; i < 4; i++ {
		msg := fixAt(workerID, 51.1283, 71.4305, start.Add(time.Duration(i)*time.Minute))
		if err := d.Process(context.Background(), msg); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}

	if len(events.inserted) != 1 {
		t.Fatalf("events = %d, want only the initial enter", len(events.inserted))
	}
}

func TestDetectorIgnoresDegradedFixes(t *testing.T) {
	z := testZone()
	events := &fakeEventRepo{}
	d := newTestDetector(t, &fakeZoneRepo{zones: []models.Zone{z}}, events)

	workerID := uuid.MustNew()
	msg := fixAt(workerID, 51.1283, 71.4305, time.Now())
	msg.AccuracyM = 400

	if err := d.Process(context.Background(), msg); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(events.inserted) != 0 {
		t.Fatalf("events = %d, want 0 for a degraded fix", len(events.inserted))
	}
}

func TestDetectorRebuildReopensEnterState(t *testing.T) {
	z := testZone()
	workerID := uuid.MustNew()
	enteredAt := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	events := &fakeEventRepo{last: []models.ZoneEvent{{
		WorkerID:   workerID,
		ZoneID:     z.ID,
		EventType:  string(types.ZoneEnter),
		OccurredAt: enteredAt,
	}}}
	d := newTestDetector(t, &fakeZoneRepo{zones: []models.Zone{z}}, events)

	// First fix after restart is outside: the reopened state must yield
	// an exit with dwell measured from the stored enter.
	exit := fixAt(workerID, 51.1463, 71.4305, enteredAt.Add(30*time.Minute))
	if err := d.Process(context.Background(), exit); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(events.inserted) != 1 {
		t.Fatalf("events = %d, want 1 exit", len(events.inserted))
	}
	got := events.inserted[0]
	if got.EventType != string(types.ZoneExit) {
		t.Fatalf("event = %q, want exit", got.EventType)
	}
	if got.DwellSeconds == nil || *got.DwellSeconds != 30*60 {
		t.Fatalf("dwell = %v, want 1800s", got.DwellSeconds)
	}
}

func TestDetectorSeparateStatePerZone(t *testing.T) {
	north := testZone()
	south := testZone()
	south.ID = uuid.MustNew()
	south.Name = "depot-south"
	south.CenterLat = 51.0900

	events := &fakeEventRepo{}
	d := newTestDetector(t, &fakeZoneRepo{zones: []models.Zone{north, south}}, events)

	workerID := uuid.MustNew()
	// Inside north only.
	if err := d.Process(context.Background(), fixAt(workerID, 51.1283, 71.4305, time.Now())); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(events.inserted) != 1 {
		t.Fatalf("events = %d, want 1", len(events.inserted))
	}
	if events.inserted[0].ZoneID != north.ID {
		t.Fatalf("event zone = %v, want north zone %v", events.inserted[0].ZoneID, north.ID)
	}
}
