package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/logger"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

type fakeFixRepo struct {
	inserted  []models.Fix
	insertErr error
	last      *models.Fix
}

func (f *fakeFixRepo) Insert(_ context.Context, fix *models.Fix) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	fix.CreatedAt = time.Now()
	f.inserted = append(f.inserted, *fix)
	return nil
}

func (f *fakeFixRepo) GetLast(context.Context, uuid.UUID) (*models.Fix, error) {
	if f.last == nil {
		return nil, types.ErrNoData
	}
	return f.last, nil
}

type fakeSettingsRepo struct {
	stored map[uuid.UUID]models.TrackingSettings
}

func (f *fakeSettingsRepo) Get(_ context.Context, workerID uuid.UUID) (models.TrackingSettings, error) {
	s, ok := f.stored[workerID]
	if !ok {
		return models.TrackingSettings{}, types.ErrWorkerNotFound
	}
	return s, nil
}

func (f *fakeSettingsRepo) Upsert(_ context.Context, s models.TrackingSettings) (models.TrackingSettings, error) {
	if f.stored == nil {
		f.stored = map[uuid.UUID]models.TrackingSettings{}
	}
	s.UpdatedAt = time.Now()
	f.stored[s.WorkerID] = s
	return s, nil
}

type fakeBroker struct {
	published []models.FixAcceptedMessage
	err       error
}

func (f *fakeBroker) PublishFixAccepted(_ context.Context, msg models.FixAcceptedMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

type fakeFeed struct {
	broadcasts int
}

func (f *fakeFeed) Broadcast(uuid.UUID, map[string]any) { f.broadcasts++ }

func newTestService(fixes *fakeFixRepo, broker *fakeBroker) (*IngestService, *fakeSettingsRepo, *fakeFeed) {
	settings := &fakeSettingsRepo{}
	feed := &fakeFeed{}
	svc := NewIngestService(fixes, settings, broker, feed, logger.InitLogger("ingest-test", "error"))
	return svc, settings, feed
}

func validFix() *models.Fix {
	return &models.Fix{
		WorkerID:   uuid.MustNew(),
		Latitude:   51.1283,
		Longitude:  71.4305,
		AccuracyM:  25,
		RecordedAt: time.Now(),
	}
}

func TestSubmitStoresPublishesBroadcasts(t *testing.T) {
	fixes := &fakeFixRepo{}
	broker := &fakeBroker{}
	svc, _, feed := newTestService(fixes, broker)

	fix := validFix()
	stored, err := svc.Submit(context.Background(), fix)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !stored {
		t.Fatal("valid fix not stored")
	}
	if len(fixes.inserted) != 1 {
		t.Fatalf("inserted = %d rows, want 1", len(fixes.inserted))
	}
	if len(broker.published) != 1 {
		t.Fatalf("published = %d messages, want 1", len(broker.published))
	}
	if broker.published[0].WorkerID != fix.WorkerID {
		t.Fatalf("published worker = %v, want %v", broker.published[0].WorkerID, fix.WorkerID)
	}
	if feed.broadcasts != 1 {
		t.Fatalf("broadcasts = %d, want 1", feed.broadcasts)
	}
}

func TestSubmitDiscardsGarbageAccuracy(t *testing.T) {
	fixes := &fakeFixRepo{}
	svc, _, feed := newTestService(fixes, &fakeBroker{})

	fix := validFix()
	fix.AccuracyM = 1500

	stored, err := svc.Submit(context.Background(), fix)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if stored {
		t.Fatal("garbage fix reported stored")
	}
	if len(fixes.inserted) != 0 {
		t.Fatalf("inserted = %d rows, want 0", len(fixes.inserted))
	}
	if feed.broadcasts != 0 {
		t.Fatalf("broadcasts = %d, want 0", feed.broadcasts)
	}
}

func TestSubmitRejectsStaleTimestamp(t *testing.T) {
	fixes := &fakeFixRepo{}
	svc, _, _ := newTestService(fixes, &fakeBroker{})

	fix := validFix()
	fix.RecordedAt = time.Now().Add(-48 * time.Hour)

	_, err := svc.Submit(context.Background(), fix)
	if !errors.Is(err, types.ErrValidationFailed) {
		t.Fatalf("Submit error = %v, want ErrValidationFailed", err)
	}
	if len(fixes.inserted) != 0 {
		t.Fatalf("inserted = %d rows, want 0", len(fixes.inserted))
	}
}

func TestSubmitSurvivesBrokerFailure(t *testing.T) {
	fixes := &fakeFixRepo{}
	broker := &fakeBroker{err: errors.New("broker down")}
	svc, _, feed := newTestService(fixes, broker)

	stored, err := svc.Submit(context.Background(), validFix())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !stored {
		t.Fatal("fix not stored despite healthy repo")
	}
	if feed.broadcasts != 1 {
		t.Fatalf("broadcasts = %d, want 1", feed.broadcasts)
	}
}

func TestSettingsDefaultsForUnknownWorker(t *testing.T) {
	svc, _, _ := newTestService(&fakeFixRepo{}, &fakeBroker{})

	workerID := uuid.MustNew()
	settings, err := svc.Settings(context.Background(), workerID)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if settings.Enabled {
		t.Fatal("default settings enabled")
	}
	if settings.IntervalSeconds != defaultTrackingInterval {
		t.Fatalf("default interval = %d, want %d", settings.IntervalSeconds, defaultTrackingInterval)
	}
}

func TestSetTrackingReturnsStoredState(t *testing.T) {
	svc, repo, _ := newTestService(&fakeFixRepo{}, &fakeBroker{})

	workerID := uuid.MustNew()
	stored, err := svc.SetTracking(context.Background(), models.TrackingSettings{
		WorkerID: workerID,
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("SetTracking: %v", err)
	}
	if !stored.Enabled {
		t.Fatal("stored settings not enabled")
	}
	if stored.IntervalSeconds != defaultTrackingInterval {
		t.Fatalf("interval defaulted to %d, want %d", stored.IntervalSeconds, defaultTrackingInterval)
	}
	if _, ok := repo.stored[workerID]; !ok {
		t.Fatal("settings row not persisted")
	}
}
