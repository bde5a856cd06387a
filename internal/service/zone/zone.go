package zone

import (
	"context"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

// ZoneService answers the analytics-side zone queries.
type ZoneService struct {
	zones  ZoneRepo
	events ZoneEventRepo
}

func NewZoneService(zones ZoneRepo, events ZoneEventRepo) *ZoneService {
	return &ZoneService{zones: zones, events: events}
}

// Stats aggregates zone activity over [from, to]. Zones without events in
// the window are omitted; an empty window yields an empty list.
func (s *ZoneService) Stats(ctx context.Context, from, to time.Time) ([]models.ZoneStat, error) {
	stats, err := s.events.Stats(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []models.ZoneStat{}
	}
	return stats, nil
}

// WorkerEvents returns one worker's crossings in [from, to], oldest first.
func (s *ZoneService) WorkerEvents(ctx context.Context, workerID uuid.UUID, from, to time.Time) ([]models.ZoneEvent, error) {
	events, err := s.events.ListByWorker(ctx, workerID, from, to)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.ZoneEvent{}
	}
	return events, nil
}
