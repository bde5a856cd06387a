package models

import (
	"time"

	"github.com/courierops/fieldtrack/pkg/uuid"
)

// Zone is a named circular geofence. Reference data managed elsewhere,
// consumed read-only here.
type Zone struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CenterLat float64   `json:"center_lat"`
	CenterLng float64   `json:"center_lng"`
	RadiusM   float64   `json:"radius_m"`
	ZoneType  string    `json:"zone_type"`
	Active    bool      `json:"active"`
}

// ZoneEvent is an enter/exit crossing. DwellSeconds is set on exit events
// only and equals exit time minus the matching enter time.
type ZoneEvent struct {
	ID           int64     `json:"id,omitempty"`
	WorkerID     uuid.UUID `json:"worker_id"`
	ZoneID       uuid.UUID `json:"zone_id"`
	EventType    string    `json:"event_type"`
	OccurredAt   time.Time `json:"occurred_at"`
	DwellSeconds *float64  `json:"dwell_seconds,omitempty"`
}

// ZoneStat is one row of the zone analytics query.
type ZoneStat struct {
	ZoneID        uuid.UUID `json:"zone_id"`
	ZoneName      string    `json:"zone_name"`
	EnterCount    int       `json:"enter_count"`
	AvgDwellMin   float64   `json:"avg_dwell_min"`
	UniqueWorkers int       `json:"unique_workers"`
}
