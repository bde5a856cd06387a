package models

import (
	"time"

	"github.com/courierops/fieldtrack/pkg/uuid"
)

// TrackingSettings is the server-side source of truth for one worker's
// tracking toggle. The client never assumes an optimistic state; the
// toggle endpoint returns this row as stored.
type TrackingSettings struct {
	WorkerID        uuid.UUID `json:"worker_id"`
	Enabled         bool      `json:"tracking_enabled"`
	IntervalSeconds int       `json:"tracking_interval"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}
