package models

import (
	"time"

	"github.com/courierops/fieldtrack/pkg/uuid"
)

// Accuracy gates, in meters. A fix worse than MaxStorableAccuracyM never
// reaches storage; a fix worse than MaxUsableAccuracyM is stored but kept
// out of movement and aggregation math.
const (
	MaxUsableAccuracyM   = 100.0
	MaxStorableAccuracyM = 1000.0
)

// Fix is a single reported device position. Immutable once stored,
// keyed by (worker, recorded_at).
type Fix struct {
	WorkerID   uuid.UUID `json:"worker_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	AccuracyM  float64   `json:"accuracy_m"`
	SpeedMS    *float64  `json:"speed_ms,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	Battery    *float64  `json:"battery,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}

// Usable reports whether the fix is precise enough for movement and
// aggregation calculations.
func (f Fix) Usable() bool {
	return f.AccuracyM <= MaxUsableAccuracyM
}

// Storable reports whether the fix may be persisted at all.
func (f Fix) Storable() bool {
	return f.AccuracyM <= MaxStorableAccuracyM
}

// FixAcceptedMessage is the broker payload published for every persisted fix.
type FixAcceptedMessage struct {
	WorkerID   uuid.UUID `json:"worker_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	AccuracyM  float64   `json:"accuracy_m"`
	SpeedMS    *float64  `json:"speed_ms,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (f Fix) ToMessage() FixAcceptedMessage {
	return FixAcceptedMessage{
		WorkerID:   f.WorkerID,
		Latitude:   f.Latitude,
		Longitude:  f.Longitude,
		AccuracyM:  f.AccuracyM,
		SpeedMS:    f.SpeedMS,
		RecordedAt: f.RecordedAt,
	}
}
