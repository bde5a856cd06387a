package dto

import (
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/pkg/uuid"
	"github.com/courierops/fieldtrack/pkg/validator"
)

type PushFixRequest struct {
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	AccuracyM  *float64   `json:"accuracy_m"`
	SpeedMS    *float64   `json:"speed_ms"`
	Heading    *float64   `json:"heading"`
	Battery    *float64   `json:"battery"`
	RecordedAt *time.Time `json:"recorded_at"`
}

func (r *PushFixRequest) Validate(v *validator.Validator) {
	v.Check(r.Latitude != nil, "latitude", "must be provided")
	v.Check(r.Longitude != nil, "longitude", "must be provided")
	v.Check(r.AccuracyM != nil, "accuracy_m", "must be provided")

	if r.Latitude != nil {
		v.Check(*r.Latitude >= -90 && *r.Latitude <= 90, "latitude", "must be between -90 and 90")
	}
	if r.Longitude != nil {
		v.Check(*r.Longitude >= -180 && *r.Longitude <= 180, "longitude", "must be between -180 and 180")
	}
	if r.AccuracyM != nil {
		v.Check(*r.AccuracyM > 0, "accuracy_m", "must be positive")
	}
	if r.SpeedMS != nil {
		v.Check(*r.SpeedMS >= 0, "speed_ms", "must not be negative")
	}
	if r.Heading != nil {
		v.Check(*r.Heading >= 0 && *r.Heading < 360, "heading", "must be between 0 and 360")
	}
	if r.Battery != nil {
		v.Check(*r.Battery >= 0 && *r.Battery <= 100, "battery", "must be between 0 and 100")
	}
}

func (r *PushFixRequest) ToModel(workerID uuid.UUID) *models.Fix {
	fix := &models.Fix{
		WorkerID:  workerID,
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
		AccuracyM: *r.AccuracyM,
		SpeedMS:   r.SpeedMS,
		Heading:   r.Heading,
		Battery:   r.Battery,
	}
	if r.RecordedAt != nil {
		fix.RecordedAt = *r.RecordedAt
	}
	return fix
}

type TrackingToggleRequest struct {
	Enabled         *bool `json:"enabled"`
	IntervalSeconds *int  `json:"tracking_interval"`
}

func (r *TrackingToggleRequest) Validate(v *validator.Validator) {
	v.Check(r.Enabled != nil, "enabled", "must be provided")

	if r.IntervalSeconds != nil {
		v.Check(*r.IntervalSeconds >= 5 && *r.IntervalSeconds <= 3600, "tracking_interval", "must be between 5 and 3600 seconds")
	}
}
