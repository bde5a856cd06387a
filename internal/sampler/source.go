package sampler

import (
	"context"
	"time"
)

// Reading is one raw positioning callback payload, before any filtering.
type Reading struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	AccuracyM float64   `json:"accuracy_m"`
	SpeedMS   *float64  `json:"speed_ms,omitempty"`
	Heading   *float64  `json:"heading,omitempty"`
	Battery   *float64  `json:"battery,omitempty"`
	At        time.Time `json:"at,omitzero"`
}

// Options mirror the platform subscription parameters.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxFixAge    time.Duration
}

// PositionSource is the platform positioning API. Subscribe starts a
// continuous stream of readings; transient failures arrive on the error
// channel and the stream keeps going. A synchronous error means the
// subscription never started; permission refusal is reported as
// types.ErrPermissionDenied.
//
// Both channels are closed when the subscription ends.
type PositionSource interface {
	Subscribe(ctx context.Context, opts Options) (<-chan Reading, <-chan error, error)
}

// PermissionRequester is implemented by sources that can interactively
// prompt the user for location access.
type PermissionRequester interface {
	RequestPermission(ctx context.Context) error
}
