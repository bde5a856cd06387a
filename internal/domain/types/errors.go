package types

import "errors"

var (
	// Sampler / positioning source conditions.
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrPositionTimeout     = errors.New("position request timed out")

	// Ingestion and configuration boundaries.
	ErrValidationFailed = errors.New("validation failed")
	ErrRateLimited      = errors.New("rate limited")

	ErrWorkerNotFound = errors.New("worker not found")
	ErrZoneNotFound   = errors.New("zone not found")
	ErrNoData         = errors.New("no data for the requested window")

	ErrNoWeightsConfigured = errors.New("score weights not configured")
)
