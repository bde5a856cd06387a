package telemetryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
)

const (
	pushAttempts = 3
	pushBackoff  = 2 * time.Second
)

// Client pushes sampler output to the telemetry service. It owns the
// bounded retry policy for rate limiting and the best-effort
// re-authorization on 403-class responses.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	token string

	// reauthorize exchanges credentials for a fresh token. Optional.
	reauthorize func(ctx context.Context) (string, error)
}

func New(baseURL, token string, reauthorize func(ctx context.Context) (string, error)) *Client {
	return &Client{
		baseURL:     baseURL,
		token:       token,
		reauthorize: reauthorize,
		http:        &http.Client{Timeout: 10 * time.Second},
	}
}

// PushFix submits one fix. Retries with a fixed backoff on throttling, at
// most pushAttempts times, then gives up with types.ErrRateLimited.
func (c *Client) PushFix(ctx context.Context, fix models.Fix) error {
	const op = "telemetryapi.PushFix"

	body := map[string]any{
		"latitude":    fix.Latitude,
		"longitude":   fix.Longitude,
		"accuracy_m":  fix.AccuracyM,
		"speed_ms":    fix.SpeedMS,
		"heading":     fix.Heading,
		"battery":     fix.Battery,
		"recorded_at": fix.RecordedAt,
	}

	for attempt := 1; attempt <= pushAttempts; attempt++ {
		status, err := c.post(ctx, "/telemetry/fixes", body)
		if err != nil {
			ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
			return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
		}

		switch {
		case status < 300:
			return nil

		case status == http.StatusTooManyRequests:
			if attempt == pushAttempts {
				return wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrRateLimited))
			}
			select {
			case <-time.After(pushBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}

		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			// One best-effort re-authorization, then a single retry.
			if err := c.refreshToken(ctx); err != nil {
				return wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrPermissionDenied))
			}
			status, err = c.post(ctx, "/telemetry/fixes", body)
			if err != nil || status >= 300 {
				return wrap.Error(ctx, fmt.Errorf("%s: push rejected after re-authorization (status %d)", op, status))
			}
			return nil

		case status == http.StatusUnprocessableEntity:
			return wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrValidationFailed))

		default:
			return wrap.Error(ctx, fmt.Errorf("%s: unexpected response status %d", op, status))
		}
	}

	return nil
}

// NotifyTrackingOff tells the backend tracking is disabled so settings
// reflect the true state.
func (c *Client) NotifyTrackingOff(ctx context.Context) error {
	const op = "telemetryapi.NotifyTrackingOff"

	status, err := c.post(ctx, "/telemetry/tracking", map[string]any{"enabled": false})
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	if status >= 300 {
		return wrap.Error(ctx, fmt.Errorf("%s: unexpected response status %d", op, status))
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (int, error) {
	js, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(js))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.currentToken())

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) refreshToken(ctx context.Context) error {
	if c.reauthorize == nil {
		return types.ErrPermissionDenied
	}
	token, err := c.reauthorize(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}
