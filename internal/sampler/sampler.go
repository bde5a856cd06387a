package sampler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/geo"
	"github.com/courierops/fieldtrack/pkg/logger"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

type State string

const (
	StateDisabled             State = "disabled"
	StateRequestingPermission State = "requesting_permission"
	StateTracking             State = "tracking"
)

type Movement string

const (
	MovementMoving     Movement = "moving"
	MovementStationary Movement = "stationary"
)

// Movement and reporting thresholds.
const (
	movementDistanceM   = 20.0
	movementSpeedMS     = 1.0
	stationaryAfter     = 180 * time.Second
	minReportInterval   = 15 * time.Second
	maxReportInterval   = 60 * time.Second
	rescheduleTolerance = 5 * time.Second
)

// Pusher delivers fixes to the ingestion endpoint. Implementations own
// their retry policy; the sampler never retries a failed push.
type Pusher interface {
	PushFix(ctx context.Context, fix models.Fix) error
	NotifyTrackingOff(ctx context.Context) error
}

type Config struct {
	WorkerID     uuid.UUID
	BaseInterval time.Duration
	Subscription Options

	// Notify surfaces fatal tracking conditions (permission loss) to the
	// host application. Optional.
	Notify func(err error)
}

// Sampler turns a noisy positioning stream into validated, rate-limited
// fixes pushed upstream. One instance owns one worker session: a single
// subscription plus a single reporting timer, both driven by one loop.
type Sampler struct {
	cfg    Config
	source PositionSource
	pusher Pusher
	clock  Clock
	log    logger.Logger

	mu           sync.Mutex
	state        State
	movement     Movement
	lastKnown    *models.Fix
	lastUsable   *models.Fix
	lastMovement time.Time
	configuredOn bool
	interval     time.Duration
	cancel       context.CancelFunc
	done         chan struct{}
	pushWG       sync.WaitGroup
}

func New(cfg Config, source PositionSource, pusher Pusher, clock Clock, log logger.Logger) *Sampler {
	if clock == nil {
		clock = NewRealClock()
	}
	return &Sampler{
		cfg:    cfg,
		source: source,
		pusher: pusher,
		clock:  clock,
		log:    log,
		state:  StateDisabled,
	}
}

// Enable starts tracking. Returns types.ErrPermissionDenied without
// starting anything when the platform refuses location access. Calling
// Enable while already tracking is a no-op.
func (s *Sampler) Enable(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateDisabled {
		s.mu.Unlock()
		return nil
	}
	s.configuredOn = true
	s.mu.Unlock()

	return s.start(ctx, s.cfg.Subscription)
}

// Disable stops the subscription and the reporting timer synchronously:
// no further pushes occur after it returns. Safe to call when already
// disabled.
func (s *Sampler) Disable(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateDisabled && s.cancel == nil {
		s.configuredOn = false
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.state = StateDisabled
	s.configuredOn = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	// Drain in-flight pushes so none lands after Disable returns.
	s.pushWG.Wait()

	// Best effort: the backend should reflect that tracking is off.
	if err := s.pusher.NotifyTrackingOff(ctx); err != nil {
		s.log.Warn(ctx, "failed to notify backend about tracking off", "err", err.Error())
	}

	return nil
}

// State returns the current lifecycle state.
func (s *Sampler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MovementState returns the current movement classification.
func (s *Sampler) MovementState() Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.movement
}

// ReportInterval returns the interval the reporting timer currently runs at.
func (s *Sampler) ReportInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// start subscribes to the position source and launches the sampling loop.
// No-op when a loop is already running.
func (s *Sampler) start(ctx context.Context, opts Options) error {
	s.mu.Lock()
	if s.state != StateDisabled {
		s.mu.Unlock()
		return nil
	}
	s.state = StateRequestingPermission
	s.mu.Unlock()

	// The subscription outlives the caller's request context.
	runCtx, cancel := context.WithCancel(context.Background())

	readings, errs, err := s.source.Subscribe(runCtx, opts)
	if err != nil {
		cancel()
		s.mu.Lock()
		s.state = StateDisabled
		if errors.Is(err, types.ErrPermissionDenied) {
			s.configuredOn = false
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	now := s.clock.Now()
	s.state = StateTracking
	s.movement = MovementMoving
	s.lastMovement = now
	s.lastKnown = nil
	s.lastUsable = nil
	s.interval = reportInterval(s.cfg.BaseInterval, MovementMoving)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	interval := s.interval
	s.mu.Unlock()

	go s.run(runCtx, readings, errs, done, interval)

	return nil
}

// run is the single logical thread of the session: it waits on the next
// positioning callback, the next timer tick, or cancellation.
func (s *Sampler) run(ctx context.Context, readings <-chan Reading, errs <-chan error, done chan struct{}, interval time.Duration) {
	defer close(done)

	timer := s.clock.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case r, ok := <-readings:
			if !ok {
				s.streamEnded(ctx)
				return
			}
			s.observe(r, timer)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if s.handleSourceError(ctx, err) {
				return
			}

		case <-timer.C():
			s.report(ctx)
			timer.Reset(s.ReportInterval())
		}
	}
}

// observe applies the accuracy gates and movement rule to one raw reading
// and reschedules the reporting timer when the computed interval drifts.
func (s *Sampler) observe(r Reading, timer Timer) {
	if r.AccuracyM > models.MaxStorableAccuracyM {
		// Garbage fix: no state update, no storage.
		return
	}

	fix := s.readingToFix(r)

	s.mu.Lock()
	s.lastKnown = &fix
	if fix.Usable() {
		s.updateMovementLocked(fix)
	}
	next := reportInterval(s.cfg.BaseInterval, s.movement)
	reschedule := absDuration(next-s.interval) > rescheduleTolerance
	if reschedule {
		s.interval = next
	}
	s.mu.Unlock()

	if reschedule {
		timer.Reset(next)
	}
}

// updateMovementLocked applies the displacement/speed rule. Must be called
// with mu held and a usable fix.
func (s *Sampler) updateMovementLocked(fix models.Fix) {
	qualifies := false
	if s.lastUsable != nil &&
		geo.DistanceM(s.lastUsable.Latitude, s.lastUsable.Longitude, fix.Latitude, fix.Longitude) > movementDistanceM {
		qualifies = true
	}
	if fix.SpeedMS != nil && *fix.SpeedMS > movementSpeedMS {
		qualifies = true
	}

	if qualifies {
		s.movement = MovementMoving
		s.lastMovement = fix.RecordedAt
	} else if fix.RecordedAt.Sub(s.lastMovement) >= stationaryAfter {
		s.movement = MovementStationary
	}

	s.lastUsable = &fix
}

// report pushes the last known fix upstream without blocking the loop.
// In-flight pushes are tracked so Disable can drain them.
func (s *Sampler) report(ctx context.Context) {
	s.mu.Lock()
	last := s.lastKnown
	s.mu.Unlock()

	if last == nil {
		return
	}

	fix := *last
	s.pushWG.Add(1)
	go func() {
		defer s.pushWG.Done()
		// A failed push never blocks or stops the sampling loop.
		if err := s.pusher.PushFix(ctx, fix); err != nil {
			s.log.Warn(ctx, "fix push failed", "err", err.Error())
		}
	}()
}

// handleSourceError classifies a source error. Returns true when the
// session must stop.
func (s *Sampler) handleSourceError(ctx context.Context, err error) bool {
	switch {
	case errors.Is(err, types.ErrPermissionDenied):
		s.log.Error(ctx, "location permission revoked, tracking stopped", err)

		s.mu.Lock()
		cancel := s.cancel
		s.cancel = nil
		s.done = nil
		s.state = StateDisabled
		// Explicit re-authorization is required, resume hooks must not
		// silently restart.
		s.configuredOn = false
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if s.cfg.Notify != nil {
			s.cfg.Notify(types.ErrPermissionDenied)
		}
		return true

	case errors.Is(err, types.ErrPositionUnavailable), errors.Is(err, types.ErrPositionTimeout):
		s.log.Debug(ctx, "transient positioning error", "err", err.Error())
		return false

	default:
		s.log.Warn(ctx, "unexpected positioning error", "err", err.Error())
		return false
	}
}

// streamEnded marks the session stopped after the source closed its
// stream. configuredOn stays true so resume hooks can restart tracking.
func (s *Sampler) streamEnded(ctx context.Context) {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.done = nil
	s.state = StateDisabled
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.log.Warn(ctx, "position stream ended unexpectedly")
}

func (s *Sampler) readingToFix(r Reading) models.Fix {
	at := r.At
	if at.IsZero() {
		at = s.clock.Now()
	}
	return models.Fix{
		WorkerID:   s.cfg.WorkerID,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		AccuracyM:  r.AccuracyM,
		SpeedMS:    r.SpeedMS,
		Heading:    r.Heading,
		Battery:    r.Battery,
		RecordedAt: at,
	}
}

// reportInterval computes the adaptive reporting interval: slow while
// stationary, fast while moving, always clamped to [15s, 60s].
func reportInterval(base time.Duration, movement Movement) time.Duration {
	var d time.Duration
	if movement == MovementStationary {
		d = max(2*base, maxReportInterval)
	} else {
		d = min(base, minReportInterval)
	}

	return min(max(d, minReportInterval), maxReportInterval)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
