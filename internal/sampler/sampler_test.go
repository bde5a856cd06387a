package sampler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/logger"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

type fakeSource struct {
	mu            sync.Mutex
	subscribeErrs []error
	calls         []Options
	readings      chan Reading
	errs          chan error
	permissionErr error
	prompted      bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{}
}

func (f *fakeSource) Subscribe(_ context.Context, opts Options) (<-chan Reading, <-chan error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, opts)
	if len(f.subscribeErrs) > 0 {
		err := f.subscribeErrs[0]
		f.subscribeErrs = f.subscribeErrs[1:]
		if err != nil {
			return nil, nil, err
		}
	}

	f.readings = make(chan Reading)
	f.errs = make(chan error)
	return f.readings, f.errs, nil
}

func (f *fakeSource) RequestPermission(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompted = true
	return f.permissionErr
}

func (f *fakeSource) send(r Reading) {
	f.mu.Lock()
	ch := f.readings
	f.mu.Unlock()
	ch <- r
}

func (f *fakeSource) sendErr(err error) {
	f.mu.Lock()
	ch := f.errs
	f.mu.Unlock()
	ch <- err
}

func (f *fakeSource) closeStream() {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.readings)
}

func (f *fakeSource) subscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSource) lastOptions() Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{ch: make(chan time.Time), last: d}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) timer(t *testing.T) *fakeTimer {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		if len(c.timers) > 0 {
			tm := c.timers[len(c.timers)-1]
			c.mu.Unlock()
			return tm
		}
		c.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("sampling loop never created a timer")
	return nil
}

type fakeTimer struct {
	mu   sync.Mutex
	ch   chan time.Time
	last time.Duration
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Reset(d time.Duration) {
	t.mu.Lock()
	t.last = d
	t.mu.Unlock()
}

func (t *fakeTimer) Stop() {}

// fire blocks until the sampling loop consumes the tick.
func (t *fakeTimer) fire(at time.Time) {
	t.ch <- at
}

func (t *fakeTimer) lastReset() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

type fakePusher struct {
	mu       sync.Mutex
	fixes    []models.Fix
	offCalls int

	// When set, PushFix waits on it before recording the fix.
	block chan struct{}
}

func (p *fakePusher) PushFix(_ context.Context, fix models.Fix) error {
	p.mu.Lock()
	block := p.block
	p.mu.Unlock()
	if block != nil {
		<-block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fixes = append(p.fixes, fix)
	return nil
}

func (p *fakePusher) NotifyTrackingOff(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offCalls++
	return nil
}

func (p *fakePusher) pushCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.fixes)
}

func (p *fakePusher) lastFix(t *testing.T) models.Fix {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.fixes) == 0 {
		t.Fatal("no fixes pushed")
	}
	return p.fixes[len(p.fixes)-1]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestSampler(t *testing.T, base time.Duration) (*Sampler, *fakeSource, *fakeClock, *fakePusher) {
	t.Helper()

	source := newFakeSource()
	clock := newFakeClock(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	pusher := &fakePusher{}

	s := New(Config{
		WorkerID:     uuid.MustNew(),
		BaseInterval: base,
		Subscription: Options{HighAccuracy: true, Timeout: 10 * time.Second},
	}, source, pusher, clock, logger.InitLogger("sampler-test", "error"))

	return s, source, clock, pusher
}

func usableReading(lat, lon float64, at time.Time) Reading {
	return Reading{Latitude: lat, Longitude: lon, AccuracyM: 20, At: at}
}

func TestEnableStartsTracking(t *testing.T) {
	s, source, _, _ := newTestSampler(t, 30*time.Second)

	if got := s.State(); got != StateDisabled {
		t.Fatalf("initial state = %q, want %q", got, StateDisabled)
	}

	if err := s.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	defer s.Disable(context.Background())

	if got := s.State(); got != StateTracking {
		t.Fatalf("state after Enable = %q, want %q", got, StateTracking)
	}
	if got := s.MovementState(); got != MovementMoving {
		t.Fatalf("initial movement = %q, want %q", got, MovementMoving)
	}
	if got := source.subscribeCount(); got != 1 {
		t.Fatalf("subscribe count = %d, want 1", got)
	}

	// Enable while tracking is a no-op.
	if err := s.Enable(context.Background()); err != nil {
		t.Fatalf("second Enable: %v", err)
	}
	if got := source.subscribeCount(); got != 1 {
		t.Fatalf("subscribe count after second Enable = %d, want 1", got)
	}
}

func TestEnablePermissionDenied(t *testing.T) {
	s, source, _, _ := newTestSampler(t, 30*time.Second)
	source.subscribeErrs = []error{types.ErrPermissionDenied}

	err := s.Enable(context.Background())
	if !errors.Is(err, types.ErrPermissionDenied) {
		t.Fatalf("Enable error = %v, want ErrPermissionDenied", err)
	}
	if got := s.State(); got != StateDisabled {
		t.Fatalf("state = %q, want %q", got, StateDisabled)
	}

	// Denied permission must not be silently retried by resume hooks.
	s.OnAppForeground(context.Background())
	if got := source.subscribeCount(); got != 1 {
		t.Fatalf("subscribe count after resume = %d, want 1", got)
	}
}

func TestAccuracyGates(t *testing.T) {
	s, source, clock, pusher := newTestSampler(t, 30*time.Second)

	if err := s.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	defer s.Disable(context.Background())
	timer := clock.timer(t)

	// Worse than 1000m: dropped entirely, nothing to report.
	source.send(Reading{Latitude: 51.1, Longitude: 71.4, AccuracyM: 1500, At: clock.Now()})
	timer.fire(clock.Now())
	time.Sleep(50 * time.Millisecond)
	if got := pusher.pushCount(); got != 0 {
		t.Fatalf("push count after garbage fix = %d, want 0", got)
	}

	// Between 100m and 1000m: stored and reported, but not usable for
	// movement classification.
	source.send(Reading{Latitude: 51.1, Longitude: 71.4, AccuracyM: 500, At: clock.Now()})
	timer.fire(clock.Now())
	waitFor(t, "degraded fix push", func() bool { return pusher.pushCount() == 1 })

	fix := pusher.lastFix(t)
	if fix.Usable() {
		t.Fatalf("fix with accuracy %v reported usable", fix.AccuracyM)
	}
	if !fix.Storable() {
		t.Fatalf("fix with accuracy %v reported not storable", fix.AccuracyM)
	}

	// At or under 100m: full quality.
	source.send(Reading{Latitude: 51.1001, Longitude: 71.4, AccuracyM: 40, At: clock.Now()})
	timer.fire(clock.Now())
	waitFor(t, "usable fix push", func() bool { return pusher.pushCount() == 2 })

	if fix := pusher.lastFix(t); !fix.Usable() {
		t.Fatalf("fix with accuracy %v reported not usable", fix.AccuracyM)
	}
}

func TestStationaryAfterRepeatedFixes(t *testing.T) {
	s, source, clock, _ := newTestSampler(t, 30*time.Second)

	if err := s.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	defer s.Disable(context.Background())
	timer := clock.timer(t)

	// Three identical positions 200 seconds apart.
	start := clock.Now()
	for i := 0; i < 3; i++ {
		source.send(usableReading(51.0891, 71.4100, start.Add(time.Duration(i)*200*time.Second)))
	}

	waitFor(t, "stationary classification", func() bool {
		return s.MovementState() == MovementStationary
	})
	if got := s.ReportInterval(); got != 60*time.Second {
		t.Fatalf("stationary interval = %v, want 60s", got)
	}
	if got := timer.lastReset(); got != 60*time.Second {
		t.Fatalf("timer rescheduled to %v, want 60s", got)
	}
}

func TestMovementResumesOnDisplacement(t *testing.T) {
	s, source, clock, _ := newTestSampler(t, 30*time.Second)

	if err := s.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	defer s.Disable(context.Background())

	start := clock.Now()
	source.send(usableReading(51.0891, 71.4100, start))
	source.send(usableReading(51.0891, 71.4100, start.Add(200*time.Second)))
	waitFor(t, "stationary classification", func() bool {
		return s.MovementState() == MovementStationary
	})

	// A 0.001 degree latitude step is roughly 110 meters.
	source.send(usableReading(51.0901, 71.4100, start.Add(260*time.Second)))
	waitFor(t, "moving classification", func() bool {
		return s.MovementState() == MovementMoving
	})
	if got := s.ReportInterval(); got != 15*time.Second {
		t.Fatalf("moving interval = %v, want 15s", got)
	}
}

func TestSpeedAloneQualifiesAsMovement(t *testing.T) {
	s, source, clock, _ := newTestSampler(t, 30*time.Second)

	if err := s.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	defer s.Disable(context.Background())

	start := clock.Now()
	source.send(usableReading(51.0891, 71.4100, start))
	source.send(usableReading(51.0891, 71.4100, start.Add(200*time.Second)))
	waitFor(t, "stationary classification", func() bool {
		return s.MovementState() == MovementStationary
	})

	// Same coordinates but the receiver reports 3 m/s.
	speed := 3.0
	source.send(Reading{Latitude: 51.0891, Longitude: 71.4100, AccuracyM: 20, SpeedMS: &speed, At: start.Add(220 * time.Second)})
	waitFor(t, "moving classification", func() bool {
		return s.MovementState() == MovementMoving
	})
}

func TestReportInterval(t *testing.T) {
	tests := []struct {
		name     string
		base     time.Duration
		movement Movement
		want     time.Duration
	}{
		{"moving caps at 15s", 30 * time.Second, MovementMoving, 15 * time.Second},
		{"moving short base clamps up", 5 * time.Second, MovementMoving, 15 * time.Second},
		{"stationary floors at 60s", 10 * time.Second, MovementStationary, 60 * time.Second},
		{"stationary long base clamps down", 45 * time.Second, MovementStationary, 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reportInterval(tt.base, tt.movement); got != tt.want {
				t.Fatalf("reportInterval(%v, %v) = %v, want %v", tt.base, tt.movement, got, tt.want)
			}
		})
	}
}

func TestDisableStopsPushes(t *testing.T) {
	s, source, clock, pusher := newTestSampler(t, 30*time.Second)

	if err := s.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	source.send(usableReading(51.1, 71.4, clock.Now()))

	if err := s.Disable(context.Background()); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if got := s.State(); got != StateDisabled {
		t.Fatalf("state after Disable = %q, want %q", got, StateDisabled)
	}
	if pusher.offCalls != 1 {
		t.Fatalf("NotifyTrackingOff calls = %d, want 1", pusher.offCalls)
	}

	// Disable is idempotent.
	if err := s.Disable(context.Background()); err != nil {
		t.Fatalf("second Disable: %v", err)
	}
	if pusher.offCalls != 1 {
		t.Fatalf("NotifyTrackingOff calls after second Disable = %d, want 1", pusher.offCalls)
	}

	// Disabled means disabled: resume hooks stay quiet.
	s.OnAppForeground(context.Background())
	if got := source.subscribeCount(); got != 1 {
		t.Fatalf("subscribe count after resume while disabled = %d, want 1", got)
	}
}

func TestDisableDrainsInFlightPush(t *testing.T) {
	s, source, clock, pusher := newTestSampler(t, 30*time.Second)
	release := make(chan struct{})
	pusher.block = release

	if err := s.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	timer := clock.timer(t)
	source.send(usableReading(51.1283, 71.4305, clock.Now()))
	timer.fire(clock.Now())

	disabled := make(chan struct{})
	go func() {
		defer close(disabled)
		if err := s.Disable(context.Background()); err != nil {
			t.Errorf("Disable: %v", err)
		}
	}()

	select {
	case <-disabled:
		t.Fatal("Disable returned while a push was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-disabled:
	case <-time.After(2 * time.Second):
		t.Fatal("Disable did not return after the push completed")
	}
	if got := pusher.pushCount(); got != 1 {
		t.Fatalf("push count after Disable = %d, want 1", got)
	}
}

func TestTransientSourceErrorsKeepTracking(t *testing.T) {
	s, source, _, _ := newTestSampler(t, 30*time.Second)

	if err := s.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	defer s.Disable(context.Background())

	source.sendErr(types.ErrPositionTimeout)
	source.sendErr(types.ErrPositionUnavailable)

	if got := s.State(); got != StateTracking {
		t.Fatalf("state after transient errors = %q, want %q", got, StateTracking)
	}
}

func TestPermissionRevokedMidSession(t *testing.T) {
	s, source, _, _ := newTestSampler(t, 30*time.Second)

	var notified error
	s.cfg.Notify = func(err error) { notified = err }

	if err := s.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	source.sendErr(types.ErrPermissionDenied)
	waitFor(t, "session stop", func() bool { return s.State() == StateDisabled })

	if !errors.Is(notified, types.ErrPermissionDenied) {
		t.Fatalf("notify error = %v, want ErrPermissionDenied", notified)
	}

	// Revocation requires explicit re-enable, not a resume hook.
	s.OnNetworkRestored(context.Background())
	if got := source.subscribeCount(); got != 1 {
		t.Fatalf("subscribe count after resume = %d, want 1", got)
	}
}

func TestResumeAfterStreamEnd(t *testing.T) {
	s, source, _, _ := newTestSampler(t, 30*time.Second)

	if err := s.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	source.closeStream()
	waitFor(t, "session stop", func() bool { return s.State() == StateDisabled })

	// Tracking is still configured on, so foreground resumes it.
	s.OnAppForeground(context.Background())
	defer s.Disable(context.Background())

	if got := s.State(); got != StateTracking {
		t.Fatalf("state after resume = %q, want %q", got, StateTracking)
	}
	if got := source.subscribeCount(); got != 2 {
		t.Fatalf("subscribe count = %d, want 2", got)
	}
}

func TestResumeFallsBackToForcedStart(t *testing.T) {
	s, source, _, _ := newTestSampler(t, 30*time.Second)

	if err := s.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	source.closeStream()
	waitFor(t, "session stop", func() bool { return s.State() == StateDisabled })

	// Direct and prompted restarts fail, forced succeeds.
	source.mu.Lock()
	source.subscribeErrs = []error{types.ErrPositionUnavailable, types.ErrPositionUnavailable}
	source.mu.Unlock()

	s.OnNetworkRestored(context.Background())
	defer s.Disable(context.Background())

	if got := s.State(); got != StateTracking {
		t.Fatalf("state after forced resume = %q, want %q", got, StateTracking)
	}
	if !source.prompted {
		t.Fatal("permission prompt strategy never ran")
	}

	opts := source.lastOptions()
	if opts.HighAccuracy {
		t.Fatal("forced restart kept high accuracy on")
	}
	if want := 20 * time.Second; opts.Timeout != want {
		t.Fatalf("forced restart timeout = %v, want %v", opts.Timeout, want)
	}
}

func TestReportSnapshotsLastKnownFix(t *testing.T) {
	s, source, clock, pusher := newTestSampler(t, 30*time.Second)

	if err := s.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	defer s.Disable(context.Background())
	timer := clock.timer(t)

	at := clock.Now()
	source.send(usableReading(51.1283, 71.4305, at))
	timer.fire(clock.Now())
	waitFor(t, "fix push", func() bool { return pusher.pushCount() == 1 })

	fix := pusher.lastFix(t)
	if fix.Latitude != 51.1283 || fix.Longitude != 71.4305 {
		t.Fatalf("pushed fix at (%v, %v), want (51.1283, 71.4305)", fix.Latitude, fix.Longitude)
	}
	if !fix.RecordedAt.Equal(at) {
		t.Fatalf("pushed fix recorded at %v, want %v", fix.RecordedAt, at)
	}
	if fix.WorkerID != s.cfg.WorkerID {
		t.Fatalf("pushed fix worker = %v, want %v", fix.WorkerID, s.cfg.WorkerID)
	}

	// Without new readings the same fix is reported again.
	timer.fire(clock.Now())
	waitFor(t, "repeat push", func() bool { return pusher.pushCount() == 2 })
}
