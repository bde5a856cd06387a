package sampler

import (
	"context"
	"errors"

	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
)

var errSourceCannotPrompt = errors.New("position source cannot prompt for permission")

// restartStrategy is one attempt at bringing a configured-on but stopped
// session back to life.
type restartStrategy struct {
	name string
	run  func(ctx context.Context) error
}

// OnAppForeground should be called when the host application returns to
// the foreground.
func (s *Sampler) OnAppForeground(ctx context.Context) {
	s.resume(wrap.WithAction(ctx, "sampler_resume_foreground"))
}

// OnNetworkRestored should be called when connectivity comes back.
func (s *Sampler) OnNetworkRestored(ctx context.Context) {
	s.resume(wrap.WithAction(ctx, "sampler_resume_network"))
}

// resume restarts tracking when it is configured on but not actually
// running. Strategies are tried in order, first success wins.
func (s *Sampler) resume(ctx context.Context) {
	s.mu.Lock()
	needsRestart := s.configuredOn && s.state == StateDisabled
	s.mu.Unlock()

	if !needsRestart {
		return
	}

	for _, strat := range s.restartStrategies() {
		if err := strat.run(ctx); err != nil {
			s.log.Warn(ctx, "restart strategy failed", "strategy", strat.name, "err", err.Error())
			continue
		}
		s.log.Info(ctx, "tracking restarted", "strategy", strat.name)
		return
	}

	s.log.Error(ctx, "tracking could not be restarted", errors.New("all restart strategies failed"))
}

func (s *Sampler) restartStrategies() []restartStrategy {
	return []restartStrategy{
		{
			name: "direct",
			run: func(ctx context.Context) error {
				return s.start(ctx, s.cfg.Subscription)
			},
		},
		{
			name: "permission_prompt",
			run: func(ctx context.Context) error {
				req, ok := s.source.(PermissionRequester)
				if !ok {
					return errSourceCannotPrompt
				}
				if err := req.RequestPermission(ctx); err != nil {
					return err
				}
				return s.start(ctx, s.cfg.Subscription)
			},
		},
		{
			// Forced start: trade accuracy for any position at all.
			name: "forced",
			run: func(ctx context.Context) error {
				opts := s.cfg.Subscription
				opts.HighAccuracy = false
				opts.Timeout = 2 * opts.Timeout
				return s.start(ctx, opts)
			},
		},
	}
}
