package props

import (
	"context"

	"github.com/goliatone/go-props/pkg/activity"
)

// WithActivityHooks attaches activity hooks. Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Compact()
	return func(cfg *config) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig overrides the emitter configuration. Without it events
// are emitted on the "properties" channel whenever hooks are present.
// ActorID and TenantID are stamped on every event.
func WithActivityConfig(activityCfg activity.Config) Option {
	return func(cfg *config) {
		c := activityCfg
		cfg.activityConfig = &c
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (p *Properties) ActivityHooks() activity.Hooks {
	if p == nil {
		return nil
	}
	return p.cfg.activityHooks.Compact()
}

func newEmitter(cfg config) *activity.Emitter {
	emitterCfg := activity.Config{Enabled: true}
	if cfg.activityConfig != nil {
		emitterCfg = *cfg.activityConfig
	}
	return activity.NewEmitter(cfg.activityHooks, emitterCfg)
}

// emit notifies hooks. Hook failures are logged and never returned.
func (p *Properties) emit(ctx context.Context, event activity.Event) {
	if !p.emitter.Enabled() {
		return
	}
	if err := p.emitter.Emit(ctx, event); err != nil {
		p.log.Warnf("activity hook failed for %s: %v", event.Verb, err)
	}
}
