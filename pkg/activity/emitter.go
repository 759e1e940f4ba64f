package activity

import (
	"context"
	"strings"
)

// DefaultChannel is applied to events emitted without a channel.
const DefaultChannel = "properties"

// Config sets emitter defaults. ActorID and TenantID fill events that do not
// name their own, which lets a single process attribute every change to the
// session that made it.
type Config struct {
	Enabled  bool
	Channel  string
	ActorID  string
	TenantID string
}

// Emitter stamps defaults on events and fans them out to hooks.
type Emitter struct {
	hooks Hooks
	cfg   Config
}

// NewEmitter returns an emitter for hooks. It is disabled when cfg.Enabled is
// false or no non-nil hook remains.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	cfg.Channel = strings.TrimSpace(cfg.Channel)
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	hooks = hooks.Compact()
	cfg.Enabled = cfg.Enabled && hooks.Enabled()
	return &Emitter{hooks: hooks, cfg: cfg}
}

// Enabled reports whether Emit reaches any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.cfg.Enabled
}

// Emit applies the configured defaults and notifies the hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	event.Channel = fallback(event.Channel, e.cfg.Channel)
	event.ActorID = fallback(event.ActorID, e.cfg.ActorID)
	event.TenantID = fallback(event.TenantID, e.cfg.TenantID)
	return e.hooks.Notify(ctx, event)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
