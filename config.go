package democrat

import (
	"log/slog"

	"github.com/vango-dev/democrat/pkg/telemetry"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is a struct form of the store options, for callers that build
// stores from configuration rather than option lists.
type Config struct {
	// Name labels the store in logs, spans and metrics.
	// Default: the store ID.
	Name string

	// Logger is the structured logger for the store.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Scheduler runs idle-queue flushes and passive effects.
	// If nil, the store starts its own QueueScheduler.
	Scheduler Scheduler

	// Passive disables effects.
	Passive bool

	// Snapshot seeds state and reducer hooks on mount.
	Snapshot *Snapshot

	// Metrics records render, effect and patch counters.
	Metrics *telemetry.Metrics

	// Tracer wraps each settled render in a span.
	// If nil, telemetry.NewTracer() is used.
	Tracer *telemetry.Tracer

	// HostHooks is redirected to the store's hooks during renders.
	HostHooks *HostHooks

	// OnPatchError is called for every patch ApplyPatches skips.
	// If nil, a warning is logged.
	OnPatchError func(Patch, error)
}

// DefaultConfig returns a Config that yields a store with default options.
func DefaultConfig() Config {
	return Config{}
}

// Options converts the config to store options. Unset fields produce no
// option, so the store defaults apply.
func (c Config) Options() []Option {
	var opts []Option
	if c.Name != "" {
		opts = append(opts, WithName(c.Name))
	}
	if c.Logger != nil {
		opts = append(opts, WithLogger(c.Logger))
	}
	if c.Scheduler != nil {
		opts = append(opts, WithScheduler(c.Scheduler))
	}
	if c.Passive {
		opts = append(opts, WithPassiveMode())
	}
	if c.Snapshot != nil {
		opts = append(opts, WithSnapshot(c.Snapshot))
	}
	if c.Metrics != nil {
		opts = append(opts, WithMetrics(c.Metrics))
	}
	if c.Tracer != nil {
		opts = append(opts, WithTracing(c.Tracer))
	}
	if c.HostHooks != nil {
		opts = append(opts, WithHostHooks(c.HostHooks))
	}
	if c.OnPatchError != nil {
		opts = append(opts, WithPatchErrorHandler(c.OnPatchError))
	}
	return opts
}

// New mounts children with the options described by cfg.
func New[S any](children any, cfg Config) *Store[S] {
	return CreateStore[S](children, cfg.Options()...)
}
