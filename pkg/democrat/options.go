package democrat

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/vango-dev/democrat/pkg/telemetry"
)

// Option configures a store.
type Option func(*options)

type options struct {
	scheduler    Scheduler
	logger       *slog.Logger
	passive      bool
	snapshot     *Snapshot
	metrics      *telemetry.Metrics
	tracer       *telemetry.Tracer
	name         string
	hostHooks    *HostHooks
	onPatchError func(Patch, error)
}

// WithScheduler sets the scheduler used for idle-queue flushes and passive
// effects. By default each store starts its own QueueScheduler and closes it
// on Destroy; a scheduler passed here is never closed by the store.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithLogger sets the store logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPassiveMode disables effects. Effect and layout effect bodies never
// run, but renders, subscriptions and patches work as usual.
func WithPassiveMode() Option {
	return func(o *options) {
		o.passive = true
	}
}

// WithSnapshot seeds the initial values of state and reducer hooks from a
// snapshot taken with GetSnapshot on a store of the same shape.
func WithSnapshot(s *Snapshot) Option {
	return func(o *options) {
		o.snapshot = s
	}
}

// WithMetrics records render, effect and patch metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracing sets the tracer that wraps each settled render in a span.
// Default: telemetry.NewTracer(), which uses the global otel provider.
func WithTracing(t *telemetry.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithName sets the store name used in logs, spans and metric labels.
// Default: the store ID.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithHostHooks redirects the fields of hh to this store's hooks while one
// of its components renders.
func WithHostHooks(hh *HostHooks) Option {
	return func(o *options) {
		o.hostHooks = hh
	}
}

// WithPatchErrorHandler is called for every patch ApplyPatches skips because
// its path or hook does not match the tree. The error wraps
// ErrInvalidPatchPath or ErrPatchHookMismatch. Default: log a warning.
func WithPatchErrorHandler(fn func(Patch, error)) Option {
	return func(o *options) {
		o.onPatchError = fn
	}
}

func logPatchError(logger *slog.Logger) func(Patch, error) {
	return func(p Patch, err error) {
		code := "DEM010"
		if errors.Is(err, ErrPatchHookMismatch) {
			code = "DEM011"
		}
		logger.Warn("patch skipped",
			"code", code,
			"path", fmt.Sprint(p.Path),
			"hook", p.HookIndex,
			"kind", p.Kind,
			"error", err)
	}
}
