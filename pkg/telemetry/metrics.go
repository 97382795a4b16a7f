package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors for stores.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "democrat").
	Namespace string

	// Subsystem is the metrics subsystem (default: "store").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the render duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "democrat",
		Subsystem: "store",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors shared by every store configured with it.
// Series are labelled by store name. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	rendersTotal     *prometheus.CounterVec
	renderPasses     *prometheus.HistogramVec
	renderDuration   *prometheus.HistogramVec
	componentRenders *prometheus.CounterVec
	effectsRun       *prometheus.CounterVec
	patchesEmitted   *prometheus.CounterVec
	patchesApplied   *prometheus.CounterVec
	activeStores     prometheus.Gauge
}

// NewMetrics registers the store collectors.
//
// Metrics collected:
//   - democrat_store_renders_total: settled renders by store
//   - democrat_store_render_passes: convergence passes per settled render
//   - democrat_store_render_duration_seconds: wall time of a settled render
//   - democrat_store_component_renders_total: component function invocations
//   - democrat_store_effects_run_total: effect bodies run, by kind (layout|passive)
//   - democrat_store_patches_emitted_total: patches handed to patch subscribers
//   - democrat_store_patches_applied_total: patches replayed through ApplyPatches
//   - democrat_store_active: stores created and not yet destroyed
//
// Registering twice against the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of settled renders",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		renderPasses: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_passes",
			Help:        "Reconcile passes needed before a render settled",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 3, 5, 8, 13, 21},
		}, []string{"store"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Settled render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store"}),

		componentRenders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "component_renders_total",
			Help:        "Total number of component function invocations",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		effectsRun: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effects_run_total",
			Help:        "Total number of effect bodies executed",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "kind"}),

		patchesEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_emitted_total",
			Help:        "Total number of patches delivered to patch subscribers",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		patchesApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_applied_total",
			Help:        "Total number of patches applied from outside",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		activeStores: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active",
			Help:        "Number of live stores",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// ObserveRender records one settled render.
func (m *Metrics) ObserveRender(store string, passes int, d time.Duration) {
	if m == nil {
		return
	}
	m.rendersTotal.WithLabelValues(store).Inc()
	m.renderPasses.WithLabelValues(store).Observe(float64(passes))
	m.renderDuration.WithLabelValues(store).Observe(d.Seconds())
}

// ComponentRendered records one component function invocation.
func (m *Metrics) ComponentRendered(store string) {
	if m == nil {
		return
	}
	m.componentRenders.WithLabelValues(store).Inc()
}

// EffectRun records one effect body execution.
func (m *Metrics) EffectRun(store string, layout bool) {
	if m == nil {
		return
	}
	kind := "passive"
	if layout {
		kind = "layout"
	}
	m.effectsRun.WithLabelValues(store, kind).Inc()
}

// PatchesEmitted records patches handed to subscribers.
func (m *Metrics) PatchesEmitted(store string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.patchesEmitted.WithLabelValues(store).Add(float64(n))
}

// PatchesApplied records patches replayed through ApplyPatches.
func (m *Metrics) PatchesApplied(store string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.patchesApplied.WithLabelValues(store).Add(float64(n))
}

// StoreOpened increments the live store gauge.
func (m *Metrics) StoreOpened() {
	if m == nil {
		return
	}
	m.activeStores.Inc()
}

// StoreClosed decrements the live store gauge.
func (m *Metrics) StoreClosed() {
	if m == nil {
		return
	}
	m.activeStores.Dec()
}
