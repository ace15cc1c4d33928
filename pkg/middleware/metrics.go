package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/atoms/pkg/atom"
)

// MetricsConfig configures the Prometheus metrics observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "atoms").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for transaction duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// PerAtom labels per-atom series with the atom label. Disable it when
	// atoms are created dynamically (families) to bound cardinality.
	// Default: true
	PerAtom bool
}

// MetricsOption configures the Prometheus metrics observer.
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

// WithBuckets sets the histogram buckets.
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

// WithPerAtom enables or disables the atom label on per-atom series.
func WithPerAtom(enabled bool) MetricsOption {
	return func(c *MetricsConfig) {
		c.PerAtom = enabled
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "atoms",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
		PerAtom:   true,
	}
}

// Metrics is a store observer that records Prometheus metrics.
type Metrics struct {
	perAtom bool

	recomputations  *prometheus.CounterVec
	asyncStarted    *prometheus.CounterVec
	asyncSettled    *prometheus.CounterVec
	asyncSuperseded *prometheus.CounterVec
	mounts          *prometheus.CounterVec
	unmounts        *prometheus.CounterVec
	mounted         prometheus.Gauge
	inFlight        prometheus.Gauge
	notifications   prometheus.Counter
	transactions    prometheus.Counter
	txDuration      prometheus.Histogram
}

// NewMetrics creates the metrics and registers them with the configured
// registry. Create one per registry.
//
// Metrics collected:
//   - atoms_recomputations_total: Counter of derived recomputations by atom and result
//   - atoms_async_started_total: Counter of async computations started by atom
//   - atoms_async_settled_total: Counter of applied async results by atom and result
//   - atoms_async_superseded_total: Counter of discarded async computations by atom
//   - atoms_mounts_total / atoms_unmounts_total: Counters of mount transitions by atom
//   - atoms_mounted: Gauge of currently mounted atoms
//   - atoms_async_in_flight: Gauge of async computations in flight
//   - atoms_notifications_total: Counter of listener notifications
//   - atoms_transactions_total: Counter of transactions that changed state
//   - atoms_transaction_duration_seconds: Histogram of lock hold time of those transactions
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	store := atom.NewStore(
//	    atom.WithObserver(middleware.NewMetrics(middleware.WithRegistry(reg))),
//	)
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Metrics{
		perAtom: config.PerAtom,

		recomputations:  counterVec("recomputations_total", "Total number of derived atom recomputations", "atom", "result"),
		asyncStarted:    counterVec("async_started_total", "Total number of async computations started", "atom"),
		asyncSettled:    counterVec("async_settled_total", "Total number of async results applied", "atom", "result"),
		asyncSuperseded: counterVec("async_superseded_total", "Total number of async computations discarded", "atom"),
		mounts:          counterVec("mounts_total", "Total number of atom mounts", "atom"),
		unmounts:        counterVec("unmounts_total", "Total number of atom unmounts", "atom"),

		mounted:  gauge("mounted", "Number of currently mounted atoms"),
		inFlight: gauge("async_in_flight", "Number of async computations in flight"),

		notifications: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of listener notifications",
			ConstLabels: config.ConstLabels,
		}),

		transactions: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transactions_total",
			Help:        "Total number of transactions that changed state",
			ConstLabels: config.ConstLabels,
		}),

		txDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transaction_duration_seconds",
			Help:        "Store lock hold time of transactions that changed state",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// OnEvent implements atom.Observer.
func (m *Metrics) OnEvent(ev atom.Event) {
	name := m.atomLabel(ev)

	switch ev.Kind {
	case atom.EventRecompute:
		m.recomputations.WithLabelValues(name, result(ev.Err)).Inc()
	case atom.EventAsyncStart:
		m.asyncStarted.WithLabelValues(name).Inc()
		m.inFlight.Inc()
	case atom.EventAsyncSettle:
		m.asyncSettled.WithLabelValues(name, result(ev.Err)).Inc()
		m.inFlight.Dec()
	case atom.EventAsyncSupersede:
		m.asyncSuperseded.WithLabelValues(name).Inc()
		m.inFlight.Dec()
	case atom.EventMount:
		m.mounts.WithLabelValues(name).Inc()
		m.mounted.Inc()
	case atom.EventUnmount:
		m.unmounts.WithLabelValues(name).Inc()
		m.mounted.Dec()
	case atom.EventNotify:
		m.notifications.Add(float64(ev.Listeners))
	case atom.EventTxEnd:
		m.transactions.Inc()
		m.txDuration.Observe(ev.Duration.Seconds())
	}
}

func (m *Metrics) atomLabel(ev atom.Event) string {
	if !m.perAtom {
		return ""
	}
	return ev.Atom
}

// result categorises an event error. This prevents high-cardinality
// labels from error messages.
func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case atom.IsPending(err):
		return "pending"
	case atom.IsCycle(err):
		return "cycle"
	default:
		return "error"
	}
}
