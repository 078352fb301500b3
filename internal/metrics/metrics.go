package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config is a config of the Prometheus metrics provided by the containers.
//
// An instance can be created only by the [New] function. The zero value is invalid.
type Config struct {
	// Namespace of the metrics.
	Namespace string
	// Subsystem of the metrics.
	Subsystem string
	// Options for the items gauge. Ring buffers report buffered bytes.
	Items prometheus.GaugeOpts
	// Options for the capacity gauge.
	Capacity prometheus.GaugeOpts
	// Options for the inserted items counter.
	Inserted prometheus.CounterOpts
	// Options for the removed items counter.
	Removed prometheus.CounterOpts
	// Options for the buffer reallocations counter.
	Grows prometheus.CounterOpts
	// Options for the rejected operations counter.
	Rejections prometheus.CounterOpts
	// Options for the allocation failures counter.
	AllocationFailures prometheus.CounterOpts

	registerer prometheus.Registerer
}

// New returns a [Config] with the provided registerer. If registerer is nil, metrics will not be
// registered. Many default parameters can be configured by passing configuration functions.
func New(registerer prometheus.Registerer, configFuncs ...func(c *Config)) *Config {
	c := Config{
		registerer: registerer,
		Namespace:  "scl",
		Subsystem:  "",
		Items: prometheus.GaugeOpts{
			Name: "items",
			Help: "Number of items in container (bytes for ring buffers)",
		},
		Capacity: prometheus.GaugeOpts{
			Name: "capacity",
			Help: "Allocated capacity of container",
		},
		Inserted: prometheus.CounterOpts{
			Name: "inserted",
			Help: "Number of items inserted into container",
		},
		Removed: prometheus.CounterOpts{
			Name: "removed",
			Help: "Number of items removed from container",
		},
		Grows: prometheus.CounterOpts{
			Name: "grows",
			Help: "Number of times the backing buffer was grown",
		},
		Rejections: prometheus.CounterOpts{
			Name: "rejections",
			Help: "Number of operations rejected by container",
		},
		AllocationFailures: prometheus.CounterOpts{
			Name: "allocation_failures",
			Help: "Number of failed allocations",
		},
	}

	for _, cf := range configFuncs {
		if cf != nil {
			cf(&c)
		}
	}

	return &c
}

// Metrics creates the collectors for a single container and registers them under the provided
// container label. It returns nil for a nil config.
func (c *Config) Metrics(container string) *Metrics {
	if c == nil {
		return nil
	}

	m := Metrics{
		items:              prometheus.NewGauge(gauge(c, c.Items)),
		capacity:           prometheus.NewGauge(gauge(c, c.Capacity)),
		inserted:           prometheus.NewCounter(counter(c, c.Inserted)),
		removed:            prometheus.NewCounter(counter(c, c.Removed)),
		grows:              prometheus.NewCounter(counter(c, c.Grows)),
		rejections:         prometheus.NewCounterVec(counter(c, c.Rejections), []string{"reason"}),
		allocationFailures: prometheus.NewCounter(counter(c, c.AllocationFailures)),
	}

	if c.registerer != nil {
		registerer := prometheus.WrapRegistererWith(
			prometheus.Labels{"container": container},
			c.registerer,
		)
		registerer.MustRegister(
			m.items,
			m.capacity,
			m.inserted,
			m.removed,
			m.grows,
			m.rejections,
			m.allocationFailures,
		)
	}

	return &m
}

func gauge(c *Config, opts prometheus.GaugeOpts) prometheus.GaugeOpts {
	opts.Namespace = c.Namespace
	opts.Subsystem = c.Subsystem
	return opts
}

func counter(c *Config, opts prometheus.CounterOpts) prometheus.CounterOpts {
	opts.Namespace = c.Namespace
	opts.Subsystem = c.Subsystem
	return opts
}

// Metrics holds the collectors of one container. All methods are no-ops on a nil receiver.
type Metrics struct {
	items              prometheus.Gauge
	capacity           prometheus.Gauge
	inserted           prometheus.Counter
	removed            prometheus.Counter
	grows              prometheus.Counter
	rejections         *prometheus.CounterVec
	allocationFailures prometheus.Counter
}

func (m *Metrics) Len(n int) {
	if m != nil {
		m.items.Set(float64(n))
	}
}

func (m *Metrics) Cap(n int) {
	if m != nil {
		m.capacity.Set(float64(n))
	}
}

func (m *Metrics) Insert(n int) {
	if m != nil {
		m.inserted.Add(float64(n))
	}
}

func (m *Metrics) Remove(n int) {
	if m != nil {
		m.removed.Add(float64(n))
	}
}

func (m *Metrics) Grow() {
	if m != nil {
		m.grows.Inc()
	}
}

func (m *Metrics) Reject(reason string) {
	if m != nil {
		m.rejections.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) AllocationFailure() {
	if m != nil {
		m.allocationFailures.Inc()
	}
}
