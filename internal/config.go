package internal

import (
	"log/slog"

	"github.com/teenjuna/scl/alloc"
	"github.com/teenjuna/scl/internal/metrics"
)

// Config holds the settings shared by all containers. Container configs embed it, so its
// setters are available on each of them.
type Config struct {
	allocator  alloc.Allocator
	logger     *slog.Logger
	prometheus *metrics.Config
}

// Allocator sets the source of payload and backing memory. Default is [alloc.Heap].
func (c *Config) Allocator(allocator alloc.Allocator) {
	if allocator == nil {
		panic("allocator can't be nil")
	}
	c.allocator = allocator
}

// Logger sets the logger used for debug events. Default discards everything.
func (c *Config) Logger(logger *slog.Logger) {
	if logger == nil {
		panic("logger can't be nil")
	}
	c.logger = logger
}

// Prometheus enables Prometheus metrics. Passing nil disables them, which is the default.
func (c *Config) Prometheus(prometheus *metrics.Config) {
	c.prometheus = prometheus
}

// Defaults resets c to the default settings.
func Defaults(c *Config) {
	c.allocator = alloc.Heap()
	c.logger = slog.New(slog.DiscardHandler)
	c.prometheus = nil
}

// Resources holds what a container gets from its config.
type Resources struct {
	Allocator alloc.Allocator
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Resolve creates the resources described by c for a container of the given kind. The kind is
// used as the logger's "container" attribute and as the metrics' "container" label.
func Resolve(c *Config, kind string) Resources {
	return Resources{
		Allocator: c.allocator,
		Logger:    c.logger.With(slog.String("container", kind)),
		Metrics:   c.prometheus.Metrics(kind),
	}
}
