package scl

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/teenjuna/scl/internal/metrics"
)

// PrometheusConfig is a config of the Prometheus metrics provided by a container.
//
// An instance can be created only by the [Prometheus] function. The zero value is invalid.
type PrometheusConfig = metrics.Config

// Prometheus returns a [PrometheusConfig] with the provided registerer. If registerer is nil,
// metrics will not be registered. Many default parameters can be configured by passing
// configuration functions.
//
// Collectors are registered with a "container" label holding the container kind. Two containers
// of the same kind sharing a registerer must use different namespaces or subsystems.
func Prometheus(
	registerer prometheus.Registerer,
	configFuncs ...func(c *PrometheusConfig),
) *PrometheusConfig {
	return metrics.New(registerer, configFuncs...)
}
