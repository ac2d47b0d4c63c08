package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics exposed by the serve mode.
type Metrics struct {
	ConversionsServed   prometheus.Counter
	ResultCacheHits     prometheus.Counter
	InvalidLinesDropped prometheus.Counter
}

// NewMetrics creates and registers all serve-mode metrics. A nil registerer
// uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		ConversionsServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "surge_rules_conversions_served_total",
			Help: "Total number of ruleset conversions served over HTTP",
		}),
		ResultCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "surge_rules_result_cache_hits_total",
			Help: "Total number of conversions answered from the result cache",
		}),
		InvalidLinesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "surge_rules_invalid_lines_dropped_total",
			Help: "Total number of rendered lines rejected by output validation",
		}),
	}
}
