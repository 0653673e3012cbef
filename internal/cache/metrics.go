package cache

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the cache observability counters. The config server has no
// exposed /metrics endpoint of its own — scraping is a deployment
// concern outside this module's scope — but the counters are registered
// against a caller-supplied prometheus.Registerer so a host process can
// expose them however it already exposes its own metrics.
type Metrics struct {
	Hits      prometheus.Counter
	Misses    prometheus.Counter
	Evictions prometheus.Counter
}

// NewMetrics builds and registers the cache counters. A nil registerer
// is fine: the counters still work, they are simply never scraped.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vortex_config",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Resolved ConfigResults served from the in-process or L2 cache.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vortex_config",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Requests that required a Source.Fetch call.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vortex_config",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Entries removed by selective invalidation; TTL expiry and size eviction are not counted.",
		}),
	}

	if reg == nil {
		return m
	}

	for _, c := range []prometheus.Collector{m.Hits, m.Misses, m.Evictions} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if ok := asAlreadyRegistered(err, &are); !ok {
				continue
			}
		}
	}

	return m
}

func asAlreadyRegistered(err error, target *prometheus.AlreadyRegisteredError) bool {
	are, ok := err.(prometheus.AlreadyRegisteredError)
	if !ok {
		return false
	}

	*target = are

	return true
}
