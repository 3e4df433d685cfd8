package device

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the device's optional Prometheus instrumentation. A nil
// *metrics is valid everywhere it's used — every call site nil-checks
// before touching a collector, so metrics stay entirely optional.
type metrics struct {
	entropyQuality    prometheus.Gauge
	selfTestFailures  prometheus.Counter
	trustCacheSize    prometheus.Gauge
	pollDuration      prometheus.Histogram
	rngCheckFailTotal prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		entropyQuality: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "sysdevice",
			Name:      "entropy_quality",
			Help:      "Current believed entropy quality of the accumulator, 0-100.",
		}),
		selfTestFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sysdevice",
			Name:      "self_test_failures_total",
			Help:      "Number of device self-test runs whose capability self-test reported an error.",
		}),
		trustCacheSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "sysdevice",
			Name:      "trust_cache_size",
			Help:      "Number of entries currently held in the trust cache.",
		}),
		pollDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sysdevice",
			Name:      "slow_poll_duration_seconds",
			Help:      "Wall-clock duration of slow polls.",
			Buckets:   prometheus.DefBuckets,
		}),
		rngCheckFailTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sysdevice",
			Name:      "rng_check_failures_total",
			Help:      "Number of times the output sanity gate has tripped.",
		}),
	}
}
