// Package prometheus implements assets.Metrics with Prometheus collectors.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/assets"
)

// Default histogram buckets for load latency (in seconds). Decodes of large
// images and remote fetches dominate the upper end.
var defaultBuckets = []float64{
	.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10,
}

// Metrics implements assets.Metrics using Prometheus.
type Metrics struct {
	hits         *prometheus.CounterVec
	misses       *prometheus.CounterVec
	removes      *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
}

var _ assets.Metrics = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg.
// It panics if registration fails, like prometheus.MustRegister.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assets_cache_hits_total",
			Help: "Total number of asset requests served by an existing cache entry",
		}, []string{"kind"}),

		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assets_cache_misses_total",
			Help: "Total number of asset requests that started production",
		}, []string{"kind"}),

		removes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assets_cache_removals_total",
			Help: "Total number of cache entries removed explicitly",
		}, []string{"kind"}),

		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assets_load_duration_seconds",
			Help:    "Asset production time in seconds",
			Buckets: defaultBuckets,
		}, []string{"kind", "failed"}),
	}

	reg.MustRegister(
		m.hits,
		m.misses,
		m.removes,
		m.loadDuration,
	)

	return m
}

func (m *Metrics) CacheHit(kind string) {
	m.hits.WithLabelValues(kind).Inc()
}

func (m *Metrics) CacheMiss(kind string) {
	m.misses.WithLabelValues(kind).Inc()
}

func (m *Metrics) CacheRemove(kind string) {
	m.removes.WithLabelValues(kind).Inc()
}

func (m *Metrics) LoadDuration(kind string, d time.Duration, failed bool) {
	m.loadDuration.WithLabelValues(kind, strconv.FormatBool(failed)).Observe(d.Seconds())
}
