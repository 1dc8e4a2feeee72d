// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TitleLookups counts video title lookups by outcome: hit, resolved, fallback.
	TitleLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadash_title_lookups_total",
		Help: "Video title lookups by outcome",
	}, []string{"outcome"})

	// ImageProbes counts content-type probes by outcome: hit, image, other, error.
	ImageProbes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadash_image_probes_total",
		Help: "Image content-type probes by outcome",
	}, []string{"outcome"})

	// ViewRequests counts dashboard pages and API responses served.
	ViewRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mediadash_view_requests_total",
		Help: "Total number of dashboard page views served",
	})

	// ViewDuration observes the time to classify and render one page.
	ViewDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mediadash_view_duration_seconds",
		Help:    "Time to classify and render one dashboard page",
		Buckets: prometheus.DefBuckets,
	})

	// LoadedAssets is the size of the dataset being served.
	LoadedAssets = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mediadash_loaded_assets",
		Help: "Number of asset records in the working set",
	})
)

var once sync.Once

// Init registers the collectors with the default registry. Safe to call
// more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			TitleLookups,
			ImageProbes,
			ViewRequests,
			ViewDuration,
			LoadedAssets,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
