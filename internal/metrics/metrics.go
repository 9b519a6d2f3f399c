// Package metrics exposes build counters on a private Prometheus registry.
// The registry is only served in watch mode; one-shot builds still record so
// the counters stay accurate across a watch session's rebuilds.
package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prom.NewRegistry()

	buildsTotal = prom.NewCounter(prom.CounterOpts{
		Namespace: "sitebuilder", Name: "builds_total",
		Help: "Total completed builds",
	})
	buildsFailedTotal = prom.NewCounter(prom.CounterOpts{
		Namespace: "sitebuilder", Name: "builds_failed_total",
		Help: "Total failed builds",
	})
	pagesRenderedTotal = prom.NewCounter(prom.CounterOpts{
		Namespace: "sitebuilder", Name: "pages_rendered_total",
		Help: "Total pages rendered across all builds",
	})
	buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "sitebuilder", Name: "build_duration_seconds",
		Help:    "Wall time of completed builds",
		Buckets: prom.ExponentialBuckets(0.01, 2, 12),
	})
)

func init() {
	registry.MustRegister(buildsTotal, buildsFailedTotal, pagesRenderedTotal, buildDuration)
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// RecordBuild records one completed build.
func RecordBuild(pages int, seconds float64) {
	buildsTotal.Inc()
	pagesRenderedTotal.Add(float64(pages))
	buildDuration.Observe(seconds)
}

// RecordFailure records one failed build.
func RecordFailure() {
	buildsFailedTotal.Inc()
}

// Handler returns the scrape handler for the private registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
