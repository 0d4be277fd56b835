package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every digest metric plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	ArticlesFetched = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "funding_articles_fetched_total",
		Help: "Feed entries read, per source.",
	}, []string{"source"})

	FetchErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "funding_fetch_errors_total",
		Help: "Failed source fetches, per source.",
	}, []string{"source"})

	Rejections = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "funding_filter_rejections_total",
		Help: "Articles rejected by the relevance filter, per stage.",
	}, []string{"stage"})

	RecordsExtracted = factory.NewCounter(prometheus.CounterOpts{
		Name: "funding_records_extracted_total",
		Help: "Articles that passed the filter and were turned into records.",
	})

	Clusters = factory.NewGauge(prometheus.GaugeOpts{
		Name: "funding_clusters",
		Help: "Distinct companies found in the last run.",
	})

	Delivered = factory.NewGauge(prometheus.GaugeOpts{
		Name: "funding_records_delivered",
		Help: "Records handed to presenters in the last run.",
	})

	Runs = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "funding_runs_total",
		Help: "Completed pipeline runs by outcome.",
	}, []string{"status"})

	RunDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "funding_run_duration_seconds",
		Help:    "Wall time of a full pipeline run.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
