package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "feedreader",
			Name:      "refresh_total",
			Help:      "Total number of feed refresh runs by outcome",
		},
		[]string{"outcome"},
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "feedreader",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of feed refresh runs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	ArticlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "feedreader",
			Name:      "articles_total",
			Help:      "Articles written by refresh runs, by result",
		},
		[]string{"result"},
	)

	EntryErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "feedreader",
			Name:      "entry_errors_total",
			Help:      "Non-fatal errors collected during refresh runs",
		},
	)
)

func recordRun(outcome string, seconds float64) {
	RefreshTotal.WithLabelValues(outcome).Inc()
	RefreshDuration.Observe(seconds)
}

func recordArticles(inserted, updated, errors int) {
	ArticlesTotal.WithLabelValues("inserted").Add(float64(inserted))
	ArticlesTotal.WithLabelValues("updated").Add(float64(updated))
	EntryErrorsTotal.Add(float64(errors))
}
