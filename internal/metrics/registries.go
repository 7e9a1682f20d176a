package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoadsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsfeed_loads_started_total",
		Help: "The total number of load cycles started",
	})
	LoadOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsfeed_load_outcomes_total",
		Help: "Load cycle outcomes by result.",
	}, []string{"result"})
	StaleCompletions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsfeed_stale_completions_total",
		Help: "Completions discarded because the loader was reset or restarted",
	})
	ItemsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsfeed_items_delivered_total",
		Help: "The total number of news items delivered to consumers",
	})
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "newsfeed_fetch_duration_seconds",
		Help:    "Duration of fetch and decode per load cycle.",
		Buckets: prometheus.DefBuckets,
	})
	PublishedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsfeed_published_events_total",
		Help: "Events handed to downstream publishers by result.",
	}, []string{"result"})
)
