package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interscout_searches_total",
			Help: "Total number of server searches by source",
		},
		[]string{"source"},
	)

	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interscout_search_results",
			Help:    "Number of servers returned per search",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	ReadmeFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interscout_readme_fetches_total",
			Help: "README fetch attempts by result",
		},
		[]string{"result"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interscout_cache_lookups_total",
			Help: "README cache lookups by backend and result",
		},
		[]string{"backend", "result"},
	)

	FlagTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interscout_flag_ticks_total",
			Help: "Keep-going flag reads by resulting state",
		},
		[]string{"state"},
	)

	ActionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "interscout_action_duration_seconds",
			Help: "Duration of each keep-going action",
		},
	)
)
