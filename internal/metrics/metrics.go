// Package metrics registers the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PostingsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobhound_postings_fetched_total",
			Help: "Total number of postings fetched per source",
		},
		[]string{"source"},
	)

	PostingsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobhound_postings_routed_total",
			Help: "Total number of postings routed per terminal action",
		},
		[]string{"route"},
	)

	CycleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobhound_cycle_errors_total",
			Help: "Total number of errors per error kind",
		},
		[]string{"kind"},
	)

	CyclesRun = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobhound_cycles_total",
			Help: "Total number of completed discovery cycles",
		},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "jobhound_cycle_duration_seconds",
			Help: "Duration of a full discovery cycle in seconds",
		},
	)

	FollowUpsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobhound_followups_sent_total",
			Help: "Total number of follow-up emails sent",
		},
	)
)
