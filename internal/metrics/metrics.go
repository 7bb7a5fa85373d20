package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TickDuration tracks the latency of one full scheduler tick.
	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mailflow_tick_duration_seconds",
			Help:    "Duration of one scheduler tick in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DispatchOutcomes counts campaign occurrences by dispatch outcome.
	DispatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailflow_dispatch_outcomes_total",
			Help: "Campaign occurrences dispatched, labelled by outcome",
		},
		[]string{"status"}, // success or failed
	)

	// DueCampaigns records how many campaigns were due on the last tick.
	DueCampaigns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mailflow_due_campaigns",
			Help: "Number of campaigns due on the most recent tick",
		},
	)
)

// RecordDispatch bumps the outcome counter for one campaign occurrence.
func RecordDispatch(status string) {
	DispatchOutcomes.WithLabelValues(status).Inc()
}
