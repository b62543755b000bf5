// Package services – pipeline metrics.
//
// Prometheus collectors for the ingest/broadcast pipeline. Label sets are
// kept tiny (outcome only) so cardinality stays bounded no matter how many
// offers or recipients the bot accumulates.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// offersIngested counts normalized candidates by upsert outcome
	// ("stored" or "skipped").
	offersIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_offers_ingested_total",
			Help: "Total number of normalized offer candidates processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// sendsAttempted counts delivery attempts by outcome
	// ("delivered" or "failed").
	sendsAttempted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_sends_total",
			Help: "Total number of notification send attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	// cyclesRun counts completed ingestion cycles by result
	// ("ok" or "degraded").
	cyclesRun = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_ingest_cycles_total",
			Help: "Total number of ingestion cycles run, by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(offersIngested, sendsAttempted, cyclesRun)
}
