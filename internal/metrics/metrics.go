// Package metrics holds the Prometheus counters the venue engine updates.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// VenuesDropped counts venues removed from a pool, by reason:
	// "closed", "duplicate" or "legacy_conflict".
	VenuesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "venuebed",
			Name:      "venues_dropped_total",
			Help:      "Venues removed from a pool by overrides and deduplication",
		},
		[]string{"reason"},
	)

	// RankingRuns counts regional ranking requests by outcome:
	// "applied", "superseded", "cancelled", "cached" or "coalesced".
	RankingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "venuebed",
			Name:      "ranking_runs_total",
			Help:      "Regional ranking requests by outcome",
		},
		[]string{"outcome"},
	)

	// ViewportSlices counts viewport slice calls, "hit" when the memoized
	// result was served.
	ViewportSlices = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "venuebed",
			Name:      "viewport_slices_total",
			Help:      "Viewport slice requests by memo result",
		},
		[]string{"result"},
	)
)

// Register registers every collector with reg. Registering the same
// collectors twice with one registry is not an error.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{VenuesDropped, RankingRuns, ViewportSlices} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}
