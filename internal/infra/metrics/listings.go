package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(listingTransitionsTotal)
}

var listingTransitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "listing_transitions_total",
		Help: "Listing status transitions by from/to state.",
	},
	[]string{"from", "to"},
)

func IncListingTransition(from, to string) {
	listingTransitionsTotal.WithLabelValues(norm(from), norm(to)).Inc()
}
