package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		listingsPublishedTotal,
		listingsUpgradedTotal,
		listingsExpiredTotal,
	)
}

var (
	listingsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_published_total",
			Help: "Listings published via a completed initial payment, by tier.",
		},
		[]string{"tier"},
	)

	listingsUpgradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_upgraded_total",
			Help: "Listings upgraded via a completed upgrade payment, by target tier.",
		},
		[]string{"tier"},
	)

	listingsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "listings_expired_total",
			Help: "Published listings flipped to expired by the expiry sweep.",
		},
	)
)

func IncListingPublished(tier string) {
	listingsPublishedTotal.WithLabelValues(norm(tier)).Inc()
}

func IncListingUpgraded(tier string) {
	listingsUpgradedTotal.WithLabelValues(norm(tier)).Inc()
}

func IncListingsExpired(n int64) {
	listingsExpiredTotal.Add(float64(n))
}
