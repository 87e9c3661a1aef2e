package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		reconciliationsTotal,
		pendingStalePayments,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment records by resulting status (pending/completed/failed/refunded).",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_revenue_minor_units_total",
			Help: "Total monetary value of completed payments, in minor units.",
		},
	)

	reconciliationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconciliations_total",
			Help: "Webhook reconciliation outcomes (applied/duplicate/ignored/unmatched/ineligible/error).",
		},
		[]string{"outcome"},
	)

	pendingStalePayments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "payments_pending_stale",
			Help: "Pending payment records older than the staleness threshold.",
		},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddPaymentRevenue(minor int64) {
	paymentsRevenueTotal.Add(float64(minor))
}

func IncReconciliation(outcome string) {
	reconciliationsTotal.WithLabelValues(norm(outcome)).Inc()
}

func SetPendingStalePayments(n int) {
	pendingStalePayments.Set(float64(n))
}
