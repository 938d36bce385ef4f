package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		paymentCallbacksTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Ledger entries by status (pending/completed/failed).",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_vnd_total",
			Help: "Total value of completed payments, labeled by method.",
		},
		[]string{"method"},
	)

	paymentCallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Gateway callback dispositions (applied/duplicate/error).",
		},
		[]string{"result"},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddRevenue(method string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(method)).Add(float64(amount))
}

func IncCallback(result string) {
	paymentCallbacksTotal.WithLabelValues(norm(result)).Inc()
}
