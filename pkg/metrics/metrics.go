package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PaymentAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gymgo",
			Name:      "payment_attempts_total",
			Help:      "Payment attempts by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	PaymentAttemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gymgo",
			Name:      "payment_attempt_duration_seconds",
			Help:      "Duration of payment attempts",
			Buckets: []float64{
				0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 30,
			},
		},
		[]string{"method", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(PaymentAttemptsTotal, PaymentAttemptDuration)
}

// ObserveAttempt records one finished payment attempt.
func ObserveAttempt(method, outcome string, seconds float64) {
	PaymentAttemptsTotal.WithLabelValues(method, outcome).Inc()
	PaymentAttemptDuration.WithLabelValues(method, outcome).Observe(seconds)
}
