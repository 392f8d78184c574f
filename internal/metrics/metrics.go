package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paylite_transfers_total",
		Help: "Wallet-to-wallet transfers by outcome",
	}, []string{"outcome"})

	TransferDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "paylite_transfer_duration_seconds",
		Help:    "Transfer latency including lock wait",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	PaymentEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paylite_payment_events_total",
		Help: "Gateway payment confirmations by outcome",
	}, []string{"outcome"})

	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paylite_notification_failures_total",
		Help: "Best-effort notifications that could not be delivered",
	})
)

const (
	OutcomeSuccess           = "success"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeRejected          = "rejected"
	OutcomeDuplicate         = "duplicate"
	OutcomeOrderNotFound     = "order_not_found"
	OutcomeError             = "error"
)
