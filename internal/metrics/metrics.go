package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Total number of completed checkouts",
	})

	CheckoutsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	ReceptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receptions_total",
		Help: "Total number of recorded purchase order receptions",
	})

	TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transfers_total",
		Help: "Total number of transfer order state changes",
	}, []string{"action"})

	InvoicePaymentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "invoice_payments_total",
		Help: "Total number of applied invoice payments",
	})

	TxnRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txn_serialization_retries_total",
		Help: "Total number of serialization failures retried by the store",
	})

	TxnConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txn_conflicts_total",
		Help: "Total number of transactions abandoned after exhausting retries",
	})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of checkout processing",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
