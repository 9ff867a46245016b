// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sharethebill"

var (
	BillsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bills_created_total",
		Help:      "Bills successfully created.",
	})

	BillsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bills_completed_total",
		Help:      "Bills whose last participant paid.",
	})

	PaymentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_recorded_total",
		Help:      "Participant payments recorded.",
	})

	CASRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cas_retries_total",
		Help:      "Bill writes retried after a concurrent modification.",
	})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification deliveries by result.",
	}, []string{"result"})

	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "Connect RPC latency by procedure and code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure", "code"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
