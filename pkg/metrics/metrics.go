package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// JobTransitions counts job state machine transition attempts
	JobTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldservice_job_transitions_total",
			Help: "Total number of job transition attempts",
		},
		[]string{"from", "to", "result"},
	)

	// RequisitionEvents counts requisition workflow operations
	RequisitionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldservice_requisition_operations_total",
			Help: "Total number of requisition operations",
		},
		[]string{"operation", "result"},
	)

	// StockMovements counts units moved through the inventory ledger
	StockMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldservice_stock_movement_units_total",
			Help: "Total number of units moved by movement type",
		},
		[]string{"type"},
	)

	// IssuanceLines counts issuance splits written for requisitions
	IssuanceLines = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldservice_issuance_lines_total",
			Help: "Total number of issuance lines by batch selection mode",
		},
		[]string{"mode"},
	)

	// CASRetries counts units of work retried after a version conflict
	CASRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldservice_cas_retries_total",
			Help: "Total number of retries caused by optimistic locking conflicts",
		},
		[]string{"operation"},
	)

	// HTTPRequests counts HTTP requests by route and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldservice_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPLatency observes HTTP request durations
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldservice_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func init() {
	prometheus.MustRegister(JobTransitions)
	prometheus.MustRegister(RequisitionEvents)
	prometheus.MustRegister(StockMovements)
	prometheus.MustRegister(IssuanceLines)
	prometheus.MustRegister(CASRetries)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPLatency)
}

// Result converts an error to a metric label
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
