package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hobbyapi_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hobbyapi_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	serviceOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hobbyapi_service_operation_duration_seconds",
		Help:    "Duration of user and hobby service operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})

	fixupOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hobbyapi_fixup_operations_total",
		Help: "Count of best-effort back-reference fix-ups by step and result",
	}, []string{"step", "result"})

	cascadeDeletedHobbies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hobbyapi_cascade_deleted_hobbies_total",
		Help: "Hobbies removed because their owning user was deleted",
	})

	reconcileRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hobbyapi_reconcile_repairs_total",
		Help: "Count of back-reference repairs made by the reconciler",
	}, []string{"kind", "result"})

	reconcileRuns = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hobbyapi_reconcile_run_duration_seconds",
		Help:    "Duration of reconciler passes",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	circuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hobbyapi_circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
	}, []string{"name"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveOperation records the duration of a service call with a result label.
func ObserveOperation(operation, result string, duration time.Duration) {
	serviceOperationDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// ObserveFixup increments the fix-up counter for the given step and result.
func ObserveFixup(step, result string) {
	fixupOperations.WithLabelValues(step, result).Inc()
}

// AddCascadeDeleted counts hobbies removed by a user delete cascade.
func AddCascadeDeleted(n int64) {
	if n > 0 {
		cascadeDeletedHobbies.Add(float64(n))
	}
}

// ObserveReconcileRepair counts a single repair attempt.
func ObserveReconcileRepair(kind, result string) {
	reconcileRepairs.WithLabelValues(kind, result).Inc()
}

// ObserveReconcileRun records the duration of a reconciler pass.
func ObserveReconcileRun(result string, duration time.Duration) {
	reconcileRuns.WithLabelValues(result).Observe(duration.Seconds())
}

// SetCircuitState exports a breaker state as a gauge value.
func SetCircuitState(name string, state int) {
	circuitState.WithLabelValues(name).Set(float64(state))
}
