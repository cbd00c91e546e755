// Package metrics exposes Prometheus instruments for registry operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for completed operations.
const (
	OutcomeComplete = "complete"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// RegistryMetrics records the lifecycle of registrations and transfers.
// A nil *RegistryMetrics is valid and records nothing.
type RegistryMetrics struct {
	operations     *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	settlement     *prometheus.HistogramVec
	uploadFailures *prometheus.CounterVec
	reconciliation prometheus.Counter
}

// NewRegistryMetrics registers the registry metrics on reg.
// A nil registerer yields a metrics value that records nothing.
func NewRegistryMetrics(reg prometheus.Registerer) *RegistryMetrics {
	if reg == nil {
		return &RegistryMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_operations_total",
		Help: "Registry operations by kind and final outcome.",
	}, []string{"operation", "outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_state_transitions_total",
		Help: "Operation state machine transitions by target state.",
	}, []string{"operation", "state"})
	settlement := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "registry_settlement_duration_seconds",
		Help:    "Time spent waiting for ledger settlement.",
		Buckets: []float64{0.1, 0.5, 1, 2, 3, 5, 10, 30},
	}, []string{"operation", "result"})
	uploadFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_document_upload_failures_total",
		Help: "Document uploads that failed and were omitted.",
	}, []string{"doc_type"})
	reconciliation := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "registry_reconciliation_alarms_total",
		Help: "Transfers recorded without a matching ownership update.",
	})
	reg.MustRegister(operations, transitions, settlement, uploadFailures, reconciliation)
	return &RegistryMetrics{
		operations:     operations,
		transitions:    transitions,
		settlement:     settlement,
		uploadFailures: uploadFailures,
		reconciliation: reconciliation,
	}
}

// IncOperation counts a finished operation.
func (m *RegistryMetrics) IncOperation(operation, outcome string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// IncTransition counts entry into state.
func (m *RegistryMetrics) IncTransition(operation, state string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(operation), normalizeLabel(state)).Inc()
}

// ObserveSettlement records how long a settlement took and whether it succeeded.
func (m *RegistryMetrics) ObserveSettlement(operation string, d time.Duration, err error) {
	if m == nil || m.settlement == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.settlement.WithLabelValues(normalizeLabel(operation), result).Observe(d.Seconds())
}

// IncUploadFailure counts a document that could not be stored.
func (m *RegistryMetrics) IncUploadFailure(docType string) {
	if m == nil || m.uploadFailures == nil {
		return
	}
	m.uploadFailures.WithLabelValues(normalizeLabel(docType)).Inc()
}

// IncReconciliationAlarm counts a transfer left without its ownership update.
func (m *RegistryMetrics) IncReconciliationAlarm() {
	if m == nil || m.reconciliation == nil {
		return
	}
	m.reconciliation.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
