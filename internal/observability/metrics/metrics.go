package metrics

import "github.com/prometheus/client_golang/prometheus"

// RelayMetrics exposes counters for message lifecycle operations.
type RelayMetrics struct {
	operations       *prometheus.CounterVec
	ledgerWriteFails prometheus.Counter
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notiteams",
			Subsystem: "relay",
			Name:      "operations_total",
			Help:      "Total message lifecycle operations by outcome",
		}, []string{"operation", "outcome"}),
		ledgerWriteFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notiteams",
			Subsystem: "relay",
			Name:      "ledger_write_failures_total",
			Help:      "Ledger writes that failed after a successful connector call",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operations, m.ledgerWriteFails)
	return m
}

func (m *RelayMetrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// ObserveLedgerWriteFailure counts the known inconsistency window: the
// remote side changed but the local record did not.
func (m *RelayMetrics) ObserveLedgerWriteFailure() {
	if m == nil {
		return
	}
	m.ledgerWriteFails.Inc()
}
