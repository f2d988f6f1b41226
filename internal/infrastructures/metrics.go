package infrastructures

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the ledger's prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	conflicts       *prometheus.CounterVec
	operations      *prometheus.CounterVec
	stampsCredited  *prometheus.CounterVec
	stampsDebited   prometheus.Counter
	prizesAwarded   *prometheus.CounterVec
	redemptionState *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_cas_conflicts_total",
			Help: "Compare-and-swap races lost, by operation.",
		}, []string{"operation"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_operations_total",
			Help: "Ledger operations by outcome code.",
		}, []string{"operation", "outcome"}),
		stampsCredited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_stamps_credited_total",
			Help: "Stamps credited to client cards, by source.",
		}, []string{"source"}),
		stampsDebited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loyalty_stamps_debited_total",
			Help: "Stamps spent on rewards.",
		}),
		prizesAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_scratch_prizes_awarded_total",
			Help: "Scratch tickets resolved, by prize type.",
		}, []string{"type"}),
		redemptionState: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_redemption_transitions_total",
			Help: "Reward redemption status transitions, by target status.",
		}, []string{"status"}),
	}
	m.Registry.MustRegister(
		m.conflicts,
		m.operations,
		m.stampsCredited,
		m.stampsDebited,
		m.prizesAwarded,
		m.redemptionState,
		prometheus.NewGoCollector(),
	)
	return m
}

func (m *Metrics) ObserveConflict(operation string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "OK"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveStampsCredited(source string, stamps int64) {
	if m == nil || stamps <= 0 {
		return
	}
	m.stampsCredited.WithLabelValues(source).Add(float64(stamps))
}

func (m *Metrics) ObserveStampsDebited(stamps int64) {
	if m == nil || stamps <= 0 {
		return
	}
	m.stampsDebited.Add(float64(stamps))
}

func (m *Metrics) ObservePrizeAwarded(prizeType string) {
	if m == nil {
		return
	}
	m.prizesAwarded.WithLabelValues(prizeType).Inc()
}

func (m *Metrics) ObserveRedemptionTransition(status string) {
	if m == nil {
		return
	}
	m.redemptionState.WithLabelValues(status).Inc()
}

// Conflicts exposes the conflict counter for one operation.
func (m *Metrics) Conflicts(operation string) prometheus.Counter {
	return m.conflicts.WithLabelValues(operation)
}
