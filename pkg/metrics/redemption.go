package metrics

import "github.com/prometheus/client_golang/prometheus"

// RedemptionMetrics counts redeem attempts by outcome.
type RedemptionMetrics struct {
	outcomes *prometheus.CounterVec
}

// NewRedemptionMetrics registers the redemption outcome counter.
func NewRedemptionMetrics(reg prometheus.Registerer) *RedemptionMetrics {
	if reg == nil {
		return &RedemptionMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boost_redemption_outcomes_total",
		Help: "Redeem attempts that reached a business outcome, by result.",
	}, []string{"result"})
	reg.MustRegister(outcomes)
	return &RedemptionMetrics{outcomes: outcomes}
}

// IncOutcome counts one redeem attempt with the given result label.
func (m *RedemptionMetrics) IncOutcome(result string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(result)).Inc()
}
