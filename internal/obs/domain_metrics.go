package obs

import "github.com/prometheus/client_golang/prometheus"

// DomainMetrics holds collectors for volume discount activity.
type DomainMetrics struct {
	// Evaluations counts evaluator runs by outcome.
	Evaluations *prometheus.CounterVec
	// EditorSaves counts threshold save handler runs by outcome.
	EditorSaves *prometheus.CounterVec
	// CartMutations counts storefront cart writes by operation.
	CartMutations *prometheus.CounterVec
}

// NewDomainMetrics registers the domain collectors on reg.
func NewDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &DomainMetrics{
		Evaluations: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volume_discount_evaluations_total",
			Help:      "Count of volume discount evaluations by outcome.",
		}, []string{"outcome"})),
		EditorSaves: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volume_discount_saves_total",
			Help:      "Count of volume discount save handler runs by outcome.",
		}, []string{"outcome"})),
		CartMutations: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of storefront cart mutations by operation.",
		}, []string{"op"})),
	}
}
