package heroes

import "github.com/prometheus/client_golang/prometheus"

const (
	opListAll = "list_all"
	opGetByID = "get_by_id"
	opUpdate  = "update"
	opCreate  = "create"
	opDelete  = "delete"
	opSearch  = "search_by_name"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics counts hero requests by operation and outcome.
type Metrics struct {
	requests *prometheus.CounterVec
}

// NewMetrics registers the hero request counters with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hero_requests_total",
				Help: "Total number of hero backend requests by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
	}
	if err := reg.Register(m.requests); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(op, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, outcome).Inc()
}
