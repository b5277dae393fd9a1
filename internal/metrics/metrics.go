package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iliyamo/carddash/internal/dashboard"
)

// Metrics observes dashboard loads and mutation outcomes.
type Metrics struct {
	Loads     *prometheus.CounterVec
	Mutations *prometheus.CounterVec
	Cards     prometheus.Histogram
}

// New registers the dashboard collectors with reg.  Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Loads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carddash_dashboard_loads_total",
			Help: "Dashboard loads by outcome",
		}, []string{"outcome"}),
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carddash_card_mutations_total",
			Help: "Resolved card mutations by kind and final state",
		}, []string{"kind", "state"}),
		Cards: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "carddash_dashboard_cards",
			Help:    "Number of cards returned per successful dashboard load",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
	}
}

func (m *Metrics) Loaded(_ string, cards int, err error) {
	if err != nil {
		m.Loads.WithLabelValues("error").Inc()
		return
	}
	m.Loads.WithLabelValues("ok").Inc()
	m.Cards.Observe(float64(cards))
}

func (m *Metrics) MutationResolved(_ context.Context, _ string, mut dashboard.Mutation) {
	m.Mutations.WithLabelValues(string(mut.Kind), mut.State.String()).Inc()
}
