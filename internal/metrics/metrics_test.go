package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/carddash/internal/dashboard"
)

func TestMetricsObserveOutcomes(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Loaded("u", 3, nil)
	m.Loaded("u", 0, errors.New("down"))
	m.MutationResolved(context.Background(), "u", dashboard.Mutation{Kind: dashboard.KindVisibility, State: dashboard.MutationRolledBack})
	m.MutationResolved(context.Background(), "u", dashboard.Mutation{Kind: dashboard.KindDelete, State: dashboard.MutationConfirmed})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Loads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Loads.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("visibility", "rolled_back")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("delete", "confirmed")))
}
