package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.ChatConnections.Inc()
	a.ChatMessages.WithLabelValues("broadcast").Inc()

	require.Equal(t, 1.0, testutil.ToFloat64(a.ChatConnections))
	require.Equal(t, 0.0, testutil.ToFloat64(b.ChatConnections))
	require.Equal(t, 1.0, testutil.ToFloat64(a.ChatMessages.WithLabelValues("broadcast")))
}
