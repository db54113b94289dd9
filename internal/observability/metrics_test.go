package observability

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRecordSignupUpdatesCounterAndGauge(t *testing.T) {
	before := counterValue(t, signupCounter.WithLabelValues("Metrics Club"))

	RecordSignup("Metrics Club", 3)

	require.Equal(t, before+1, counterValue(t, signupCounter.WithLabelValues("Metrics Club")))
	require.Equal(t, 3.0, gaugeValue(t, participantsGauge.WithLabelValues("Metrics Club")))
}

func TestRecordUnregisterUpdatesGauge(t *testing.T) {
	RecordRosterSize("Gauge Club", 2)
	RecordUnregister("Gauge Club", 1)

	require.Equal(t, 1.0, gaugeValue(t, participantsGauge.WithLabelValues("Gauge Club")))
	require.GreaterOrEqual(t, counterValue(t, unregisterCounter.WithLabelValues("Gauge Club")), 1.0)
}

func TestRecordRejectedLabelsByReason(t *testing.T) {
	before := counterValue(t, rejectedCounter.WithLabelValues("signup", "already_signed_up"))

	RecordRejected("signup", "already_signed_up")
	RecordRejected("signup", "already_signed_up")

	require.Equal(t, before+2, counterValue(t, rejectedCounter.WithLabelValues("signup", "already_signed_up")))
}

type writer interface {
	Write(*dto.Metric) error
}

func counterValue(t *testing.T, c writer) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g writer) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}
