package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCountersAreRecorded(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := New(registry, "1")
	require.NoError(t, err)

	m.PayloadSubmitted("round0")
	m.PayloadSubmitted("round0")
	m.SubmitFailed("round1")
	m.DisputeRaised("missing_share")
	m.EpochConcluded(4)
	m.CombineFailed("not_enough_shares")

	require.Equal(t, 2.0, testutil.ToFloat64(m.payloadsSubmitted.WithLabelValues("round0")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.submitFailures.WithLabelValues("round1")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.disputesRaised.WithLabelValues("missing_share")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.epochsConcluded))
	require.Equal(t, 4.0, testutil.ToFloat64(m.correctDealers))
	require.Equal(t, 1.0, testutil.ToFloat64(m.combineFailures.WithLabelValues("not_enough_shares")))
}

func TestParticipantsShareARegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := New(registry, "1")
	require.NoError(t, err)
	_, err = New(registry, "2")
	require.NoError(t, err)
	_, err = New(registry, "1")
	require.Error(t, err, "duplicate participant label must not register twice")
}

func TestNilMetricsDiscard(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.PayloadSubmitted("round0")
		m.EpochAbandoned()
		m.ShareGenerated()
		m.RandomnessCombined()
	})
}
