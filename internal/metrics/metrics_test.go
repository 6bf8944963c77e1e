package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CycleCompleted(120)
	m.CycleCompleted(125)
	m.Fault()
	m.Event("decoded", "Transfer")
	m.Event("decoded", "Transfer")
	m.Event("undecoded", "")
	m.ObserveQuery("Transfer", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cycles))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.faults))
	assert.Equal(t, 125.0, testutil.ToFloat64(m.watermark))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("decoded", "Transfer")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.CycleCompleted(1)
		m.Fault()
		m.Event("decoded", "Transfer")
		m.Watermark(2)
		m.ObserveQuery("Transfer", time.Second)
	})
}
