package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Records(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveAction("read", "ok", 10*time.Millisecond)
	m.ObserveAction("read", "ok", 20*time.Millisecond)
	m.ObserveAction("delete", "not found", time.Millisecond)
	m.IdentitySwitch(SwitchUnknownUser)
	m.Transfer(Upload, 128)
	m.Transfer(Upload, 0)

	assert.Equal(t, 2.0, counterValue(t, reg, "webfm_actions_total", "read", "ok"))
	assert.Equal(t, 1.0, counterValue(t, reg, "webfm_actions_total", "delete", "not found"))
	assert.Equal(t, 1.0, counterValue(t, reg, "webfm_identity_switch_total", SwitchUnknownUser))
	assert.Equal(t, 128.0, counterValue(t, reg, "webfm_transfer_bytes_total", Upload))
	assert.Equal(t, uint64(2), histogramCount(t, reg, "webfm_action_duration_seconds", "read"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAction("read", "ok", time.Second)
		m.IdentitySwitch(SwitchOK)
		m.Transfer(Download, 1)
	})
}

// counterValue returns the counter in family name whose label values equal
// labels, in declaration order.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels ...string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if labelsMatch(metric.GetLabel(), labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("no %s%v sample", name, labels)
	return 0
}

func histogramCount(t *testing.T, reg *prometheus.Registry, name string, labels ...string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if labelsMatch(metric.GetLabel(), labels) {
				return metric.GetHistogram().GetSampleCount()
			}
		}
	}
	t.Fatalf("no %s%v sample", name, labels)
	return 0
}

func labelsMatch[L interface{ GetValue() string }](got []L, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i, l := range got {
		if l.GetValue() != want[i] {
			return false
		}
	}
	return true
}
