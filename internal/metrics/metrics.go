// Package metrics holds the Prometheus collectors of the file manager.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry when metrics are disabled or in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Identity switch results
const (
	SwitchOK          = "switched"
	SwitchUnknownUser = "unknown_user"
	SwitchRejected    = "rejected"
	SwitchSkipped     = "skipped"
)

// Transfer directions
const (
	Upload   = "upload"
	Download = "download"
)

// Metrics records action, identity and transfer statistics.
type Metrics struct {
	actions        *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	identity       *prometheus.CounterVec
	transferBytes  *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		actions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webfm_actions_total",
				Help: "Total number of file manager actions by action and outcome",
			},
			[]string{"action", "outcome"}, // outcome: "ok", "conflict" or an error kind
		),
		actionDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webfm_action_duration_seconds",
				Help:    "Duration of file manager actions in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"action"},
		),
		identity: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webfm_identity_switch_total",
				Help: "Identity switches by result",
			},
			[]string{"result"},
		),
		transferBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webfm_transfer_bytes_total",
				Help: "Bytes uploaded and downloaded",
			},
			[]string{"direction"},
		),
	}
}

// ObserveAction records one finished action.
func (m *Metrics) ObserveAction(action, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, outcome).Inc()
	m.actionDuration.WithLabelValues(action).Observe(d.Seconds())
}

// IdentitySwitch records the result of one identity switch attempt.
func (m *Metrics) IdentitySwitch(result string) {
	if m == nil {
		return
	}
	m.identity.WithLabelValues(result).Inc()
}

// Transfer records n bytes moved in direction.
func (m *Metrics) Transfer(direction string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.transferBytes.WithLabelValues(direction).Add(float64(n))
}
