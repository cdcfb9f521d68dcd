package client

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records client activity. A nil *Metrics records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	waiters   prometheus.Histogram
	replays   prometheus.Counter
}

// NewMetrics registers the client collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Backend calls by method and status class.",
		}, []string{"method", "class"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "client",
			Name:      "refresh_total",
			Help:      "Session refresh cycles by result.",
		}, []string{"result"}),
		waiters: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "console",
			Subsystem: "client",
			Name:      "refresh_waiters",
			Help:      "Callers queued behind a single refresh cycle.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		}),
		replays: f.NewCounter(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "client",
			Name:      "replays_total",
			Help:      "Calls replayed after a successful refresh.",
		}),
	}
}

func (m *Metrics) request(method string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, statusClass(status)).Inc()
}

func (m *Metrics) refresh(ok bool, waiters int) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "fail"
	}
	m.refreshes.WithLabelValues(result).Inc()
	m.waiters.Observe(float64(waiters))
}

func (m *Metrics) replay() {
	if m == nil {
		return
	}
	m.replays.Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "network"
	}
	return strconv.Itoa(status/100) + "xx"
}
