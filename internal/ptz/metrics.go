package ptz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vigilcam/ptzd/pkg/onvif"
)

type Metrics struct {
	requests  *prometheus.CounterVec
	discovery prometheus.Histogram
	moves     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptzd_onvif_requests_total",
			Help: "ONVIF SOAP requests by operation and result",
		}, []string{"operation", "result"}),
		discovery: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ptzd_discovery_seconds",
			Help:    "Duration of PTZ capabilities discovery",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptzd_moves_total",
			Help: "Move commands by selected movement kind and result",
		}, []string{"movement", "result"}),
	}
	reg.MustRegister(m.requests, m.discovery, m.moves)
	return m
}

func (m *Metrics) OnRequest(operation string, err error) {
	m.requests.WithLabelValues(operation, result(err)).Inc()
}

func (m *Metrics) ObserveDiscovery(d time.Duration) {
	m.discovery.Observe(d.Seconds())
}

func (m *Metrics) OnMove(kind onvif.MovementKind, err error) {
	movement := "none"
	if kind != 0 {
		movement = kind.String()
	}
	m.moves.WithLabelValues(movement, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
