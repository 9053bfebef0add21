package proxy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	events      *prometheus.CounterVec
	undelivered prometheus.Counter
	connections prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poplayers_proxy_events_total",
				Help: "Total number of events relayed by type",
			},
			[]string{"type"},
		),
		undelivered: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "poplayers_proxy_events_undelivered_total",
				Help: "Total number of events without a connected destination",
			},
		),
		connections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "poplayers_proxy_connections_active",
				Help: "Number of connected websocket clients",
			},
		),
	}
}
