package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "samerow_sessions",
		Help: "Connected signaling sessions",
	})

	metricRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "samerow_rooms",
		Help: "Rooms held by the registry",
	})

	MetricEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "samerow_events_total",
		Help: "Inbound events handled, by type",
	}, []string{"type"})

	MetricSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "samerow_signals_total",
		Help: "Signal relays by outcome (delivered, unknown_recipient, backpressure)",
	}, []string{"outcome"})

	MetricFanout = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "samerow_fanout_frames_total",
		Help: "Frames fanned out to room members, by event and outcome",
	}, []string{"event", "outcome"})

	MetricRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "samerow_rejected_total",
		Help: "Inbound messages dropped before dispatch, by reason",
	}, []string{"reason"})
)
