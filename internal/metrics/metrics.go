// Package metrics holds the Prometheus collectors exported on /metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Connections = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_ws_connections",
		Help: "Current number of live websocket connections per party",
	}, []string{"party"})
	Rooms = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_rooms",
		Help: "Current number of running room instances per party",
	}, []string{"party"})
	MessagesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_ws_messages_received_total",
		Help: "Total number of inbound websocket messages",
	}, []string{"party"})
	MessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_ws_messages_sent_total",
		Help: "Total number of outbound websocket messages delivered to a connection buffer",
	}, []string{"party"})
	MatchesEnded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_matches_ended_total",
		Help: "Total number of matches that reached the end",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	PanicsRecovered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_http_panics_recovered_total",
		Help: "Total number of panics recovered in HTTP handlers",
	})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arena_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		Connections,
		Rooms,
		MessagesReceived,
		MessagesSent,
		MatchesEnded,
		HTTPRequestsTotal,
		PanicsRecovered,
		HTTPRequestDuration,
	)
}
