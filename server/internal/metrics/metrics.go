// Package metrics defines the Prometheus collectors for the connection
// server. All collectors are registered on the default registry and exposed
// via promhttp on /metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionsActive tracks the number of currently open WebSocket
	// connections.
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dishpatch_ws_connections_active",
		Help: "Number of currently open WebSocket connections",
	})

	// RoomsActive tracks the number of rooms with at least one member.
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dishpatch_ws_rooms_active",
		Help: "Number of rooms with at least one member",
	})

	// BroadcastsTotal counts broadcast operations by event name.
	BroadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dishpatch_broadcasts_total",
		Help: "Total number of room broadcasts by event name",
	}, []string{"event"})

	// DeliveriesTotal counts per-member deliveries handed to the transport.
	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dishpatch_deliveries_total",
		Help: "Total number of per-connection event deliveries by event name",
	}, []string{"event"})

	// DeliveriesDroppedTotal counts deliveries skipped because a member's
	// send buffer was full or the member was mid-teardown.
	DeliveriesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dishpatch_deliveries_dropped_total",
		Help: "Total number of deliveries dropped due to slow or closing connections",
	})

	// GatewayRequestsTotal counts internal notification gateway requests by
	// HTTP status code.
	GatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dishpatch_gateway_requests_total",
		Help: "Total number of internal notify requests by status code",
	}, []string{"code"})
)

// ObserveGatewayRequest records one gateway request outcome.
func ObserveGatewayRequest(statusCode int) {
	GatewayRequestsTotal.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// ObserveBroadcast records one broadcast with its delivery counts.
func ObserveBroadcast(eventName string, delivered, dropped int) {
	BroadcastsTotal.WithLabelValues(eventName).Inc()
	DeliveriesTotal.WithLabelValues(eventName).Add(float64(delivered))
	if dropped > 0 {
		DeliveriesDroppedTotal.Add(float64(dropped))
	}
}
