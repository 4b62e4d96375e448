package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/edgeobj/dobject-go/connection"
)

// Metrics holds all Prometheus collectors for the client.
type Metrics struct {
	registry *prometheus.Registry

	// ConnectionStatus is 1 when the object's WebSocket is open, 0 otherwise.
	ConnectionStatus *prometheus.GaugeVec

	// Disconnects counts observed disconnect events per object.
	Disconnects *prometheus.CounterVec

	// Messages counts inbound frames per object.
	Messages *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ConnectionStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dobject_connection_status",
			Help: "Connection status per object (1 = connected, 0 = disconnected)",
		}, []string{"object_id"}),
		Disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dobject_disconnects_total",
			Help: "Disconnect events observed per object",
		}, []string{"object_id"}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dobject_messages_total",
			Help: "Inbound WebSocket frames per object",
		}, []string{"object_id"}),
	}

	m.registry.MustRegister(
		m.ConnectionStatus,
		m.Disconnects,
		m.Messages,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe updates collectors from a single connection event.
func (m *Metrics) Observe(ev connection.Event) {
	switch ev.Type {
	case connection.EventConnected:
		m.ConnectionStatus.WithLabelValues(ev.ObjectID).Set(1)
	case connection.EventDisconnected:
		m.ConnectionStatus.WithLabelValues(ev.ObjectID).Set(0)
		m.Disconnects.WithLabelValues(ev.ObjectID).Inc()
	case connection.EventMessage:
		m.Messages.WithLabelValues(ev.ObjectID).Inc()
	}
}
