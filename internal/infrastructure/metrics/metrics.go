package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments exposed on /metrics.
type Metrics struct {
	ActiveRooms      prometheus.Gauge
	ConnectedClients prometheus.Gauge
	RelayedEvents    *prometheus.CounterVec
	SnapshotsPushed  prometheus.Counter
	ChatMessages     prometheus.Counter
	MirrorDropped    prometheus.Counter
	JoinFailures     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveRooms: factory.NewGauge(prometheus.GaugeOpts{
			Name: "inkroom_active_rooms",
			Help: "Number of rooms currently resident in the registry.",
		}),
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "inkroom_connected_clients",
			Help: "Number of live websocket connections.",
		}),
		RelayedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkroom_relayed_events_total",
			Help: "Events relayed to room members, by event name.",
		}, []string{"event"}),
		SnapshotsPushed: factory.NewCounter(prometheus.CounterOpts{
			Name: "inkroom_snapshots_pushed_total",
			Help: "Canvas snapshots pushed onto room histories.",
		}),
		ChatMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "inkroom_chat_messages_total",
			Help: "Chat messages accepted and broadcast.",
		}),
		MirrorDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "inkroom_mirror_dropped_total",
			Help: "Persistence mirror operations dropped because the queue was full.",
		}),
		JoinFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkroom_join_failures_total",
			Help: "Rejected join attempts, by reason.",
		}, []string{"reason"}),
	}
}

// NewDefault registers against the global registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}
