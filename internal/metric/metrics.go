// Package metric provides Prometheus instrumentation for the messaging
// transport: connection state, message traffic, queue pressure, reconnect
// attempts and dispatch failures, labelled by workspace context. All helper
// methods are nil-receiver safe so instrumentation stays optional.
package metric

import "github.com/prometheus/client_golang/prometheus"

// Metrics contains all transport-level metrics (not payload-specific).
type Metrics struct {
	ConnectionState   *prometheus.GaugeVec
	MessagesSent      *prometheus.CounterVec
	MessagesReceived  *prometheus.CounterVec
	MessagesQueued    *prometheus.CounterVec
	QueueDropped      *prometheus.CounterVec
	QueueDepth        *prometheus.GaugeVec
	ReconnectAttempts *prometheus.CounterVec
	DispatchFailures  *prometheus.CounterVec
	ParseFailures     *prometheus.CounterVec
}

// New creates a Metrics instance with all transport metrics.
func New() *Metrics {
	return &Metrics{
		ConnectionState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "agentwire",
				Subsystem: "connection",
				Name:      "state",
				Help:      "Connection state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting, 4=error)",
			},
			[]string{"context"},
		),
		MessagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentwire",
				Subsystem: "messages",
				Name:      "sent_total",
				Help:      "Total number of messages transmitted",
			},
			[]string{"context", "type"},
		),
		MessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentwire",
				Subsystem: "messages",
				Name:      "received_total",
				Help:      "Total number of messages received and dispatched",
			},
			[]string{"context", "type"},
		),
		MessagesQueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentwire",
				Subsystem: "queue",
				Name:      "enqueued_total",
				Help:      "Total number of messages buffered while offline",
			},
			[]string{"context"},
		),
		QueueDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentwire",
				Subsystem: "queue",
				Name:      "dropped_total",
				Help:      "Total number of oldest queued messages evicted at capacity",
			},
			[]string{"context"},
		),
		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "agentwire",
				Subsystem: "queue",
				Name:      "depth",
				Help:      "Current number of messages waiting in the offline queue",
			},
			[]string{"context"},
		),
		ReconnectAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentwire",
				Subsystem: "connection",
				Name:      "reconnect_attempts_total",
				Help:      "Total number of reconnection attempts",
			},
			[]string{"context"},
		),
		DispatchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentwire",
				Subsystem: "dispatch",
				Name:      "failures_total",
				Help:      "Total number of subscriber handler failures",
			},
			[]string{"context", "type"},
		),
		ParseFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentwire",
				Subsystem: "messages",
				Name:      "parse_failures_total",
				Help:      "Total number of inbound frames dropped for failing validation",
			},
			[]string{"context"},
		),
	}
}

// Register registers all collectors with the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.ConnectionState,
		m.MessagesSent,
		m.MessagesReceived,
		m.MessagesQueued,
		m.QueueDropped,
		m.QueueDepth,
		m.ReconnectAttempts,
		m.DispatchFailures,
		m.ParseFailures,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// SetState records the numeric connection state for a context.
func (m *Metrics) SetState(context string, state int) {
	if m == nil {
		return
	}
	m.ConnectionState.WithLabelValues(context).Set(float64(state))
}

// IncSent counts one transmitted message.
func (m *Metrics) IncSent(context, msgType string) {
	if m == nil {
		return
	}
	m.MessagesSent.WithLabelValues(context, msgType).Inc()
}

// IncReceived counts one received message.
func (m *Metrics) IncReceived(context, msgType string) {
	if m == nil {
		return
	}
	m.MessagesReceived.WithLabelValues(context, msgType).Inc()
}

// IncQueued counts one message buffered while offline.
func (m *Metrics) IncQueued(context string) {
	if m == nil {
		return
	}
	m.MessagesQueued.WithLabelValues(context).Inc()
}

// IncDropped counts one evicted queue entry.
func (m *Metrics) IncDropped(context string) {
	if m == nil {
		return
	}
	m.QueueDropped.WithLabelValues(context).Inc()
}

// SetQueueDepth records the current offline queue length.
func (m *Metrics) SetQueueDepth(context string, depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.WithLabelValues(context).Set(float64(depth))
}

// IncReconnect counts one reconnection attempt.
func (m *Metrics) IncReconnect(context string) {
	if m == nil {
		return
	}
	m.ReconnectAttempts.WithLabelValues(context).Inc()
}

// IncDispatchFailure counts one subscriber handler failure.
func (m *Metrics) IncDispatchFailure(context, msgType string) {
	if m == nil {
		return
	}
	m.DispatchFailures.WithLabelValues(context, msgType).Inc()
}

// IncParseFailure counts one dropped inbound frame.
func (m *Metrics) IncParseFailure(context string) {
	if m == nil {
		return
	}
	m.ParseFailures.WithLabelValues(context).Inc()
}
