// Package metrics registers Prometheus collectors for relay activity.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	Logins           prometheus.Counter
	Logouts          prometheus.Counter
	Heartbeats       prometheus.Counter
	MessagesAppended prometheus.Counter
	PollRequests     prometheus.Counter
	PollResyncs      prometheus.Counter
	SocketConnects   prometheus.Counter
	SocketRejects    prometheus.Counter

	// Gauges
	TrackedUsersGauge  prometheus.Gauge
	OnlineUsersGauge   prometheus.Gauge
	ActiveSocketsGauge prometheus.Gauge
	BufferSizeGauge    prometheus.Gauge
	PollClientsGauge   prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		Logins = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_logins_total", Help: "Number of successful logins"})
		Logouts = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_logouts_total", Help: "Number of logout requests"})
		Heartbeats = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_heartbeats_total", Help: "Number of accepted heartbeats"})
		MessagesAppended = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_messages_total", Help: "Number of messages appended to the log"})
		PollRequests = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_poll_requests_total", Help: "Number of message poll requests"})
		PollResyncs = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_poll_resyncs_total", Help: "Number of polls whose cursor was evicted and got a tail backfill"})
		SocketConnects = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_socket_connects_total", Help: "Number of websocket connections accepted"})
		SocketRejects = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_socket_rejects_total", Help: "Number of join-chat attempts rejected (name taken)"})
		TrackedUsersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "relay_tracked_users", Help: "Users in the presence map, online or not"})
		OnlineUsersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "relay_online_users", Help: "Users within the online threshold at last check"})
		ActiveSocketsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "relay_active_sockets", Help: "Currently connected websocket clients"})
		BufferSizeGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "relay_message_buffer_size", Help: "Messages currently held in the bounded log"})
		PollClientsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "relay_poll_clients", Help: "Polling clients with a live cursor"})
	})
}

// Inc bumps a counter if metrics are initialized.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// SetPresence records current presence counts.
func SetPresence(total, online int) {
	if TrackedUsersGauge != nil {
		TrackedUsersGauge.Set(float64(total))
	}
	if OnlineUsersGauge != nil {
		OnlineUsersGauge.Set(float64(online))
	}
}

// SetActiveSockets records the current websocket connection count.
func SetActiveSockets(n int) {
	if ActiveSocketsGauge != nil {
		ActiveSocketsGauge.Set(float64(n))
	}
}

// SetBufferSize records the current message log size.
func SetBufferSize(n int) {
	if BufferSizeGauge != nil {
		BufferSizeGauge.Set(float64(n))
	}
}

// SetPollClients records the current cursor registry size.
func SetPollClients(n int) {
	if PollClientsGauge != nil {
		PollClientsGauge.Set(float64(n))
	}
}
