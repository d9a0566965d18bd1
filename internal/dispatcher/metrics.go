package dispatcher

import "github.com/prometheus/client_golang/prometheus"

var (
	updatesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "chatshop_updates_received_total", Help: "Inbound updates, by kind"},
		[]string{"kind"},
	)
	rejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "chatshop_updates_rejected_total", Help: "Updates answered by the dispatcher instead of a conversation"},
		[]string{"reason"},
	)
	pollErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatshop_poll_errors_total",
		Help: "Failed polls of the chat transport",
	})
	conversationsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatshop_conversations_started_total",
		Help: "Conversations started by /start",
	})
	activeChats = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chatshop_dispatcher_chats",
		Help: "Chats in the routing table",
	})
)

func init() {
	prometheus.MustRegister(updatesReceived, rejected, pollErrors, conversationsStarted, activeChats)
}
