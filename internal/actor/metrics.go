package actor

import "github.com/prometheus/client_golang/prometheus"

var (
	activeConversations = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chatshop_conversations_active",
		Help: "Conversations currently running",
	})
	conversationsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "chatshop_conversations_ended_total", Help: "Conversations ended, by reason"},
		[]string{"reason"},
	)
	menuSelections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "chatshop_menu_selections_total", Help: "Menu entries picked"},
		[]string{"entry"},
	)
	ordersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatshop_orders_placed_total",
		Help: "Orders committed by customers",
	})
	paymentsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatshop_card_payments_total",
		Help: "Card top-ups recorded",
	})
)

func init() {
	prometheus.MustRegister(activeConversations, conversationsEnded, menuSelections, ordersPlaced, paymentsReceived)
}
