package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	resp "chatshop/internal/transport/http/response"
)

// The ops API answers HTTP 200 for every envelope, so requests are counted
// by envelope code; downloads count as "file".
var (
	opsRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "chatshop_ops_requests_total", Help: "Ops API requests by route and envelope code"},
		[]string{"route", "method", "code"},
	)
	opsLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatshop_ops_request_duration_seconds",
			Help:    "Ops API latency by route; exports dominate the upper buckets",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"route"},
	)
)

func init() { prometheus.MustRegister(opsRequests, opsLatency) }

// Metrics records every request once the chain has finished.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		opsRequests.WithLabelValues(route, c.Request.Method, outcome(c)).Inc()
		opsLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func outcome(c *gin.Context) string {
	if code, ok := resp.CodeOf(c); ok {
		return strconv.Itoa(code)
	}
	return "file"
}
