package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "institute",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "institute",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// StudentEvents counts student record writes by kind (created, updated, deleted, imported).
	StudentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "institute",
		Name:      "student_events_total",
		Help:      "Student record writes by kind.",
	}, []string{"kind"})

	// DashboardClients is the number of connected dashboard websockets.
	DashboardClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "institute",
		Name:      "dashboard_clients",
		Help:      "Connected dashboard websocket clients.",
	})

	// DashboardDropped counts events not delivered to a slow client.
	DashboardDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "institute",
		Name:      "dashboard_events_dropped_total",
		Help:      "Dashboard events dropped because a client buffer was full.",
	})
)

// Middleware records request count and latency keyed by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
