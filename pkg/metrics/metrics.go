package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creation_studio",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "creation_studio",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"method", "route"},
	)

	creationsStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creation_studio",
			Subsystem: "creations",
			Name:      "stored_total",
			Help:      "Creations persisted, by type.",
		},
		[]string{"type"},
	)

	likeToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creation_studio",
			Subsystem: "likes",
			Name:      "toggles_total",
			Help:      "Like toggles, by resulting direction.",
		},
		[]string{"direction"},
	)

	gateDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creation_studio",
			Subsystem: "usage",
			Name:      "denials_total",
			Help:      "Operations rejected by the plan gate, by reason.",
		},
		[]string{"operation", "reason"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		creationsStored,
		likeToggles,
		gateDenials,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler exposes the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func CreationStored(creationType string) {
	creationsStored.WithLabelValues(creationType).Inc()
}

func LikeToggled(liked bool) {
	direction := "unlike"
	if liked {
		direction = "like"
	}
	likeToggles.WithLabelValues(direction).Inc()
}

func GateDenied(operation, reason string) {
	gateDenials.WithLabelValues(operation, reason).Inc()
}
