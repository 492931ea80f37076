// Package telemetry builds the logger and the prometheus collector shared by
// the board engine and its transports.
package telemetry

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry with board, HTTP and WebSocket metrics.
// It implements engine.Recorder.
type Collector struct {
	registry *prometheus.Registry

	// Board metrics
	ticks         prometheus.Counter
	frames        *prometheus.CounterVec
	frameLatency  prometheus.Histogram
	inputs        *prometheus.CounterVec
	sessions      prometheus.Counter
	sessionsEnded *prometheus.CounterVec
	lastScore     prometheus.Gauge
	respawns      *prometheus.CounterVec

	// HTTP metrics
	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	// WebSocket metrics
	wsClients     prometheus.Gauge
	wsMessages    *prometheus.CounterVec
	wsRateLimited prometheus.Counter
}

// NewCollector creates a collector; namespace defaults to "snakeboard"
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "snakeboard"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.ticks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "board",
		Name:      "ticks_total",
		Help:      "Total number of simulation ticks processed.",
	})
	c.frames = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "board",
		Name:      "frames_total",
		Help:      "Total number of frames rendered, by result.",
	}, []string{"result"})
	c.frameLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "board",
		Name:      "frame_duration_seconds",
		Help:      "Time taken to draw one frame.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 100us to ~200ms
	})
	c.inputs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "board",
		Name:      "inputs_total",
		Help:      "Key inputs, by what the board did with them.",
	}, []string{"result"})
	c.sessions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "board",
		Name:      "sessions_started_total",
		Help:      "Total number of game sessions started.",
	})
	c.sessionsEnded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "board",
		Name:      "sessions_ended_total",
		Help:      "Total number of game sessions ended, by reason.",
	}, []string{"reason"})
	c.lastScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "board",
		Name:      "last_score",
		Help:      "Score of the most recently ended session.",
	})
	c.respawns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "board",
		Name:      "target_respawns_total",
		Help:      "Target respawns, by placement method.",
	}, []string{"method"})

	c.httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})
	c.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "path", "status"})
	c.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
	}, []string{"method", "path"})

	c.wsClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "clients",
		Help:      "Connected WebSocket clients.",
	})
	c.wsMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "messages_total",
		Help:      "WebSocket messages, by direction.",
	}, []string{"direction"})
	c.wsRateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "rate_limited_total",
		Help:      "Key messages dropped by the per-client rate limit.",
	})

	c.registry.MustRegister(
		c.ticks, c.frames, c.frameLatency, c.inputs, c.sessions, c.sessionsEnded, c.lastScore, c.respawns,
		c.httpInFlight, c.httpRequests, c.httpDuration,
		c.wsClients, c.wsMessages, c.wsRateLimited,
	)
	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// TickProcessed implements engine.Recorder
func (c *Collector) TickProcessed() {
	c.ticks.Inc()
}

// FrameRendered implements engine.Recorder
func (c *Collector) FrameRendered(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.frames.WithLabelValues(result).Inc()
	c.frameLatency.Observe(d.Seconds())
}

// InputReceived implements engine.Recorder
func (c *Collector) InputReceived(result string) {
	c.inputs.WithLabelValues(result).Inc()
}

// SessionStarted implements engine.Recorder
func (c *Collector) SessionStarted() {
	c.sessions.Inc()
}

// SessionEnded implements engine.Recorder
func (c *Collector) SessionEnded(reason string, score int) {
	if reason == "" {
		reason = "unknown"
	}
	c.sessionsEnded.WithLabelValues(reason).Inc()
	c.lastScore.Set(float64(score))
}

// TargetRespawned implements engine.Recorder
func (c *Collector) TargetRespawned(fallback bool) {
	method := "random"
	if fallback {
		method = "fallback"
	}
	c.respawns.WithLabelValues(method).Inc()
}

// SetClients records the number of connected WebSocket clients
func (c *Collector) SetClients(n int) {
	c.wsClients.Set(float64(n))
}

// RecordMessage counts a WebSocket message; direction is "in" or "out"
func (c *Collector) RecordMessage(direction string) {
	c.wsMessages.WithLabelValues(direction).Inc()
}

// RecordRateLimited counts a key message dropped by the rate limit
func (c *Collector) RecordRateLimited() {
	c.wsRateLimited.Inc()
}

// InstrumentHandler wraps next with HTTP request metrics
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Scrapes and upgraded connections pass through untimed
		if r.URL.Path == "/metrics" || r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		c.httpInFlight.Inc()
		defer c.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)
		c.httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		c.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// canonicalPath keeps label cardinality bounded: profile ids collapse to :name
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "api" {
		return "/" + parts[0]
	}
	if len(parts) >= 3 && parts[1] == "profiles" {
		return "/api/profiles/:name"
	}
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return "/" + strings.Join(parts, "/")
}
