package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/devmemory/learning-engine/internal/config"
	"github.com/devmemory/learning-engine/pkg/pipeline"
	"github.com/devmemory/learning-engine/pkg/store"
	"github.com/devmemory/learning-engine/pkg/tools"
)

// statusMetrics mirrors the Pipeline Controller's status snapshot as
// Prometheus gauges, refreshed on every /metrics scrape's preceding
// /status poll rather than push, matching the teacher's pkg/metrics usage
// pattern (spec §2.1 "Metrics").
type statusMetrics struct {
	queueDepth        *prometheus.GaugeVec
	patternConfidence prometheus.Gauge
	errorRate24h      prometheus.Gauge
}

func newStatusMetrics() *statusMetrics {
	m := &statusMetrics{
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "learning_queue_depth",
			Help: "Number of learning tasks by status.",
		}, []string{"status"}),
		patternConfidence: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "learning_pattern_confidence",
			Help: "Average confidence score across coding patterns.",
		}),
		errorRate24h: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "learning_task_error_rate_24h",
			Help: "Fraction of learning tasks that failed in the trailing 24 hours.",
		}),
	}
	prometheus.MustRegister(m.queueDepth, m.patternConfidence, m.errorRate24h)
	return m
}

func (m *statusMetrics) observe(s pipeline.Status) {
	for status, count := range s.QueueCounts {
		m.queueDepth.WithLabelValues(string(status)).Set(float64(count))
	}
	m.patternConfidence.Set(s.PatternAvgConfidence)
	m.errorRate24h.Set(s.ErrorRate24h)
}

// newHTTPServer builds the thin proof-of-wiring REST/SSE surface spec
// §4.8 describes: /healthz, /status (the pipeline's snapshot as JSON), and
// /events (SSE of task completions), plus the tool-surface handlers
// exposed as plain JSON routes for manual exercising outside of an MCP
// transport. Prometheus metrics are served on their own port by
// newMetricsServer, matching the teacher's Server/MetricsPort split.
func newHTTPServer(cfg config.ServerConfig, st *store.Pool, controller *pipeline.Controller, surface *tools.Surface, metrics *statusMetrics, logger *logrus.Logger) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", healthzHandler(st))
	r.Get("/status", statusHandler(controller, metrics))
	r.Get("/events", eventsHandler(controller, logger))

	r.Route("/tools", func(tr chi.Router) {
		tr.Post("/store_memory", storeMemoryHandler(surface))
		tr.Post("/search_memories", searchMemoriesHandler(surface))
		tr.Get("/projects", getProjectsHandler(surface))
		tr.Get("/projects/{name}/sessions", getProjectSessionsHandler(surface))
		tr.Get("/insights", getInsightsHandler(surface))
		tr.Get("/patterns", getCodingPatternsHandler(surface))
	})

	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// newMetricsServer exposes /metrics on its own port, per spec §2.1's
// Prometheus wiring and the teacher's convention of keeping scrape traffic
// off the application listener.
func newMetricsServer(cfg config.ServerConfig) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func requestLogger(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, req)
			logger.WithFields(logrus.Fields{
				"method":   req.Method,
				"path":     req.URL.Path,
				"duration": time.Since(start).String(),
			}).Debug("http request")
		})
	}
}

func healthzHandler(st *store.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func statusHandler(controller *pipeline.Controller, metrics *statusMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := controller.Snapshot(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		metrics.observe(snapshot)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snapshot)
	}
}

// eventsHandler streams a Server-Sent-Events feed that emits a
// task_completed event (carrying the full snapshot) whenever the completed
// task count changes, polling the controller's snapshot rather than wiring a pub/sub channel
// through the core — a thin adapter proving the core's read surface is
// streamable, not a general eventing system.
func eventsHandler(controller *pipeline.Controller, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var lastCompleted int
		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				snapshot, err := controller.Snapshot(r.Context())
				if err != nil {
					logger.WithError(err).Warn("events: snapshot failed")
					continue
				}
				completed := snapshot.QueueCounts[store.StatusCompleted]
				if completed == lastCompleted {
					continue
				}
				lastCompleted = completed

				payload, _ := json.Marshal(snapshot)
				fmt.Fprintf(w, "event: task_completed\ndata: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}
