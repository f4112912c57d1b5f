package server

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/craftree/pkg/buildinfo"
	"github.com/matzehuels/craftree/pkg/observability"
)

// metrics holds the server's Prometheus collectors. Each server owns its
// registry so several servers can live in one process.
type metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	layoutNodes   prometheus.Histogram
	contourSteps  prometheus.Histogram

	cacheOps *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	f.NewGaugeVec(prometheus.GaugeOpts{
		Name: "craftree_build_info",
		Help: "Build information, always 1",
	}, []string{"version", "commit"}).WithLabelValues(buildinfo.Version, buildinfo.Commit).Set(1)

	return &metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "craftree_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "craftree_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"route"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "craftree_pipeline_stage_duration_seconds",
			Help:    "Pipeline stage duration",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}, []string{"stage"}),
		stageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "craftree_pipeline_stage_errors_total",
			Help: "Failed pipeline stages",
		}, []string{"stage"}),
		layoutNodes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "craftree_layout_nodes",
			Help:    "Nodes per computed layout",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		contourSteps: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "craftree_layout_contour_steps",
			Help:    "Contour comparisons per computed layout",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "craftree_cache_operations_total",
			Help: "Cache lookups and writes by key type and result",
		}, []string{"key_type", "result"}),
	}
}

func (m *metrics) observeRequest(route string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *metrics) observeStage(stage string, d time.Duration, err error) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		m.stageErrors.WithLabelValues(stage).Inc()
	}
}

// pipelineHooks feeds pipeline events into the metrics.
type pipelineHooks struct {
	observability.NoopPipelineHooks
	m *metrics
}

func (h pipelineHooks) OnRecipeComplete(_ context.Context, _, _ int, d time.Duration, err error) {
	h.m.observeStage("recipe", d, err)
}

func (h pipelineHooks) OnLayoutComplete(_ context.Context, nodes, steps int, d time.Duration, err error) {
	h.m.observeStage("layout", d, err)
	if err == nil {
		h.m.layoutNodes.Observe(float64(nodes))
		h.m.contourSteps.Observe(float64(steps))
	}
}

func (h pipelineHooks) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	h.m.observeStage("render", d, err)
}

// cacheHooks counts cache traffic.
type cacheHooks struct {
	m *metrics
}

func (h cacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h cacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h cacheHooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	h.m.cacheOps.WithLabelValues(keyType, "set").Inc()
}

var (
	_ observability.PipelineHooks = pipelineHooks{}
	_ observability.CacheHooks    = cacheHooks{}
)
