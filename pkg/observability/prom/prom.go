// Package prom implements the observability hooks with Prometheus metrics.
//
//	m := prom.New(nil)
//	m.Install()
//	r.Handle("/metrics", m.Handler())
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/gitscroll/pkg/observability"
)

const namespace = "gitscroll"

// Metrics holds every collector and implements all hook interfaces.
type Metrics struct {
	reg *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	scannedNodes  prometheus.Gauge
	tokens        prometheus.Counter
	layoutNodes   *prometheus.HistogramVec
	exports       *prometheus.CounterVec

	cacheOps *prometheus.CounterVec
	cacheSet *prometheus.HistogramVec

	clones       *prometheus.CounterVec
	cloneRetries prometheus.Counter
	cloneTime    prometheus.Histogram

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg gets a fresh registry with
// the Go and process collectors.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,

		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		stageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Failed pipeline stages.",
		}, []string{"stage"}),
		scannedNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scanned_nodes",
			Help:      "Node count of the most recent scan.",
		}),
		tokens: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyzed_tokens_total",
			Help:      "Tokens counted by the analyzer.",
		}),
		layoutNodes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_input_nodes",
			Help:      "Children laid out per layout call.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"mode"}),
		exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Artifacts written by format.",
		}, []string{"format"}),

		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by key type and result.",
		}, []string{"key_type", "result"}),
		cacheSet: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_entry_bytes",
			Help:      "Size of cache entries written.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"key_type"}),

		clones: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clones_total",
			Help:      "Repository clones by outcome.",
		}, []string{"status"}),
		cloneRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clone_retries_total",
			Help:      "Clone attempts retried after a transient failure.",
		}),
		cloneTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clone_duration_seconds",
			Help:      "Time to clone a repository.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),

		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Install registers m as the process-wide pipeline, cache, source and HTTP
// hooks.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetSourceHooks(m)
	observability.SetHTTPHooks(m)
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) stage(name string, d time.Duration, err error) {
	m.stageDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		m.stageErrors.WithLabelValues(name).Inc()
	}
}

// =============================================================================
// PipelineHooks
// =============================================================================

func (m *Metrics) OnScanStart(context.Context, string) {}

func (m *Metrics) OnScanComplete(_ context.Context, _ string, nodeCount int, d time.Duration, err error) {
	m.stage("scan", d, err)
	if err == nil {
		m.scannedNodes.Set(float64(nodeCount))
	}
}

func (m *Metrics) OnAnalyzeComplete(_ context.Context, _ int, tokens int, d time.Duration, err error) {
	m.stage("analyze", d, err)
	if tokens > 0 {
		m.tokens.Add(float64(tokens))
	}
}

func (m *Metrics) OnLayoutStart(_ context.Context, mode string, nodeCount int) {
	m.layoutNodes.WithLabelValues(mode).Observe(float64(nodeCount))
}

func (m *Metrics) OnLayoutComplete(_ context.Context, _ string, d time.Duration, err error) {
	m.stage("layout", d, err)
}

func (m *Metrics) OnExportStart(context.Context, []string) {}

func (m *Metrics) OnExportComplete(_ context.Context, formats []string, d time.Duration, err error) {
	m.stage("export", d, err)
	if err != nil {
		return
	}
	for _, f := range formats {
		m.exports.WithLabelValues(f).Inc()
	}
}

// =============================================================================
// CacheHooks
// =============================================================================

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheSet.WithLabelValues(keyType).Observe(float64(size))
}

// =============================================================================
// SourceHooks
// =============================================================================

func (m *Metrics) OnCloneStart(context.Context, string) {}

func (m *Metrics) OnCloneRetry(context.Context, string, int, error) {
	m.cloneRetries.Inc()
}

func (m *Metrics) OnCloneComplete(_ context.Context, _ string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.clones.WithLabelValues(status).Inc()
	m.cloneTime.Observe(d.Seconds())
}

// =============================================================================
// HTTPHooks
// =============================================================================

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.httpInFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.httpInFlight.Dec()
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.SourceHooks   = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
