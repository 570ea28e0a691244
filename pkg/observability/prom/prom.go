// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/autolayout/pkg/observability"
)

const namespace = "autolayout"

// Metrics holds the collectors. It implements every hook interface.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	nodes         *prometheus.CounterVec
	stacks        prometheus.Counter
	absorbed      prometheus.Counter
	policies      *prometheus.CounterVec
	anchors       *prometheus.CounterVec
	superseded    prometheus.Counter
	artifactBytes *prometheus.HistogramVec

	cacheOps *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"stage"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Pipeline stages that returned an error.",
		}, []string{"stage"}),
		nodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_total",
			Help:      "Normalized nodes by outcome.",
		}, []string{"outcome"}),
		stacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inferred_stacks_total",
			Help:      "Containers that received an inferred auto-layout.",
		}),
		absorbed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "absorbed_backgrounds_total",
			Help:      "Background rectangles absorbed into their container.",
		}),
		policies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sizing_policies_total",
			Help:      "Resolved sizing policies by kind, counted per axis.",
		}, []string{"kind"}),
		anchors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anchors_total",
			Help:      "Anchor classifications by class.",
		}, []string{"class"}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_runs_total",
			Help:      "Session runs discarded because a newer run started.",
		}),
		artifactBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      "Size of rendered artifacts.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"format"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes.",
		}, []string{"key_type", "result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.stageDuration, m.stageErrors, m.nodes, m.stacks, m.absorbed,
		m.policies, m.anchors, m.superseded, m.artifactBytes,
		m.cacheOps, m.requests, m.requestDuration,
	)
	return m
}

func (m *Metrics) stage(name string, d time.Duration, err error) {
	m.stageDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		m.stageErrors.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) OnBuildComplete(_ context.Context, nodes, dropped int, d time.Duration, err error) {
	m.stage("build", d, err)
	m.nodes.WithLabelValues("kept").Add(float64(nodes))
	m.nodes.WithLabelValues("dropped").Add(float64(dropped))
}

func (m *Metrics) OnInferComplete(_ context.Context, stacks, absorbed int, d time.Duration) {
	m.stage("infer", d, nil)
	m.stacks.Add(float64(stacks))
	m.absorbed.Add(float64(absorbed))
}

func (m *Metrics) OnResolveComplete(_ context.Context, policies map[string]int, d time.Duration) {
	m.stage("size", d, nil)
	for k, n := range policies {
		m.policies.WithLabelValues(k).Add(float64(n))
	}
}

func (m *Metrics) OnClassifyComplete(_ context.Context, anchors map[string]int, d time.Duration) {
	m.stage("anchor", d, nil)
	for c, n := range anchors {
		m.anchors.WithLabelValues(c).Add(float64(n))
	}
}

func (m *Metrics) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	m.stage("render", d, err)
	if err == nil {
		m.artifactBytes.WithLabelValues(format).Observe(float64(size))
	}
}

func (m *Metrics) OnSuperseded(context.Context) { m.superseded.Inc() }

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
}

func (m *Metrics) OnRequest(context.Context, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
