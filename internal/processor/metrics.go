package processor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ai-resume-matcher/internal/types"
)

// Metrics 分析服务的 Prometheus 指标，nil 时所有方法为空操作
type Metrics struct {
	registry *prometheus.Registry

	analyses   *prometheus.CounterVec
	scoreBands *prometheus.CounterVec
	llmLatency prometheus.Histogram
	retrievals *prometheus.CounterVec
	chunks     prometheus.Histogram
}

// NewMetrics 使用独立的 registry，测试中可以重复创建
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resume_matcher",
			Name:      "analyses_total",
			Help:      "Number of analysis requests by outcome.",
		}, []string{"outcome"}),
		scoreBands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resume_matcher",
			Name:      "score_band_total",
			Help:      "Parsed analysis results by score band.",
		}, []string{"band"}),
		llmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "resume_matcher",
			Name:      "llm_duration_seconds",
			Help:      "Latency of language model calls.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		retrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resume_matcher",
			Name:      "retrieval_builds_total",
			Help:      "Vector index builds by outcome.",
		}, []string{"outcome"}),
		chunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "resume_matcher",
			Name:      "index_chunks",
			Help:      "Number of chunks inserted per index build.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	reg.MustRegister(m.analyses, m.scoreBands, m.llmLatency, m.retrievals, m.chunks)
	return m
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) observeAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeBand(band types.MatchBand) {
	if m == nil {
		return
	}
	m.scoreBands.WithLabelValues(string(band)).Inc()
}

func (m *Metrics) observeLLM(d time.Duration) {
	if m == nil {
		return
	}
	m.llmLatency.Observe(d.Seconds())
}

func (m *Metrics) observeRetrieval(outcome string, chunks int) {
	if m == nil {
		return
	}
	m.retrievals.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.chunks.Observe(float64(chunks))
	}
}
