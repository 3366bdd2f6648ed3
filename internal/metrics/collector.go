// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器。nil *Collector 的所有 Record 方法均为空操作，
// 便于在测试或禁用指标时直接传 nil。
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 会话指标
	sessionsTotal    *prometheus.CounterVec
	sessionDuration  *prometheus.HistogramVec
	sessionActive    prometheus.Gauge
	stageDuration    *prometheus.HistogramVec
	stageTransitions *prometheus.CounterVec

	// 视觉指标
	detectorRuns *prometheus.CounterVec

	// LLM 指标
	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec

	// 检索指标
	retrievalChunks prometheus.Histogram

	// 事件总线指标
	eventsPublished *prometheus.CounterVec
	eventsPending   prometheus.Gauge

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 会话指标
	c.sessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of push-to-talk sessions by outcome",
		},
		[]string{"source", "outcome"}, // outcome: completed, fallback, error, rejected
	)

	c.sessionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "End-to-end session duration in seconds",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	c.sessionActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_active",
			Help:      "Whether a session is currently running",
		},
	)

	c.stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"stage"},
	)

	c.stageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_stage_transitions_total",
			Help:      "Total number of pipeline stage transitions",
		},
		[]string{"from_stage", "to_stage"},
	)

	// 视觉指标
	c.detectorRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detector_runs_total",
			Help:      "Total number of detector runs by result",
		},
		[]string{"detector", "result"}, // result: ok, timeout, error
	)

	// LLM 指标
	c.llmRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests",
		},
		[]string{"backend", "status"},
	)

	c.llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"backend"},
	)

	// 检索指标
	c.retrievalChunks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_chunks_returned",
			Help:      "Number of chunks returned per retrieval",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	c.eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of lifecycle events published",
		},
		[]string{"type"},
	)

	c.eventsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_pending",
			Help:      "Events queued for subscribers but not yet delivered",
		},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// =============================================================================
// 🎙️ 会话指标记录
// =============================================================================

// RecordSession 记录一次会话的结果
func (c *Collector) RecordSession(source, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.sessionsTotal.WithLabelValues(source, outcome).Inc()
	if outcome != "rejected" {
		c.sessionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}

// SetSessionActive 设置会话活跃状态
func (c *Collector) SetSessionActive(active bool) {
	if c == nil {
		return
	}
	if active {
		c.sessionActive.Set(1)
		return
	}
	c.sessionActive.Set(0)
}

// RecordStage 记录阶段耗时
func (c *Collector) RecordStage(stage string, duration time.Duration) {
	if c == nil {
		return
	}
	c.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordStageTransition 记录阶段转换
func (c *Collector) RecordStageTransition(from, to string) {
	if c == nil {
		return
	}
	c.stageTransitions.WithLabelValues(from, to).Inc()
}

// =============================================================================
// 📷 视觉指标记录
// =============================================================================

// RecordDetector 记录单个检测器的运行结果
func (c *Collector) RecordDetector(detector, result string) {
	if c == nil {
		return
	}
	c.detectorRuns.WithLabelValues(detector, result).Inc()
}

// =============================================================================
// 🤖 LLM 指标记录
// =============================================================================

// RecordLLMRequest 记录 LLM 请求
func (c *Collector) RecordLLMRequest(backend, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.llmRequestsTotal.WithLabelValues(backend, status).Inc()
	c.llmRequestDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// =============================================================================
// 📚 检索与事件指标记录
// =============================================================================

// RecordRetrieval 记录一次检索返回的片段数
func (c *Collector) RecordRetrieval(chunks int) {
	if c == nil {
		return
	}
	c.retrievalChunks.Observe(float64(chunks))
}

// RecordEvent 记录一次事件发布
func (c *Collector) RecordEvent(eventType string) {
	if c == nil {
		return
	}
	c.eventsPublished.WithLabelValues(eventType).Inc()
}

// AddEventsPending 调整待投递事件数，入队为正、投递完成为负
func (c *Collector) AddEventsPending(delta int) {
	if c == nil {
		return
	}
	c.eventsPending.Add(float64(delta))
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
