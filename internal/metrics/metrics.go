// Package metrics owns the Prometheus registry shared by the request pipeline,
// the credential binder and the record store. Every recording method is safe
// to call on a nil *Metrics so components can run without instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "participant_hub"

// Metrics 聚合服务暴露的全部指标。
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	authDecisions   *prometheus.CounterVec
	persistErrors   *prometheus.CounterVec
	recordsInMemory prometheus.Gauge
}

// New 创建独立 registry，并注册 go/process 运行时指标。
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code",
		}, []string{"method", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Wall-clock request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		authDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_decisions_total",
			Help:      "Credential binder decisions by outcome",
		}, []string{"outcome"}),
		persistErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Record file operations that failed",
		}, []string{"op"}),
		recordsInMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Records currently held in the in-memory index",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestLatency,
		m.authDecisions,
		m.persistErrors,
		m.recordsInMemory,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler 返回 Prometheus 文本格式的 http.Handler。
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest 记录一次请求的状态码与耗时。
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// AuthDecision 记录 binder 的判定结果，例如 bound/verified/denied/anonymous。
func (m *Metrics) AuthDecision(outcome string) {
	if m == nil {
		return
	}
	m.authDecisions.WithLabelValues(outcome).Inc()
}

// PersistError 记录一次写盘或删除失败。
func (m *Metrics) PersistError(op string) {
	if m == nil {
		return
	}
	m.persistErrors.WithLabelValues(op).Inc()
}

// SetRecords 更新内存索引中的记录数量。
func (m *Metrics) SetRecords(n int) {
	if m == nil {
		return
	}
	m.recordsInMemory.Set(float64(n))
}
