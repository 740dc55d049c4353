package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はAPIサーバーのPrometheusメトリクスです。
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	aiCalls  *prometheus.CounterVec
}

// MustNewMetrics はメトリクスを登録して返します。登録に失敗した場合はpanicします。
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shuukan",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shuukan",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		aiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shuukan",
			Subsystem: "ai",
			Name:      "calls_total",
			Help:      "Generative model calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
	}
	reg.MustRegister(m.requests, m.duration, m.aiCalls)
	return m
}

// ObserveRequest はHTTPリクエスト1件を記録します。
func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveAICall はAI呼び出しの結果を記録します。
func (m *Metrics) ObserveAICall(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.aiCalls.WithLabelValues(endpoint, outcome).Inc()
}
