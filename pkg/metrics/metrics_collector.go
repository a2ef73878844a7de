package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector HTTP 与业务指标
type MetricsCollector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	voucherRedemptions *prometheus.CounterVec
	ordersCreated      *prometheus.CounterVec
	paymentCallbacks   *prometheus.CounterVec
	costLookupDuration prometheus.Histogram
	taskResults        *prometheus.CounterVec
	cacheResults       *prometheus.CounterVec
}

// NewMetricsCollector 在给定 Registerer 上注册指标
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	f := promauto.With(reg)
	return &MetricsCollector{
		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),

		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		httpResponseSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		}, []string{"method", "route"}),

		voucherRedemptions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voucher_redemptions_total",
			Help: "Voucher redemption attempts by result",
		}, []string{"result"}),

		ordersCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created by payment method",
		}, []string{"payment_method"}),

		paymentCallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Payment gateway callbacks by channel and result",
		}, []string{"channel", "result"}),

		costLookupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "stats_cost_lookup_duration_seconds",
			Help:    "Fan-out product cost lookup latency for profit reports",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),

		taskResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "async_task_results_total",
			Help: "Async task executions by task name and result",
		}, []string{"task", "result"}),

		cacheResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Cache operations by op and result",
		}, []string{"op", "result"}),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *MetricsCollector) RecordHTTPRequest(method, route string, status int, duration time.Duration, responseSize int) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	if responseSize > 0 {
		m.httpResponseSize.WithLabelValues(method, route).Observe(float64(responseSize))
	}
}

// RecordVoucherRedemption result: success / rejected / error
func (m *MetricsCollector) RecordVoucherRedemption(result string) {
	m.voucherRedemptions.WithLabelValues(result).Inc()
}

func (m *MetricsCollector) RecordOrderCreated(paymentMethod string) {
	if paymentMethod == "" {
		paymentMethod = "unknown"
	}
	m.ordersCreated.WithLabelValues(paymentMethod).Inc()
}

func (m *MetricsCollector) RecordPaymentCallback(channel, result string) {
	m.paymentCallbacks.WithLabelValues(channel, result).Inc()
}

func (m *MetricsCollector) ObserveCostLookup(d time.Duration) {
	m.costLookupDuration.Observe(d.Seconds())
}

func (m *MetricsCollector) RecordTask(task string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.taskResults.WithLabelValues(task, result).Inc()
}

// RecordCacheResult op: get / set / delete / invalidate
func (m *MetricsCollector) RecordCacheResult(op, result string) {
	m.cacheResults.WithLabelValues(op, result).Inc()
}

// 全局指标收集器实例
var globalCollector *MetricsCollector

// InitMetrics 在默认 Registerer 上初始化
func InitMetrics() *MetricsCollector {
	globalCollector = NewMetricsCollector(prometheus.DefaultRegisterer)
	return globalCollector
}

// Global 未初始化时返回注册到私有 registry 的实例，便于测试
func Global() *MetricsCollector {
	if globalCollector == nil {
		globalCollector = NewMetricsCollector(prometheus.NewRegistry())
	}
	return globalCollector
}
