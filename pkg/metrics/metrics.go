package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 同步拉取的新邮件计数
	EmailsSynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onebox_emails_synced_total",
			Help: "Total number of new emails persisted by sync workers",
		},
		[]string{"account"},
	)

	// 同步周期耗时（秒）
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onebox_sync_duration_seconds",
			Help:    "Duration of one account sync cycle in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"status"},
	)

	// 分类器调用延迟（毫秒）
	ClassifierCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onebox_classifier_call_latency_ms",
			Help:    "Classifier provider call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"endpoint", "status"},
	)

	// 分类结果计数
	EmailsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onebox_emails_classified_total",
			Help: "Total number of classification outcomes",
		},
		[]string{"category", "status"}, // status: success, failed, unclassifiable
	)

	// 通知投递计数
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onebox_notifications_total",
			Help: "Total number of notification delivery attempts per sink",
		},
		[]string{"sink", "status"}, // status: success, failed
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onebox_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

// RecordSync 记录一次同步周期
func RecordSync(status string, duration time.Duration) {
	SyncDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordClassifierCall 记录一次分类器调用
func RecordClassifierCall(endpoint, status string, duration time.Duration) {
	ClassifierCallLatency.WithLabelValues(endpoint, status).Observe(float64(duration.Milliseconds()))
}

// RecordHTTPRequest 记录一次 HTTP 请求
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
