package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"operation"},
	)

	// 认证结果计数
	AuthAttemptCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempt_total",
			Help: "Total number of register/login attempts by result",
		},
		[]string{"action", "result"}, // action: register, login
	)

	// 项目/任务变更计数
	DomainMutationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_mutation_total",
			Help: "Total number of committed project and task mutations",
		},
		[]string{"entity", "operation"}, // entity: project, task
	)

	// Outbox 发布计数
	OutboxPublishCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_publish_total",
			Help: "Total number of outbox events published to MQ by status",
		},
		[]string{"routing_key", "status"}, // status: sent, failed
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncrementSlowQuery 增加慢查询计数
func IncrementSlowQuery(operation string) {
	SlowQueryCount.WithLabelValues(operation).Inc()
}

// IncrementAuthAttempt 增加认证计数
func IncrementAuthAttempt(action, result string) {
	AuthAttemptCount.WithLabelValues(action, result).Inc()
}

// IncrementDomainMutation 增加业务变更计数
func IncrementDomainMutation(entity, operation string) {
	DomainMutationCount.WithLabelValues(entity, operation).Inc()
}

// IncrementOutboxPublish 增加 outbox 发布计数
func IncrementOutboxPublish(routingKey, status string) {
	OutboxPublishCount.WithLabelValues(routingKey, status).Inc()
}
