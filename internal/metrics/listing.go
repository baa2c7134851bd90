package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	listingsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jobboard",
			Subsystem: "listing",
			Name:      "expired_total",
			Help:      "过期清理任务标记为 inactive 的职位总数。",
		},
	)

	moderationTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobboard",
			Subsystem: "listing",
			Name:      "transitions_total",
			Help:      "审核状态流转次数。",
		},
		[]string{"entity", "status"},
	)

	notificationsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobboard",
			Subsystem: "notify",
			Name:      "failures_total",
			Help:      "审核通过通知发送失败次数。",
		},
		[]string{"kind"},
	)
)

// ObserveExpired 累加一次清理中过期的职位数量。
func ObserveExpired(n int64) {
	if n > 0 {
		listingsExpiredTotal.Add(float64(n))
	}
}

// ObserveTransition 记录一次审核状态变更。
func ObserveTransition(entity, status string) {
	moderationTransitionsTotal.WithLabelValues(entity, status).Inc()
}

// ObserveNotifyFailure 记录一次通知失败。
func ObserveNotifyFailure(kind string) {
	notificationsFailedTotal.WithLabelValues(kind).Inc()
}
