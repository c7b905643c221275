package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProofTransitions 证明状态流转计数
	ProofTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mss_proof_transitions_total",
			Help: "Total number of proof state transitions",
		},
		[]string{"transition"},
	)

	// ReleasesAuthorized 已授权释放计数
	ReleasesAuthorized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mss_releases_authorized_total",
			Help: "Total number of authorized fund releases",
		},
	)

	// ReleasesSettled 已结算释放计数
	ReleasesSettled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mss_releases_settled_total",
			Help: "Total number of settled fund releases",
		},
	)

	// SettlementFailures 结算失败计数
	SettlementFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mss_settlement_failures_total",
			Help: "Total number of failed settlement attempts",
		},
	)

	// AdminOverrides 管理端覆盖操作计数
	AdminOverrides = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mss_admin_overrides_total",
			Help: "Total number of administrative override operations",
		},
		[]string{"operation"},
	)

	// NotificationsSent 通知发送计数
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mss_notifications_sent_total",
			Help: "Total number of notifications dispatched",
		},
		[]string{"event"},
	)
)
