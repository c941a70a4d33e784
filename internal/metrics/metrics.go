package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labeled by method, route template, and status.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupbuy_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "groupbuy_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// Group lifecycle metrics.
var (
	GroupsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groupbuy_groups_created_total",
			Help: "Total number of groups created",
		},
	)

	GroupsCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groupbuy_groups_completed_total",
			Help: "Total number of groups completed",
		},
	)

	GroupsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groupbuy_groups_expired_total",
			Help: "Total number of groups expired",
		},
	)

	GroupsCancelledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groupbuy_groups_cancelled_total",
			Help: "Total number of groups cancelled",
		},
	)

	GroupJoinsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groupbuy_group_joins_total",
			Help: "Total number of successful group joins",
		},
	)

	RewardsGrantedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groupbuy_rewards_granted_total",
			Help: "Total number of leader rewards granted",
		},
	)
)
