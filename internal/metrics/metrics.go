package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gym_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SubscriptionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_subscriptions_created_total",
			Help: "Total number of subscriptions created",
		},
		[]string{"plan"},
	)

	SubscriptionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_subscription_transitions_total",
			Help: "Total number of subscription state transitions",
		},
		[]string{"to"},
	)

	CheckInsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_check_ins_total",
			Help: "Total number of attendance check-ins",
		},
		[]string{"result"},
	)

	GuestVisitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gym_guest_visits_total",
			Help: "Total number of recorded guest visits",
		},
	)

	PointsGrantedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_points_granted_total",
			Help: "Total reward points granted",
		},
		[]string{"reason"},
	)

	PointsRedeemedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gym_points_redeemed_total",
			Help: "Total reward points redeemed",
		},
	)

	SweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_sweep_runs_total",
			Help: "Total number of sweep job runs",
		},
		[]string{"job", "status"},
	)

	SweepProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_sweep_items_processed_total",
			Help: "Total number of rows reconciled by sweep jobs",
		},
		[]string{"job"},
	)

	NotificationsQueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_notifications_queued_total",
			Help: "Total number of notifications queued",
		},
		[]string{"kind", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSubscriptionCreated(plan string) {
	SubscriptionsCreatedTotal.WithLabelValues(plan).Inc()
}

func RecordSubscriptionTransition(to string) {
	SubscriptionTransitionsTotal.WithLabelValues(to).Inc()
}

func RecordCheckIn(result string) {
	CheckInsTotal.WithLabelValues(result).Inc()
}

func RecordGuestVisit() {
	GuestVisitsTotal.Inc()
}

func RecordPointsGranted(reason string, points int64) {
	PointsGrantedTotal.WithLabelValues(reason).Add(float64(points))
}

func RecordPointsRedeemed(points int64) {
	PointsRedeemedTotal.Add(float64(points))
}

func RecordSweepRun(job, status string) {
	SweepRunsTotal.WithLabelValues(job, status).Inc()
}

func RecordSweepProcessed(job string, n int) {
	SweepProcessedTotal.WithLabelValues(job).Add(float64(n))
}

func RecordNotification(kind, status string) {
	NotificationsQueuedTotal.WithLabelValues(kind, status).Inc()
}
