package notifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dueChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "todo_due_checks_total",
		Help: "Due task evaluations run by a notification checker.",
	}, []string{"source"})

	notificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "todo_notifications_sent_total",
		Help: "Native notifications shown for due tasks.",
	}, []string{"source"})

	notificationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "todo_notification_errors_total",
		Help: "Native notifications that failed to show.",
	}, []string{"source"})
)

// Observe records one check and its outcome for source.
func Observe(source string, sent, failed int) {
	dueChecks.WithLabelValues(source).Inc()
	notificationsSent.WithLabelValues(source).Add(float64(sent))
	notificationErrors.WithLabelValues(source).Add(float64(failed))
}
