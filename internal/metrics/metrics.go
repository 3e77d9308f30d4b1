// Package metrics holds the Prometheus collectors for notification creation
// and channel delivery.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Notification outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeSkipped   = "skipped"
)

// Send statuses.
const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

var (
	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tracehub",
			Name:      "notifications_total",
			Help:      "Notification records by type and creation outcome.",
		},
		[]string{"type", "outcome"},
	)

	channelSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tracehub",
			Name:      "notification_channel_sends_total",
			Help:      "Channel delivery attempts by channel and status.",
		},
		[]string{"channel", "status"},
	)

	channelSendDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "tracehub",
			Name:       "notification_channel_send_duration_seconds",
			Help:       "Time spent handing a notification to a channel sink.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			MaxAge:     5 * time.Minute,
		},
		[]string{"channel", "status"},
	)

	registerOnce sync.Once
)

// MustRegister registers the collectors with reg. Later calls are no-ops.
func MustRegister(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(notifications, channelSends, channelSendDuration)
	})
}

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// NotificationOutcome counts one Notify call for variant type.
func NotificationOutcome(notificationType, outcome string) {
	notifications.WithLabelValues(notificationType, outcome).Inc()
}

// ChannelSend records a delivery attempt started at start.
func ChannelSend(channel, status string, start time.Time) {
	channelSends.WithLabelValues(channel, status).Inc()
	if status != StatusSkipped {
		channelSendDuration.WithLabelValues(channel, status).Observe(time.Since(start).Seconds())
	}
}

// StatusOf maps a send error to a status label.
func StatusOf(err error) string {
	if err != nil {
		return StatusFailed
	}
	return StatusSent
}
