package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubchat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clubchat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	MessagesPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubchat_messages_posted_total",
			Help: "Total room messages posted",
		},
		[]string{"room_kind"}, // "open" or "restricted"
	)

	DMsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clubchat_dms_sent_total",
			Help: "Total direct messages sent",
		},
	)

	UnreadPolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clubchat_unread_polls_total",
			Help: "Total unread-count polls",
		},
	)

	AccessDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubchat_access_denials_total",
			Help: "Total restricted-room access denials",
		},
		[]string{"room"},
	)
)
