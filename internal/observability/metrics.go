package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_chat_http_requests_total",
			Help: "Total number of HTTP requests processed by the event chat server.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_chat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	chatActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_chat_actions_total",
			Help: "Chat mutations by action and outcome.",
		},
		[]string{"action", "outcome"},
	)
	widgetPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_chat_widget_polls_total",
			Help: "Message list fetches issued by the chat widget, by outcome.",
		},
		[]string{"outcome"},
	)
	widgetRenderedMessages = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_chat_widget_rendered_messages",
			Help: "Number of messages in the widget's latest render.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "event_chat_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

// Widget poll outcomes.
const (
	PollApplied = "applied"
	PollStale   = "stale"
	PollFailed  = "failed"
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		chatActionsTotal,
		widgetPollsTotal,
		widgetRenderedMessages,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// IncChatAction counts a send/delete/highlight attempt and its outcome.
func IncChatAction(action, outcome string) {
	chatActionsTotal.WithLabelValues(action, outcome).Inc()
}

// IncWidgetPoll counts a widget fetch by outcome.
func IncWidgetPoll(outcome string) {
	widgetPollsTotal.WithLabelValues(outcome).Inc()
}

// SetWidgetRendered records the size of the latest applied render.
func SetWidgetRendered(n int) {
	widgetRenderedMessages.Set(float64(n))
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
