package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetricsMiddlewareCountsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HTTPMetricsMiddleware())
	r.GET("/chat/:event_id/messages/", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/chat/:event_id/messages/", "200"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/4/messages/", nil))

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/chat/:event_id/messages/", "200"))
	assert.Equal(t, before+1, after)
}

func TestWidgetCounters(t *testing.T) {
	before := testutil.ToFloat64(widgetPollsTotal.WithLabelValues(PollStale))
	IncWidgetPoll(PollStale)
	assert.Equal(t, before+1, testutil.ToFloat64(widgetPollsTotal.WithLabelValues(PollStale)))

	SetWidgetRendered(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(widgetRenderedMessages))
}

func TestBuildHeaders(t *testing.T) {
	assert.Empty(t, BuildHeaders("", ""))
	assert.Equal(t, map[string]string{"x-request-id": "r1", "trace_id": "t1"}, BuildHeaders("r1", "t1"))
}
