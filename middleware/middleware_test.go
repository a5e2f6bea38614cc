package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness-step-by-step/client-form/monitoring"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestPrometheusMetricsUsesRouteTemplate(t *testing.T) {
	r := gin.New()
	r.Use(PrometheusMetrics())
	r.GET("/clients/:id/edit", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/clients/42/edit", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(monitoring.RequestsTotal.WithLabelValues("GET", "/clients/:id/edit", "200")))
}

func TestErrorHandlerLogsAttachedErrors(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(ErrorHandler(logger))
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("upstream failed"))
		c.Status(http.StatusBadGateway)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "request failed", hook.LastEntry().Message)
	assert.Equal(t, http.StatusBadGateway, hook.LastEntry().Data["status"])
}

func TestSafeHeadersFiltersCredentials(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer x")
	h.Set("Cookie", "client_form_session=abc")
	h.Set("Accept", "text/html")

	safe := safeHeaders(h)
	assert.Equal(t, "[FILTERED]", safe["Authorization"])
	assert.Equal(t, "[FILTERED]", safe["Cookie"])
	assert.Equal(t, []string{"text/html"}, safe["Accept"])
}
