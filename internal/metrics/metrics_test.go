package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/smanilla/mindtrack/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()

	c.ObserveAssessment(true)
	c.ObserveAssessment(false)
	c.ObserveAssessment(false)
	c.ObserveSummaryTier("fallback")
	c.ObserveEmail(models.EmailResult{Sent: true})
	c.ObserveEmail(models.EmailResult{Reason: models.ReasonNoRecipients})
	c.ObserveCall(models.CallResult{Reason: models.ReasonGeoPermissionDenied})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Assessments.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Assessments.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SummaryTiers.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Notifications.WithLabelValues("email", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Notifications.WithLabelValues("email", models.ReasonNoRecipients)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Notifications.WithLabelValues("voice", models.ReasonGeoPermissionDenied)))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.ObserveAssessment(true)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `mindtrack_assessments_total{crisis="true"} 1`)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveAssessment(true)
		c.ObserveSummaryTier("ai")
		c.ObserveEmail(models.EmailResult{})
		c.ObserveCall(models.CallResult{})
	})
}
