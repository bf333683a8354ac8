package metrics

import (
	"net/http"
	"strconv"

	"github.com/smanilla/mindtrack/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mindtrack"

// Collector pipeline counters on a private registry. A nil *Collector is a no-op.
type Collector struct {
	registry *prometheus.Registry

	Assessments   *prometheus.CounterVec
	SummaryTiers  *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Submitted assessments by crisis flag",
		}, []string{"crisis"}),
		SummaryTiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_tier_total",
			Help:      "Summaries produced per tier",
		}, []string{"tier"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Red-alert notification outcomes by channel; outcome is \"sent\" or a reason code",
		}, []string{"channel", "outcome"}),
	}
	reg.MustRegister(c.Assessments, c.SummaryTiers, c.Notifications)
	return c
}

func (c *Collector) ObserveAssessment(crisis bool) {
	if c == nil {
		return
	}
	c.Assessments.WithLabelValues(strconv.FormatBool(crisis)).Inc()
}

func (c *Collector) ObserveSummaryTier(tier string) {
	if c == nil {
		return
	}
	c.SummaryTiers.WithLabelValues(tier).Inc()
}

func (c *Collector) ObserveEmail(res models.EmailResult) {
	if c == nil {
		return
	}
	c.Notifications.WithLabelValues("email", outcome(res.Sent, res.Reason)).Inc()
}

func (c *Collector) ObserveCall(res models.CallResult) {
	if c == nil {
		return
	}
	c.Notifications.WithLabelValues("voice", outcome(res.Sent, res.Reason)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func outcome(sent bool, reason string) string {
	if sent {
		return "sent"
	}
	if reason == "" {
		return "unknown"
	}
	return reason
}
