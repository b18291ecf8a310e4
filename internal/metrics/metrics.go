package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts pipeline events. Components depend on this interface so
// tests and metric-less deployments can plug in Nop.
type Recorder interface {
	RecordIngested()
	RecordDuplicate(reason string)
	RecordPublished()
	RecordPublishFailure()
	RecordConsumed()
	RecordNotificationSent(kind string)
	RecordNotificationFailure()
}

// Nop discards all recordings.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) RecordIngested()               {}
func (Nop) RecordDuplicate(string)        {}
func (Nop) RecordPublished()              {}
func (Nop) RecordPublishFailure()         {}
func (Nop) RecordConsumed()               {}
func (Nop) RecordNotificationSent(string) {}
func (Nop) RecordNotificationFailure()    {}

// Prometheus exposes pipeline counters on a registry.
type Prometheus struct {
	ingested             prometheus.Counter
	duplicates           *prometheus.CounterVec
	published            prometheus.Counter
	publishFailures      prometheus.Counter
	consumed             prometheus.Counter
	notificationsSent    *prometheus.CounterVec
	notificationFailures prometheus.Counter
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus builds and registers the pipeline counters.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	m := &Prometheus{
		ingested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newstracker_articles_ingested_total",
			Help: "Articles stored after passing deduplication.",
		}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newstracker_articles_duplicate_total",
			Help: "Articles rejected by deduplication, by reason.",
		}, []string{"reason"}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newstracker_events_published_total",
			Help: "Enriched item events published to the bus.",
		}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newstracker_events_publish_failures_total",
			Help: "Event publish attempts that failed.",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newstracker_events_consumed_total",
			Help: "Events received from the bus.",
		}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newstracker_notifications_sent_total",
			Help: "Notifications delivered, by decision kind.",
		}, []string{"kind"}),
		notificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newstracker_notification_failures_total",
			Help: "Notification deliveries that failed or timed out.",
		}),
	}
	reg.MustRegister(m.ingested, m.duplicates, m.published, m.publishFailures,
		m.consumed, m.notificationsSent, m.notificationFailures)
	return m
}

func (m *Prometheus) RecordIngested() { m.ingested.Inc() }

func (m *Prometheus) RecordDuplicate(reason string) {
	m.duplicates.WithLabelValues(reason).Inc()
}
func (m *Prometheus) RecordPublished() { m.published.Inc() }

func (m *Prometheus) RecordPublishFailure() { m.publishFailures.Inc() }

func (m *Prometheus) RecordConsumed() { m.consumed.Inc() }

func (m *Prometheus) RecordNotificationSent(kind string) {
	m.notificationsSent.WithLabelValues(kind).Inc()
}
func (m *Prometheus) RecordNotificationFailure() { m.notificationFailures.Inc() }

// Handler serves the registry over HTTP for scraping.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
