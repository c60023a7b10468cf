package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delivery results recorded by ObserveNotification.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// Metrics wraps Prometheus collectors for delegate-sentinel.
type Metrics struct {
	registry                *prometheus.Registry
	eventsTotal             *prometheus.CounterVec
	notificationsTotal      *prometheus.CounterVec
	suppressedTotal         *prometheus.CounterVec
	dispatchDurationSeconds prometheus.Histogram
	activeDelegates         prometheus.Gauge
	delegateChangesTotal    prometheus.Counter
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delegate_sentinel_events_total",
			Help: "Total events dispatched by event name.",
		}, []string{"event"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delegate_sentinel_notifications_total",
			Help: "Total webhook notifications by event, platform and result.",
		}, []string{"event", "platform", "result"}),
		suppressedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delegate_sentinel_suppressed_total",
			Help: "Total events that produced no notification, by reason.",
		}, []string{"event", "reason"}),
		dispatchDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "delegate_sentinel_dispatch_duration_seconds",
			Help:    "Duration of event dispatches in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		activeDelegates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "delegate_sentinel_active_delegates",
			Help: "Number of delegates in the last queried active set.",
		}),
		delegateChangesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "delegate_sentinel_delegate_changes_total",
			Help: "Total detected active delegate set changes.",
		}),
	}

	registry.MustRegister(
		m.eventsTotal,
		m.notificationsTotal,
		m.suppressedTotal,
		m.dispatchDurationSeconds,
		m.activeDelegates,
		m.delegateChangesTotal,
	)

	return m
}

// Handler returns a Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// IncEvents counts a dispatched event.
func (m *Metrics) IncEvents(event string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(event).Inc()
}

// ObserveNotification counts a delivery outcome for one target.
func (m *Metrics) ObserveNotification(event, platform, result string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(event, platform, result).Inc()
}

// IncSuppressed counts an event that produced no notification.
func (m *Metrics) IncSuppressed(event, reason string) {
	if m == nil {
		return
	}
	m.suppressedTotal.WithLabelValues(event, reason).Inc()
}

// ObserveDispatchDuration records the duration of a completed dispatch.
func (m *Metrics) ObserveDispatchDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.dispatchDurationSeconds.Observe(duration.Seconds())
}

// SetActiveDelegates sets the active delegate gauge.
func (m *Metrics) SetActiveDelegates(count int) {
	if m == nil {
		return
	}
	m.activeDelegates.Set(float64(count))
}

// IncDelegateChanges counts a detected active delegate change.
func (m *Metrics) IncDelegateChanges() {
	if m == nil {
		return
	}
	m.delegateChangesTotal.Inc()
}
