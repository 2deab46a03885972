package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/starskyline/bareerah/internal/extcall"
)

// ConversationMetrics exposes counters/histograms for booking conversations.
type ConversationMetrics struct {
	turnsTotal         *prometheus.CounterVec
	escalationsTotal   *prometheus.CounterVec
	fareQuotesTotal    *prometheus.CounterVec
	bookingsTotal      *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	inboundTotal       *prometheus.CounterVec
	externalLatency    *prometheus.HistogramVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bareerah",
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Conversation turns processed, by flow step and action",
		}, []string{"step", "action"}),
		escalationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bareerah",
			Subsystem: "dialogue",
			Name:      "slot_escalations_total",
			Help:      "Slots force-accepted or abandoned after repeated failures",
		}, []string{"slot"}),
		fareQuotesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bareerah",
			Subsystem: "fleet",
			Name:      "fare_quotes_total",
			Help:      "Fare quotes by source (remote or local)",
		}, []string{"source"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bareerah",
			Subsystem: "booking",
			Name:      "finalized_total",
			Help:      "Finalized bookings by status",
		}, []string{"status"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bareerah",
			Subsystem: "notify",
			Name:      "sent_total",
			Help:      "Operations notifications by kind and outcome",
		}, []string{"kind", "outcome"}),
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bareerah",
			Subsystem: "channels",
			Name:      "inbound_total",
			Help:      "Inbound webhook and socket events by channel",
		}, []string{"channel", "status"}),
		externalLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bareerah",
			Subsystem: "extcall",
			Name:      "latency_seconds",
			Help:      "Latency of external dependency calls",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8},
		}, []string{"dependency", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.escalationsTotal, m.fareQuotesTotal, m.bookingsTotal,
		m.notificationsTotal, m.inboundTotal, m.externalLatency)
	return m
}

func (m *ConversationMetrics) ObserveTurn(step, action string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(step, action).Inc()
}

func (m *ConversationMetrics) ObserveEscalation(slot string) {
	if m == nil {
		return
	}
	m.escalationsTotal.WithLabelValues(slot).Inc()
}

func (m *ConversationMetrics) ObserveFareQuote(source string) {
	if m == nil {
		return
	}
	m.fareQuotesTotal.WithLabelValues(source).Inc()
}

func (m *ConversationMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *ConversationMetrics) ObserveNotification(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.notificationsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *ConversationMetrics) ObserveInbound(channel, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(channel, status).Inc()
}

// ObserveExternalCall records how long a dependency call took and how it ended.
func (m *ConversationMetrics) ObserveExternalCall(dependency string, err error, start time.Time) {
	if m == nil {
		return
	}
	m.externalLatency.WithLabelValues(dependency, extcall.KindOf(err).String()).Observe(time.Since(start).Seconds())
}
