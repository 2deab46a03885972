package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starskyline/bareerah/internal/extcall"
)

func TestConversationMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConversationMetrics(reg)

	m.ObserveTurn("pickup", "continue")
	m.ObserveTurn("pickup", "continue")
	m.ObserveEscalation("dropoff")
	m.ObserveFareQuote("local")
	m.ObserveBooking("pending")
	m.ObserveNotification("lead_dropped", errors.New("smtp down"))
	m.ObserveInbound("voice", "ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.turnsTotal.WithLabelValues("pickup", "continue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.escalationsTotal.WithLabelValues("dropoff")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fareQuotesTotal.WithLabelValues("local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues("pending")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsTotal.WithLabelValues("lead_dropped", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inboundTotal.WithLabelValues("voice", "ok")))
}

func TestObserveExternalCallLabelsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConversationMetrics(reg)

	m.ObserveExternalCall("google_maps", extcall.Timeout("google_maps", errors.New("slow")), time.Now().Add(-time.Second))

	families, err := reg.Gather()
	require.NoError(t, err)
	var found *dto.Metric
	for _, mf := range families {
		if mf.GetName() != "bareerah_extcall_latency_seconds" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			found = metric
		}
	}
	require.NotNil(t, found)
	labels := map[string]string{}
	for _, lp := range found.GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	assert.Equal(t, "google_maps", labels["dependency"])
	assert.Equal(t, "timeout", labels["outcome"])
	assert.Equal(t, uint64(1), found.GetHistogram().GetSampleCount())
}

func TestConversationMetricsNilSafe(t *testing.T) {
	var m *ConversationMetrics
	m.ObserveTurn("confirm", "finalize")
	m.ObserveEscalation("pickup")
	m.ObserveFareQuote("remote")
	m.ObserveBooking("confirmed")
	m.ObserveNotification("booking_confirmed", nil)
	m.ObserveInbound("whatsapp", "queued")
	m.ObserveExternalCall("openai", nil, time.Now())
}
