package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPrometheusCountersExposed(t *testing.T) {
	p := NewPrometheus()
	p.Metrics.TicksReceived.Inc()
	p.Metrics.TicksReceived.Inc()
	p.Metrics.TradesRejected.Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "px_oracle_ticks_received_total 2") {
		t.Fatalf("ticks counter missing from exposition:\n%s", body)
	}
	if !strings.Contains(body, "px_oracle_trades_rejected_total 1") {
		t.Fatalf("rejects counter missing from exposition:\n%s", body)
	}
}

func TestNoopMetricsDoNotPanic(t *testing.T) {
	m := NewNoop()
	m.TicksReceived.Inc()
	m.FetchFailures.Inc()
	m.RefreshCycles.Inc()
	m.Evaluations.Inc()
	m.TradesApproved.Inc()
	m.TradesRejected.Inc()
	m.PublishDrops.Inc()
	m.HistoryDrops.Inc()
}
