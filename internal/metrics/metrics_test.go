package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", 200, time.Millisecond)
	m.AuthDecision("bound")
	m.PersistError("write")
	m.SetRecords(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/-/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("nil metrics should not expose an exposition, got %d", rec.Code)
	}
}

func TestHandlerExposesRecordedSeries(t *testing.T) {
	m := New()
	m.ObserveRequest("POST", 401, 5*time.Millisecond)
	m.AuthDecision("denied")
	m.SetRecords(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/-/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		`participant_hub_http_requests_total{method="POST",status="401"} 1`,
		`participant_hub_auth_decisions_total{outcome="denied"} 1`,
		`participant_hub_records 2`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in exposition:\n%s", want, text)
		}
	}
}
