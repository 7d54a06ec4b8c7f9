package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/file-organizer/internal/core/domain"
)

func TestPipelineMetricsRecordsOutcomes(t *testing.T) {
	m := NewPipelineMetrics("organizer")

	m.ObserveEvent(domain.SourceLive, "scheduled")
	m.ObserveEvent(domain.SourceLive, "scheduled")
	m.StartFile()
	m.StartFile()
	m.FinishFile(domain.Outcome{Stage: domain.StageMoved, Duration: time.Second})

	if got := testutil.ToFloat64(m.eventsTotal.WithLabelValues("organizer", "live", "scheduled")); got != 2 {
		t.Fatalf("expected 2 events, got %v", got)
	}
	if got := testutil.ToFloat64(m.filesInFlight); got != 1 {
		t.Fatalf("expected 1 in flight, got %v", got)
	}

	m.FinishFile(domain.Outcome{
		Stage: domain.StageFailed,
		Err:   domain.NewMoveError(domain.ErrNameCollision, "a", "b", errors.New("exists")),
	})
	if got := testutil.ToFloat64(m.filesTotal.WithLabelValues("organizer", "failed", "name_collision")); got != 1 {
		t.Fatalf("expected failed counter with error kind, got %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewPipelineMetrics("organizer")
	m.ObserveEvent(domain.SourceBackfill, "scheduled")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "organizer_pipeline_events_total") {
		t.Fatalf("metrics output missing pipeline counter:\n%s", rec.Body.String())
	}
}

func TestInstrumentTransportCountsRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	m := NewPipelineMetrics("organizer")
	client := &http.Client{Transport: m.InstrumentTransport(nil)}
	resp, err := client.Post(server.URL+"/api/chat", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()

	if got := testutil.ToFloat64(m.classifier.requestTotal.WithLabelValues("503", "post")); got != 1 {
		t.Fatalf("expected one counted request, got %v", got)
	}
}
