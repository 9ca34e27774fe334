package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"landlord_reviews/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so vectors have children
	observability.ObserveHTTP("/api/reviews", "GET", 200, 12*time.Millisecond)
	observability.ObserveStore("memory", "find", nil, time.Millisecond)
	observability.ObserveStore("memory", "save", errors.New("boom"), time.Millisecond)
	observability.ObserveCache("redis", "miss")
	observability.ReviewsSubmitted.Inc()

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"landlord_http_requests_total",
		`landlord_store_requests_total{driver="memory",op="save",outcome="error"}`,
		"landlord_cache_events_total",
		"landlord_reviews_submitted_total",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output", want)
		}
	}
}

func TestOutcome(t *testing.T) {
	if observability.Outcome(nil) != "ok" || observability.Outcome(errors.New("x")) != "error" {
		t.Fatalf("unexpected outcome labels")
	}
}
