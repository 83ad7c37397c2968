package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordOperation(t *testing.T) {
	c := New()

	c.RecordOperation("create", nil, time.Millisecond)
	c.RecordOperation("create", nil, time.Millisecond)
	c.RecordOperation("create", errors.New("boom"), time.Millisecond)

	if got := testutil.ToFloat64(c.Operations.WithLabelValues("create", StatusOK)); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.Operations.WithLabelValues("create", StatusError)); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestGaugesAndCounters(t *testing.T) {
	c := New()

	c.SetSubscriptions(7)
	c.RecordEvent("created", nil)
	c.RecordCacheLookup(true)
	c.RecordCacheLookup(false)
	c.RecordCacheLookup(false)
	c.RecordRateLimited()

	if got := testutil.ToFloat64(c.Subscriptions); got != 7 {
		t.Errorf("subscriptions = %v, want 7", got)
	}
	if got := testutil.ToFloat64(c.EventsPublished.WithLabelValues("created", StatusOK)); got != 1 {
		t.Errorf("events = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.CacheLookups.WithLabelValues("miss")); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.RateLimited); got != 1 {
		t.Errorf("rate limited = %v, want 1", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.RecordOperation("delete", nil, time.Second)
	c.SetSubscriptions(1)
	c.RecordEvent("deleted", nil)
	c.RecordCacheLookup(true)
	c.RecordHTTPRequest("GET", "/", 200, time.Second)
	c.RecordRateLimited()
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.RecordHTTPRequest("GET", "GET /api/subscriptions", 200, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `subtrack_http_requests_total{method="GET",path="GET /api/subscriptions",status_code="200"} 1`) {
		t.Errorf("metrics output missing request counter:\n%s", body)
	}
}
