package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsUpdates(t *testing.T) {
	m := New()

	m.IncEvents("block.forged")
	m.ObserveNotification("block.forged", "slack", ResultSent)
	m.ObserveNotification("block.forged", "push", ResultSkipped)
	m.IncSuppressed("wallet.unvote", "vote_switch")
	m.ObserveDispatchDuration(250 * time.Millisecond)
	m.SetActiveDelegates(51)
	m.IncDelegateChanges()

	if got := testutil.ToFloat64(m.eventsTotal.WithLabelValues("block.forged")); got != 1 {
		t.Fatalf("expected events 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.notificationsTotal.WithLabelValues("block.forged", "slack", ResultSent)); got != 1 {
		t.Fatalf("expected sent notifications 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.notificationsTotal.WithLabelValues("block.forged", "push", ResultSkipped)); got != 1 {
		t.Fatalf("expected skipped notifications 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.suppressedTotal.WithLabelValues("wallet.unvote", "vote_switch")); got != 1 {
		t.Fatalf("expected suppressed 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.activeDelegates); got != 51 {
		t.Fatalf("expected active delegates 51, got %v", got)
	}
	if got := testutil.ToFloat64(m.delegateChangesTotal); got != 1 {
		t.Fatalf("expected delegate changes 1, got %v", got)
	}
	if count := testutil.CollectAndCount(m.dispatchDurationSeconds); count == 0 {
		t.Fatalf("expected dispatch duration histogram to be collected")
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics

	m.IncEvents("block.forged")
	m.ObserveNotification("block.forged", "slack", ResultFailed)
	m.IncSuppressed("block.forged", "no_targets")
	m.ObserveDispatchDuration(time.Second)
	m.SetActiveDelegates(1)
	m.IncDelegateChanges()

	if m.Handler() == nil {
		t.Fatalf("expected default handler for nil metrics")
	}
}

func TestMetricsHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.IncEvents("forger.missing")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `delegate_sentinel_events_total{event="forger.missing"} 1`) {
		t.Fatalf("expected events counter in exposition, got:\n%s", body)
	}
}
