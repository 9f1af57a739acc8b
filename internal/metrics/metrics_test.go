package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSnapshot(t *testing.T) {
	before := testutil.ToFloat64(snapshotsTotal.WithLabelValues("Moon"))
	ObserveSnapshot("Moon", 0.002)
	after := testutil.ToFloat64(snapshotsTotal.WithLabelValues("Moon"))
	if after-before != 1 {
		t.Errorf("snapshots_total{body=Moon} grew by %v, want 1", after-before)
	}
}

func TestIncComputationError(t *testing.T) {
	c := computationErrorsTotal.WithLabelValues("Sun", "distance_from_earth")
	before := testutil.ToFloat64(c)
	IncComputationError("Sun", "distance_from_earth")
	IncComputationError("Sun", "distance_from_earth")
	if got := testutil.ToFloat64(c) - before; got != 2 {
		t.Errorf("computation_errors_total grew by %v, want 2", got)
	}
}

func TestObserveCrossing(t *testing.T) {
	found := crossingsTotal.WithLabelValues("Sun", "rise", OutcomeFound)
	none := crossingsTotal.WithLabelValues("Sun", "set", OutcomeNoneFound)
	f0, n0 := testutil.ToFloat64(found), testutil.ToFloat64(none)

	ObserveCrossing("Sun", "rise", OutcomeFound, 10)
	ObserveCrossing("Sun", "set", OutcomeNoneFound, 0)

	if got := testutil.ToFloat64(found) - f0; got != 1 {
		t.Errorf("found outcomes grew by %v, want 1", got)
	}
	if got := testutil.ToFloat64(none) - n0; got != 1 {
		t.Errorf("none outcomes grew by %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	ObserveSnapshot("Earth", 0.001)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "celestial_snapshots_total") {
		t.Error("metrics output missing celestial_snapshots_total")
	}
}
