package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/roster"
)

func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metric
				}
			}
			if c := metric.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				return g.GetValue()
			}
		}
	}
	return 0
}

func TestObserveStore(t *testing.T) {
	m := New()
	m.ObserveStore(http.MethodGet, "students", 200, 10*time.Millisecond)
	m.ObserveStore(http.MethodGet, "students", 200, 10*time.Millisecond)
	m.ObserveStore(http.MethodPut, "attendance", 0, time.Millisecond)

	if got := counterValue(t, m, "rollbook_store_requests_total", map[string]string{"method": "GET", "collection": "students", "code": "200"}); got != 2 {
		t.Fatalf("expected 2 GETs, got %v", got)
	}
	if got := counterValue(t, m, "rollbook_store_requests_total", map[string]string{"method": "PUT", "code": "error"}); got != 1 {
		t.Fatalf("expected 1 failed PUT, got %v", got)
	}
}

func TestObserveRoster(t *testing.T) {
	m := New()
	m.ObserveRoster(
		roster.Action{Type: roster.ActionFetchAll, Phase: roster.PhaseFulfilled},
		roster.State{Students: []model.Student{{ID: "a"}, {ID: "b"}}},
	)

	if got := counterValue(t, m, "rollbook_roster_transitions_total", map[string]string{"action": "students/fetchAll", "phase": "fulfilled"}); got != 1 {
		t.Fatalf("expected 1 transition, got %v", got)
	}
	if got := counterValue(t, m, "rollbook_roster_students", nil); got != 2 {
		t.Fatalf("expected gauge 2, got %v", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/abc", nil))

	if got := counterValue(t, m, "rollbook_http_requests_total", map[string]string{"route": "/students/:id", "code": "204"}); got != 1 {
		t.Fatalf("expected request counted by route pattern, got %v", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "rollbook_http_requests_total") {
		t.Fatal("exposition is missing service metrics")
	}
}
