package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

func scrape(t *testing.T, m *HTTPServerMetrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rr.Code)
	}
	return rr.Body.String()
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/api/claims":                   "/api/claims",
		"/api/claims/export":            "/api/claims/export",
		"/api/claims/abc-123":           "/api/claims/{id}",
		"/api/claims/abc-123/pdf":       "/api/claims/{id}/pdf",
		"/api/claims/abc-123/history":   "/api/claims/{id}/history",
		"/storage/claim-photos/a/b.pdf": "/storage/{object}",
		"/healthz":                      "/healthz",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMiddlewareCountsByNormalizedPath(t *testing.T) {
	m := NewHTTPServerMetrics("visiocar-api")
	handler := m.Middleware("visiocar-api", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/claims/c-1/pdf", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/claims/c-2/pdf", nil))

	want := `visiocar_http_requests_total{method="POST",path="/api/claims/{id}/pdf",service="visiocar-api",status="404"} 2`
	if body := scrape(t, m); !strings.Contains(body, want) {
		t.Fatalf("expected %q in metrics output:\n%s", want, body)
	}
}

func TestReportMetricsObserveReport(t *testing.T) {
	m := NewHTTPServerMetrics("visiocar-api")
	rm := NewReportMetrics(m.Registerer(), "visiocar-api")

	rm.ObserveReport("chromium", 2*time.Second, 120_000, nil)
	rm.ObserveReport("chromium", time.Second, 0, domain.WrapError(domain.ErrPDFGeneration, "print", errors.New("crash")))
	rm.ObserveReport("remote", time.Second, 0, domain.WrapError(domain.ErrClaimNotFound, "get", errors.New("x")))

	body := scrape(t, m)
	for _, want := range []string{
		`visiocar_report_generation_total{service="visiocar-api",status="success",strategy="chromium"} 1`,
		`visiocar_report_generation_total{service="visiocar-api",status="pdf_error",strategy="chromium"} 1`,
		`visiocar_report_generation_total{service="visiocar-api",status="not_found",strategy="remote"} 1`,
		`visiocar_report_pdf_size_bytes_count{service="visiocar-api",strategy="chromium"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}
