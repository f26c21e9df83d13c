package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newMux(metricsEnabled bool) *http.ServeMux {
	mux := http.NewServeMux()
	SetupRoutes(mux, zap.NewNop(), Handlers{}, metricsEnabled)
	return mux
}

func TestRoutesWithoutHandlers(t *testing.T) {
	mux := newMux(true)

	tests := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodOptions, "/service-bills", http.StatusOK},
		{http.MethodPatch, "/service-bills", http.StatusMethodNotAllowed},
		{http.MethodGet, "/service-bills/abc", http.StatusNotFound},
		{http.MethodPost, "/service-bills/12", http.StatusMethodNotAllowed},
		{http.MethodGet, "/service-bills/fol-preview", http.StatusMethodNotAllowed},
		{http.MethodGet, "/service-bill-drafts/k1/unknown", http.StatusNotFound},
		{http.MethodPut, "/service-bill-drafts/k1", http.StatusMethodNotAllowed},
		{http.MethodGet, "/destination-entry-drafts/", http.StatusNotFound},
		{http.MethodGet, "/destination-entry-drafts", http.StatusMethodNotAllowed},
		{http.MethodPost, "/rate-slabs/0", http.StatusNotFound},
		{http.MethodGet, "/company-profile/extra", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	newMux(false).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/destination-entries", nil))
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PATCH") {
		t.Fatalf("Allow-Methods = %q, want PATCH included", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mux := newMux(true)
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `freight_http_requests_total{code="200",route="/health"}`) {
		t.Fatal("request counter for /health missing from /metrics")
	}

	rec = httptest.NewRecorder()
	newMux(false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("metrics disabled: status = %d, want 404", rec.Code)
	}
}

func TestDraftPath(t *testing.T) {
	tests := []struct {
		path, key, action string
	}{
		{"/service-bill-drafts/abc", "abc", ""},
		{"/service-bill-drafts/abc/", "abc", ""},
		{"/service-bill-drafts/abc/commit", "abc", "commit"},
		{"/service-bill-drafts/", "", ""},
	}
	for _, tt := range tests {
		key, action := draftPath(tt.path, "/service-bill-drafts/")
		if key != tt.key || action != tt.action {
			t.Errorf("draftPath(%q) = %q, %q; want %q, %q", tt.path, key, action, tt.key, tt.action)
		}
	}
}
