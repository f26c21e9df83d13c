package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentCountsByStatus(t *testing.T) {
	h := Instrument("/test-instrument", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fail") != "" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/x", "/x", "/x?fail=1"} {
		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(HTTPRequests.WithLabelValues("/test-instrument", "200")); got != 2 {
		t.Errorf("200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(HTTPRequests.WithLabelValues("/test-instrument", "409")); got != 1 {
		t.Errorf("409 count = %v, want 1", got)
	}
}
