package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FOLPreviews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freight_fol_previews_total",
		Help: "FOL slab previews computed.",
	})

	BillCommits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freight_bill_commits_total",
		Help: "Service bill commits by result.",
	}, []string{"result"})

	BillingConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freight_billing_conflicts_total",
		Help: "Billing units found attached to another bill at commit.",
	}, []string{"category"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freight_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument counts requests served by next under route.
func Instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next(rec, r)
		HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
	}
}
