package routes

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"freighterp/handlers"
	"freighterp/metrics"
)

// CORS middleware
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*") // Replace * with your domain in production
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type Handlers struct {
	RateSlabs *handlers.RateSlabHandler
	Dealers   *handlers.DealerHandler
	Entries   *handlers.DestinationEntryHandler
	Bills     *handlers.ServiceBillHandler
	Exports   *handlers.PDFHandler
	Company   *handlers.CompanyProfileHandler
}

// draftPath splits "/prefix/{key}/{action}" into key and action.
func draftPath(path, prefix string) (key, action string) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	key, action, _ = strings.Cut(rest, "/")
	return key, action
}

func methodNotAllowed(w http.ResponseWriter) {
	w.WriteHeader(http.StatusMethodNotAllowed)
}

func SetupRoutes(mux *http.ServeMux, log *zap.Logger, h Handlers, metricsEnabled bool) {
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, withCORS(metrics.Instrument(pattern, handlers.RecoverWrapper(log, fn))))
	}

	handle("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if metricsEnabled {
		mux.Handle("/metrics", metrics.Handler())
	}

	// Rate slab routes
	handle("/rate-slabs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.RateSlabs.ListRateSlabs(w, r)
		case http.MethodPost:
			h.RateSlabs.CreateRateSlab(w, r)
		default:
			methodNotAllowed(w)
		}
	})
	handle("/rate-slabs/", func(w http.ResponseWriter, r *http.Request) {
		id, ok := handlers.PathID(r.URL.Path, "/rate-slabs/")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPut:
			h.RateSlabs.UpdateRateSlab(w, r, id)
		case http.MethodDelete:
			h.RateSlabs.DeleteRateSlab(w, r, id)
		default:
			methodNotAllowed(w)
		}
	})

	handle("/dealers/near", h.Dealers.DealersNear)

	// Destination entry routes
	handle("/destination-entries", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.Entries.ListDestinationEntries(w, r)
		case http.MethodPost:
			h.Entries.CreateDestinationEntry(w, r)
		case http.MethodDelete:
			h.Entries.DeleteDestinationEntry(w, r)
		default:
			methodNotAllowed(w)
		}
	})
	handle("/destination-entries/transport-depot-unbilled", h.Entries.UnbilledDepotTrips)
	handle("/destination-entries/transport-fol-unbilled", h.Entries.UnbilledFOLEntries)
	handle("/destination-entries/pdf", h.Exports.DestinationEntryPDF)
	handle("/destination-entries/", func(w http.ResponseWriter, r *http.Request) {
		id, ok := handlers.PathID(r.URL.Path, "/destination-entries/")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.Entries.GetDestinationEntry(w, r, id)
		case http.MethodPut:
			h.Entries.UpdateDestinationEntry(w, r, id)
		default:
			methodNotAllowed(w)
		}
	})

	handle("/destination-entry-drafts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.Entries.CreateDraft(w, r)
	})
	handle("/destination-entry-drafts/", func(w http.ResponseWriter, r *http.Request) {
		key, action := draftPath(r.URL.Path, "/destination-entry-drafts/")
		switch {
		case key == "":
			w.WriteHeader(http.StatusNotFound)
		case action == "commit" && r.Method == http.MethodPost:
			h.Entries.CommitDraft(w, r, key)
		case action != "":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodGet:
			h.Entries.GetDraft(w, r, key)
		case r.Method == http.MethodPatch:
			h.Entries.PatchDraft(w, r, key)
		case r.Method == http.MethodDelete:
			h.Entries.DeleteDraft(w, r, key)
		default:
			methodNotAllowed(w)
		}
	})

	// Service bill routes
	handle("/service-bills", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.Bills.ListServiceBills(w, r)
		case http.MethodPost:
			h.Bills.CreateServiceBill(w, r)
		default:
			methodNotAllowed(w)
		}
	})
	handle("/service-bills/fol-preview", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.Bills.FOLPreview(w, r)
	})
	handle("/service-bills/pdf", h.Exports.ServiceBillPDF)
	handle("/service-bills/xlsx", h.Exports.ServiceBillXLSX)
	handle("/service-bills/", func(w http.ResponseWriter, r *http.Request) {
		id, ok := handlers.PathID(r.URL.Path, "/service-bills/")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.Bills.GetServiceBill(w, r, id)
		case http.MethodPut:
			h.Bills.UpdateServiceBill(w, r, id)
		default:
			methodNotAllowed(w)
		}
	})

	handle("/service-bill-drafts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.Bills.CreateDraft(w, r)
	})
	handle("/service-bill-drafts/", func(w http.ResponseWriter, r *http.Request) {
		key, action := draftPath(r.URL.Path, "/service-bill-drafts/")
		switch {
		case key == "":
			w.WriteHeader(http.StatusNotFound)
		case action == "preview" && r.Method == http.MethodPost:
			h.Bills.PreviewDraft(w, r, key)
		case action == "commit" && r.Method == http.MethodPost:
			h.Bills.CommitDraft(w, r, key)
		case action != "":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodGet:
			h.Bills.GetDraft(w, r, key)
		case r.Method == http.MethodPatch:
			h.Bills.PatchDraft(w, r, key)
		case r.Method == http.MethodDelete:
			h.Bills.DeleteDraft(w, r, key)
		default:
			methodNotAllowed(w)
		}
	})

	// Company profile routes
	handle("/company-profile", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.Company.SaveCompanyProfile(w, r)
		case http.MethodGet:
			h.Company.GetCompanyProfile(w, r)
		default:
			methodNotAllowed(w)
		}
	})
}
