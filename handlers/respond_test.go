package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"freighterp/billing"
)

func TestWriteErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		field   string
		unitIDs []int64
	}{
		{"validation", billing.ErrDuplicateSlab, http.StatusBadRequest, "rate_slab", nil},
		{"wrapped validation", fmt.Errorf("save: %w", billing.ErrMissingDest), http.StatusBadRequest, "destination_id", nil},
		{"conflict", &billing.ConflictError{Category: billing.CategoryFOL, UnitIDs: []int64{3, 4}, Reason: "taken"}, http.StatusConflict, "", []int64{3, 4}},
		{"stale preview", billing.ErrStalePreview, http.StatusConflict, "", nil},
		{"busy", billing.ErrBusy, http.StatusConflict, "", nil},
		{"not found", billing.ErrNotFound, http.StatusNotFound, "", nil},
		{"store failure", errors.New("connection reset"), http.StatusInternalServerError, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, zap.NewNop(), tt.err)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var body errorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Field != tt.field {
				t.Errorf("field = %q, want %q", body.Field, tt.field)
			}
			if fmt.Sprint(body.UnitIDs) != fmt.Sprint(tt.unitIDs) {
				t.Errorf("unit_ids = %v, want %v", body.UnitIDs, tt.unitIDs)
			}
			if tt.status == http.StatusInternalServerError && body.Error == "connection reset" {
				t.Error("internal error text leaked to the client")
			}
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		path string
		id   int64
		ok   bool
	}{
		{"/service-bills/12", 12, true},
		{"/service-bills/12/", 12, true},
		{"/service-bills/", 0, false},
		{"/service-bills/abc", 0, false},
		{"/service-bills/-3", 0, false},
	}
	for _, tt := range tests {
		id, ok := PathID(tt.path, "/service-bills/")
		if id != tt.id || ok != tt.ok {
			t.Errorf("PathID(%q) = %d, %v; want %d, %v", tt.path, id, ok, tt.id, tt.ok)
		}
	}
}

func TestRecoverWrapper(t *testing.T) {
	h := RecoverWrapper(zap.NewNop(), func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
