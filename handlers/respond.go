package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"freighterp/billing"
)

type errorBody struct {
	Error    string           `json:"error"`
	Field    string           `json:"field,omitempty"`
	Category billing.Category `json:"category,omitempty"`
	UnitIDs  []int64          `json:"unit_ids,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps billing errors onto HTTP statuses. Anything unrecognised
// is a store or network failure and is logged.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var (
		verr     *billing.ValidationError
		conflict *billing.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, billing.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorBody{
			Error:    conflict.Error(),
			Category: conflict.Category,
			UnitIDs:  conflict.UnitIDs,
		})
	case errors.Is(err, billing.ErrBusy):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, billing.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error, please retry"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// queryID parses a required id query parameter.
func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		badRequest(w, "missing "+name)
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}

// optionalQueryID parses an id query parameter that may be absent.
func optionalQueryID(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid "+name)
		return nil, false
	}
	return &id, true
}

// PathID parses the numeric segment of path that follows prefix.
func PathID(path, prefix string) (int64, bool) {
	s := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
