package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"freighterp/models"
	"freighterp/repository"
)

type RateSlabHandler struct {
	Repo repository.RateSlabRepository
	Log  *zap.Logger
}

func (h *RateSlabHandler) ListRateSlabs(w http.ResponseWriter, r *http.Request) {
	slabs, err := h.Repo.ListRateSlabs(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if slabs == nil {
		slabs = []models.RateSlab{}
	}
	writeJSON(w, http.StatusOK, slabs)
}

func (h *RateSlabHandler) CreateRateSlab(w http.ResponseWriter, r *http.Request) {
	var slab models.RateSlab
	if !decodeJSON(w, r, &slab) {
		return
	}
	slab.ID = 0
	if err := h.Repo.SaveRateSlab(r.Context(), &slab); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, slab)
}

func (h *RateSlabHandler) UpdateRateSlab(w http.ResponseWriter, r *http.Request, id int64) {
	var slab models.RateSlab
	if !decodeJSON(w, r, &slab) {
		return
	}
	slab.ID = id
	if err := h.Repo.SaveRateSlab(r.Context(), &slab); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, slab)
}

func (h *RateSlabHandler) DeleteRateSlab(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.Repo.DeleteRateSlab(r.Context(), id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Rate slab deleted successfully"})
}
