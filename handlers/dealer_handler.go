package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"freighterp/models"
	"freighterp/repository"
)

type DealerHandler struct {
	Repo repository.ReferenceRepository
	Log  *zap.Logger
}

// DealersNear lists dealer places reachable from a destination, optionally
// limited to the distance band of a rate slab.
func (h *DealerHandler) DealersNear(w http.ResponseWriter, r *http.Request) {
	destID, ok := queryID(w, r, "destination_id")
	if !ok {
		return
	}
	slabID, ok := optionalQueryID(w, r, "rate_slab_id")
	if !ok {
		return
	}

	dealers, err := h.Repo.ListDealersNear(r.Context(), destID, slabID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if dealers == nil {
		dealers = []models.DealerNear{}
	}
	writeJSON(w, http.StatusOK, dealers)
}
