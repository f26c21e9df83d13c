package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"freighterp/billing"
	"freighterp/models"
	"freighterp/repository"
)

type CompanyProfileHandler struct {
	Repo repository.CompanyProfileRepository
	Log  *zap.Logger
}

func (h *CompanyProfileHandler) SaveCompanyProfile(w http.ResponseWriter, r *http.Request) {
	var p models.CompanyProfile
	if !decodeJSON(w, r, &p) {
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		writeError(w, h.Log, &billing.ValidationError{Field: "name", Msg: "company name is required"})
		return
	}

	if err := h.Repo.SaveCompanyProfile(r.Context(), &p); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CompanyProfileHandler) GetCompanyProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Repo.GetCompanyProfile(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if p == nil {
		http.Error(w, "Company profile not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
