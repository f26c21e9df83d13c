package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"freighterp/billing"
	"freighterp/models"
	"freighterp/repository"
)

type ServiceBillHandler struct {
	Reconciler *billing.Reconciler
	Repo       repository.ServiceBillRepository
	Log        *zap.Logger
}

// FOLPreview runs the slab-wise aggregation without saving anything.
func (h *ServiceBillHandler) FOLPreview(w http.ResponseWriter, r *http.Request) {
	var req billing.FOLPreviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.Reconciler.PreviewFOL(r.Context(), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ServiceBillHandler) CreateServiceBill(w http.ResponseWriter, r *http.Request) {
	var bill models.ServiceBill
	if !decodeJSON(w, r, &bill) {
		return
	}
	bill.ID = 0
	if err := h.Reconciler.CommitBill(r.Context(), &bill); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, bill)
}

func (h *ServiceBillHandler) UpdateServiceBill(w http.ResponseWriter, r *http.Request, id int64) {
	var bill models.ServiceBill
	if !decodeJSON(w, r, &bill) {
		return
	}
	bill.ID = id
	if err := h.Reconciler.CommitBill(r.Context(), &bill); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *ServiceBillHandler) GetServiceBill(w http.ResponseWriter, r *http.Request, id int64) {
	bill, err := h.Repo.GetServiceBill(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if bill == nil {
		writeError(w, h.Log, billing.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *ServiceBillHandler) ListServiceBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.Repo.ListServiceBills(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if bills == nil {
		bills = []models.ServiceBill{}
	}
	writeJSON(w, http.StatusOK, bills)
}

// ---- Drafts ----

type openBillDraftRequest struct {
	ServiceBillID int64 `json:"service_bill_id,omitempty"`
}

func (h *ServiceBillHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req openBillDraftRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.Reconciler.OpenBillDraft(r.Context(), "", req.ServiceBillID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *ServiceBillHandler) GetDraft(w http.ResponseWriter, r *http.Request, key string) {
	d, err := h.Reconciler.OpenBillDraft(r.Context(), key, 0)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *ServiceBillHandler) PatchDraft(w http.ResponseWriter, r *http.Request, key string) {
	var op billing.BillOp
	if !decodeJSON(w, r, &op) {
		return
	}
	d, err := h.Reconciler.ApplyBillOp(r.Context(), key, op)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *ServiceBillHandler) DeleteDraft(w http.ResponseWriter, r *http.Request, key string) {
	if err := h.Reconciler.DiscardBillDraft(r.Context(), key); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *ServiceBillHandler) PreviewDraft(w http.ResponseWriter, r *http.Request, key string) {
	d, err := h.Reconciler.PreviewDraft(r.Context(), key)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *ServiceBillHandler) CommitDraft(w http.ResponseWriter, r *http.Request, key string) {
	bill, err := h.Reconciler.CommitDraft(r.Context(), key)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}
