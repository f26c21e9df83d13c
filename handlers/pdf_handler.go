package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"freighterp/billing"
	"freighterp/repository"
	"freighterp/utils"
)

type PDFHandler struct {
	Repo      *repository.PDFRepository
	Generator *utils.PDFGenerator
	Uploader  *utils.R2Uploader // nil keeps PDFs local only
	SavePath  string
	Log       *zap.Logger
}

type pdfResult struct {
	Success bool   `json:"success"`
	File    string `json:"file"`
	URL     string `json:"url,omitempty"`
}

// store saves pdf under SavePath and, when R2 is configured, uploads it and
// removes the copy a previous export left in the bucket. It returns the
// path to record on the row.
func (h *PDFHandler) store(ctx context.Context, pdf []byte, filename string, previous *string) (pdfResult, error) {
	saveDir := h.SavePath
	if saveDir == "" {
		saveDir = "./pdfs"
	}
	if err := os.MkdirAll(saveDir, os.ModePerm); err != nil {
		return pdfResult{}, fmt.Errorf("create save directory: %w", err)
	}
	savePath := filepath.Join(saveDir, filename)
	if err := os.WriteFile(savePath, pdf, 0644); err != nil {
		return pdfResult{}, fmt.Errorf("save PDF: %w", err)
	}

	res := pdfResult{Success: true, File: filename}
	if h.Uploader == nil {
		return res, nil
	}

	u, err := h.Uploader.Upload(ctx, pdf, filename)
	if err != nil {
		return pdfResult{}, err
	}
	res.URL = u
	if previous != nil && *previous != u && h.Uploader.Owns(*previous) {
		if err := h.Uploader.Delete(ctx, *previous); err != nil {
			h.Log.Warn("delete previous PDF", zap.String("url", *previous), zap.Error(err))
		}
	}
	return res, nil
}

func (r pdfResult) recordedPath() string {
	if r.URL != "" {
		return r.URL
	}
	return r.File
}

// ServiceBillPDF generates and saves the PDF of a service bill
func (h *PDFHandler) ServiceBillPDF(w http.ResponseWriter, r *http.Request) {
	billID, ok := queryID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()

	data, err := utils.BuildServiceBillPDFData(ctx, h.Repo, billID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if data == nil {
		writeError(w, h.Log, billing.ErrNotFound)
		return
	}

	pdf, err := h.Generator.Render(ctx, utils.ServiceBillTemplate, data)
	if err != nil {
		writeError(w, h.Log, fmt.Errorf("generate PDF: %w", err))
		return
	}

	filename := fmt.Sprintf("service_bill_%d_%d.pdf", billID, time.Now().Unix())
	res, err := h.store(ctx, pdf, filename, data.Bill.PdfPath)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	if err := h.Repo.MarkServiceBillPDF(ctx, billID, res.recordedPath()); err != nil {
		// Log the error but don't block the response
		h.Log.Warn("record service bill PDF", zap.Int64("bill_id", billID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, res)
}

// DestinationEntryPDF generates and saves the PDF of a destination entry
func (h *PDFHandler) DestinationEntryPDF(w http.ResponseWriter, r *http.Request) {
	entryID, ok := queryID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()

	data, err := utils.BuildDestinationEntryPDFData(ctx, h.Repo, entryID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if data == nil {
		writeError(w, h.Log, billing.ErrNotFound)
		return
	}

	pdf, err := h.Generator.Render(ctx, utils.DestinationEntryTemplate, data)
	if err != nil {
		writeError(w, h.Log, fmt.Errorf("generate PDF: %w", err))
		return
	}

	filename := fmt.Sprintf("destination_entry_%d_%d.pdf", entryID, time.Now().Unix())
	res, err := h.store(ctx, pdf, filename, data.Entry.PdfPath)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	if err := h.Repo.MarkDestinationEntryPDF(ctx, entryID, res.recordedPath()); err != nil {
		h.Log.Warn("record destination entry PDF", zap.Int64("entry_id", entryID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, res)
}

// ServiceBillXLSX streams the service bill as a workbook
func (h *PDFHandler) ServiceBillXLSX(w http.ResponseWriter, r *http.Request) {
	billID, ok := queryID(w, r, "id")
	if !ok {
		return
	}

	data, err := utils.BuildServiceBillPDFData(r.Context(), h.Repo, billID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if data == nil {
		writeError(w, h.Log, billing.ErrNotFound)
		return
	}

	f, filename, err := utils.ServiceBillWorkbook(data)
	if err != nil {
		writeError(w, h.Log, fmt.Errorf("build workbook: %w", err))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", utils.XLSXContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	if err := f.Write(w); err != nil {
		h.Log.Warn("write workbook", zap.Int64("bill_id", billID), zap.Error(err))
	}
}
