package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"famspend/internal/core"
	"famspend/internal/export"
	"famspend/internal/ledger"
	applog "famspend/internal/log"
)

type entryRequest struct {
	FamilyID     string `json:"family_id"`
	CreatedBy    string `json:"created_by"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Date         string `json:"date"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Notes        string `json:"notes"`
}

func (req entryRequest) form() ledger.EntryForm {
	return ledger.EntryForm{
		FamilyID:     strings.TrimSpace(req.FamilyID),
		CreatedBy:    strings.TrimSpace(req.CreatedBy),
		CategoryID:   strings.TrimSpace(req.CategoryID),
		CategoryName: strings.TrimSpace(req.CategoryName),
		Date:         req.Date,
		Amount:       req.Amount,
		Currency:     strings.ToUpper(strings.TrimSpace(req.Currency)),
		Notes:        req.Notes,
	}
}

type entryResponse struct {
	Entry        core.LedgerEntry `json:"entry"`
	Queued       bool             `json:"queued"`
	PendingCount int              `json:"pending_count,omitempty"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	form := req.form()
	if form.FamilyID == "" {
		form.FamilyID = s.defaultFamily
	}
	res, err := s.svc.AddEntry(r.Context(), form)
	if err != nil {
		writeError(w, err)
		return
	}

	s.invalidateFamily(form.FamilyID)
	if res.Queued {
		writeJSON(w, http.StatusAccepted, entryResponse{
			Entry:        res.Entry,
			Queued:       true,
			PendingCount: s.svc.PendingCount(r.Context()),
		})
		return
	}
	writeJSON(w, http.StatusCreated, entryResponse{Entry: res.Entry})
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	form := req.form()
	if form.FamilyID == "" {
		form.FamilyID = s.defaultFamily
	}
	entry, err := s.svc.UpdateEntry(r.Context(), id, form)
	if err != nil {
		writeError(w, err)
		return
	}

	s.invalidateFamily(entry.FamilyID)
	writeJSON(w, http.StatusOK, entryResponse{Entry: entry})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	familyID := strings.TrimSpace(r.URL.Query().Get("family_id"))
	if familyID == "" {
		familyID = s.defaultFamily
	}
	if familyID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "family_id is required"})
		return
	}

	if err := s.svc.DeleteEntry(r.Context(), familyID, id); err != nil {
		writeError(w, err)
		return
	}

	s.invalidateFamily(familyID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := s.entryFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	entries, err := s.svc.ListEntries(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []core.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := s.entryFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	key := summaryCacheKey(filter)
	if cached, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	summary, err := s.svc.Summarize(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	s.summaryCache.Set(key, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, err := s.entryFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	entries, err := s.svc.ListEntries(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="famspend-export.csv"`)
	if err := export.WriteCSV(w, entries); err != nil {
		s.logger.ErrorContext(r.Context(), "CSV export failed", applog.FieldError, err)
	}
}

type categoryRequest struct {
	FamilyID string `json:"family_id"`
	Name     string `json:"name"`
}

type categoryResponse struct {
	Category core.Category `json:"category"`
	Queued   bool          `json:"queued"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	familyID := strings.TrimSpace(req.FamilyID)
	if familyID == "" {
		familyID = s.defaultFamily
	}
	cat, queued, err := s.svc.CreateCategory(r.Context(), familyID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusCreated
	if queued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, categoryResponse{Category: cat, Queued: queued})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	familyID := strings.TrimSpace(r.URL.Query().Get("family_id"))
	if familyID == "" {
		familyID = s.defaultFamily
	}
	if familyID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "family_id is required"})
		return
	}

	cats, err := s.svc.ListCategories(r.Context(), familyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

type syncStatusResponse struct {
	PendingCount int `json:"pending_count"`
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, syncStatusResponse{
		PendingCount: s.svc.PendingCount(r.Context()),
	})
}

type replayResponse struct {
	Synced       int    `json:"synced"`
	Message      string `json:"message,omitempty"`
	PendingCount int    `json:"pending_count"`
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	synced, err := s.svc.Replay(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := replayResponse{
		Synced:       synced,
		PendingCount: s.svc.PendingCount(r.Context()),
	}
	if synced > 0 {
		resp.Message = ledger.SyncedMessage(synced)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
