package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"famspend/internal/core"
	"famspend/internal/fx"
	"famspend/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrNonPositiveAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidCurrency),
		errors.Is(err, core.ErrIncompleteEntry):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, fx.ErrRateUnavailable):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, fx.ErrSourceUnreachable):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	case store.IsRejected(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case store.IsConnectivity(err):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// clientIP extracts the caller address, preferring X-Forwarded-For.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// entryFilter builds a store filter from list/summary query parameters,
// falling back to the server's default family when none is given.
func (s *Server) entryFilter(r *http.Request) (store.EntryFilter, error) {
	q := r.URL.Query()
	filter := store.EntryFilter{
		FamilyID:   strings.TrimSpace(q.Get("family_id")),
		CategoryID: strings.TrimSpace(q.Get("category_id")),
		CreatedBy:  strings.TrimSpace(q.Get("created_by")),
	}
	if filter.FamilyID == "" {
		filter.FamilyID = s.defaultFamily
	}
	if filter.FamilyID == "" {
		return filter, errors.New("family_id is required")
	}
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return filter, fmt.Errorf("invalid from date %q", v)
		}
		filter.From = d
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return filter, fmt.Errorf("invalid to date %q", v)
		}
		filter.To = d
	}
	return filter, nil
}

// summaryCacheKey starts with the family id so DeletePrefix(familyID + ":")
// drops every cached summary for the family.
func summaryCacheKey(filter store.EntryFilter) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s",
		filter.FamilyID, filter.From.String(), filter.To.String(),
		filter.CategoryID, filter.CreatedBy)
}
