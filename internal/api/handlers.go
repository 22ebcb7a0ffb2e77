// Package api exposes the HTTP presentation layer: it forwards user intents
// to the activity ledger and renders ledger state and analytics as JSON.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"example.com/timetracker/internal/analytics"
	"example.com/timetracker/internal/auth"
	"example.com/timetracker/internal/domain"
	"example.com/timetracker/internal/ledger"
)

// Handler coordinates HTTP requests with per-user ledgers.
type Handler struct {
	sessions *ledger.SessionManager
}

// NewHandler builds a Handler.
func NewHandler(sessions *ledger.SessionManager) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/day", h.day)
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/", h.activityByID)
	mux.HandleFunc("/v1/dashboard", h.dashboard)
	mux.HandleFunc("/v1/signout", h.signOut)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) day(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := readClaims(w, r)
	if !ok {
		return
	}

	led := h.sessions.Ledger(claims.Subject)
	provisional, ok := h.ensureScope(w, r, led, claims.Subject, r.URL.Query().Get("date"))
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, toDayView(led, provisional))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := writeClaims(w, r)
	if !ok {
		return
	}

	var req AddActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	led := h.sessions.Ledger(claims.Subject)
	if err := led.EnsureScope(r.Context(), claims.Subject, req.Date); err != nil {
		writeLedgerError(w, err)
		return
	}

	activity, err := led.Add(r.Context(), req.Name, req.Category, req.DurationMin)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityView(activity))
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity id")
		return
	}

	switch r.Method {
	case http.MethodPatch:
		h.updateActivity(w, r, id)
	case http.MethodDelete:
		h.deleteActivity(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := writeClaims(w, r)
	if !ok {
		return
	}

	var req UpdateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	led := h.sessions.Ledger(claims.Subject)
	if err := led.EnsureScope(r.Context(), claims.Subject, req.Date); err != nil {
		writeLedgerError(w, err)
		return
	}

	activity, err := led.Update(r.Context(), id, req.Name, req.DurationMin)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(activity))
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := writeClaims(w, r)
	if !ok {
		return
	}

	led := h.sessions.Ledger(claims.Subject)
	if err := led.EnsureScope(r.Context(), claims.Subject, r.URL.Query().Get("date")); err != nil {
		writeLedgerError(w, err)
		return
	}

	if err := led.Remove(r.Context(), id); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := readClaims(w, r)
	if !ok {
		return
	}

	led := h.sessions.Ledger(claims.Subject)
	provisional, ok := h.ensureScope(w, r, led, claims.Subject, r.URL.Query().Get("date"))
	if !ok {
		return
	}

	dashboard := analytics.BuildDashboard(led.Snapshot())
	writeJSON(w, http.StatusOK, toDashboardView(led.Scope(), provisional, dashboard))
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	h.sessions.SignOut(claims.Subject)
	w.WriteHeader(http.StatusNoContent)
}

// ensureScope loads the requested scope for reads. A failed authoritative load
// with a provisional cache snapshot still renders; a failed load with nothing
// to show does not. Returns (provisional, ok).
func (h *Handler) ensureScope(w http.ResponseWriter, r *http.Request, led *ledger.Ledger, userID, date string) (bool, bool) {
	err := led.EnsureScope(r.Context(), userID, date)
	if err == nil {
		return false, true
	}

	var pErr *domain.PersistenceError
	if errors.As(err, &pErr) && led.Provisional() {
		return true, true
	}
	writeLedgerError(w, err)
	return false, false
}

func readClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasScope(auth.ScopeTrackerRead) && !claims.HasScope(auth.ScopeTrackerWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope tracker:read required")
		return nil, false
	}
	return claims, true
}

func writeClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasScope(auth.ScopeTrackerWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope tracker:write required")
		return nil, false
	}
	return claims, true
}

func writeLedgerError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	var pErr *domain.PersistenceError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "validation_failed", vErr.Reason)
	case errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "not_found", "activity not found")
	case errors.Is(err, domain.ErrMutationInFlight):
		writeError(w, http.StatusConflict, "conflict", "another mutation is in flight")
	case errors.Is(err, domain.ErrNoScope):
		writeError(w, http.StatusBadRequest, "invalid_request", "no user and date selected")
	case errors.Is(err, domain.ErrStaleScope):
		writeError(w, http.StatusConflict, "conflict", "scope changed while the mutation was in flight")
	case errors.As(err, &pErr):
		writeError(w, http.StatusBadGateway, "upstream_failed", "the remote store rejected the operation")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
