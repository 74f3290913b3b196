package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"paytrack/internal/core"
	"paytrack/internal/log"
	"paytrack/internal/store"
)

// Handler exposes a store over JSON.
type Handler struct {
	store *store.Store
}

// NewHandler creates a handler backed by s.
func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

// CreateEntryRequest is the body of POST /entries. Amount may be a JSON
// string ("150,50") or a number (150.5). An empty status means the
// currently selected view.
type CreateEntryRequest struct {
	Name   string      `json:"name"`
	Amount AmountInput `json:"amount"`
	Status string      `json:"status,omitempty"`
}

// AmountInput holds the raw amount text handed to the store parser.
type AmountInput string

// UnmarshalJSON accepts a string or a number. Numbers keep their literal
// text so no precision is lost before parsing; exponent forms such as 1e2
// reach the parser unchanged and are rejected there.
func (a *AmountInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = AmountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number: %w", err)
	}
	*a = AmountInput(n.String())
	return nil
}

// SelectViewRequest is the body of PUT /view.
type SelectViewRequest struct {
	Status string `json:"status"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
}

// GetSnapshot returns the full store state.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, newSnapshotResponse(h.store.Snapshot()), http.StatusOK)
}

// GetView projects the collection. ?status= overrides the selected view
// without changing it.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		respondJSON(w, r, h.store.View(), http.StatusOK)
		return
	}
	status, err := core.ParseStatus(raw)
	if err != nil {
		respondError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, r, core.Project(h.store.Snapshot().Entries, status), http.StatusOK)
}

// SelectView changes the selected status and returns the new view.
func (h *Handler) SelectView(w http.ResponseWriter, r *http.Request) {
	var req SelectViewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}
	status, err := core.ParseStatus(req.Status)
	if err != nil {
		respondError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.store.Select(status); err != nil {
		respondError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, r, h.store.View(), http.StatusOK)
}

// Reload refreshes the collection from the remote service.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Load(r.Context()); err != nil {
		respondStoreError(w, r, err)
		return
	}
	h.action(w, r, true, nil)
}

// CreateEntry adds an entry. Input the store rejects is reported as a
// no-op, not as a client error.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	status := h.store.Snapshot().SelectedStatus
	if s := strings.TrimSpace(req.Status); s != "" {
		parsed, err := core.ParseStatus(s)
		if err != nil {
			respondError(w, r, err.Error(), http.StatusBadRequest)
			return
		}
		status = parsed
	}

	created, ok, err := h.store.Add(r.Context(), req.Name, string(req.Amount), status)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	if !ok {
		log.FromContext(r.Context()).Debug("Entry rejected by validation", log.FieldEntryName, req.Name)
		h.action(w, r, false, nil)
		return
	}
	h.respondAction(w, r, true, &created, http.StatusCreated)
}

// MarkPaid settles a pending entry.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	ok, err := h.store.MarkPaid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	h.action(w, r, ok, nil)
}

// RequestDelete stages an entry for confirmation.
func (h *Handler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	ok := h.store.RequestDelete(chi.URLParam(r, "id"))
	h.action(w, r, ok, nil)
}

// ConfirmDelete deletes the staged entry and arms the undo window.
func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.store.ConfirmDelete(r.Context())
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	h.action(w, r, ok, nil)
}

// CancelDelete drops the staged entry.
func (h *Handler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	h.store.CancelDelete()
	h.action(w, r, true, nil)
}

// Undo restores the most recently deleted entry while its window is open.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	restored, ok, err := h.store.UndoDelete(r.Context())
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	if !ok {
		h.action(w, r, false, nil)
		return
	}
	h.action(w, r, true, &restored)
}

func (h *Handler) action(w http.ResponseWriter, r *http.Request, applied bool, entry *core.Entry) {
	h.respondAction(w, r, applied, entry, http.StatusOK)
}

func (h *Handler) respondAction(w http.ResponseWriter, r *http.Request, applied bool, entry *core.Entry, statusCode int) {
	respondJSON(w, r, ActionResponse{
		Applied:  applied,
		Entry:    entry,
		Snapshot: newSnapshotResponse(h.store.Snapshot()),
	}, statusCode)
}
