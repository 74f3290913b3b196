package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"paytrack/internal/core"
	"paytrack/internal/log"
	"paytrack/internal/store"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 16

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error  string          `json:"error"`
	Kind   store.ErrorKind `json:"kind,omitempty"`
	Notice string          `json:"notice,omitempty"`
}

// SnapshotResponse is a store snapshot plus the notice for its last error.
type SnapshotResponse struct {
	store.Snapshot
	Notice string `json:"notice,omitempty"`
}

// ActionResponse reports whether a command changed anything. Commands that
// are no-ops still succeed with Applied=false.
type ActionResponse struct {
	Applied  bool             `json:"applied"`
	Entry    *core.Entry      `json:"entry,omitempty"`
	Snapshot SnapshotResponse `json:"snapshot"`
}

func newSnapshotResponse(s store.Snapshot) SnapshotResponse {
	return SnapshotResponse{Snapshot: s, Notice: s.Notice()}
}

func respondJSON(w http.ResponseWriter, r *http.Request, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	respondJSON(w, r, ErrorResponse{Error: message}, statusCode)
}

// respondStoreError maps a failed store command to 502: the remote
// service, not the caller, is at fault.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var opErr *store.OpError
	if errors.As(err, &opErr) {
		respondJSON(w, r, ErrorResponse{
			Error:  err.Error(),
			Kind:   opErr.Kind,
			Notice: opErr.Kind.Notice(),
		}, http.StatusBadGateway)
		return
	}
	respondError(w, r, err.Error(), http.StatusInternalServerError)
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
