package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
)

const maxBodyBytes = 1 << 20

type ctxKey string

const userIDKey ctxKey = "user_id"

// WithUserID stores the authenticated user id for handlers.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

// writeServiceError maps a domain error kind to its HTTP status. Unclassified
// errors are logged and reported as a generic internal error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, domain.ErrValidation):
		status, kind = http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrInfeasible):
		status, kind = http.StatusUnprocessableEntity, "infeasible"
	case errors.Is(err, domain.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrStateConflict):
		status, kind = http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrUpstream):
		status, kind = http.StatusBadGateway, "upstream"
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("req_id=%s method=%s path=%s internal error: %v", obs.RequestID(r.Context()), r.Method, r.URL.Path, err)
		msg = "internal server error"
	}

	writeJSON(w, r, status, errorResponse{Error: msg, Kind: kind})
}

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields.
// It writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid json body: " + err.Error(), Kind: "validation"})
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "body must contain only one JSON object", Kind: "validation"})
		return false
	}
	return true
}
