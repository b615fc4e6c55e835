package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tphummel/ict_assets/internal/apperrors"
	"github.com/tphummel/ict_assets/internal/auth"
	"github.com/tphummel/ict_assets/internal/documents"
	"github.com/tphummel/ict_assets/internal/inventory"
	"github.com/tphummel/ict_assets/internal/middleware"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 * 1024

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	Inventory *inventory.Service
	Tokens    *auth.Issuer
	Documents *documents.Store
	Version   string
	Commit    string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusOf maps an error code to the HTTP status reported to clients.
func statusOf(code apperrors.Code) int {
	switch code {
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeAlreadyExists, apperrors.CodeAlreadyInUse, apperrors.CodeConflict,
		apperrors.CodeNotEligible, apperrors.CodeInvalidTransition:
		return http.StatusConflict
	case apperrors.CodeTypeMismatch, apperrors.CodeInvalidDomainAccount, apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError reports err to the client. Coded errors carry their message
// and code; anything else is logged and hidden behind fallback.
func writeAppError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	code := apperrors.CodeOf(err)
	if code == "" {
		slog.Error(fallback, "error", err, "request_id", chimw.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, fallback)
		return
	}
	writeJSON(w, statusOf(code), map[string]string{
		"error": apperrors.MessageOf(err),
		"code":  string(code),
	})
}

// decodeJSON reads a size-limited JSON body into v. It writes the error
// response and returns false when the body is unusable.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// actor names the signed-in operator in audit records.
func actor(r *http.Request) string {
	id, _ := middleware.FromContext(r.Context())
	if id.Name != "" {
		return id.Name
	}
	return id.PersonalNumber
}

// emptyIfNil keeps list responses as JSON arrays.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Health handles GET /healthz; no auth required.
// Returns 503 if the database is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Inventory.DB().Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.Version,
		"commit":  h.Commit,
	})
}
