package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/tphummel/ict_assets/internal/documents"
	"github.com/tphummel/ict_assets/internal/inventory"
	"github.com/tphummel/ict_assets/internal/models"
)

type actionRequest struct {
	ActionType      models.ActionType     `json:"action_type"`
	DeploymentType  models.DeploymentType `json:"deployment_type"`
	PairType        models.PairType       `json:"asset_pair_type"`
	PrimarySerial   string                `json:"primary_asset_serial"`
	SecondarySerial string                `json:"secondary_asset_serial"`
	To              models.Snapshot       `json:"to"`
	Comments        string                `json:"comments"`
	Pending         bool                  `json:"pending"`
}

// SubmitAction handles POST /api/v1/lifecycle-actions. The action is applied
// immediately unless "pending" is set.
func (h *Handler) SubmitAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	action, err := h.Inventory.SubmitAction(r.Context(), actor(r), inventory.ActionInput{
		Action:          req.ActionType,
		Deployment:      req.DeploymentType,
		PairType:        req.PairType,
		PrimarySerial:   req.PrimarySerial,
		SecondarySerial: req.SecondarySerial,
		To:              req.To,
		Comments:        req.Comments,
		Pending:         req.Pending,
	})
	if err != nil {
		writeAppError(w, r, err, "failed to apply lifecycle action")
		return
	}
	writeJSON(w, http.StatusCreated, action)
}

// ListActions handles GET /api/v1/lifecycle-actions with an optional
// ?status= filter.
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	status := models.ActionStatus(r.URL.Query().Get("status"))
	if status != "" && status != models.ActionPending && status != models.ActionCompleted {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	actions, err := h.Inventory.DB().ListActions(r.Context(), status)
	if err != nil {
		writeAppError(w, r, err, "failed to list lifecycle actions")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(actions))
}

// GetAction handles GET /api/v1/lifecycle-actions/{id}.
func (h *Handler) GetAction(w http.ResponseWriter, r *http.Request) {
	action, err := h.Inventory.DB().GetAction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err, "failed to get lifecycle action")
		return
	}
	writeJSON(w, http.StatusOK, action)
}

// CompleteAction handles POST /api/v1/lifecycle-actions/{id}/complete.
func (h *Handler) CompleteAction(w http.ResponseWriter, r *http.Request) {
	action, err := h.Inventory.CompleteAction(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err, "failed to complete lifecycle action")
		return
	}
	writeJSON(w, http.StatusOK, action)
}

// UploadMovementForm handles PUT /api/v1/lifecycle-actions/{id}/movement-form.
// The body is the signed form as a PDF.
func (h *Handler) UploadMovementForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.Inventory.DB().GetAction(r.Context(), id); err != nil {
		writeAppError(w, r, err, "failed to get lifecycle action")
		return
	}

	// one byte over the limit lets the store report the size
	data, err := io.ReadAll(io.LimitReader(r.Body, documents.MaxMovementFormSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	rel, err := h.Documents.SaveMovementForm(id, data)
	if err != nil {
		writeAppError(w, r, err, "failed to store movement form")
		return
	}
	action, err := h.Inventory.AttachMovementForm(r.Context(), actor(r), id, rel)
	if err != nil {
		writeAppError(w, r, err, "failed to attach movement form")
		return
	}
	writeJSON(w, http.StatusOK, action)
}

type signedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MovementFormURL handles GET /api/v1/lifecycle-actions/{id}/movement-form
// and returns a download link valid for one hour.
func (h *Handler) MovementFormURL(w http.ResponseWriter, r *http.Request) {
	action, err := h.Inventory.DB().GetAction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err, "failed to get lifecycle action")
		return
	}
	if action.MovementFormPath == "" {
		writeError(w, http.StatusNotFound, "no movement form attached")
		return
	}
	tok, exp, err := h.Documents.Sign(action.MovementFormPath)
	if err != nil {
		writeAppError(w, r, err, "failed to sign movement form link")
		return
	}
	writeJSON(w, http.StatusOK, signedURL{
		URL:       "/files/" + action.MovementFormPath + "?token=" + url.QueryEscape(tok),
		ExpiresAt: exp,
	})
}

// ServeFile handles GET /files/{path...}. Access is granted by the signed
// token in the query string rather than a bearer token.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	rel := r.PathValue("path")
	if err := h.Documents.Verify(rel, r.URL.Query().Get("token")); err != nil {
		if errors.Is(err, documents.ErrInvalidSignature) {
			writeError(w, http.StatusForbidden, "invalid or expired link")
			return
		}
		writeAppError(w, r, err, "failed to verify link")
		return
	}
	f, err := h.Documents.Open(rel)
	if err != nil {
		writeAppError(w, r, err, "failed to open document")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeAppError(w, r, err, "failed to open document")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+path.Base(rel)+`"`)
	http.ServeContent(w, r, path.Base(rel), info.ModTime(), f)
}
