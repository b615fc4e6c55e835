package handlers

import (
	"net/http"

	"github.com/tphummel/ict_assets/internal/db"
	"github.com/tphummel/ict_assets/internal/inventory"
	"github.com/tphummel/ict_assets/internal/models"
)

type assetRequest struct {
	Type         models.AssetType `json:"asset_type"`
	SerialNumber string           `json:"serial_number"`
	Brand        string           `json:"brand"`
	Model        string           `json:"model"`
	Version      int64            `json:"version"`
}

// CreateAsset handles POST /api/v1/assets. New assets always start in ICT
// custody; placement fields in the body are ignored.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.Inventory.CreateAsset(r.Context(), actor(r), inventory.NewAsset{
		Type:         req.Type,
		SerialNumber: req.SerialNumber,
		Brand:        req.Brand,
		Model:        req.Model,
	})
	if err != nil {
		writeAppError(w, r, err, "failed to create asset")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// ListAssets handles GET /api/v1/assets with optional ?type=, ?status= and
// ?serial= filters.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := db.AssetFilter{
		Type:   models.AssetType(q.Get("type")),
		Status: models.AssetStatus(q.Get("status")),
		Serial: q.Get("serial"),
	}
	if f.Type != "" && !models.ValidAssetTypes[f.Type] {
		writeError(w, http.StatusBadRequest, "invalid type")
		return
	}
	if f.Status != "" && !models.ValidAssetStatuses[f.Status] {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	assets, err := h.Inventory.DB().ListAssets(r.Context(), f)
	if err != nil {
		writeAppError(w, r, err, "failed to list assets")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(assets))
}

// GetAsset handles GET /api/v1/assets/{id}.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	a, err := h.Inventory.DB().GetAsset(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err, "failed to get asset")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// UpdateAsset handles PUT /api/v1/assets/{id}.
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.Inventory.UpdateAsset(r.Context(), actor(r), r.PathValue("id"), inventory.AssetUpdate{
		Type:         req.Type,
		SerialNumber: req.SerialNumber,
		Brand:        req.Brand,
		Model:        req.Model,
		Version:      req.Version,
	})
	if err != nil {
		writeAppError(w, r, err, "failed to update asset")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAsset handles DELETE /api/v1/assets/{id}.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := h.Inventory.DeleteAsset(r.Context(), actor(r), r.PathValue("id")); err != nil {
		writeAppError(w, r, err, "failed to delete asset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DisposeAsset handles POST /api/v1/assets/{id}/dispose.
func (h *Handler) DisposeAsset(w http.ResponseWriter, r *http.Request) {
	a, err := h.Inventory.DisposeAsset(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err, "failed to dispose asset")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ListPairs handles GET /api/v1/pairs.
func (h *Handler) ListPairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := h.Inventory.DB().ListPairs(r.Context())
	if err != nil {
		writeAppError(w, r, err, "failed to list pairs")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(pairs))
}

// GetPair handles GET /api/v1/pairs/{id}.
func (h *Handler) GetPair(w http.ResponseWriter, r *http.Request) {
	p, err := h.Inventory.DB().GetPair(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err, "failed to get pair")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DissolvePair handles DELETE /api/v1/pairs/{id}.
func (h *Handler) DissolvePair(w http.ResponseWriter, r *http.Request) {
	if err := h.Inventory.DissolvePair(r.Context(), actor(r), r.PathValue("id")); err != nil {
		writeAppError(w, r, err, "failed to dissolve pair")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
