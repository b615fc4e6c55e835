package handlers

import (
	"net/http"
	"strconv"

	"github.com/tphummel/ict_assets/internal/db"
	"github.com/tphummel/ict_assets/internal/inventory"
	"github.com/tphummel/ict_assets/internal/lifecycle"
	"github.com/tphummel/ict_assets/internal/models"
)

type ticketRequest struct {
	AssetSerial string                `json:"asset_serial"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    models.TicketCategory `json:"category"`
	Priority    models.TicketPriority `json:"priority"`
	AssignedTo  string                `json:"assigned_to"`
}

// OpenTicket handles POST /api/v1/tickets.
func (h *Handler) OpenTicket(w http.ResponseWriter, r *http.Request) {
	var req ticketRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.Inventory.OpenTicket(r.Context(), actor(r), inventory.TicketInput(req))
	if err != nil {
		writeAppError(w, r, err, "failed to open ticket")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// ListTickets handles GET /api/v1/tickets with optional ?status= and
// ?asset_id= filters.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	f := db.TicketFilter{
		Status:  models.TicketStatus(r.URL.Query().Get("status")),
		AssetID: r.URL.Query().Get("asset_id"),
	}
	if f.Status != "" && !models.ValidTicketStatuses[f.Status] {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	tickets, err := h.Inventory.DB().ListTickets(r.Context(), f)
	if err != nil {
		writeAppError(w, r, err, "failed to list tickets")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(tickets))
}

// GetTicket handles GET /api/v1/tickets/{id}.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.Inventory.DB().GetTicket(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err, "failed to get ticket")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type ticketStatusRequest struct {
	Status models.TicketStatus `json:"status"`
}

// UpdateTicketStatus handles POST /api/v1/tickets/{id}/status.
func (h *Handler) UpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	var req ticketStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.Inventory.UpdateTicketStatus(r.Context(), actor(r), r.PathValue("id"), req.Status)
	if err != nil {
		writeAppError(w, r, err, "failed to update ticket")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type resolveRequest struct {
	Resolution        string  `json:"resolution"`
	Cost              float64 `json:"cost"`
	IsObsolete        bool    `json:"is_obsolete"`
	ObsoleteReason    string  `json:"obsolete_reason"`
	ReplacementSerial string  `json:"replacement_asset_serial"`
}

// ResolveTicket handles POST /api/v1/tickets/{id}/resolve.
func (h *Handler) ResolveTicket(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.Inventory.ResolveTicket(r.Context(), actor(r), r.PathValue("id"), lifecycle.Resolution(req))
	if err != nil {
		writeAppError(w, r, err, "failed to resolve ticket")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ListReplacements handles GET /api/v1/replacements with an optional
// ?serial= filter matching either side.
func (h *Handler) ListReplacements(w http.ResponseWriter, r *http.Request) {
	reps, err := h.Inventory.DB().ListReplacements(r.Context(), r.URL.Query().Get("serial"))
	if err != nil {
		writeAppError(w, r, err, "failed to list replacements")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(reps))
}

// ListAudit handles GET /api/v1/audit-logs with optional ?asset_serial= and
// ?limit= parameters.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	f := db.AuditFilter{AssetSerial: r.URL.Query().Get("asset_serial")}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}
	logs, err := h.Inventory.DB().ListAudit(r.Context(), f)
	if err != nil {
		writeAppError(w, r, err, "failed to list audit logs")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(logs))
}

// Dashboard handles GET /api/v1/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Inventory.Dashboard(r.Context())
	if err != nil {
		writeAppError(w, r, err, "failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
