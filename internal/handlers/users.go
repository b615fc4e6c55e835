package handlers

import (
	"net/http"
	"time"

	"github.com/tphummel/ict_assets/internal/apperrors"
	"github.com/tphummel/ict_assets/internal/auth"
	"github.com/tphummel/ict_assets/internal/inventory"
	"github.com/tphummel/ict_assets/internal/middleware"
	"github.com/tphummel/ict_assets/internal/models"
)

type loginRequest struct {
	PersonalNumber string `json:"personal_number"`
	Password       string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.Inventory.Login(r.Context(), req.PersonalNumber, req.Password)
	if err != nil {
		writeAppError(w, r, err, "failed to sign in")
		return
	}
	tok, exp, err := h.Tokens.Issue(auth.Identity{
		UserID:         u.ID,
		Name:           u.Name,
		PersonalNumber: u.PersonalNumber,
		Role:           u.Role,
	})
	if err != nil {
		writeAppError(w, r, err, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: tok, ExpiresAt: exp, User: u})
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.FromContext(r.Context())
	writeJSON(w, http.StatusOK, id)
}

type userRequest struct {
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	PersonalNumber string      `json:"personal_number"`
	Password       string      `json:"password"`
	Role           models.Role `json:"role"`
	Department     string      `json:"department"`
	IsActive       *bool       `json:"is_active"`
}

func (req userRequest) input() inventory.UserInput {
	return inventory.UserInput{
		Name:           req.Name,
		Email:          req.Email,
		PersonalNumber: req.PersonalNumber,
		Password:       req.Password,
		Role:           req.Role,
		Department:     req.Department,
		IsActive:       req.IsActive,
	}
}

// CreateUser handles POST /api/v1/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.Inventory.CreateUser(r.Context(), req.input())
	if err != nil {
		writeAppError(w, r, err, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// ListUsers handles GET /api/v1/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Inventory.DB().ListUsers(r.Context())
	if err != nil {
		writeAppError(w, r, err, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(users))
}

// UpdateUser handles PUT /api/v1/users/{id}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.Inventory.UpdateUser(r.Context(), r.PathValue("id"), req.input())
	if err != nil {
		writeAppError(w, r, err, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type holderRequest struct {
	FullName      string `json:"full_name"`
	DomainAccount string `json:"domain_account"`
	Location      string `json:"location"`
	Department    string `json:"department"`
	Section       string `json:"section"`
}

// CreateHolder handles POST /api/v1/holders.
func (h *Handler) CreateHolder(w http.ResponseWriter, r *http.Request) {
	var req holderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	holder, err := h.Inventory.CreateHolder(r.Context(), inventory.HolderInput(req))
	if err != nil {
		writeAppError(w, r, err, "failed to create holder")
		return
	}
	writeJSON(w, http.StatusCreated, holder)
}

// ListHolders handles GET /api/v1/holders.
func (h *Handler) ListHolders(w http.ResponseWriter, r *http.Request) {
	holders, err := h.Inventory.DB().ListHolders(r.Context())
	if err != nil {
		writeAppError(w, r, err, "failed to list holders")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(holders))
}

// GetHolder handles GET /api/v1/holders/{account}.
func (h *Handler) GetHolder(w http.ResponseWriter, r *http.Request) {
	acct, err := models.NormalizeDomainAccount(r.PathValue("account"))
	if err != nil {
		writeAppError(w, r, apperrors.Wrap(apperrors.CodeInvalidDomainAccount,
			"domain account "+r.PathValue("account")+" is invalid", err), "")
		return
	}
	holder, err := h.Inventory.DB().GetHolderByAccount(r.Context(), acct)
	if err != nil {
		writeAppError(w, r, err, "failed to get holder")
		return
	}
	writeJSON(w, http.StatusOK, holder)
}
