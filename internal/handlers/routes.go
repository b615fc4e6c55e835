package handlers

import (
	"net/http"

	"github.com/tphummel/ict_assets/internal/metrics"
	"github.com/tphummel/ict_assets/internal/middleware"
)

// access is the guard a route sits behind.
type access int

const (
	public access = iota
	signedIn
	mutate
	admin
)

// Routes builds the service mux. loginLimit throttles the login route and
// may be nil.
func (h *Handler) Routes(loginLimit func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	handle := func(pattern string, level access, fn http.HandlerFunc) {
		var next http.Handler = fn
		switch level {
		case mutate:
			next = middleware.Auth(h.Tokens, middleware.RequireMutate(next))
		case admin:
			next = middleware.Auth(h.Tokens, middleware.RequireAdmin(next))
		case signedIn:
			next = middleware.Auth(h.Tokens, next)
		}
		mux.Handle(pattern, metrics.Middleware(pattern, next))
	}

	// Service endpoints, no auth
	handle("GET /healthz", public, h.Health)
	mux.Handle("GET /metrics", metrics.Handler())
	handle("GET /openapi.yaml", public, h.OpenAPISpec)
	handle("GET /docs", public, h.Docs)
	handle("GET /files/{path...}", public, h.ServeFile)

	login := http.Handler(http.HandlerFunc(h.Login))
	if loginLimit != nil {
		login = loginLimit(login)
	}
	mux.Handle("POST /api/v1/auth/login", metrics.Middleware("POST /api/v1/auth/login", login))
	handle("GET /api/v1/auth/me", signedIn, h.Me)

	handle("POST /api/v1/users", admin, h.CreateUser)
	handle("GET /api/v1/users", admin, h.ListUsers)
	handle("PUT /api/v1/users/{id}", admin, h.UpdateUser)

	handle("POST /api/v1/holders", mutate, h.CreateHolder)
	handle("GET /api/v1/holders", signedIn, h.ListHolders)
	handle("GET /api/v1/holders/{account}", signedIn, h.GetHolder)

	handle("POST /api/v1/assets", mutate, h.CreateAsset)
	handle("GET /api/v1/assets", signedIn, h.ListAssets)
	handle("GET /api/v1/assets/{id}", signedIn, h.GetAsset)
	handle("PUT /api/v1/assets/{id}", mutate, h.UpdateAsset)
	handle("DELETE /api/v1/assets/{id}", admin, h.DeleteAsset)
	handle("POST /api/v1/assets/{id}/dispose", mutate, h.DisposeAsset)

	handle("GET /api/v1/pairs", signedIn, h.ListPairs)
	handle("GET /api/v1/pairs/{id}", signedIn, h.GetPair)
	handle("DELETE /api/v1/pairs/{id}", mutate, h.DissolvePair)

	handle("POST /api/v1/lifecycle-actions", mutate, h.SubmitAction)
	handle("GET /api/v1/lifecycle-actions", signedIn, h.ListActions)
	handle("GET /api/v1/lifecycle-actions/{id}", signedIn, h.GetAction)
	handle("POST /api/v1/lifecycle-actions/{id}/complete", mutate, h.CompleteAction)
	handle("PUT /api/v1/lifecycle-actions/{id}/movement-form", mutate, h.UploadMovementForm)
	handle("GET /api/v1/lifecycle-actions/{id}/movement-form", signedIn, h.MovementFormURL)

	handle("POST /api/v1/tickets", mutate, h.OpenTicket)
	handle("GET /api/v1/tickets", signedIn, h.ListTickets)
	handle("GET /api/v1/tickets/{id}", signedIn, h.GetTicket)
	handle("POST /api/v1/tickets/{id}/status", mutate, h.UpdateTicketStatus)
	handle("POST /api/v1/tickets/{id}/resolve", mutate, h.ResolveTicket)

	handle("GET /api/v1/replacements", signedIn, h.ListReplacements)
	handle("GET /api/v1/audit-logs", signedIn, h.ListAudit)
	handle("GET /api/v1/dashboard", signedIn, h.Dashboard)

	return mux
}
