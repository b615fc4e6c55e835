package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tphummel/ict_assets/internal/auth"
)

// Verifier checks a bearer token and returns the identity it carries.
type Verifier interface {
	Verify(token string) (auth.Identity, error)
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by Auth.
func FromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(auth.Identity)
	return id, ok
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func unauthorized(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func forbidden(w http.ResponseWriter) {
	writeJSONError(w, http.StatusForbidden, "forbidden")
}

// Auth returns a handler that requires a valid Bearer token before
// delegating to next. Responds with 401 if the header is missing or the
// token does not verify.
func Auth(v Verifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(w)
			return
		}
		id, err := v.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireMutate lets through identities allowed to change inventory state.
// It must run inside Auth.
func RequireMutate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			unauthorized(w)
			return
		}
		if !id.CanMutate() {
			forbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin lets through Admin identities only. It must run inside Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			unauthorized(w)
			return
		}
		if !id.IsAdmin() {
			forbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
