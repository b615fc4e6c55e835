package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tphummel/ict_assets/internal/auth"
	"github.com/tphummel/ict_assets/internal/middleware"
	"github.com/tphummel/ict_assets/internal/models"
)

const testSecret = "super-secret-key"

// okHandler is a trivial next handler that records it was reached.
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func issue(t *testing.T, iss *auth.Issuer, role models.Role) string {
	t.Helper()
	tok, _, err := iss.Issue(auth.Identity{UserID: "u1", Name: "Ann", PersonalNumber: "K12345678", Role: role})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func TestAuth(t *testing.T) {
	iss := auth.NewIssuer(testSecret, time.Hour)
	valid := issue(t, iss, models.RoleICTOfficer)
	foreign := issue(t, auth.NewIssuer("other-secret", time.Hour), models.RoleICTOfficer)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantReach  bool // whether the next handler should be called
	}{
		{
			name:       "no header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
			wantReach:  false,
		},
		{
			name:       "basic auth scheme",
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
			wantReach:  false,
		},
		{
			name:       "bearer prefix only",
			authHeader: "Bearer ",
			wantStatus: http.StatusUnauthorized,
			wantReach:  false,
		},
		{
			name:       "garbage token",
			authHeader: "Bearer wrong-token",
			wantStatus: http.StatusUnauthorized,
			wantReach:  false,
		},
		{
			name:       "token signed with another key",
			authHeader: "Bearer " + foreign,
			wantStatus: http.StatusUnauthorized,
			wantReach:  false,
		},
		{
			name:       "lowercase bearer",
			authHeader: "bearer " + valid,
			wantStatus: http.StatusUnauthorized,
			wantReach:  false,
		},
		{
			name:       "valid token",
			authHeader: "Bearer " + valid,
			wantStatus: http.StatusOK,
			wantReach:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				w.WriteHeader(http.StatusOK)
			})

			handler := middleware.Auth(iss, next)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if reached != tt.wantReach {
				t.Errorf("handler reached: got %v, want %v", reached, tt.wantReach)
			}
		})
	}
}

func TestAuth_StoresIdentity(t *testing.T) {
	iss := auth.NewIssuer(testSecret, time.Hour)
	var got auth.Identity
	handler := middleware.Auth(iss, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.FromContext(r.Context())
		if !ok {
			t.Error("identity missing from context")
		}
		got = id
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, iss, models.RoleAdmin))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.UserID != "u1" || got.Role != models.RoleAdmin {
		t.Errorf("identity: got %+v", got)
	}
}

func TestAuth_UnauthorizedResponseIsJSON(t *testing.T) {
	handler := middleware.Auth(auth.NewIssuer(testSecret, time.Hour), okHandler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	ct := rec.Header().Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("Content-Type on 401: got %q, want application/json", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode 401 body: %v", err)
	}
	if body["error"] != "unauthorized" {
		t.Errorf("error: got %q, want unauthorized", body["error"])
	}
}

func TestRoleGuards_ForbiddenResponseIsJSON(t *testing.T) {
	iss := auth.NewIssuer(testSecret, time.Hour)
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, iss, models.RoleEndUser))
	rec := httptest.NewRecorder()
	middleware.Auth(iss, middleware.RequireAdmin(okHandler)).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type on 403: got %q, want application/json", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode 403 body: %v", err)
	}
	if body["error"] != "forbidden" {
		t.Errorf("error: got %q, want forbidden", body["error"])
	}
}

func TestRoleGuards(t *testing.T) {
	iss := auth.NewIssuer(testSecret, time.Hour)
	tests := []struct {
		role       models.Role
		wantMutate int
		wantAdmin  int
	}{
		{models.RoleAdmin, http.StatusOK, http.StatusOK},
		{models.RoleICTOfficer, http.StatusOK, http.StatusForbidden},
		{models.RoleHOD, http.StatusForbidden, http.StatusForbidden},
		{models.RoleEndUser, http.StatusForbidden, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			tok := issue(t, iss, tt.role)
			for _, c := range []struct {
				guard func(http.Handler) http.Handler
				want  int
			}{
				{middleware.RequireMutate, tt.wantMutate},
				{middleware.RequireAdmin, tt.wantAdmin},
			} {
				req := httptest.NewRequest(http.MethodPost, "/", nil)
				req.Header.Set("Authorization", "Bearer "+tok)
				rec := httptest.NewRecorder()
				middleware.Auth(iss, c.guard(okHandler)).ServeHTTP(rec, req)
				if rec.Code != c.want {
					t.Errorf("status: got %d, want %d", rec.Code, c.want)
				}
			}
		})
	}
}

func TestRoleGuards_WithoutAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.RequireMutate(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}
