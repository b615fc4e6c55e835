package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphummel/ict_assets/internal/models"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

// fakeAPI serves canned responses keyed by "METHOD /path" and records the
// last request.
func fakeAPI(t *testing.T, routes map[string]func() (int, any)) (*httptest.Server, *recorded) {
	t.Helper()
	last := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*last = recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, auth: r.Header.Get("Authorization")}
		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&last.body)
		}
		route, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found","code":"NOT_FOUND"}`))
			return
		}
		status, body := route()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, last
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func useServer(t *testing.T, srv *httptest.Server, token string) {
	t.Helper()
	t.Setenv(envEndpoint, srv.URL)
	t.Setenv(envToken, token)
}

var sampleAsset = &models.Asset{
	ID:           "a-1",
	Type:         models.TypeCPU,
	SerialNumber: "CPU-001",
	Brand:        "Dell",
	Model:        "OptiPlex",
	Holder:       "ICT",
	Location:     "Times Tower",
	Department:   "ICT",
	Status:       models.StatusInStore,
	Version:      1,
	UpdatedAt:    time.Now().Add(-2 * time.Hour),
}

func TestAssetsList(t *testing.T) {
	srv, last := fakeAPI(t, map[string]func() (int, any){
		"GET /api/v1/assets": func() (int, any) { return http.StatusOK, []*models.Asset{sampleAsset} },
	})
	useServer(t, srv, "tok")

	out, err := run(t, "", "assets", "list", "--type", "CPU", "--status", "In Store")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", last.auth)
	assert.Equal(t, "status=In+Store&type=CPU", last.query)
	assert.Contains(t, out, "SERIAL")
	assert.Contains(t, out, "CPU-001")
	assert.Contains(t, out, "2 hours ago")
}

func TestAssetsGet_JSON(t *testing.T) {
	srv, _ := fakeAPI(t, map[string]func() (int, any){
		"GET /api/v1/assets/a-1": func() (int, any) { return http.StatusOK, sampleAsset },
	})
	useServer(t, srv, "tok")

	out, err := run(t, "", "assets", "get", "a-1", "-o", "json")
	require.NoError(t, err)

	var got models.Asset
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "CPU-001", got.SerialNumber)
}

func TestAssetsCreate(t *testing.T) {
	srv, last := fakeAPI(t, map[string]func() (int, any){
		"POST /api/v1/assets": func() (int, any) { return http.StatusCreated, sampleAsset },
	})
	useServer(t, srv, "tok")

	_, err := run(t, "", "assets", "create", "--type", "CPU", "--serial", "CPU-001", "--brand", "Dell")
	require.NoError(t, err)
	assert.Equal(t, "CPU", last.body["asset_type"])
	assert.Equal(t, "CPU-001", last.body["serial_number"])
	assert.Equal(t, "Dell", last.body["brand"])

	_, err = run(t, "", "assets", "create", "--type", "CPU")
	assert.ErrorContains(t, err, "--serial are required")
}

func TestLogin(t *testing.T) {
	srv, last := fakeAPI(t, map[string]func() (int, any){
		"POST /api/v1/auth/login": func() (int, any) {
			return http.StatusOK, map[string]any{
				"token":      "signed.jwt.token",
				"expires_at": time.Now().Add(12 * time.Hour),
				"user":       models.User{Name: "Ada", Role: models.RoleICTOfficer},
			}
		},
	})
	useServer(t, srv, "")

	out, err := run(t, "hunter22\n", "login", "-u", "K00000001", "--password-stdin")
	require.NoError(t, err)

	assert.Empty(t, last.auth)
	assert.Equal(t, "K00000001", last.body["personal_number"])
	assert.Equal(t, "hunter22", last.body["password"])
	assert.Contains(t, out, "Signed in as Ada (ICT Officer)")
	assert.Contains(t, out, "export ICT_ASSETS_TOKEN=signed.jwt.token")
}

func TestLogin_Validation(t *testing.T) {
	srv, _ := fakeAPI(t, nil)
	useServer(t, srv, "")

	_, err := run(t, "pw\n", "login", "--password-stdin")
	assert.ErrorContains(t, err, "--personal-number is required")

	_, err = run(t, "pw\n", "login", "-u", "K00000001")
	assert.ErrorContains(t, err, "--password-stdin is required")

	_, err = run(t, "\n", "login", "-u", "K00000001", "--password-stdin")
	assert.ErrorContains(t, err, "empty password")
}

func TestMissingConfig(t *testing.T) {
	t.Setenv(envEndpoint, "")
	t.Setenv(envToken, "")

	_, err := run(t, "", "assets", "list")
	assert.ErrorContains(t, err, "no endpoint")

	_, err = run(t, "", "assets", "list", "--endpoint", "http://127.0.0.1:1")
	assert.ErrorContains(t, err, "not logged in")

	_, err = run(t, "", "assets", "list", "--endpoint", "http://127.0.0.1:1", "--token", "t", "-o", "yaml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	srv, last := fakeAPI(t, map[string]func() (int, any){
		"GET /api/v1/dashboard": func() (int, any) { return http.StatusOK, &models.DashboardStats{} },
	})
	t.Setenv(envEndpoint, "http://127.0.0.1:1")
	t.Setenv(envToken, "env-token")

	_, err := run(t, "", "dashboard", "--endpoint", srv.URL, "--token", "flag-token")
	require.NoError(t, err)
	assert.Equal(t, "Bearer flag-token", last.auth)
}

func TestLifecycleSubmit(t *testing.T) {
	srv, last := fakeAPI(t, map[string]func() (int, any){
		"POST /api/v1/lifecycle-actions": func() (int, any) {
			return http.StatusCreated, &models.LifecycleAction{
				ID:              "act-1",
				ActionType:      models.ActionNewDeployment,
				PrimarySerial:   "CPU-001",
				SecondarySerial: "MON-001",
				Status:          models.ActionCompleted,
				RequestedBy:     "Ada",
				RequestDate:     time.Now(),
			}
		},
	})
	useServer(t, srv, "tok")

	out, err := run(t, "", "lifecycle", "submit",
		"--action", "New Deployment", "--deployment-type", "Pair", "--pair-type", "PC",
		"--primary", "CPU-001", "--secondary", "MON-001",
		"--holder", "Jane Doe", "--domain-account", "K12345678", "--location", "Times Tower", "--department", "Finance")
	require.NoError(t, err)

	assert.Equal(t, "New Deployment", last.body["action_type"])
	assert.Equal(t, "Pair", last.body["deployment_type"])
	assert.Equal(t, "PC", last.body["asset_pair_type"])
	assert.Equal(t, "MON-001", last.body["secondary_asset_serial"])
	to, ok := last.body["to"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", to["holder"])
	assert.Equal(t, "K12345678", to["domain_account"])
	assert.NotContains(t, last.body, "pending")
	assert.Contains(t, out, "act-1")
	assert.Contains(t, out, "Completed")
}

func TestLifecycleSubmit_APIError(t *testing.T) {
	srv, _ := fakeAPI(t, map[string]func() (int, any){
		"POST /api/v1/lifecycle-actions": func() (int, any) {
			return http.StatusConflict, map[string]string{"error": "asset CPU-001 is already in use", "code": "ALREADY_IN_USE"}
		},
	})
	useServer(t, srv, "tok")

	_, err := run(t, "", "lifecycle", "submit", "--action", "Redeployment", "--primary", "CPU-001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in use")
	assert.Contains(t, err.Error(), "ALREADY_IN_USE")
}

func TestLifecycleCompleteAndList(t *testing.T) {
	action := &models.LifecycleAction{ID: "act-9", ActionType: models.ActionSurrender, PrimarySerial: "MON-002", Status: models.ActionCompleted}
	srv, last := fakeAPI(t, map[string]func() (int, any){
		"POST /api/v1/lifecycle-actions/act-9/complete": func() (int, any) { return http.StatusOK, action },
		"GET /api/v1/lifecycle-actions":                 func() (int, any) { return http.StatusOK, []*models.LifecycleAction{action} },
	})
	useServer(t, srv, "tok")

	out, err := run(t, "", "lifecycle", "complete", "act-9")
	require.NoError(t, err)
	assert.Contains(t, out, "Surrender")

	_, err = run(t, "", "lifecycle", "list", "--status", "Pending")
	require.NoError(t, err)
	assert.Equal(t, "status=Pending", last.query)
}

func TestTickets(t *testing.T) {
	ticket := &models.MaintenanceTicket{
		ID:           "t-1",
		AssetSerial:  "CPU-001",
		Title:        "No display",
		Priority:     models.PriorityHigh,
		Status:       models.TicketOpen,
		DateReceived: time.Now(),
	}
	srv, last := fakeAPI(t, map[string]func() (int, any){
		"POST /api/v1/tickets":             func() (int, any) { return http.StatusCreated, ticket },
		"POST /api/v1/tickets/t-1/resolve": func() (int, any) { return http.StatusOK, ticket },
		"GET /api/v1/tickets":              func() (int, any) { return http.StatusOK, []*models.MaintenanceTicket{ticket} },
	})
	useServer(t, srv, "tok")

	out, err := run(t, "", "tickets", "open", "--serial", "CPU-001", "--title", "No display", "--priority", "High")
	require.NoError(t, err)
	assert.Equal(t, "CPU-001", last.body["asset_serial"])
	assert.Equal(t, "Hardware", last.body["category"])
	assert.Contains(t, out, "No display")

	_, err = run(t, "", "tickets", "resolve", "t-1", "--resolution", "Beyond repair", "--obsolete", "--reason", "board", "--replacement", "CPU-002")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/tickets/t-1/resolve", last.path)
	assert.Equal(t, true, last.body["is_obsolete"])
	assert.Equal(t, "CPU-002", last.body["replacement_asset_serial"])

	_, err = run(t, "", "tickets", "resolve", "t-1", "--resolution", "fixed", "--replacement", "CPU-002")
	assert.ErrorContains(t, err, "require --obsolete")

	_, err = run(t, "", "tickets", "list", "--status", "Open")
	require.NoError(t, err)
	assert.Equal(t, "status=Open", last.query)
}

func TestAuditAndDashboard(t *testing.T) {
	entry := &models.AuditLog{AssetSerial: "CPU-001", Action: "New Deployment", PerformedBy: "Ada", Timestamp: time.Now(), Details: "deployed to Jane Doe"}
	srv, last := fakeAPI(t, map[string]func() (int, any){
		"GET /api/v1/audit-logs": func() (int, any) { return http.StatusOK, []*models.AuditLog{entry} },
		"GET /api/v1/dashboard": func() (int, any) {
			return http.StatusOK, &models.DashboardStats{TotalAssets: 1200, ActiveAssets: 3, TotalPairs: 2, DeployedPairs: 1, RecentActivities: []*models.AuditLog{entry}}
		},
	})
	useServer(t, srv, "tok")

	out, err := run(t, "", "audit", "--serial", "CPU-001", "--limit", "5")
	require.NoError(t, err)
	assert.Equal(t, "asset_serial=CPU-001&limit=5", last.query)
	assert.Contains(t, out, "deployed to Jane Doe")

	out, err = run(t, "", "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "Recent activity:")
	assert.Contains(t, out, "New Deployment")
}

func TestLifecycleSubmit_ExampleAccountIsValid(t *testing.T) {
	cmd := newLifecycleSubmitCmd(&globalOptions{})
	_, rest, ok := strings.Cut(cmd.Example, "--domain-account ")
	require.True(t, ok, "example sets --domain-account")
	value, _, _ := strings.Cut(rest, " ")

	_, err := models.NormalizeDomainAccount(value)
	assert.NoError(t, err, value)
}
