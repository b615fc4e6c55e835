// Package apiclient is an HTTP client for the ict_assets REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tphummel/ict_assets/internal/auth"
	"github.com/tphummel/ict_assets/internal/models"
)

// Client is an HTTP client for the ict_assets REST API.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client targeting endpoint with Bearer token auth. token
// may be empty for Login.
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s (%d)", e.Message, e.Status)
	}
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

// do sends a request and decodes a response with status want into out.
func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
	}
	return apiErr
}

func withQuery(path string, q url.Values) string {
	if enc := q.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

// Session is a signed-in operator and their token.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login exchanges a personal number and password for a session token.
func (c *Client) Login(ctx context.Context, personalNumber, password string) (*Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"personal_number": personalNumber,
		"password":        password,
	}, http.StatusOK, &out)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &out, nil
}

// Me returns the identity behind the client's token.
func (c *Client) Me(ctx context.Context) (*auth.Identity, error) {
	var out auth.Identity
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("whoami: %w", err)
	}
	return &out, nil
}

// AssetFilter narrows ListAssets. Empty fields are ignored.
type AssetFilter struct {
	Type   string
	Status string
	Serial string
}

// ListAssets returns the assets matching f.
func (c *Client) ListAssets(ctx context.Context, f AssetFilter) ([]*models.Asset, error) {
	q := url.Values{}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Serial != "" {
		q.Set("serial", f.Serial)
	}
	var out []*models.Asset
	if err := c.do(ctx, http.MethodGet, withQuery("/api/v1/assets", q), nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return out, nil
}

// GetAsset fetches a single asset by ID.
func (c *Client) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	var out models.Asset
	if err := c.do(ctx, http.MethodGet, "/api/v1/assets/"+url.PathEscape(id), nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("get asset %q: %w", id, err)
	}
	return &out, nil
}

// NewAsset is the body of CreateAsset.
type NewAsset struct {
	Type         string `json:"asset_type"`
	SerialNumber string `json:"serial_number"`
	Brand        string `json:"brand,omitempty"`
	Model        string `json:"model,omitempty"`
}

// CreateAsset registers an asset and returns the server-assigned record.
func (c *Client) CreateAsset(ctx context.Context, a NewAsset) (*models.Asset, error) {
	var out models.Asset
	if err := c.do(ctx, http.MethodPost, "/api/v1/assets", a, http.StatusCreated, &out); err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}
	return &out, nil
}

// ActionRequest is the body of SubmitAction.
type ActionRequest struct {
	ActionType      string          `json:"action_type"`
	DeploymentType  string          `json:"deployment_type"`
	PairType        string          `json:"asset_pair_type,omitempty"`
	PrimarySerial   string          `json:"primary_asset_serial"`
	SecondarySerial string          `json:"secondary_asset_serial,omitempty"`
	To              models.Snapshot `json:"to"`
	Comments        string          `json:"comments,omitempty"`
	Pending         bool            `json:"pending,omitempty"`
}

// SubmitAction submits a lifecycle action.
func (c *Client) SubmitAction(ctx context.Context, a ActionRequest) (*models.LifecycleAction, error) {
	var out models.LifecycleAction
	if err := c.do(ctx, http.MethodPost, "/api/v1/lifecycle-actions", a, http.StatusCreated, &out); err != nil {
		return nil, fmt.Errorf("submit %s: %w", a.ActionType, err)
	}
	return &out, nil
}

// CompleteAction applies a pending lifecycle action.
func (c *Client) CompleteAction(ctx context.Context, id string) (*models.LifecycleAction, error) {
	var out models.LifecycleAction
	path := "/api/v1/lifecycle-actions/" + url.PathEscape(id) + "/complete"
	if err := c.do(ctx, http.MethodPost, path, nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("complete action %q: %w", id, err)
	}
	return &out, nil
}

// ListActions returns lifecycle actions, optionally filtered by status.
func (c *Client) ListActions(ctx context.Context, status string) ([]*models.LifecycleAction, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	var out []*models.LifecycleAction
	if err := c.do(ctx, http.MethodGet, withQuery("/api/v1/lifecycle-actions", q), nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	return out, nil
}

// TicketRequest is the body of OpenTicket.
type TicketRequest struct {
	AssetSerial string `json:"asset_serial"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	AssignedTo  string `json:"assigned_to,omitempty"`
}

// OpenTicket opens a maintenance ticket.
func (c *Client) OpenTicket(ctx context.Context, t TicketRequest) (*models.MaintenanceTicket, error) {
	var out models.MaintenanceTicket
	if err := c.do(ctx, http.MethodPost, "/api/v1/tickets", t, http.StatusCreated, &out); err != nil {
		return nil, fmt.Errorf("open ticket: %w", err)
	}
	return &out, nil
}

// Resolution is the body of ResolveTicket.
type Resolution struct {
	Resolution        string  `json:"resolution"`
	Cost              float64 `json:"cost,omitempty"`
	IsObsolete        bool    `json:"is_obsolete,omitempty"`
	ObsoleteReason    string  `json:"obsolete_reason,omitempty"`
	ReplacementSerial string  `json:"replacement_asset_serial,omitempty"`
}

// ResolveTicket resolves a maintenance ticket.
func (c *Client) ResolveTicket(ctx context.Context, id string, res Resolution) (*models.MaintenanceTicket, error) {
	var out models.MaintenanceTicket
	path := "/api/v1/tickets/" + url.PathEscape(id) + "/resolve"
	if err := c.do(ctx, http.MethodPost, path, res, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("resolve ticket %q: %w", id, err)
	}
	return &out, nil
}

// ListTickets returns tickets, optionally filtered by status.
func (c *Client) ListTickets(ctx context.Context, status string) ([]*models.MaintenanceTicket, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	var out []*models.MaintenanceTicket
	if err := c.do(ctx, http.MethodGet, withQuery("/api/v1/tickets", q), nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return out, nil
}

// ListAudit returns audit entries, newest first. limit <= 0 uses the server
// default.
func (c *Client) ListAudit(ctx context.Context, serial string, limit int) ([]*models.AuditLog, error) {
	q := url.Values{}
	if serial != "" {
		q.Set("asset_serial", serial)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []*models.AuditLog
	if err := c.do(ctx, http.MethodGet, withQuery("/api/v1/audit-logs", q), nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return out, nil
}

// Dashboard returns inventory totals and recent activity.
func (c *Client) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	var out models.DashboardStats
	if err := c.do(ctx, http.MethodGet, "/api/v1/dashboard", nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return &out, nil
}
