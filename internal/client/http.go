package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alfredjeanlab/parish/internal/model"
	"github.com/alfredjeanlab/parish/internal/session"
)

// HTTPClient implements Client using the parish HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func userPath(userID string, rest ...string) string {
	p := "/v1/users/" + url.PathEscape(userID)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func (c *HTTPClient) Broadcast(ctx context.Context, ev model.Event) (*BroadcastResult, error) {
	var res BroadcastResult
	if err := c.doJSON(ctx, http.MethodPost, "/v1/broadcasts", ev, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) ListBroadcasts(ctx context.Context) ([]model.BroadcastRecord, error) {
	var resp struct {
		Broadcasts []model.BroadcastRecord `json:"broadcasts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/broadcasts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Broadcasts, nil
}

func (c *HTTPClient) SetEvents(ctx context.Context, evs []model.Event) (int, error) {
	if evs == nil {
		evs = []model.Event{}
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/v1/events", evs, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *HTTPClient) ListEvents(ctx context.Context) ([]model.Event, error) {
	var resp struct {
		Events []model.Event `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/events", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

func (c *HTTPClient) ListNotifications(ctx context.Context, userID string) (*NotificationList, error) {
	var resp NotificationList
	if err := c.doJSON(ctx, http.MethodGet, userPath(userID, "notifications"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) UnreadCount(ctx context.Context, userID string) (int, error) {
	var resp struct {
		Unread int `json:"unread"`
	}
	if err := c.doJSON(ctx, http.MethodGet, userPath(userID, "notifications", "unread"), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Unread, nil
}

// AddEventNotification returns the server's insert result ("inserted" or
// "duplicate").
func (c *HTTPClient) AddEventNotification(ctx context.Context, userID string, ev model.Event, isReminder bool) (string, error) {
	body := map[string]any{"event": ev, "is_reminder": isReminder}
	var resp struct {
		Result string `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodPost, userPath(userID, "notifications"), body, &resp); err != nil {
		return "", err
	}
	return resp.Result, nil
}

func (c *HTTPClient) AddSystemNotification(ctx context.Context, userID, title, message string) error {
	body := map[string]string{"title": title, "message": message}
	return c.doJSON(ctx, http.MethodPost, userPath(userID, "notifications"), body, nil)
}

func (c *HTTPClient) MarkRead(ctx context.Context, userID, id string) error {
	return c.doJSON(ctx, http.MethodPost, userPath(userID, "notifications", url.PathEscape(id), "read"), nil, nil)
}

func (c *HTTPClient) MarkAllRead(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodPost, userPath(userID, "notifications", "read"), nil, nil)
}

func (c *HTTPClient) DeleteNotification(ctx context.Context, userID, id string) error {
	return c.doJSON(ctx, http.MethodDelete, userPath(userID, "notifications", url.PathEscape(id)), nil, nil)
}

func (c *HTTPClient) ClearNotifications(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodDelete, userPath(userID, "notifications"), nil, nil)
}

func (c *HTTPClient) StartSession(ctx context.Context, userID, role string) (*session.Entry, error) {
	body := map[string]string{}
	if role != "" {
		body["role"] = role
	}
	var entry session.Entry
	if err := c.doJSON(ctx, http.MethodPost, userPath(userID, "session"), body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *HTTPClient) EndSession(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodDelete, userPath(userID, "session"), nil, nil)
}

func (c *HTTPClient) ListSessions(ctx context.Context) ([]session.Entry, error) {
	var resp struct {
		Sessions []session.Entry `json:"sessions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *HTTPClient) RequestReset(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodPost, userPath(userID, "reset"), nil, nil)
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
