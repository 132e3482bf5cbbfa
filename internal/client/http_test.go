package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alfredjeanlab/parish/internal/model"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	method  string
	path    string
	rawPath string
	body    string
	auth    string

	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.rawPath = r.URL.RawPath
	h.auth = r.Header.Get("Authorization")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

func newTestClient(t *testing.T, h http.Handler, token string) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", token)
}

func TestBroadcast(t *testing.T) {
	h := &testHandler{statusCode: http.StatusCreated, responseBody: `{"result":"appended","ok":true}`}
	c := newTestClient(t, h, "tok")

	res, err := c.Broadcast(context.Background(), model.Event{ID: "e1", Title: "Carols"})
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if !res.OK || res.Result != "appended" {
		t.Errorf("result = %+v", res)
	}
	if h.method != "POST" || h.path != "/v1/broadcasts" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.auth != "Bearer tok" {
		t.Errorf("auth = %q", h.auth)
	}
	var sent model.Event
	if err := json.Unmarshal([]byte(h.body), &sent); err != nil || sent.Title != "Carols" {
		t.Errorf("body = %s", h.body)
	}
}

func TestRequestPaths(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		call       func(c *HTTPClient) error
		wantMethod string
		wantPath   string
	}{
		{"list notifications", func(c *HTTPClient) error { _, err := c.ListNotifications(ctx, "alice"); return err }, "GET", "/v1/users/alice/notifications"},
		{"unread", func(c *HTTPClient) error { _, err := c.UnreadCount(ctx, "alice"); return err }, "GET", "/v1/users/alice/notifications/unread"},
		{"mark read", func(c *HTTPClient) error { return c.MarkRead(ctx, "alice", "n1") }, "POST", "/v1/users/alice/notifications/n1/read"},
		{"mark all read", func(c *HTTPClient) error { return c.MarkAllRead(ctx, "alice") }, "POST", "/v1/users/alice/notifications/read"},
		{"delete", func(c *HTTPClient) error { return c.DeleteNotification(ctx, "alice", "n1") }, "DELETE", "/v1/users/alice/notifications/n1"},
		{"clear", func(c *HTTPClient) error { return c.ClearNotifications(ctx, "alice") }, "DELETE", "/v1/users/alice/notifications"},
		{"end session", func(c *HTTPClient) error { return c.EndSession(ctx, "alice") }, "DELETE", "/v1/users/alice/session"},
		{"reset", func(c *HTTPClient) error { return c.RequestReset(ctx, "alice") }, "POST", "/v1/users/alice/reset"},
		{"sessions", func(c *HTTPClient) error { _, err := c.ListSessions(ctx); return err }, "GET", "/v1/sessions"},
		{"events", func(c *HTTPClient) error { _, err := c.ListEvents(ctx); return err }, "GET", "/v1/events"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &testHandler{responseBody: `{}`}
			c := newTestClient(t, h, "")
			if err := tt.call(c); err != nil {
				t.Fatalf("call: %v", err)
			}
			if h.method != tt.wantMethod || h.path != tt.wantPath {
				t.Errorf("request = %s %s, want %s %s", h.method, h.path, tt.wantMethod, tt.wantPath)
			}
			if h.auth != "" {
				t.Errorf("unexpected auth header %q", h.auth)
			}
		})
	}
}

func TestUserIDIsEscaped(t *testing.T) {
	h := &testHandler{responseBody: `{"unread":3}`}
	c := newTestClient(t, h, "")
	n, err := c.UnreadCount(context.Background(), "a/b")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if n != 3 {
		t.Errorf("unread = %d", n)
	}
	if h.rawPath != "/v1/users/a%2Fb/notifications/unread" {
		t.Errorf("raw path = %q", h.rawPath)
	}
}

func TestStartSession(t *testing.T) {
	h := &testHandler{statusCode: http.StatusCreated, responseBody: `{"user_id":"alice","role":"member","session_id":"s1","touches":1}`}
	c := newTestClient(t, h, "")
	e, err := c.StartSession(context.Background(), "alice", "member")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if e.SessionID != "s1" || e.Role != "member" {
		t.Errorf("entry = %+v", e)
	}
	if h.body != `{"role":"member"}` {
		t.Errorf("body = %s", h.body)
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"json error", http.StatusBadRequest, `{"error":"title or name is required"}`, "title or name is required"},
		{"plain body", http.StatusBadGateway, `upstream down`, "upstream down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &testHandler{statusCode: tt.status, responseBody: tt.body}, "")
			_, err := c.Broadcast(context.Background(), model.Event{})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T: %v", err, err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Message != tt.wantMsg {
				t.Errorf("err = %+v", apiErr)
			}
		})
	}
}

func TestNoContent(t *testing.T) {
	c := newTestClient(t, &testHandler{statusCode: http.StatusNoContent}, "")
	if err := c.EndSession(context.Background(), "alice"); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
}
