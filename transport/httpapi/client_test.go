package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	goCheckin "github.com/MrEthical07/goCheckin"
	"github.com/go-chi/chi/v5"
)

// fakeService is an in-memory check-in service: one account and a set of registered
// ticket IDs.
type fakeService struct {
	mu         sync.Mutex
	email      string
	password   string
	token      string
	registered map[uint64]bool
	failVerify bool
	lastAuth   string
	verifies   int
}

func newFakeService() *fakeService {
	return &fakeService{
		email:      "a@b.com",
		password:   "x",
		token:      "service-token",
		registered: map[uint64]bool{482: true},
	}
}

func (s *fakeService) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/auth/login", s.login)
	r.Get("/scan-qr/{ticketID}", s.verify)
	return r
}

func (s *fakeService) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "bad request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Email != s.email || req.Password != s.password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid email or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  map[string]any{"email": req.Email, "name": "Gate A"},
		"token": s.token,
	})
}

func (s *fakeService) verify(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "ticketID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifies++
	s.lastAuth = r.Header.Get("Authorization")
	if s.failVerify {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	if s.lastAuth != "Bearer "+s.token {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": s.registered[id]})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNewValidatesBaseURL(t *testing.T) {
	for _, base := range []string{"", "   ", "ftp://example.org", "://broken"} {
		if _, err := New(Config{BaseURL: base}); err == nil {
			t.Fatalf("expected error for base %q", base)
		}
	}
	c, err := New(Config{BaseURL: "https://api.example.org/v1/"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := c.endpoint("scan-qr", "5"); got != "https://api.example.org/v1/scan-qr/5" {
		t.Fatalf("unexpected endpoint %q", got)
	}
}

func TestLoginSuccessAndRejection(t *testing.T) {
	svc := newFakeService()
	c := newTestClient(t, svc.router())
	ctx := context.Background()

	resp, err := c.Login(ctx, "a@b.com", "x")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !resp.Success || resp.Token != "service-token" {
		t.Fatalf("unexpected response %+v", resp)
	}
	var user map[string]string
	if err := json.Unmarshal(resp.User, &user); err != nil || user["name"] != "Gate A" {
		t.Fatalf("unexpected user %s: %v", resp.User, err)
	}

	resp, err = c.Login(ctx, "a@b.com", "wrong")
	if err != nil {
		t.Fatalf("rejection must not be an error: %v", err)
	}
	if resp.Success || resp.Message != "Invalid email or password" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestLoginExplicitSuccessFalse(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "account disabled"})
	})
	c := newTestClient(t, r)

	resp, err := c.Login(context.Background(), "a@b.com", "x")
	if err != nil || resp.Success || resp.Message != "account disabled" {
		t.Fatalf("unexpected result %+v %v", resp, err)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantOK  bool
	}{
		{name: "ok", status: http.StatusOK, body: `{"success":true}`, wantOK: true},
		{name: "ok false", status: http.StatusOK, body: `{"success":false}`},
		{name: "not found", status: http.StatusNotFound, body: `not json`},
		{name: "forbidden", status: http.StatusForbidden, body: `{"success":false}`},
		{name: "server error", status: http.StatusInternalServerError, wantErr: ErrUnexpectedStatus},
		{name: "not modified", status: http.StatusNotModified, wantErr: ErrUnexpectedStatus},
		{name: "garbage", status: http.StatusOK, body: `<html>`, wantErr: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/scan-qr/{ticketID}", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			c := newTestClient(t, r)

			resp, err := c.Verify(context.Background(), 1, goCheckin.NewCredential("t"))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if resp.Success != tt.wantOK {
				t.Fatalf("expected success=%v, got %+v", tt.wantOK, resp)
			}
		})
	}
}

func TestVerifySendsBearerToken(t *testing.T) {
	svc := newFakeService()
	c := newTestClient(t, svc.router())

	resp, err := c.Verify(context.Background(), 482, goCheckin.NewCredential("service-token"))
	if err != nil || !resp.Success {
		t.Fatalf("unexpected result %+v %v", resp, err)
	}
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.lastAuth != "Bearer service-token" {
		t.Fatalf("unexpected Authorization header %q", svc.lastAuth)
	}
}

func TestVerifyHonorsContextDeadline(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/scan-qr/{ticketID}", func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-req.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	c := newTestClient(t, r)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.Verify(ctx, 1, goCheckin.NewCredential("t"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
