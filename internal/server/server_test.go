package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"my-friends/backend/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		HTTPAddr:          ":0",
		StorageBackend:    "json",
		DataDir:           t.TempDir(),
		OTPTTL:            "5m",
		SessionCookieTTL:  "168h",
		TicketTTL:         "10m",
		OTPDelivery:       "console",
		OTPReturnToClient: true,
	}
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
	// session cookie captured from login/registration responses
	cookie *http.Cookie
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	return &client{t: t, base: srv.URL, http: srv.Client()}
}

func (c *client) do(method, path string, body any) (*http.Response, map[string]json.RawMessage) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		c.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatal(err)
	}
	defer resp.Body.Close()

	for _, ck := range resp.Cookies() {
		if ck.Name == "sessionId" {
			if ck.MaxAge < 0 {
				c.cookie = nil
			} else {
				c.cookie = ck
			}
		}
	}

	var fields map[string]json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&fields)
	return resp, fields
}

func (c *client) expect(method, path string, body any, wantStatus int) map[string]json.RawMessage {
	c.t.Helper()
	resp, fields := c.do(method, path, body)
	if resp.StatusCode != wantStatus {
		c.t.Fatalf("%s %s = %d, want %d (body %v)", method, path, resp.StatusCode, wantStatus, fields)
	}
	return fields
}

func (c *client) peekOTP(phone string) string {
	c.t.Helper()
	fields := c.expect(http.MethodGet, "/dev/otp?phone="+phone, nil, http.StatusOK)
	var code string
	if err := json.Unmarshal(fields["otp"], &code); err != nil {
		c.t.Fatalf("dev otp response: %v", err)
	}
	return code
}

func (c *client) register(phone, role, name, location string) {
	c.t.Helper()
	c.expect(http.MethodPost, "/api/auth/register/start",
		map[string]string{"phone": phone, "role": role}, http.StatusOK)
	code := c.peekOTP(phone)
	fields := c.expect(http.MethodPost, "/api/auth/register/verify",
		map[string]string{"phone": phone, "otp": code}, http.StatusOK)
	var ticket string
	if err := json.Unmarshal(fields["ticket"], &ticket); err != nil {
		c.t.Fatalf("verify response: %v", err)
	}
	c.expect(http.MethodPost, "/api/auth/register/complete",
		map[string]string{"ticket": ticket, "name": name, "location": location}, http.StatusOK)
	if c.cookie == nil {
		c.t.Fatal("registration did not set a session cookie")
	}
}

func TestEndToEndMarketplaceFlow(t *testing.T) {
	srv := newTestServer(t)

	requester := newClient(t, srv)
	requester.register("0811111111", "requester", "Somchai", "Bangkok")

	// Post a task.
	fields := requester.expect(http.MethodPost, "/api/tasks", map[string]any{
		"title":            "Buy lunch",
		"description":      "Pad thai from the canteen",
		"itemCost":         80,
		"serviceFee":       40,
		"deliveryLocation": "Dorm A",
	}, http.StatusCreated)
	var task struct {
		ID        string  `json:"id"`
		TotalCost float64 `json:"totalCost"`
		Status    string  `json:"status"`
	}
	if err := json.Unmarshal(fields["task"], &task); err != nil {
		t.Fatal(err)
	}
	if task.TotalCost != 120 || task.Status != "open" {
		t.Fatalf("task = %+v", task)
	}

	// Requesters cannot browse the open market.
	requester.expect(http.MethodGet, "/api/tasks/available", nil, http.StatusForbidden)

	helper := newClient(t, srv)
	helper.register("0822222222", "helper", "Suda", "Bangkok")

	fields = helper.expect(http.MethodGet, "/api/tasks/available", nil, http.StatusOK)
	var avail []struct {
		ID             string `json:"id"`
		RequesterPhone string `json:"requesterPhone"`
	}
	if err := json.Unmarshal(fields["tasks"], &avail); err != nil {
		t.Fatal(err)
	}
	if len(avail) != 1 || avail[0].ID != task.ID || avail[0].RequesterPhone != "0811111111" {
		t.Fatalf("available = %+v", avail)
	}

	helper.expect(http.MethodPost, fmt.Sprintf("/api/tasks/%s/accept", task.ID), nil, http.StatusOK)
	// A second accept loses.
	helper.expect(http.MethodPost, fmt.Sprintf("/api/tasks/%s/accept", task.ID), nil, http.StatusConflict)
	// Helpers cannot settle payment.
	helper.expect(http.MethodPost, fmt.Sprintf("/api/tasks/%s/payment", task.ID),
		map[string]string{"paymentMethod": "cash"}, http.StatusForbidden)

	requester.expect(http.MethodGet, fmt.Sprintf("/api/tasks/%s/payment", task.ID), nil, http.StatusOK)
	fields = requester.expect(http.MethodPost, fmt.Sprintf("/api/tasks/%s/payment", task.ID),
		map[string]string{"paymentMethod": "promptpay"}, http.StatusOK)
	var paid struct {
		Status        string `json:"status"`
		PaymentStatus string `json:"paymentStatus"`
	}
	if err := json.Unmarshal(fields["task"], &paid); err != nil {
		t.Fatal(err)
	}
	if paid.Status != "completed" || paid.PaymentStatus != "paid" {
		t.Fatalf("paid task = %+v", paid)
	}

	// History shows the completed task for both sides.
	for _, c := range []*client{requester, helper} {
		fields = c.expect(http.MethodGet, "/api/tasks/history", nil, http.StatusOK)
		var hist []struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(fields["tasks"], &hist); err != nil {
			t.Fatal(err)
		}
		if len(hist) != 1 || hist[0].ID != task.ID {
			t.Fatalf("history = %+v", hist)
		}
	}

	requester.expect(http.MethodGet, "/api/dashboard", nil, http.StatusOK)

	// Logout kills the session.
	requester.expect(http.MethodPost, "/api/auth/logout", nil, http.StatusOK)
	requester.expect(http.MethodGet, "/api/me", nil, http.StatusUnauthorized)
}

func TestLoginFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	c := newClient(t, srv)
	c.register("0811111111", "requester", "Somchai", "Bangkok")
	c.expect(http.MethodPost, "/api/auth/logout", nil, http.StatusOK)

	// Login for an unknown phone is a 404 so the UI can steer to signup.
	c.expect(http.MethodPost, "/api/auth/login", map[string]string{"phone": "0899999999"}, http.StatusNotFound)

	c.expect(http.MethodPost, "/api/auth/login", map[string]string{"phone": "0811111111"}, http.StatusOK)
	code := c.peekOTP("0811111111")

	// Wrong code leaves the challenge usable.
	c.expect(http.MethodPost, "/api/auth/login/verify",
		map[string]string{"phone": "0811111111", "otp": "000000"}, http.StatusUnauthorized)
	fields := c.expect(http.MethodPost, "/api/auth/login/verify",
		map[string]string{"phone": "0811111111", "otp": code}, http.StatusOK)

	var user struct {
		Phone string `json:"phone"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(fields["user"], &user); err != nil {
		t.Fatal(err)
	}
	if user.Phone != "0811111111" || user.Role != "requester" {
		t.Fatalf("user = %+v", user)
	}

	c.expect(http.MethodGet, "/api/me", nil, http.StatusOK)
}

func TestRegistrationDuplicatePhone(t *testing.T) {
	srv := newTestServer(t)

	c := newClient(t, srv)
	c.register("0811111111", "requester", "Somchai", "Bangkok")

	other := newClient(t, srv)
	other.expect(http.MethodPost, "/api/auth/register/start",
		map[string]string{"phone": "0811111111", "role": "helper"}, http.StatusConflict)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv)
	c.expect(http.MethodGet, "/healthz", nil, http.StatusOK)
}
