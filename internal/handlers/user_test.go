// internal/handlers/user_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/jason-s-yu/rankboard/internal/auth"
	"github.com/jason-s-yu/rankboard/internal/events"
	"github.com/jason-s-yu/rankboard/internal/models"
	"github.com/jason-s-yu/rankboard/internal/registry"
)

func newTestServer() *Server {
	fanout := events.NewFanout(nil)
	reg := registry.New(fanout, nil, nil)
	return NewServer(reg, fanout, nil)
}

func doJSON(t *testing.T, h http.HandlerFunc, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Cookie", "auth_token="+token)
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

// TestUserFlow is a high-level test covering the full operation surface:
// register, login, balance and points updates, reads, and leaderboard.
func TestUserFlow(t *testing.T) {
	auth.Init()
	srv := newTestServer()

	aliceID := uuid.New()
	bobID := uuid.New()
	aliceToken, _ := auth.CreateSessionToken(aliceID)
	bobToken, _ := auth.CreateSessionToken(bobID)

	// register alice
	w := doJSON(t, srv.RegisterHandler(), "POST", "/user/register", aliceToken, `{"display_name":"Alice"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 created, got %d, body=%s", w.Code, w.Body.String())
	}
	var rec models.UserRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	if rec.DisplayName != "Alice" || rec.Identity != aliceID {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// duplicate registration conflicts
	w = doJSON(t, srv.RegisterHandler(), "POST", "/user/register", aliceToken, `{"display_name":"Alice"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 conflict, got %d", w.Code)
	}

	// missing token is rejected
	w = doJSON(t, srv.LoginHandler(), "POST", "/user/login", "", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for missing token, got %d", w.Code)
	}

	// login before registration fails for bob
	w = doJSON(t, srv.LoginHandler(), "POST", "/user/login", bobToken, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unregistered login, got %d", w.Code)
	}

	// register bob, then the rest of alice's flow
	w = doJSON(t, srv.RegisterHandler(), "POST", "/user/register", bobToken, `{"display_name":"Bob"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 created, got %d", w.Code)
	}

	w = doJSON(t, srv.LoginHandler(), "POST", "/user/login", aliceToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d", w.Code)
	}

	w = doJSON(t, srv.UpdateBalanceHandler(), "POST", "/user/balance", aliceToken, `{"new_balance":100}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d, body=%s", w.Code, w.Body.String())
	}

	// negative values are rejected at the boundary
	w = doJSON(t, srv.UpdateBalanceHandler(), "POST", "/user/balance", aliceToken, `{"new_balance":-5}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative balance, got %d", w.Code)
	}

	w = doJSON(t, srv.UpdatePointsHandler(), "POST", "/user/points", aliceToken, `{"new_points":50}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d", w.Code)
	}
	w = doJSON(t, srv.UpdatePointsHandler(), "POST", "/user/points", bobToken, `{"new_points":60}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d", w.Code)
	}

	// read endpoints
	w = doJSON(t, srv.UserReadHandler(), "GET", "/users/"+aliceID.String(), "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("failed to decode user: %v", err)
	}
	if rec.Balance != 100 || rec.Points != 50 || !rec.LoggedIn {
		t.Fatalf("unexpected record state: %+v", rec)
	}

	w = doJSON(t, srv.UserReadHandler(), "GET", "/users/"+aliceID.String()+"/position", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d", w.Code)
	}
	var posResp map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &posResp); err != nil {
		t.Fatalf("failed to decode position: %v", err)
	}
	if posResp["position"] != 2 {
		t.Fatalf("expected alice at position 2, got %d", posResp["position"])
	}

	// leaderboard parallel arrays, most points first
	w = doJSON(t, srv.LeaderboardHandler(), "GET", "/leaderboard", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d", w.Code)
	}
	var lb leaderboardResponse
	if err := json.Unmarshal(w.Body.Bytes(), &lb); err != nil {
		t.Fatalf("failed to decode leaderboard: %v", err)
	}
	if len(lb.Identities) != 2 || len(lb.Points) != 2 {
		t.Fatalf("expected 2 leaderboard rows, got %d/%d", len(lb.Identities), len(lb.Points))
	}
	if lb.Identities[0] != bobID || lb.Points[0] != 60 || lb.Identities[1] != aliceID || lb.Points[1] != 50 {
		t.Fatalf("unexpected leaderboard order: %+v %+v", lb.Identities, lb.Points)
	}

	// reads for unknown identities 404
	w = doJSON(t, srv.UserReadHandler(), "GET", "/users/"+uuid.New().String()+"/balance", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown identity, got %d", w.Code)
	}

	// logout finishes the flow
	w = doJSON(t, srv.LogoutHandler(), "POST", "/user/logout", aliceToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d", w.Code)
	}
	w = doJSON(t, srv.UserReadHandler(), "GET", "/users/"+aliceID.String()+"/logged-in", "", "")
	var liResp map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &liResp); err != nil {
		t.Fatalf("failed to decode logged-in: %v", err)
	}
	if liResp["logged_in"] {
		t.Fatalf("expected alice logged out")
	}
}

func TestSessionHandler(t *testing.T) {
	auth.Init()
	srv := newTestServer()

	// disabled without an access key hash
	w := doJSON(t, srv.SessionHandler(), "POST", "/session", "", `{"access_key":"secret"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when disabled, got %d", w.Code)
	}

	hash, err := auth.HashAccessKey("secret", auth.Params)
	if err != nil {
		t.Fatalf("failed to hash access key: %v", err)
	}
	srv.AccessKeyHash = hash

	// wrong key
	w = doJSON(t, srv.SessionHandler(), "POST", "/session", "", `{"access_key":"wrong"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong key, got %d", w.Code)
	}

	// correct key mints a token bound to a fresh identity
	w = doJSON(t, srv.SessionHandler(), "POST", "/session", "", `{"access_key":"secret"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d, body=%s", w.Code, w.Body.String())
	}
	var resp sessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode session response: %v", err)
	}
	identity, err := auth.IdentityFromToken(resp.Token)
	if err != nil {
		t.Fatalf("token did not verify: %v", err)
	}
	if identity != resp.Identity {
		t.Fatalf("token identity %v != response identity %v", identity, resp.Identity)
	}

	// a supplied identity is honored
	want := uuid.New()
	w = doJSON(t, srv.SessionHandler(), "POST", "/session", "", `{"access_key":"secret","identity":"`+want.String()+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode session response: %v", err)
	}
	if resp.Identity != want {
		t.Fatalf("expected identity %v, got %v", want, resp.Identity)
	}
}
