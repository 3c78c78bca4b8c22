package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"cmdgate/internal/models"
	"cmdgate/internal/ratelimit"
	"cmdgate/internal/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemory()
	err := st.Tx(context.Background(), func(tx store.Tx) error {
		admin := &models.User{Email: "admin@example.com", Role: models.RoleAdmin, APIKey: "admin-key", Credits: 100}
		if err := tx.CreateUser(admin); err != nil {
			return err
		}
		member := &models.User{Email: "member@example.com", Role: models.RoleMember, APIKey: "member-key", Credits: 5}
		if err := tx.CreateUser(member); err != nil {
			return err
		}
		return tx.CreateRule(&models.Rule{Pattern: `^ls`, Action: models.ActionAutoAccept, Priority: 1})
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	r := NewRouter(st, ratelimit.NewMemory(ratelimit.MemoryConfig{}), RouterConfig{
		JWTSecret:    "test-secret",
		SubmitLimit:  1000,
		SubmitWindow: time.Minute,
	})
	return r, st
}

func doJSON(t *testing.T, r *gin.Engine, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_MissingCredentialUnauthorized(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/commands", "", gin.H{"command": "ls"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRouter_BadAPIKeyUnauthorized(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/v1/me", "wrong-key", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRouter_MemberForbiddenOnAdminRoutes(t *testing.T) {
	r, _ := newTestRouter(t)
	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/rules"},
		{http.MethodDelete, "/api/v1/rules/1"},
		{http.MethodPost, "/api/v1/users"},
		{http.MethodGet, "/api/v1/users"},
		{http.MethodPut, "/api/v1/users/2/credits"},
		{http.MethodGet, "/api/v1/commands/all"},
		{http.MethodGet, "/api/v1/audit"},
		{http.MethodGet, "/api/v1/audit/export"},
	} {
		w := doJSON(t, r, route.method, route.path, "member-key", gin.H{})
		if w.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403 for member, got %d", route.method, route.path, w.Code)
		}
	}
}

func TestRouter_SubmitScenario(t *testing.T) {
	r, _ := newTestRouter(t)

	// Accepted command: matched by ^ls, balance 5 -> 4.
	w := doJSON(t, r, http.MethodPost, "/api/v1/commands", "member-key", gin.H{"command": "ls -la"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Status           string `json:"status"`
		CreditsRemaining int64  `json:"credits_remaining"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != "executed" || res.CreditsRemaining != 4 {
		t.Fatalf("expected executed with 4 credits, got %+v", res)
	}

	// No matching rule: rejected, balance unchanged.
	w = doJSON(t, r, http.MethodPost, "/api/v1/commands", "member-key", gin.H{"command": "rm -rf /"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != "rejected" || res.CreditsRemaining != 4 {
		t.Fatalf("expected rejected with 4 credits, got %+v", res)
	}
}

func TestRouter_AdminRuleLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/rules", "admin-key", gin.H{
		"pattern":  "^whoami",
		"action":   "AUTO_ACCEPT",
		"priority": 2,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		Rule models.Rule `json:"rule"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Takes effect immediately for the next submission.
	w = doJSON(t, r, http.MethodPost, "/api/v1/commands", "member-key", gin.H{"command": "whoami"})
	var res struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != "executed" {
		t.Fatalf("new rule not in effect: %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodDelete, "/api/v1/rules/99", "admin-key", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown rule, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/v1/rules/"+strconv.FormatInt(created.Rule.ID, 10), "admin-key", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRouter_InvalidPatternRejected(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/rules", "admin-key", gin.H{
		"pattern": "([",
		"action":  "AUTO_REJECT",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "INVALID_PATTERN") {
		t.Fatalf("expected INVALID_PATTERN code, got %s", w.Body.String())
	}
}

func TestRouter_AuditExportCSV(t *testing.T) {
	r, _ := newTestRouter(t)

	// Generate one audited decision first.
	doJSON(t, r, http.MethodPost, "/api/v1/commands", "member-key", gin.H{"command": "ls"})

	w := doJSON(t, r, http.MethodGet, "/api/v1/audit/export", "admin-key", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv, got %s", ct)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected header plus rows, got %q", w.Body.String())
	}
	if !strings.HasPrefix(lines[0], "timestamp,actor,action,command,details") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(w.Body.String(), "COMMAND_EXECUTED") {
		t.Fatalf("expected executed entry in export: %s", w.Body.String())
	}
}

func TestRouter_LoginIssuesUsableToken(t *testing.T) {
	r, st := newTestRouter(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	err = st.Tx(context.Background(), func(tx store.Tx) error {
		return tx.CreateUser(&models.User{
			Email:        "login@example.com",
			Role:         models.RoleMember,
			APIKey:       "login-key",
			PasswordHash: string(hash),
			Credits:      1,
		})
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "login@example.com",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "login@example.com",
		"password": "hunter2hunter2",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil || login.Token == "" {
		t.Fatalf("expected a token, got %s", w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("token should authenticate /me, got %d: %s", rec.Code, rec.Body.String())
	}
}
