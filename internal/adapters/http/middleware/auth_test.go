package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zaylabs/erp/internal/core/authz"
	"github.com/zaylabs/erp/internal/core/user"
)

func newTestRouter(tm *TokenManager, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{tm.Authenticate()}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		id, role, _ := Actor(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "role": string(role)})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestTokenManager_IssueAndAuthenticate(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("test-secret", time.Hour)
	token, err := tm.Issue(&user.User{ID: "user-1", Email: "u@example.com", Role: authz.RoleManager})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	r := newTestRouter(tm)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body %s", w.Code, w.Body.String())
	}
}

func TestTokenManager_RejectsMissingAndMalformedHeaders(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("test-secret", time.Hour)
	r := newTestRouter(tm)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing header, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed header, got %d", w.Code)
	}
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("test-secret", time.Hour)
	past := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return past }

	token, err := tm.Issue(&user.User{ID: "user-1", Role: authz.RoleEmployee})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	tm.now = func() time.Time { return past.Add(2 * time.Hour) }

	if _, err := tm.Parse(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, err := issuer.Issue(&user.User{ID: "user-1", Role: authz.RoleEmployee})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := verifier.Parse(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("test-secret", time.Hour)
	r := newTestRouter(tm, RequireRole(authz.RoleAdmin, authz.RoleHR))

	token, err := tm.Issue(&user.User{ID: "user-1", Role: authz.RoleEmployee})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee role, got %d", w.Code)
	}

	token, err = tm.Issue(&user.User{ID: "user-2", Role: authz.RoleHR})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for HR role, got %d", w.Code)
	}
}
