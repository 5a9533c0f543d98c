package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/config"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/middleware"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/service"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/testutil"
	"github.com/redis/go-redis/v9"
)

func setupAuthTest(t *testing.T, rdb *redis.Client) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret: testutil.JWTSecret,
			Expire: time.Hour,
			Issuer: "pv-qa-lims",
		},
	}
	svc := service.NewAuthService(repos.User, rdb, cfg)
	h := NewAuthHandler(svc)

	router := testutil.SetupRouter()
	router.POST("/api/v1/auth/register", h.Register)
	router.POST("/api/v1/auth/login", h.Login)
	api := router.Group("/api/v1", middleware.JWTAuth(testutil.JWTSecret, rdb))
	api.GET("/auth/me", h.Me)
	api.PUT("/auth/profile", h.UpdateProfile)
	api.PUT("/auth/change-password", h.ChangePassword)
	api.POST("/auth/logout", h.Logout)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

// TestAuthRegisterLoginMe covers the register, login and me round trip
func TestAuthRegisterLoginMe(t *testing.T) {
	env := setupAuthTest(t, nil)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"email":      "jane.doe@lab.test",
		"password":   "super-secret-1",
		"first_name": "Jane",
		"last_name":  "Doe",
		"role":       "quality_engineer",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	user := testutil.ResponseData(w)
	if user["role"] != "quality_engineer" {
		t.Fatalf("expected quality_engineer, got %v", user["role"])
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash must not appear in responses")
	}

	// Duplicate email is a conflict
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"email":      "jane.doe@lab.test",
		"password":   "super-secret-1",
		"first_name": "Jane",
		"last_name":  "Doe",
	}, "")
	if w2.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d: %s", w2.Code, w2.Body.String())
	}

	// Wrong password is rejected
	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "jane.doe@lab.test",
		"password": "wrong-password",
	}, "")
	if w3.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w3.Code, w3.Body.String())
	}

	// Login issues a usable token
	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "jane.doe@lab.test",
		"password": "super-secret-1",
	}, "")
	if w4.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	login := testutil.ResponseData(w4)
	token := login["token"].(string)
	if token == "" {
		t.Fatalf("login should return a token")
	}

	w5 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/auth/me", nil, token)
	if w5.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w5.Code, w5.Body.String())
	}
	if testutil.ResponseData(w5)["email"] != "jane.doe@lab.test" {
		t.Fatalf("me should return the logged in user")
	}

	// Me without a token is unauthorized
	w6 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/auth/me", nil, "")
	if w6.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w6.Code, w6.Body.String())
	}
}

// TestAuthChangePassword verifies the old password gate and new password policy
func TestAuthChangePassword(t *testing.T) {
	env := setupAuthTest(t, nil)

	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"email":      "tech@lab.test",
		"password":   "original-pass-1",
		"first_name": "Sam",
		"last_name":  "Lee",
	}, "")
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "tech@lab.test",
		"password": "original-pass-1",
	}, "")
	token := testutil.ResponseData(w)["token"].(string)

	// Wrong current password
	w2 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/auth/change-password", map[string]interface{}{
		"current_password": "nope",
		"new_password":     "brand-new-pass-1",
	}, token)
	if w2.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w2.Code, w2.Body.String())
	}

	// Too short new password
	w3 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/auth/change-password", map[string]interface{}{
		"current_password": "original-pass-1",
		"new_password":     "short",
	}, token)
	if w3.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w3.Code, w3.Body.String())
	}

	// Successful change, old password stops working
	w4 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/auth/change-password", map[string]interface{}{
		"current_password": "original-pass-1",
		"new_password":     "brand-new-pass-1",
	}, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	w5 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "tech@lab.test",
		"password": "original-pass-1",
	}, "")
	if w5.Code != http.StatusForbidden {
		t.Fatalf("old password should be rejected after change, got %d", w5.Code)
	}
	w6 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "tech@lab.test",
		"password": "brand-new-pass-1",
	}, "")
	if w6.Code != http.StatusOK {
		t.Fatalf("new password should log in, got %d: %s", w6.Code, w6.Body.String())
	}
}

// TestAuthLogoutRevokesToken verifies a logged out token is rejected until expiry
func TestAuthLogoutRevokesToken(t *testing.T) {
	rdb := testutil.SetupTestRedis(t)
	env := setupAuthTest(t, rdb)

	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"email":      "leaver@lab.test",
		"password":   "super-secret-1",
		"first_name": "Lea",
		"last_name":  "Ver",
	}, "")
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "leaver@lab.test",
		"password": "super-secret-1",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	token := testutil.ResponseData(w)["token"].(string)

	// Token works before logout
	w2 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/auth/me", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 before logout, got %d: %s", w2.Code, w2.Body.String())
	}

	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/logout", nil, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w3.Code, w3.Body.String())
	}

	// Blacklisted jti is rejected even though the token has not expired
	w4 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/auth/me", nil, token)
	if w4.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d: %s", w4.Code, w4.Body.String())
	}

	// A fresh login issues a new jti that is not blacklisted
	w5 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "leaver@lab.test",
		"password": "super-secret-1",
	}, "")
	fresh := testutil.ResponseData(w5)["token"].(string)
	w6 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/auth/me", nil, fresh)
	if w6.Code != http.StatusOK {
		t.Fatalf("expected 200 with fresh token, got %d: %s", w6.Code, w6.Body.String())
	}
}

// TestAuthRegisterUnknownRole verifies the role whitelist
func TestAuthRegisterUnknownRole(t *testing.T) {
	env := setupAuthTest(t, nil)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"email":      "root@lab.test",
		"password":   "super-secret-1",
		"first_name": "Root",
		"last_name":  "User",
		"role":       "superuser",
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d: %s", w.Code, w.Body.String())
	}
}
