package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/infra/config"
	"github.com/srCredoftn/dao-dash/internal/infra/security"
	memoryrepo "github.com/srCredoftn/dao-dash/internal/repository/memory"
	httproutes "github.com/srCredoftn/dao-dash/internal/transport/http/routes"
	"github.com/srCredoftn/dao-dash/internal/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	// Light hashing parameters keep the suite fast.
	if err := security.ConfigureArgon2(security.Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

type fixture struct {
	engine *gin.Engine
	users  *memoryrepo.UserRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := memoryrepo.NewUserRepository()
	dossiers := memoryrepo.NewDossierRepository()

	issuer, err := security.NewTokenIssuer("routes-test-secret-0123456789", "dao-dash-test", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	authService, err := usecase.NewAuthService(users, issuer, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}

	userService, err := usecase.NewUserService(users, nil, nil, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("new user service: %v", err)
	}

	resetService, err := usecase.NewPasswordResetService(users, nil, nil, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("new reset service: %v", err)
	}

	dossierService, err := usecase.NewDossierService(dossiers, users, zap.NewNop())
	if err != nil {
		t.Fatalf("new dossier service: %v", err)
	}

	cfg := &config.AppConfig{App: config.AppSettings{Env: "test"}}

	engine := httproutes.Register(httproutes.Dependencies{
		Config: cfg,
		Logger: zap.NewNop(),
		Services: httproutes.ServiceSet{
			Auth:          authService,
			Users:         userService,
			PasswordReset: resetService,
			Dossiers:      dossierService,
		},
	})

	return &fixture{engine: engine, users: users}
}

func (f *fixture) seedUser(t *testing.T, email, password string, role domain.Role) domain.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := domain.User{
		ID:           fmt.Sprintf("user-%s", role),
		Name:         "Test User",
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *fixture) login(t *testing.T, email, password string) string {
	t.Helper()

	w := f.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned empty token")
	}
	return resp.Token
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestLoginAndMe(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "admin@example.com", "Sup3rStrongPass!", domain.RoleAdmin)

	token := f.login(t, "admin@example.com", "Sup3rStrongPass!")

	w := f.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	if me.Email != "admin@example.com" || me.Role != "admin" {
		t.Fatalf("unexpected identity: %+v", me)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "admin@example.com", "Sup3rStrongPass!", domain.RoleAdmin)

	w := f.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "admin@example.com",
		"password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestLogoutWithoutTokenSucceeds(t *testing.T) {
	f := newFixture(t)

	// A caller with no token, or a stale one, is logged out either way.
	w := f.do(t, http.MethodPost, "/api/v1/auth/logout", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout without token: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodPost, "/api/v1/auth/logout", "not-a-valid-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout with stale token: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/api/v1/auth/me", "/api/v1/users", "/api/v1/dossiers"} {
		w := f.do(t, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, w.Code)
		}
	}
}

func TestUserAdminEndpointsEnforceRole(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "admin@example.com", "Sup3rStrongPass!", domain.RoleAdmin)
	f.seedUser(t, "member@example.com", "An0therStrong!", domain.RoleUser)

	memberToken := f.login(t, "member@example.com", "An0therStrong!")
	w := f.do(t, http.MethodGet, "/api/v1/users", memberToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("member listing users: expected 403, got %d", w.Code)
	}

	adminToken := f.login(t, "admin@example.com", "Sup3rStrongPass!")
	w = f.do(t, http.MethodGet, "/api/v1/users", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin listing users: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestCreateUserReturnsTempPassword(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "admin@example.com", "Sup3rStrongPass!", domain.RoleAdmin)
	adminToken := f.login(t, "admin@example.com", "Sup3rStrongPass!")

	w := f.do(t, http.MethodPost, "/api/v1/users", adminToken, gin.H{
		"name":  "New Member",
		"email": "new@example.com",
		"role":  "user",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d (%s)", w.Code, w.Body.String())
	}

	var created struct {
		TempPassword string `json:"temp_password"`
		User         struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.TempPassword == "" {
		t.Fatal("expected a temporary password in the response")
	}

	// The temporary credential must open a session flagged for rotation.
	loginResp := f.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "new@example.com",
		"password": created.TempPassword,
	})
	if loginResp.Code != http.StatusOK {
		t.Fatalf("temp login: expected 200, got %d (%s)", loginResp.Code, loginResp.Body.String())
	}
	var session struct {
		RequiresPasswordChange bool `json:"requires_password_change"`
	}
	if err := json.Unmarshal(loginResp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode temp login: %v", err)
	}
	if !session.RequiresPasswordChange {
		t.Fatal("expected requires_password_change to be set")
	}
}

func TestDossierLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "admin@example.com", "Sup3rStrongPass!", domain.RoleAdmin)
	adminToken := f.login(t, "admin@example.com", "Sup3rStrongPass!")

	w := f.do(t, http.MethodPost, "/api/v1/dossiers", adminToken, gin.H{
		"reference": "AO-2026-001",
		"title":     "Construction du pont",
		"tasks":     []string{"Dossier administratif", "Offre technique"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register dossier: expected 201, got %d (%s)", w.Code, w.Body.String())
	}

	var dossier struct {
		ID    string `json:"id"`
		Tasks []struct {
			ID string `json:"id"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &dossier); err != nil {
		t.Fatalf("decode dossier: %v", err)
	}
	if len(dossier.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(dossier.Tasks))
	}

	w = f.do(t, http.MethodPut, "/api/v1/dossiers/"+dossier.ID+"/tasks/"+dossier.Tasks[0].ID+"/progress", adminToken, gin.H{
		"completion": 100,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("task progress: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/api/v1/dossiers/"+dossier.ID+"/summary", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	var summary struct {
		TaskCount         int `json:"task_count"`
		CompletedTasks    int `json:"completed_tasks"`
		AverageCompletion int `json:"average_completion"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TaskCount != 2 || summary.CompletedTasks != 1 || summary.AverageCompletion != 50 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestForgotPasswordIsGeneric(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "admin@example.com", "Sup3rStrongPass!", domain.RoleAdmin)

	for _, email := range []string{"admin@example.com", "nobody@example.com"} {
		w := f.do(t, http.MethodPost, "/api/v1/auth/forgot-password", "", gin.H{"email": email})
		if w.Code != http.StatusOK {
			t.Fatalf("forgot %s: expected 200, got %d", email, w.Code)
		}
	}
}
