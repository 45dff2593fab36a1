package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskcal/taskcal/internal/auth"
	"github.com/taskcal/taskcal/internal/domain/user"
	"github.com/taskcal/taskcal/internal/http/handlers"
	"github.com/taskcal/taskcal/internal/security"
)

type fakeUsersStore struct {
	byUsername map[string]user.User
	nextID     int64
	createErr  error
}

func newFakeUsersStore() *fakeUsersStore {
	return &fakeUsersStore{byUsername: map[string]user.User{}, nextID: 1}
}

func (f *fakeUsersStore) Create(ctx context.Context, username, email, passwordHash, role string) (user.User, error) {
	if f.createErr != nil {
		return user.User{}, f.createErr
	}

	if _, exists := f.byUsername[username]; exists {
		return user.User{}, user.ErrDuplicateIdentity
	}

	u := user.User{
		ID:           f.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	f.nextID++
	f.byUsername[username] = u

	return u, nil
}

func (f *fakeUsersStore) GetByUsername(ctx context.Context, username string) (user.User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func newAuthRouter(store *fakeUsersStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	jwtMgr := auth.NewManager("test-secret", time.Hour)
	h := handlers.NewAuthHandler(store, jwtMgr)

	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)

	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRegister(t *testing.T) {
	store := newFakeUsersStore()
	r := newAuthRouter(store)

	w := postJSON(t, r, "/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"hunter22"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
	}

	if resp.Token == "" {
		t.Fatal("expected a token")
	}

	if resp.User.Username != "alice" || resp.User.Role != user.RoleUser {
		t.Fatalf("unexpected user payload: %+v", resp.User)
	}

	stored := store.byUsername["alice"]

	if stored.PasswordHash == "hunter22" {
		t.Fatal("password stored in plain text")
	}

	if err := security.CheckPassword(stored.PasswordHash, "hunter22"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	store := newFakeUsersStore()
	r := newAuthRouter(store)

	if w := postJSON(t, r, "/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"hunter22"}`); w.Code != http.StatusOK {
		t.Fatalf("first register failed: %d %s", w.Code, w.Body.String())
	}

	w := postJSON(t, r, "/api/auth/register", `{"username":"alice","email":"other@example.com","password":"hunter22"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Error.Code != "duplicate_identity" {
		t.Fatalf("unexpected error code %q", resp.Error.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "short username", body: `{"username":"al","email":"a@example.com","password":"hunter22"}`},
		{name: "bad email", body: `{"username":"alice","email":"nope","password":"hunter22"}`},
		{name: "short password", body: `{"username":"alice","email":"a@example.com","password":"123"}`},
		{name: "empty body", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAuthRouter(newFakeUsersStore())

			w := postJSON(t, r, "/api/auth/register", tt.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestLogin(t *testing.T) {
	store := newFakeUsersStore()
	r := newAuthRouter(store)

	if w := postJSON(t, r, "/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"hunter22"}`); w.Code != http.StatusOK {
		t.Fatalf("register failed: %d %s", w.Code, w.Body.String())
	}

	w := postJSON(t, r, "/api/auth/login", `{"username":"alice","password":"hunter22"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	jwtMgr := auth.NewManager("test-secret", time.Hour)
	claims, err := jwtMgr.VerifyToken(resp.Token)

	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}

	if claims.Username != "alice" || claims.Role != user.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newFakeUsersStore()
	r := newAuthRouter(store)

	if w := postJSON(t, r, "/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"hunter22"}`); w.Code != http.StatusOK {
		t.Fatalf("register failed: %d %s", w.Code, w.Body.String())
	}

	tests := []struct {
		name string
		body string
	}{
		{name: "wrong password", body: `{"username":"alice","password":"wrong-password"}`},
		{name: "unknown user", body: `{"username":"mallory","password":"hunter22"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, r, "/api/auth/login", tt.body)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("got status %d, want 401, body=%s", w.Code, w.Body.String())
			}

			var resp struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			// both failure modes look identical to the client
			if resp.Error.Code != "invalid_credentials" {
				t.Fatalf("unexpected error code %q", resp.Error.Code)
			}
		})
	}
}
