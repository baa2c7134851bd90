package api

import (
	"net/http"
	"testing"

	"jobboard/internal/auth"
	"jobboard/internal/database"
)

func seedAdmin(t *testing.T, s *testServer, username, password string, mustChange bool) database.Admin {
	t.Helper()
	hashed, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	admin := database.Admin{Username: username, PasswordHash: hashed, Email: username + "@example.com", MustChangePassword: mustChange}
	if err := s.db.Create(&admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return admin
}

type loginResponse struct {
	Message string `json:"message"`
	Admin   struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"admin"`
	AccessToken        string `json:"access_token"`
	TokenType          string `json:"token_type"`
	ExpiresIn          int    `json:"expires_in"`
	MustChangePassword bool   `json:"must_change_password"`
}

func TestLoginIssuesSession(t *testing.T) {
	s := newTestServer(t)
	admin := seedAdmin(t, s, "moderator", "correct-horse", true)

	w := s.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "moderator", "password": "correct-horse"}, "")
	expectStatus(t, w, http.StatusOK)

	res := decode[loginResponse](t, w)
	if res.Message != "Login successful" || res.Admin.ID != admin.ID || res.Admin.Email != "moderator@example.com" {
		t.Fatalf("unexpected login response %+v", res)
	}
	if res.TokenType != "Bearer" || res.ExpiresIn <= 0 || !res.MustChangePassword {
		t.Fatalf("unexpected token fields %+v", res)
	}

	claims, err := s.auth.ValidateToken(res.AccessToken)
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if claims.Session() != (auth.Session{AdminID: admin.ID, Username: "moderator"}) {
		t.Fatalf("unexpected session %+v", claims.Session())
	}

	var refreshCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshTokenCookieName {
			refreshCookie = c
		}
	}
	if refreshCookie == nil || !refreshCookie.HttpOnly || refreshCookie.Value == "" {
		t.Fatalf("expected http-only refresh cookie, got %+v", refreshCookie)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)
	seedAdmin(t, s, "moderator", "correct-horse", false)

	w := s.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "moderator", "password": "wrong"}, "")
	expectStatus(t, w, http.StatusUnauthorized)
	if msg := decode[errorBody](t, w).Error; msg != "Invalid credentials" {
		t.Fatalf("unexpected message %q", msg)
	}

	w = s.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "ghost", "password": "whatever"}, "")
	expectStatus(t, w, http.StatusUnauthorized)

	w = s.do(t, http.MethodPost, "/auth/login", map[string]string{"username": " "}, "")
	expectStatus(t, w, http.StatusBadRequest)
}

func TestChangePasswordClearsGate(t *testing.T) {
	s := newTestServer(t)
	admin := seedAdmin(t, s, "moderator", "initial-pass", true)

	pair, err := s.auth.GenerateTokenPair(auth.Session{AdminID: admin.ID, Username: admin.Username}, true)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	w := s.do(t, http.MethodPost, "/auth/change-password", map[string]string{
		"current_password": "initial-pass",
		"new_password":     "brand-new-pass",
		"confirm_password": "brand-new-pass",
	}, pair.AccessToken)
	expectStatus(t, w, http.StatusOK)

	res := decode[loginResponse](t, w)
	if res.MustChangePassword {
		t.Fatal("expected password gate to be cleared")
	}

	w = s.do(t, http.MethodGet, "/jobs/pending", nil, res.AccessToken)
	expectStatus(t, w, http.StatusOK)

	var reloaded database.Admin
	if err := s.db.First(&reloaded, admin.ID).Error; err != nil {
		t.Fatalf("reload admin: %v", err)
	}
	if reloaded.MustChangePassword || !auth.CheckPasswordHash("brand-new-pass", reloaded.PasswordHash) {
		t.Fatal("expected stored password to change")
	}
}
