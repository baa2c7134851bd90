package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := NewTestService(t)
	session := Session{AdminID: 7, Username: "root"}

	pair, err := svc.GenerateTokenPair(session, true)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	access, err := svc.ValidateToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate access: %v", err)
	}
	if access.TokenType != TokenTypeAccess || !access.MustChangePassword {
		t.Fatalf("unexpected access claims %+v", access)
	}
	if got := access.Session(); got != session {
		t.Fatalf("expected session %+v, got %+v", session, got)
	}

	refresh, err := svc.ValidateToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("validate refresh: %v", err)
	}
	if refresh.TokenType != TokenTypeRefresh || refresh.ID == "" {
		t.Fatalf("refresh token must carry a jti, got %+v", refresh)
	}
}

func TestValidateTokenRejectsForeignKey(t *testing.T) {
	issuer := NewTestService(t)
	verifier := NewTestService(t)

	pair, err := issuer.GenerateTokenPair(Session{AdminID: 1, Username: "a"}, false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.ValidateToken(pair.AccessToken); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPasswordHash("s3cret-pass", hash) {
		t.Fatal("expected password to match")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Fatal("expected mismatch")
	}
	if CheckPasswordHash("s3cret-pass", "") {
		t.Fatal("empty hash must never match")
	}
}

func TestHashPasswordRejectsOverlongInput(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestSessionActor(t *testing.T) {
	s := Session{AdminID: 1, Username: "moderator"}
	if got := s.Actor("  "); got != "moderator" {
		t.Fatalf("expected fallback to session username, got %q", got)
	}
	if got := s.Actor("alice"); got != "alice" {
		t.Fatalf("expected explicit actor, got %q", got)
	}
	if got := (Session{}).Actor(""); got != "admin" {
		t.Fatalf("expected default actor, got %q", got)
	}
}
