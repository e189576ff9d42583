package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T, ttl time.Duration) Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return NewService(Config{
		JWTSecret:          "test-signing-key",
		OperatorID:         "ops",
		OperatorSecretHash: string(hash),
		TokenTTL:           ttl,
	})
}

func TestLoginAndVerify(t *testing.T) {
	s := newTestService(t, time.Hour)
	token, expires, err := s.Login(context.Background(), "ops", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expires = %v, want future", expires)
	}
	subject, err := s.Verify(token)
	if err != nil || subject != "ops" {
		t.Fatalf("Verify = %q, %v", subject, err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestService(t, time.Hour)
	for _, c := range [][2]string{{"ops", "wrong"}, {"admin", "s3cret"}, {"", ""}} {
		if _, _, err := s.Login(context.Background(), c[0], c[1]); err != ErrInvalidCredentials {
			t.Errorf("Login(%q, %q) err = %v, want ErrInvalidCredentials", c[0], c[1], err)
		}
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	expired := newTestService(t, -time.Minute)
	token, _, err := expired.Login(context.Background(), "ops", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := expired.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expired token err = %v", err)
	}

	other := NewService(Config{JWTSecret: "another-key"})
	valid, _, _ := newTestService(t, time.Hour).Login(context.Background(), "ops", "s3cret")
	if _, err := other.Verify(valid); err != ErrInvalidToken {
		t.Fatalf("foreign token err = %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	s := newTestService(t, time.Hour)
	r := chi.NewRouter()
	NewHandler(s).RegisterRoutes(r)
	r.With(Middleware(s)).Get("/secure", func(w http.ResponseWriter, r *http.Request) {
		id, _ := Operator(r.Context())
		w.Write([]byte(id))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/secure", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/token",
		strings.NewReader(`{"operator_id":"ops","secret":"s3cret"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("token status = %d, body %s", rec.Code, rec.Body.String())
	}
	token, _, _ := s.Login(context.Background(), "ops", "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ops" {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestRequireForWritesLetsReadsThrough(t *testing.T) {
	s := newTestService(t, time.Hour)
	r := chi.NewRouter()
	r.Use(RequireForWrites(s))
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }
	r.Get("/things", ok)
	r.Post("/things", ok)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("GET status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/things", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("POST status = %d, want 401", rec.Code)
	}

	token, _, _ := s.Login(context.Background(), "ops", "s3cret")
	req := httptest.NewRequest(http.MethodPost, "/things", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("authorized POST status = %d, want 204", rec.Code)
	}
}
