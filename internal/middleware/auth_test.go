package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/envbox/envbox/internal/auth"
	"github.com/envbox/envbox/internal/model"
)

type fakeVerifier struct {
	userID string
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (*model.AuthContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.AuthContext{UserID: f.userID}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthInjectsUserID(t *testing.T) {
	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	mw := Auth(AuthConfig{
		Logger:   discardLogger(),
		Verifier: &fakeVerifier{userID: "user-1"},
	})

	req := httptest.NewRequest(http.MethodGet, "/keys", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUserID != "user-1" {
		t.Errorf("expected user-1 in context, got %q", gotUserID)
	}
}

func TestBearerTokenMissingCredential(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no_header", ""},
		{"not_bearer", "Basic abc123"},
		{"empty_bearer", "Bearer "},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/keys", nil)
			if test.header != "" {
				req.Header.Set("Authorization", test.header)
			}

			if _, err := bearerToken(req); !errors.Is(err, auth.ErrMissingCredential) {
				t.Errorf("bearerToken() error = %v, want ErrMissingCredential", err)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/keys", nil)
	req.Header.Set("Authorization", "Bearer tok")
	token, err := bearerToken(req)
	if err != nil || token != "tok" {
		t.Errorf("bearerToken() = %q, %v, want tok", token, err)
	}
}

func TestAuthGenericFailureResponses(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})

	tests := []struct {
		name     string
		header   string
		verifier auth.Verifier
	}{
		{"missing_header", "", &fakeVerifier{userID: "user-1"}},
		{"not_bearer", "Basic abc123", &fakeVerifier{userID: "user-1"}},
		{"invalid_token", "Bearer bad", &fakeVerifier{err: auth.ErrInvalidToken}},
		{"unknown_user", "Bearer orphan", &fakeVerifier{err: auth.ErrUnknownUser}},
	}

	var bodies []string
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			mw := Auth(AuthConfig{
				Logger:   discardLogger(),
				Verifier: test.verifier,
			})

			req := httptest.NewRequest(http.MethodGet, "/keys", nil)
			if test.header != "" {
				req.Header.Set("Authorization", test.header)
			}
			rec := httptest.NewRecorder()

			mw(next).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}

			var parsed map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&parsed); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			bodies = append(bodies, parsed["error"])
		})
	}

	// Every failure must produce an identical body - no oracle for which check failed.
	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Errorf("auth failure bodies differ: %q vs %q", bodies[0], bodies[i])
		}
	}
}
