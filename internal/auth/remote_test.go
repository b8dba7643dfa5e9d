package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRemoteVerifierSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"user-42"}`))
	}))
	defer srv.Close()

	verifier := NewRemoteVerifier(srv.URL, time.Second)

	authCtx, err := verifier.Verify(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if authCtx.UserID != "user-42" {
		t.Errorf("expected user-42, got %s", authCtx.UserID)
	}
}

func TestRemoteVerifierFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad token"}`},
		{"empty_body", http.StatusOK, `{}`},
		{"empty_user_id", http.StatusOK, `{"id":""}`},
		{"malformed_json", http.StatusOK, `{`},
		{"server_error", http.StatusInternalServerError, ``},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
				_, _ = w.Write([]byte(test.body))
			}))
			defer srv.Close()

			verifier := NewRemoteVerifier(srv.URL, time.Second)

			_, err := verifier.Verify(context.Background(), "some-token")
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestRemoteVerifierUserIDField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id":"user-7"}`))
	}))
	defer srv.Close()

	authCtx, err := NewRemoteVerifier(srv.URL, time.Second).Verify(context.Background(), "tok")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if authCtx.UserID != "user-7" {
		t.Errorf("expected user-7, got %s", authCtx.UserID)
	}
}
