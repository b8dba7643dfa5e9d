package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/envbox/envbox/internal/auth"
	"github.com/envbox/envbox/internal/model"
	"github.com/envbox/envbox/internal/service"
	"github.com/envbox/envbox/internal/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter wires handlers over a fake store the way main does, minus
// middleware. Identity is injected per request via authedRequest.
func newTestRouter(st *testutil.FakeStore) chi.Router {
	logger := testLogger()
	keys := NewKeyHandler(service.NewKeyService(st, nil), logger)
	solutions := NewSolutionHandler(service.NewSolutionService(st, nil), logger)

	r := chi.NewRouter()
	r.Get("/keys", keys.List)
	r.Post("/keys", keys.Create)
	r.Post("/keys/{id}/revoke", keys.Revoke)
	r.Get("/solutions", solutions.List)
	r.Post("/solutions", solutions.Create)
	r.Get("/solutions/{id}/env", solutions.Env)
	return r
}

func authedRequest(method, target, userID string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != "" {
		ctx := auth.ContextWithAuth(context.Background(), &model.AuthContext{UserID: userID})
		req = req.WithContext(ctx)
	}
	return req
}

func TestCreateKeyEchoesValueOnce(t *testing.T) {
	st := testutil.NewFakeStore()
	router := newTestRouter(st)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/keys", "user-1", map[string]any{
		"name":  "DB_URL",
		"value": "postgres://secret",
		"tags":  []string{"prod"},
	}))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID      string `json:"id"`
		Value   string `json:"value"`
		OwnerID string `json:"ownerId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Value != "postgres://secret" {
		t.Errorf("create must echo the stored value, got %q", created.Value)
	}
	if created.OwnerID != "user-1" {
		t.Errorf("create must echo the owner, got %q", created.OwnerID)
	}

	// The list path must never serialize the value.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/keys", "user-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "postgres://secret") {
		t.Error("list response leaked the secret value")
	}
	if strings.Contains(rec.Body.String(), `"value"`) {
		t.Error("list response contains a value field")
	}
}

func TestCreateKeyValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"value": "v"}},
		{"missing value", map[string]any{"name": "K"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(testutil.NewFakeStore())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, authedRequest(http.MethodPost, "/keys", "user-1", tt.body))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}

			var resp struct {
				Code   string            `json:"code"`
				Fields map[string]string `json:"fields"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != "VALIDATION_FAILED" || len(resp.Fields) == 0 {
				t.Errorf("unexpected error payload: %s", rec.Body.String())
			}
		})
	}
}

func TestCreateKeyInvalidJSON(t *testing.T) {
	router := newTestRouter(testutil.NewFakeStore())

	req := httptest.NewRequest(http.MethodPost, "/keys", strings.NewReader("{not json"))
	req = req.WithContext(auth.ContextWithAuth(req.Context(), &model.AuthContext{UserID: "user-1"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRevokeKey(t *testing.T) {
	st := testutil.NewFakeStore()
	router := newTestRouter(st)
	ctx := context.Background()

	st.CreateKey(ctx, &model.Key{ID: "k1", Name: "K", Value: "v", OwnerID: "user-1"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/keys/k1/revoke", "user-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	// Idempotent: revoking again still succeeds.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/keys/k1/revoke", "user-1", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("second revoke status = %d, want 200", rec.Code)
	}
}

func TestRevokeForeignKeyIs404(t *testing.T) {
	st := testutil.NewFakeStore()
	router := newTestRouter(st)

	st.CreateKey(context.Background(), &model.Key{ID: "k1", Name: "K", Value: "v", OwnerID: "user-2"})

	// Someone else's key and a missing key return the same 404.
	for _, id := range []string{"k1", "missing"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/keys/"+id+"/revoke", "user-1", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("revoke %q status = %d, want 404", id, rec.Code)
		}
	}
}

func TestListKeysScopedToOwner(t *testing.T) {
	st := testutil.NewFakeStore()
	router := newTestRouter(st)
	ctx := context.Background()

	st.CreateKey(ctx, &model.Key{ID: "mine", Name: "MINE", Value: "v", OwnerID: "user-1"})
	st.CreateKey(ctx, &model.Key{ID: "theirs", Name: "THEIRS", Value: "v", OwnerID: "user-2"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/keys", "user-1", nil))

	var keys []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &keys); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(keys) != 1 || keys[0].Name != "MINE" {
		t.Errorf("unexpected listing: %s", rec.Body.String())
	}
}
