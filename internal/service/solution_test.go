package service

import (
	"context"
	"errors"
	"testing"

	"github.com/envbox/envbox/internal/model"
	"github.com/envbox/envbox/internal/testutil"
)

func seedKey(t *testing.T, st *testutil.FakeStore, id, name, value, owner string, revoked bool) {
	t.Helper()
	err := st.CreateKey(context.Background(), &model.Key{
		ID: id, Name: name, Value: value, OwnerID: owner, Revoked: revoked,
	})
	if err != nil {
		t.Fatalf("seed key %s: %v", id, err)
	}
}

func TestCreateSolution(t *testing.T) {
	st := testutil.NewFakeStore()
	svc := NewSolutionService(st, nil)
	ctx := context.Background()

	seedKey(t, st, "k1", "A", "1", "user-1", false)
	seedKey(t, st, "k2", "B", "2", "user-1", false)

	sol, err := svc.CreateSolution(ctx, "user-1", CreateSolutionInput{
		Name:   "staging",
		KeyIDs: []string{"k1", "k2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.ID == "" {
		t.Error("expected generated ID")
	}
	if len(sol.Keys) != 2 {
		t.Errorf("got %d member keys, want 2", len(sol.Keys))
	}
}

func TestCreateSolutionEmptyName(t *testing.T) {
	svc := NewSolutionService(testutil.NewFakeStore(), nil)

	_, err := svc.CreateSolution(context.Background(), "user-1", CreateSolutionInput{Name: "  "})

	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, present := ve.Fields["name"]; !present {
		t.Errorf("expected name field in %v", ve.Fields)
	}
}

func TestCreateSolutionRejectsForeignAndUnknownKeys(t *testing.T) {
	st := testutil.NewFakeStore()
	svc := NewSolutionService(st, nil)
	ctx := context.Background()

	seedKey(t, st, "mine", "A", "1", "user-1", false)
	seedKey(t, st, "theirs", "B", "2", "user-2", false)

	tests := []struct {
		name   string
		keyIDs []string
	}{
		{"unknown key id", []string{"mine", "missing"}},
		{"someone else's key", []string{"mine", "theirs"}},
		{"duplicate key id", []string{"mine", "mine"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSolution(ctx, "user-1", CreateSolutionInput{
				Name:   "broken",
				KeyIDs: tt.keyIDs,
			})

			ve, ok := AsValidationError(err)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, present := ve.Fields["keyIds"]; !present {
				t.Errorf("expected keyIds field in %v", ve.Fields)
			}

			// Nothing may be persisted.
			sols, err := svc.ListSolutions(ctx, "user-1")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(sols) != 0 {
				t.Errorf("got %d solutions after failed create, want 0", len(sols))
			}
		})
	}
}

func TestCreateSolutionWithNoKeys(t *testing.T) {
	svc := NewSolutionService(testutil.NewFakeStore(), nil)

	sol, err := svc.CreateSolution(context.Background(), "user-1", CreateSolutionInput{Name: "empty"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sol.Keys) != 0 {
		t.Errorf("got %d keys, want 0", len(sol.Keys))
	}
}

func TestSolutionEnvExcludesRevoked(t *testing.T) {
	st := testutil.NewFakeStore()
	svc := NewSolutionService(st, nil)
	ctx := context.Background()

	seedKey(t, st, "k1", "DB_URL", "postgres://x", "user-1", false)
	seedKey(t, st, "k2", "OLD_TOKEN", "t", "user-1", false)

	sol, err := svc.CreateSolution(ctx, "user-1", CreateSolutionInput{
		Name:   "prod",
		KeyIDs: []string{"k1", "k2"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Revoke after joining: the membership stays, the env drops it.
	if err := st.RevokeKey(ctx, "user-1", "k2"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	env, err := svc.SolutionEnv(ctx, "user-1", sol.ID)
	if err != nil {
		t.Fatalf("env: %v", err)
	}
	if len(env) != 1 {
		t.Fatalf("got %d entries, want 1: %v", len(env), env)
	}
	if env["DB_URL"] != "postgres://x" {
		t.Errorf("DB_URL = %q", env["DB_URL"])
	}
	if _, present := env["OLD_TOKEN"]; present {
		t.Error("revoked key must not appear in env")
	}
}

func TestSolutionEnvNotFound(t *testing.T) {
	st := testutil.NewFakeStore()
	svc := NewSolutionService(st, nil)
	ctx := context.Background()

	seedKey(t, st, "k1", "A", "1", "user-2", false)
	other, err := svc.CreateSolution(ctx, "user-2", CreateSolutionInput{Name: "theirs", KeyIDs: []string{"k1"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Missing solution and someone else's solution look the same.
	for _, id := range []string{"missing", other.ID} {
		if _, err := svc.SolutionEnv(ctx, "user-1", id); !errors.Is(err, ErrSolutionNotFound) {
			t.Errorf("SolutionEnv(%q) = %v, want ErrSolutionNotFound", id, err)
		}
	}
}
