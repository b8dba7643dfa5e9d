// Command bootstrap-user provisions a user directly in the database and
// prints a signed bearer token. Useful for seeding the first account or for
// wiring CI against a fresh instance without going through /auth/register.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/envbox/envbox/internal/auth"
	"github.com/envbox/envbox/internal/model"
	"github.com/envbox/envbox/internal/repository"
	"github.com/envbox/envbox/internal/store"
)

type output struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		jwtSecret   = flag.String("jwt-secret", os.Getenv("JWT_SECRET"), "HS256 signing secret (must match the server's)")
		email       = flag.String("email", "admin@envbox.local", "User email")
		password    = flag.String("password", "", "Password (generated when empty)")
		ttl         = flag.Duration("ttl", 24*time.Hour, "Token lifetime")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *jwtSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	generated := *password == ""
	if generated {
		*password = randomPassword()
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        *email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		if err == store.ErrEmailExists {
			// Reuse the existing account; a new token still gets issued.
			existing, lookupErr := repo.GetUserByEmail(ctx, *email)
			if lookupErr != nil {
				fmt.Fprintf(os.Stderr, "look up existing user: %v\n", lookupErr)
				os.Exit(1)
			}
			user = existing
			generated = false
			*password = ""
		} else {
			fmt.Fprintf(os.Stderr, "create user: %v\n", err)
			os.Exit(1)
		}
	}

	issuer := auth.NewTokenIssuer(*jwtSecret, *ttl)
	token, expiresAt, err := issuer.Issue(user.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}

	out := output{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}
	if generated {
		out.Password = *password
	}

	if *format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	fmt.Printf("user id:    %s\n", out.UserID)
	fmt.Printf("email:      %s\n", out.Email)
	if out.Password != "" {
		fmt.Printf("password:   %s\n", out.Password)
	}
	fmt.Printf("token:      %s\n", out.Token)
	fmt.Printf("expires at: %s\n", out.ExpiresAt)
}

func randomPassword() string {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
