package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/envbox/envbox/internal/auth"
	"github.com/envbox/envbox/internal/model"
	"github.com/envbox/envbox/internal/store"
)

// minPasswordLength is the minimum accepted password length for registration.
const minPasswordLength = 8

// AccountService handles registration and login for the local auth mode.
type AccountService struct {
	store  store.Store
	issuer *auth.TokenIssuer
}

// NewAccountService creates a new AccountService.
func NewAccountService(st store.Store, issuer *auth.TokenIssuer) *AccountService {
	return &AccountService{store: st, issuer: issuer}
}

// Register creates a new user with an argon2id password hash.
func (s *AccountService) Register(ctx context.Context, email, password string) (*model.User, error) {
	fields := map[string]string{}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("must be at least %d characters", minPasswordLength)
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login verifies the credentials and issues a signed token.
// Every failure path returns ErrInvalidCredentials so callers cannot tell
// whether the email exists.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, fmt.Errorf("failed to look up user: %w", err)
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issuer.Issue(user.ID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to issue token: %w", err)
	}

	return token, expiresAt, nil
}
