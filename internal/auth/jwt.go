package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/envbox/envbox/internal/model"
	"github.com/envbox/envbox/internal/store"
)

// UserLookup is the narrow storage surface the local verifier needs.
// store.Store satisfies it.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// LocalVerifier verifies HS256 JWTs against a shared secret and resolves
// the subject claim to a stored user.
type LocalVerifier struct {
	secret []byte
	users  UserLookup
}

// NewLocalVerifier creates a LocalVerifier.
func NewLocalVerifier(secret string, users UserLookup) *LocalVerifier {
	return &LocalVerifier{secret: []byte(secret), users: users}
}

// Verify validates the token signature and expiry, then looks up the user
// identified by the subject claim.
func (v *LocalVerifier) Verify(ctx context.Context, token string) (*model.AuthContext, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, ErrInvalidToken
	}

	user, err := v.users.GetUserByID(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	return &model.AuthContext{UserID: user.ID}, nil
}

// TokenIssuer mints HS256 JWTs for the local auth mode.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token with the user ID as subject.
func (i *TokenIssuer) Issue(userID string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(i.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return token, expiresAt, nil
}
