package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/envbox/envbox/internal/model"
)

// maxVerifyResponseSize bounds how much of the identity service response is read.
const maxVerifyResponseSize = 64 * 1024

// RemoteVerifier delegates token verification to an external identity
// service. The token is forwarded as a bearer credential; a 200 response
// carrying a user ID is the only success path, every other outcome maps
// to ErrInvalidToken.
type RemoteVerifier struct {
	verifyURL string
	client    *http.Client
}

// NewRemoteVerifier creates a RemoteVerifier with a bounded request timeout.
func NewRemoteVerifier(verifyURL string, timeout time.Duration) *RemoteVerifier {
	return &RemoteVerifier{
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: timeout},
	}
}

// verifyResponse is the subset of the identity service response we consume.
type verifyResponse struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// Verify submits the token to the identity service.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*model.AuthContext, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.verifyURL, nil)
	if err != nil {
		return nil, ErrInvalidToken
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, ErrInvalidToken
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidToken
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVerifyResponseSize))
	if err != nil {
		return nil, ErrInvalidToken
	}

	var parsed verifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, ErrInvalidToken
	}

	userID := parsed.ID
	if userID == "" {
		userID = parsed.UserID
	}
	if userID == "" {
		return nil, ErrInvalidToken
	}

	return &model.AuthContext{UserID: userID}, nil
}
