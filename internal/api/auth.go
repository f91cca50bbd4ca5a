package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/leon-morival/cynaMobile/internal/domain"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user,omitempty"`
}

// Login exchanges credentials for a bearer token. The backend may include the
// user profile in the same response; callers should persist it when present.
func (c *Client) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	var resp loginResponse
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/login",
		contentType: contentTypeLDJSON,
		body:        credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return "", nil, err
	}
	if resp.Token == "" {
		return "", nil, errors.New("login response carried no token")
	}
	return resp.Token, resp.User, nil
}

// RegisterRequest mirrors the backend registration payload.
type RegisterRequest struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Name     string          `json:"name"`
	Civilite domain.Civilite `json:"civilite,omitempty"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/register",
		contentType: contentTypeLDJSON,
		body:        req,
	}, nil)
}

// Me fetches the profile of the token's owner.
func (c *Client) Me(ctx context.Context, token string) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/me", token: token}, &user); err != nil {
		return nil, err
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("invalid user payload: %w", err)
	}
	return &user, nil
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword updates the account password. Field errors come back as a
// *ValidationError and are surfaced verbatim.
func (c *Client) ChangePassword(ctx context.Context, token, current, updated string) error {
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/change-password",
		token:       token,
		contentType: contentTypeLDJSON,
		body:        changePasswordRequest{CurrentPassword: current, NewPassword: updated},
	}, nil)
}
