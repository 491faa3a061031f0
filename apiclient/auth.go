package apiclient

import (
	"context"
	"net/http"

	"todo-app/entity"
)

func (c *Client) Register(ctx context.Context, req entity.RegisterRequest) (entity.AuthResponse, error) {
	var res entity.AuthResponse
	err := c.do(ctx, "register", http.MethodPost, "/api/auth/register", "", req, &res)
	return res, err
}

func (c *Client) Login(ctx context.Context, creds entity.Credentials) (entity.AuthResponse, error) {
	var res entity.AuthResponse
	err := c.do(ctx, "login", http.MethodPost, "/api/auth/login", "", creds, &res)
	return res, err
}

func (c *Client) VerifyEmail(ctx context.Context, email, code string) (entity.AuthResponse, error) {
	var res entity.AuthResponse
	err := c.do(ctx, "verify email", http.MethodPost, "/api/auth/verify-email", "", entity.VerifyRequest{Email: email, Code: code}, &res)
	return res, err
}

func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.do(ctx, "resend verification", http.MethodPost, "/api/auth/resend-verification", "", entity.ResendRequest{Email: email}, nil)
}

// CurrentUser validates token against the server and returns its owner.
func (c *Client) CurrentUser(ctx context.Context, token string) (entity.User, error) {
	var res struct {
		User entity.User `json:"user"`
	}
	err := c.do(ctx, "current user", http.MethodGet, "/api/auth/me", token, nil, &res)
	return res.User, err
}
