package remote

import (
	"context"
	"net/http"
)

type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignInResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

func (c *Client) SignIn(ctx context.Context, username, password string) (SignInResponse, error) {
	var out SignInResponse
	err := c.do(ctx, http.MethodPost, "/auth/signin", SignInRequest{Username: username, Password: password}, &out)
	return out, err
}

type CurrentUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (c *Client) Me(ctx context.Context) (CurrentUser, error) {
	var out CurrentUser
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out)
	return out, err
}
