package blogapi

import (
	"context"
	"net/http"
	"net/url"

	"blogweb/models"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string          `json:"token"`
	UserInfo models.UserInfo `json:"user_info"`
	Message  string          `json:"message"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.do(ctx, http.MethodPost, "/register", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword asks the API to mail a reset link to email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var resp MessageResponse
	body := map[string]string{"email": email}
	if err := c.do(ctx, http.MethodPost, "/forgot-password", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetPassword sets a new password using the token from the reset link.
func (c *Client) ResetPassword(ctx context.Context, resetToken string, req ResetPasswordRequest) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.do(ctx, http.MethodPost, "/reset/"+url.PathEscape(resetToken), "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteAccount(ctx context.Context, token string) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.do(ctx, http.MethodDelete, "/delete-account", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
