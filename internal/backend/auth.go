package backend

import (
	"context"
	"net/http"
	"strings"
)

// ErrLoginRejected indicates the backend accepted the request but issued no token.
var ErrLoginRejected = &Error{Status: http.StatusUnauthorized, Message: "Invalid email or password"}

// Login exchanges admin credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.call(ctx, request{
		operation: "admin.login",
		base:      c.baseURL,
		method:    http.MethodPost,
		path:      "/admin/login",
		public:    true,
		body:      map[string]string{"email": email, "password": password},
		fallback:  "Login failed",
	}, &out)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", ErrLoginRejected
	}
	return out.Token, nil
}

// SuperAdminPasswordHeader carries the shared superadmin password.
const SuperAdminPasswordHeader = "x-superadmin-password"

// SuperAdminLogin checks the shared superadmin password. The backend answers
// 2xx on success and issues no token.
func (c *Client) SuperAdminLogin(ctx context.Context, password string) error {
	return c.call(ctx, request{
		operation: "superadmin.login",
		base:      c.baseURL,
		method:    http.MethodPost,
		path:      "/login",
		public:    true,
		headers:   map[string]string{SuperAdminPasswordHeader: password},
		fallback:  "Invalid password",
	}, nil)
}
