package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// Default SSO paths on the primary auth endpoint.
const (
	DefaultSSOLoginPath  = "/login/oauth2/authorization/azure-dev"
	DefaultSSOLogoutPath = "/logout"
)

// LoginLocal authenticates with email and password and moves the session to
// LoggedInLocal. The returned profile is display data only.
func LoginLocal(ctx context.Context, c *Client, email, password string) (*Profile, error) {
	if c == nil || c.session == nil {
		return nil, errNoSession
	}
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	creds, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return completeLocal(c.session, creds)
}

// RegisterLocal creates an account and logs into it.
func RegisterLocal(ctx context.Context, c *Client, email, username, password string) (*Profile, error) {
	if c == nil || c.session == nil {
		return nil, errNoSession
	}
	if email == "" || username == "" || password == "" {
		return nil, errors.New("email, username and password are required")
	}
	creds, err := c.Register(ctx, email, username, password)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return completeLocal(c.session, creds)
}

func completeLocal(s *Session, creds *Credentials) (*Profile, error) {
	profile := creds.User.Profile()
	if err := s.CompleteLocalLogin(creds.Token, profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// LoginAdmin validates admin credentials with the backend and records them
// in the session. Failures carry a user-facing message chosen by status.
func LoginAdmin(ctx context.Context, c *Client, username, password string, rememberMe bool) error {
	if c == nil || c.session == nil {
		return errNoSession
	}
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}
	if err := c.AdminLogin(ctx, username, password); err != nil {
		return adminLoginError(err)
	}
	return c.session.AdminLogin(username, password, rememberMe)
}

func adminLoginError(err error) error {
	var e *Error
	if !errors.As(err, &e) {
		return fmt.Errorf("admin login failed: %w", err)
	}
	mapped := *e
	switch {
	case e.Kind == KindNetworkUnavailable:
		mapped.Message = "network error, please check your connection to the server"
	case e.Status == http.StatusUnauthorized:
		mapped.Message = "invalid username or password"
	case e.Status >= http.StatusInternalServerError:
		mapped.Message = "server error, please try again later"
	case e.Message == "":
		mapped.Message = "login failed, please try again"
	}
	return &mapped
}

// SSOConfig locates the SSO initiation and logout pages.
type SSOConfig struct {
	// BaseURL is normally the primary auth endpoint.
	BaseURL    string
	LoginPath  string
	LogoutPath string
}

// DefaultSSOConfig returns the default SSO paths on base.
func DefaultSSOConfig(base string) SSOConfig {
	return SSOConfig{BaseURL: base, LoginPath: DefaultSSOLoginPath, LogoutPath: DefaultSSOLogoutPath}
}

// SSOLoginURL is where the browser goes to start an SSO login.
func (c SSOConfig) SSOLoginURL() (string, error) {
	return joinURL(c.BaseURL, c.LoginPath, nil)
}

// SSOLogoutURL terminates the upstream SSO session.
func (c SSOConfig) SSOLogoutURL() (string, error) {
	return joinURL(c.BaseURL, c.LogoutPath, nil)
}

// ExtractToken reads the token query parameter from an SSO redirect.
func ExtractToken(redirect *url.URL) (string, error) {
	if redirect == nil {
		return "", &Error{Kind: KindInvalidToken, Message: "missing redirect", Err: ErrInvalidToken}
	}
	token := strings.TrimSpace(redirect.Query().Get("token"))
	if token == "" {
		if msg := redirect.Query().Get("error"); msg != "" {
			return "", &Error{Kind: KindAuthenticationRequired, Message: msg, Err: ErrAuthenticationRequired}
		}
		return "", &Error{Kind: KindInvalidToken, Message: "redirect did not carry a token", Err: ErrInvalidToken}
	}
	return token, nil
}

// EnvAdminCreds are admin credentials supplied through the environment for
// non-interactive use.
type EnvAdminCreds struct {
	Username string
	Password string
}

// CheckEnvAdminCreds reads CSSHUB_ADMIN_USERNAME and CSSHUB_ADMIN_PASSWORD.
func CheckEnvAdminCreds() (bool, EnvAdminCreds) {
	creds := EnvAdminCreds{
		Username: os.Getenv("CSSHUB_ADMIN_USERNAME"),
		Password: os.Getenv("CSSHUB_ADMIN_PASSWORD"),
	}
	return creds.Username != "" && creds.Password != "", creds
}
