// Package auth owns the "is a user currently authenticated" fact,
// derived from server round-trips, and the route guard built on it.
package auth

import (
	"context"
	"strings"
	"sync"

	apperrors "github.com/toniosim/pbbg-client/pkg/errors"
	"github.com/toniosim/pbbg-client/pkg/game/types"
	"github.com/toniosim/pbbg-client/pkg/log"
	"github.com/toniosim/pbbg-client/pkg/notify"
)

// Status is the authentication state.
type Status int

const (
	StatusUnknown Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	}
	return "invalid"
}

// apiClient is the request-channel surface the session manager uses.
type apiClient interface {
	Get(ctx context.Context, path string, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
}

// SessionManager tracks the authenticated user. Its operations never
// propagate errors to callers; failures are swallowed into the
// unauthenticated state, a recorded error message and a notification.
type SessionManager struct {
	api      apiClient
	notifier notify.Notifier

	mu     sync.Mutex
	status Status
	user   *types.User
	errMsg string
}

// NewSessionManagerOptions are the options for creating a new SessionManager.
type NewSessionManagerOptions struct {
	API      apiClient
	Notifier notify.Notifier
}

// NewSessionManager creates a new SessionManager in the unknown state.
func NewSessionManager(opts NewSessionManagerOptions) *SessionManager {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &SessionManager{
		api:      opts.API,
		notifier: notifier,
		status:   StatusUnknown,
	}
}

type statusResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *types.User `json:"user,omitempty"`
}

type authResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	User    *types.User `json:"user,omitempty"`
}

// CheckStatus issues a status round-trip. Any failure moves the session
// to unauthenticated; nothing is ever raised to the caller.
func (m *SessionManager) CheckStatus(ctx context.Context) bool {
	var resp statusResponse
	if err := m.api.Get(ctx, "/api/auth/status", &resp); err != nil {
		log.Warn("Failed to check auth status: %v", err)
		m.setUnauthenticated("Failed to verify authentication status")
		return false
	}
	if !resp.Authenticated {
		m.setUnauthenticated("")
		return false
	}

	m.mu.Lock()
	m.status = StatusAuthenticated
	m.user = resp.User
	m.errMsg = ""
	m.mu.Unlock()
	return true
}

// Login issues a credential round-trip and returns whether it succeeded.
func (m *SessionManager) Login(ctx context.Context, username, password string) bool {
	var resp authResponse
	err := m.api.Post(ctx, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		m.fail("Login failed", err)
		return false
	}
	if !resp.Success {
		m.fail("Login failed", apperrors.Application(firstNonEmpty(resp.Message, "Login failed")))
		return false
	}

	m.mu.Lock()
	m.status = StatusAuthenticated
	m.user = resp.User
	m.errMsg = ""
	m.mu.Unlock()

	m.notifier.Positive("Login successful")
	return true
}

// SignupParams are the fields of a signup round-trip.
type SignupParams struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	CharacterName   string `json:"character_name,omitempty"`
	Email           string `json:"email,omitempty"`
}

func (p SignupParams) validate() string {
	switch {
	case len(strings.TrimSpace(p.Username)) < 3:
		return "Username must be at least 3 characters long"
	case len(p.Password) < 8:
		return "Password must be at least 8 characters long"
	case p.ConfirmPassword != "" && p.ConfirmPassword != p.Password:
		return "Passwords do not match"
	}
	return ""
}

// Signup issues a creation round-trip. On declared success it runs
// CheckStatus to populate the user, because the creation response is not
// trusted to carry the full record. Invalid fields are rejected before
// any network call.
func (m *SessionManager) Signup(ctx context.Context, params SignupParams) bool {
	if msg := params.validate(); msg != "" {
		m.fail("Signup failed", apperrors.Validation(msg))
		return false
	}
	if params.CharacterName == "" {
		params.CharacterName = params.Username
	}

	var resp authResponse
	if err := m.api.Post(ctx, "/api/auth/signup", params, &resp); err != nil {
		m.fail("Signup failed", err)
		return false
	}
	if !resp.Success {
		m.fail("Signup failed", apperrors.Application(firstNonEmpty(resp.Message, "Signup failed")))
		return false
	}

	m.CheckStatus(ctx)
	m.notifier.Positive("Account created successfully")
	return true
}

// Logout issues a best-effort round-trip whose outcome is ignored for
// state purposes: the local session is cleared unconditionally.
func (m *SessionManager) Logout(ctx context.Context) bool {
	err := m.api.Get(ctx, "/api/auth/logout", nil)
	if err != nil {
		log.Warn("Logout round-trip failed: %v", err)
	}

	m.mu.Lock()
	m.status = StatusUnauthenticated
	m.user = nil
	m.errMsg = ""
	m.mu.Unlock()

	m.notifier.Info("Logged out successfully")
	return err == nil
}

type userResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	User    *types.User `json:"user,omitempty"`
}

// RefreshUser reloads the current user record. Any failure clears the
// session to unauthenticated.
func (m *SessionManager) RefreshUser(ctx context.Context) bool {
	var resp userResponse
	if err := m.api.Get(ctx, "/api/auth/me", &resp); err != nil {
		log.Warn("Failed to refresh user: %v", err)
		m.setUnauthenticated(apperrors.Message(err, "Failed to refresh user"))
		return false
	}
	if !resp.Success || resp.User == nil {
		m.setUnauthenticated(firstNonEmpty(resp.Message, "User not found"))
		return false
	}

	m.mu.Lock()
	m.status = StatusAuthenticated
	m.user = resp.User
	m.errMsg = ""
	m.mu.Unlock()
	return true
}

// Status returns the current authentication state.
func (m *SessionManager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// IsAuthenticated reports whether a user is currently authenticated.
func (m *SessionManager) IsAuthenticated() bool {
	return m.Status() == StatusAuthenticated
}

// User returns the authenticated user, or nil.
func (m *SessionManager) User() *types.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// IsAdmin reports whether the authenticated user is an admin.
func (m *SessionManager) IsAdmin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil && m.user.IsAdmin
}

// Err returns the recorded error message from the last failed operation.
func (m *SessionManager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// ClearError clears the recorded error message.
func (m *SessionManager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = ""
}

func (m *SessionManager) setUnauthenticated(errMsg string) {
	m.mu.Lock()
	m.status = StatusUnauthenticated
	m.user = nil
	m.errMsg = errMsg
	m.mu.Unlock()
}

func (m *SessionManager) fail(fallback string, err error) {
	msg := apperrors.Message(err, fallback)
	log.Warn("%s: %v", fallback, err)
	m.setUnauthenticated(msg)
	m.notifier.Negative(msg)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
