package auth

import (
	"context"
	"net/url"
)

const defaultLoginPath = "/login"

// Decision is the outcome of a route-guard check.
type Decision struct {
	Allowed bool
	// RedirectTo carries the login path plus the originally intended
	// destination, so navigation can resume after login.
	RedirectTo string
}

// Guard gates entry into protected views. Callers invoke Authorize only
// for destinations that require authentication.
type Guard struct {
	sessions  *SessionManager
	loginPath string
}

// NewGuard creates a new Guard redirecting to loginPath on denial.
func NewGuard(sessions *SessionManager, loginPath string) *Guard {
	if loginPath == "" {
		loginPath = defaultLoginPath
	}
	return &Guard{sessions: sessions, loginPath: loginPath}
}

// Authorize decides whether navigation to dest may proceed. When the
// session is not authenticated it runs one status check and re-checks;
// still unauthenticated means denial with a redirect to the login view.
func (g *Guard) Authorize(ctx context.Context, dest string) Decision {
	if !g.sessions.IsAuthenticated() {
		g.sessions.CheckStatus(ctx)
	}
	if g.sessions.IsAuthenticated() {
		return Decision{Allowed: true}
	}
	return Decision{
		RedirectTo: g.loginPath + "?redirect=" + url.QueryEscape(dest),
	}
}
