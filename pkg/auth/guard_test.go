package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardAllowsAuthenticatedSession(t *testing.T) {
	sessions, api, _ := newTestSession()
	api.respond("/api/auth/status", `{"authenticated": true, "user": {"id": 1, "username": "testy"}}`)
	sessions.CheckStatus(context.Background())

	guard := NewGuard(sessions, "/login")
	decision := guard.Authorize(context.Background(), "/game")

	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.RedirectTo)
	// An already authenticated session needs no extra status check.
	assert.Equal(t, 1, api.callCount("/api/auth/status"))
}

func TestGuardChecksStatusOnce(t *testing.T) {
	sessions, api, _ := newTestSession()
	api.respond("/api/auth/status", `{"authenticated": true, "user": {"id": 1, "username": "testy"}}`)

	guard := NewGuard(sessions, "/login")
	decision := guard.Authorize(context.Background(), "/game")

	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, api.callCount("/api/auth/status"))
}

func TestGuardDeniesAndCarriesDestination(t *testing.T) {
	sessions, api, _ := newTestSession()
	api.respond("/api/auth/status", `{"authenticated": false}`)

	guard := NewGuard(sessions, "/login")
	decision := guard.Authorize(context.Background(), "/game/map?x=1&y=2")

	assert.False(t, decision.Allowed)
	assert.Equal(t, "/login?redirect=%2Fgame%2Fmap%3Fx%3D1%26y%3D2", decision.RedirectTo)
	assert.Equal(t, 1, api.callCount("/api/auth/status"))
}
