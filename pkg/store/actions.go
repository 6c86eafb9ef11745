package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/toniosim/pbbg-client/pkg/errors"
	"github.com/toniosim/pbbg-client/pkg/game/types"
	"github.com/toniosim/pbbg-client/pkg/log"
)

type actionResponse struct {
	Success          bool             `json:"success"`
	Message          string           `json:"message,omitempty"`
	Character        *types.Character `json:"character,omitempty"`
	AvailableActions []types.Action   `json:"available_actions,omitempty"`
	Logs             []types.LogEntry `json:"logs,omitempty"`
}

// PerformAction dispatches a game action over whichever channel is
// viable. When the push channel is connected the action is published and
// the call succeeds optimistically; the resulting state changes arrive
// later as push updates. Otherwise it falls back to the request channel
// and applies the response directly. A failed dispatch never mutates the
// snapshot.
func (s *Store) PerformAction(ctx context.Context, actionType string, actionData map[string]interface{}) bool {
	s.setLoading(true)
	defer s.setLoading(false)

	if actionData == nil {
		actionData = map[string]interface{}{}
	}
	request := types.ActionRequest{
		ActionType: actionType,
		ActionData: actionData,
		RequestID:  uuid.NewString(),
	}

	if s.channel.IsConnected() {
		if err := s.channel.Publish(types.EventAction, request); err != nil {
			msg := apperrors.Message(err, "Action failed")
			s.setError(msg)
			s.notifier.Negative(msg)
			return false
		}
		return true
	}

	var resp actionResponse
	if err := s.api.Post(ctx, "/api/game/action", request, &resp); err != nil {
		msg := apperrors.Message(err, "Action failed")
		s.setError(msg)
		s.notifier.Negative(msg)
		return false
	}
	if !resp.Success {
		msg := firstNonEmpty(resp.Message, "Action failed")
		s.setError(msg)
		s.notifier.Negative(msg)
		return false
	}

	s.mu.Lock()
	if resp.Character != nil {
		s.character = resp.Character
	}
	if resp.AvailableActions != nil {
		s.actions = resp.AvailableActions
	}
	if resp.Logs != nil {
		s.logs = dedupLogs(resp.Logs)
	}
	s.mu.Unlock()

	s.notifier.Positive(firstNonEmpty(resp.Message, "Action succeeded"))

	// The action response does not carry the location or map, so both
	// are re-pulled, best-effort.
	var g errgroup.Group
	g.Go(func() error { return s.LoadLocation(ctx) })
	g.Go(func() error { return s.LoadMap(ctx) })
	if err := g.Wait(); err != nil {
		log.Warn("Failed to refresh location and map after action: %v", err)
	}

	return true
}

// SendChatMessage publishes a chat message on the push channel. Chat has
// no request-channel fallback; it requires a live connection. Empty and
// whitespace-only messages are rejected without a network call. The
// channel defaults to the location channel.
func (s *Store) SendChatMessage(message, chatChannel string) bool {
	if strings.TrimSpace(message) == "" {
		return false
	}
	if chatChannel == "" {
		chatChannel = types.ChatChannelLocation
	}

	if err := s.channel.Publish(types.EventChat, types.ChatRequest{
		Message: message,
		Channel: chatChannel,
	}); err != nil {
		log.Warn("Failed to send chat message: %v", err)
		return false
	}
	return true
}

// RequestPlayersInLocation asks the server to push the presence list for
// the current location. Fire-and-forget; the reply arrives as a
// players_in_location event.
func (s *Store) RequestPlayersInLocation() bool {
	if err := s.channel.Publish(types.EventRequestPlayersInLocation, struct{}{}); err != nil {
		log.Warn("Failed to request players in location: %v", err)
		return false
	}
	return true
}
