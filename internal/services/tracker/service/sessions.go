package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/playlog/internal/platform/errors"
	"github.com/louisbranch/playlog/internal/services/tracker/session"
	"github.com/louisbranch/playlog/internal/services/tracker/stats"
	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

// StartSession validates input against the game's template and records a
// new session. Every listed player must exist.
func (s *Service) StartSession(ctx context.Context, input session.StartInput) (storage.GameSession, error) {
	if s.stores.Sessions == nil {
		return storage.GameSession{}, notConfigured("session store")
	}
	if s.stores.Templates == nil {
		return storage.GameSession{}, notConfigured("template store")
	}
	if s.stores.Players == nil {
		return storage.GameSession{}, notConfigured("player store")
	}

	gameType := strings.TrimSpace(input.GameType)
	if gameType == "" {
		return storage.GameSession{}, apperrors.New(apperrors.CodeTemplateNameEmpty, "session game type is required")
	}
	template, err := s.stores.Templates.GetTemplate(ctx, gameType)
	if err != nil {
		return storage.GameSession{}, storageError(err, "get template")
	}
	extensions, err := s.stores.Templates.ListExtensions(ctx, template.Name)
	if err != nil {
		return storage.GameSession{}, storageError(err, "list extensions")
	}
	players, err := s.stores.Players.ListPlayers(ctx)
	if err != nil {
		return storage.GameSession{}, storageError(err, "list players")
	}
	known := make(map[string]struct{}, len(players))
	for _, player := range players {
		known[player.ID] = struct{}{}
	}
	for _, playerID := range input.Players {
		playerID = strings.TrimSpace(playerID)
		if _, ok := known[playerID]; !ok && playerID != "" {
			return storage.GameSession{}, apperrors.WithMetadata(apperrors.CodeSessionUnknownPlayer,
				fmt.Sprintf("player %s does not exist", playerID), map[string]string{"Player": playerID})
		}
	}

	started, err := session.Start(input, template, extensions, s.clock, s.idGenerator)
	if err != nil {
		return storage.GameSession{}, err
	}
	if err := s.stores.Sessions.CreateSession(ctx, started); err != nil {
		return storage.GameSession{}, storageError(err, "create session")
	}
	return started, nil
}

// GetSession returns one session.
func (s *Service) GetSession(ctx context.Context, sessionID string) (storage.GameSession, error) {
	if s.stores.Sessions == nil {
		return storage.GameSession{}, notConfigured("session store")
	}
	found, err := s.stores.Sessions.GetSession(ctx, strings.TrimSpace(sessionID))
	return found, storageError(err, "get session")
}

// ListSessions returns sessions newest first.
func (s *Service) ListSessions(ctx context.Context, filter storage.SessionFilter) ([]storage.GameSession, error) {
	if s.stores.Sessions == nil {
		return nil, notConfigured("session store")
	}
	filter.GameType = strings.TrimSpace(filter.GameType)
	sessions, err := s.stores.Sessions.ListSessions(ctx, filter)
	return sessions, storageError(err, "list sessions")
}

// CompleteSession records the outcome of a session.
func (s *Service) CompleteSession(ctx context.Context, sessionID string, outcome session.Outcome) (storage.GameSession, error) {
	return s.updateSession(ctx, sessionID, "complete session", func(current storage.GameSession) (storage.GameSession, error) {
		return session.Complete(current, outcome, s.clock)
	})
}

// RecordCharacterEvent applies a death, revive or rename to a session
// character.
func (s *Service) RecordCharacterEvent(ctx context.Context, sessionID string, event storage.CharacterEvent) (storage.GameSession, error) {
	return s.updateSession(ctx, sessionID, "record character event", func(current storage.GameSession) (storage.GameSession, error) {
		return session.ApplyCharacterEvent(current, event, s.clock)
	})
}

// DeleteSession removes one session.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if s.stores.Sessions == nil {
		return notConfigured("session store")
	}
	return storageError(s.stores.Sessions.DeleteSession(ctx, strings.TrimSpace(sessionID)), "delete session")
}

func (s *Service) updateSession(ctx context.Context, sessionID, action string, apply func(storage.GameSession) (storage.GameSession, error)) (storage.GameSession, error) {
	if s.stores.Sessions == nil {
		return storage.GameSession{}, notConfigured("session store")
	}
	current, err := s.stores.Sessions.GetSession(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return storage.GameSession{}, storageError(err, "get session")
	}
	updated, err := apply(current)
	if err != nil {
		return storage.GameSession{}, err
	}
	if err := s.stores.Sessions.UpdateSession(ctx, updated); err != nil {
		return storage.GameSession{}, storageError(err, action)
	}
	return updated, nil
}

// Stats aggregates every completed session.
func (s *Service) Stats(ctx context.Context) (stats.Summary, error) {
	if s.stores.Sessions == nil || s.stores.Players == nil {
		return stats.Summary{}, notConfigured("session store")
	}
	players, err := s.stores.Players.ListPlayers(ctx)
	if err != nil {
		return stats.Summary{}, storageError(err, "list players")
	}
	sessions, err := s.stores.Sessions.ListSessions(ctx, storage.SessionFilter{CompletedOnly: true})
	if err != nil {
		return stats.Summary{}, storageError(err, "list sessions")
	}
	return stats.Compute(players, sessions), nil
}
