package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/playlog/internal/services/tracker/session"
	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

// CreatePlayer adds a player named name.
func (s *Service) CreatePlayer(ctx context.Context, name string) (storage.Player, error) {
	if s.stores.Players == nil {
		return storage.Player{}, notConfigured("player store")
	}
	name, err := session.NormalizePlayerName(name)
	if err != nil {
		return storage.Player{}, err
	}
	playerID, err := s.idGenerator()
	if err != nil {
		return storage.Player{}, fmt.Errorf("generate player id: %w", err)
	}
	player := storage.Player{ID: playerID, Name: name, CreatedAt: s.clock().UTC()}
	if err := s.stores.Players.CreatePlayer(ctx, player); err != nil {
		return storage.Player{}, storageError(err, "create player")
	}
	return player, nil
}

// GetPlayer returns one player.
func (s *Service) GetPlayer(ctx context.Context, playerID string) (storage.Player, error) {
	if s.stores.Players == nil {
		return storage.Player{}, notConfigured("player store")
	}
	player, err := s.stores.Players.GetPlayer(ctx, playerID)
	return player, storageError(err, "get player")
}

// ListPlayers returns every player ordered by name.
func (s *Service) ListPlayers(ctx context.Context) ([]storage.Player, error) {
	if s.stores.Players == nil {
		return nil, notConfigured("player store")
	}
	players, err := s.stores.Players.ListPlayers(ctx)
	return players, storageError(err, "list players")
}

// RenamePlayer changes a player's name.
func (s *Service) RenamePlayer(ctx context.Context, playerID, name string) (storage.Player, error) {
	if s.stores.Players == nil {
		return storage.Player{}, notConfigured("player store")
	}
	name, err := session.NormalizePlayerName(name)
	if err != nil {
		return storage.Player{}, err
	}
	player, err := s.stores.Players.GetPlayer(ctx, playerID)
	if err != nil {
		return storage.Player{}, storageError(err, "get player")
	}
	player.Name = name
	if err := s.stores.Players.UpdatePlayer(ctx, player); err != nil {
		return storage.Player{}, storageError(err, "rename player")
	}
	return player, nil
}

// DeletePlayer removes a player. Recorded sessions keep the id.
func (s *Service) DeletePlayer(ctx context.Context, playerID string) error {
	if s.stores.Players == nil {
		return notConfigured("player store")
	}
	return storageError(s.stores.Players.DeletePlayer(ctx, playerID), "delete player")
}

// CreateTemplate normalizes and stores a game template.
func (s *Service) CreateTemplate(ctx context.Context, template storage.GameTemplate) (storage.GameTemplate, error) {
	if s.stores.Templates == nil {
		return storage.GameTemplate{}, notConfigured("template store")
	}
	template.CreatedAt = time.Time{}
	template, err := session.NormalizeTemplate(template, s.clock)
	if err != nil {
		return storage.GameTemplate{}, err
	}
	if err := s.stores.Templates.CreateTemplate(ctx, template); err != nil {
		return storage.GameTemplate{}, storageError(err, "create template")
	}
	return template, nil
}

// GetTemplate returns a template by name.
func (s *Service) GetTemplate(ctx context.Context, name string) (storage.GameTemplate, error) {
	if s.stores.Templates == nil {
		return storage.GameTemplate{}, notConfigured("template store")
	}
	template, err := s.stores.Templates.GetTemplate(ctx, strings.TrimSpace(name))
	return template, storageError(err, "get template")
}

// ListTemplates returns every template.
func (s *Service) ListTemplates(ctx context.Context) ([]storage.GameTemplate, error) {
	if s.stores.Templates == nil {
		return nil, notConfigured("template store")
	}
	templates, err := s.stores.Templates.ListTemplates(ctx)
	return templates, storageError(err, "list templates")
}

// UpdateTemplate replaces the stored template of the same name, keeping
// its creation time.
func (s *Service) UpdateTemplate(ctx context.Context, template storage.GameTemplate) (storage.GameTemplate, error) {
	if s.stores.Templates == nil {
		return storage.GameTemplate{}, notConfigured("template store")
	}
	current, err := s.stores.Templates.GetTemplate(ctx, strings.TrimSpace(template.Name))
	if err != nil {
		return storage.GameTemplate{}, storageError(err, "get template")
	}
	template.CreatedAt = current.CreatedAt
	template, err = session.NormalizeTemplate(template, s.clock)
	if err != nil {
		return storage.GameTemplate{}, err
	}
	if err := s.stores.Templates.UpdateTemplate(ctx, template); err != nil {
		return storage.GameTemplate{}, storageError(err, "update template")
	}
	return template, nil
}

// DeleteTemplate removes a template and its extensions.
func (s *Service) DeleteTemplate(ctx context.Context, name string) error {
	if s.stores.Templates == nil {
		return notConfigured("template store")
	}
	return storageError(s.stores.Templates.DeleteTemplate(ctx, strings.TrimSpace(name)), "delete template")
}

// CreateExtension stores an extension of an existing base game.
func (s *Service) CreateExtension(ctx context.Context, extension storage.GameExtension) (storage.GameExtension, error) {
	if s.stores.Templates == nil {
		return storage.GameExtension{}, notConfigured("template store")
	}
	extension, err := session.NormalizeExtension(extension)
	if err != nil {
		return storage.GameExtension{}, err
	}
	extension.ID, err = s.idGenerator()
	if err != nil {
		return storage.GameExtension{}, fmt.Errorf("generate extension id: %w", err)
	}
	if err := s.stores.Templates.CreateExtension(ctx, extension); err != nil {
		return storage.GameExtension{}, storageError(err, "create extension")
	}
	return extension, nil
}

// ListExtensions returns the extensions of baseGameName, or all of them
// when it is empty.
func (s *Service) ListExtensions(ctx context.Context, baseGameName string) ([]storage.GameExtension, error) {
	if s.stores.Templates == nil {
		return nil, notConfigured("template store")
	}
	extensions, err := s.stores.Templates.ListExtensions(ctx, strings.TrimSpace(baseGameName))
	return extensions, storageError(err, "list extensions")
}

// DeleteExtension removes one extension.
func (s *Service) DeleteExtension(ctx context.Context, extensionID string) error {
	if s.stores.Templates == nil {
		return notConfigured("template store")
	}
	return storageError(s.stores.Templates.DeleteExtension(ctx, extensionID), "delete extension")
}
