package service

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/louisbranch/playlog/internal/platform/errors"
	"github.com/louisbranch/playlog/internal/services/tracker/integration/bgg"
	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

// Imported is the result of importing a game from the metadata catalog.
type Imported struct {
	Template   storage.GameTemplate    `json:"template"`
	Extensions []storage.GameExtension `json:"extensions"`
}

// SearchGames queries the metadata catalog.
func (s *Service) SearchGames(ctx context.Context, query string) ([]bgg.SearchResult, error) {
	if s.metadata == nil {
		return nil, apperrors.New(apperrors.CodeMetadataUnavailable, "metadata client is not configured")
	}
	return s.metadata.Search(ctx, query)
}

// ImportGame creates a template from a catalog record and one extension
// per listed expansion. Expansions already stored are skipped.
func (s *Service) ImportGame(ctx context.Context, gameID string) (Imported, error) {
	if s.metadata == nil {
		return Imported{}, apperrors.New(apperrors.CodeMetadataUnavailable, "metadata client is not configured")
	}
	if s.stores.Templates == nil {
		return Imported{}, notConfigured("template store")
	}
	detail, err := s.metadata.Thing(ctx, strings.TrimSpace(gameID))
	if err != nil {
		return Imported{}, err
	}

	template, extensions := bgg.Template(detail)
	created, err := s.CreateTemplate(ctx, template)
	if err != nil {
		return Imported{}, err
	}

	result := Imported{Template: created, Extensions: make([]storage.GameExtension, 0, len(extensions))}
	for _, extension := range extensions {
		stored, err := s.CreateExtension(ctx, extension)
		if errors.Is(err, storage.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return Imported{}, err
		}
		result.Extensions = append(result.Extensions, stored)
	}
	return result, nil
}
