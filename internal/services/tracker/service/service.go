// Package service orchestrates tracker storage, the session rules, the
// metadata client and preferences behind one API used by the transports.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/playlog/internal/platform/errors"
	"github.com/louisbranch/playlog/internal/platform/id"
	"github.com/louisbranch/playlog/internal/services/tracker/integration/bgg"
	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

// Stores groups the tracker storage interfaces.
type Stores struct {
	Players   storage.PlayerStore
	Templates storage.TemplateStore
	Sessions  storage.SessionStore
}

// Metadata looks games up in a remote catalog.
type Metadata interface {
	Search(ctx context.Context, query string) ([]bgg.SearchResult, error)
	Thing(ctx context.Context, gameID string) (bgg.Detail, error)
}

// Preferences is the process key/value store.
type Preferences interface {
	Get(key, def string) string
	Set(ctx context.Context, key, value string) error
	All() map[string]string
}

// Service implements the tracker operations.
type Service struct {
	stores      Stores
	metadata    Metadata
	preferences Preferences
	clock       func() time.Time
	idGenerator id.Generator
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(generator id.Generator) Option {
	return func(s *Service) {
		if generator != nil {
			s.idGenerator = generator
		}
	}
}

// NewService creates a Service with default dependencies. metadata and
// preferences may be nil; the operations that need them then fail.
func NewService(stores Stores, metadata Metadata, preferences Preferences, opts ...Option) *Service {
	s := &Service{
		stores:      stores,
		metadata:    metadata,
		preferences: preferences,
		clock:       time.Now,
		idGenerator: id.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var errNotConfigured = errors.New("is not configured")

func notConfigured(what string) error {
	return fmt.Errorf("%s %w", what, errNotConfigured)
}

// storageError maps storage sentinels to domain errors, keeping the
// sentinel in the chain.
func storageError(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, action+": "+err.Error(), err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperrors.Wrap(apperrors.CodeAlreadyExists, action+": "+err.Error(), err)
	}
	return fmt.Errorf("%s: %w", action, err)
}
