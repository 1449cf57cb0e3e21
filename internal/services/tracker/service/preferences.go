package service

import (
	"context"
	"strings"

	apperrors "github.com/louisbranch/playlog/internal/platform/errors"
)

// Preference returns the stored value for key, or def.
func (s *Service) Preference(key, def string) string {
	if s.preferences == nil {
		return def
	}
	return s.preferences.Get(strings.TrimSpace(key), def)
}

// Preferences returns every stored preference.
func (s *Service) Preferences() map[string]string {
	if s.preferences == nil {
		return map[string]string{}
	}
	return s.preferences.All()
}

// SetPreference stores value under key.
func (s *Service) SetPreference(ctx context.Context, key, value string) error {
	if s.preferences == nil {
		return notConfigured("preference store")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return apperrors.New(apperrors.CodePreferenceKeyEmpty, "preference key is required")
	}
	return s.preferences.Set(ctx, key, value)
}
