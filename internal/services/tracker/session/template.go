package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/playlog/internal/platform/errors"
	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

// NormalizePlayerName trims name and rejects blanks.
func NormalizePlayerName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.New(apperrors.CodePlayerNameEmpty, "player name is required")
	}
	return name, nil
}

// NormalizeTemplate trims a template and fills its mode flags.
//
// A template with no support flags supports its default mode; a template
// without a default mode takes competitive, or cooperative when it is
// cooperative by default. The default mode must be one of the supported
// ones.
func NormalizeTemplate(t storage.GameTemplate, now func() time.Time) (storage.GameTemplate, error) {
	if now == nil {
		now = time.Now
	}
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return storage.GameTemplate{}, apperrors.New(apperrors.CodeTemplateNameEmpty, "template name is required")
	}
	t.BaseGameName = strings.TrimSpace(t.BaseGameName)
	t.Description = strings.TrimSpace(t.Description)
	t.Image = strings.TrimSpace(t.Image)
	t.Characters = trimAll(t.Characters)
	if len(t.Characters) > 0 {
		t.HasCharacters = true
	}

	if t.DefaultMode == "" {
		t.DefaultMode = storage.ModeCompetitive
		if t.IsCooperativeByDefault {
			t.DefaultMode = storage.ModeCooperative
		}
	}
	if !t.DefaultMode.Valid() {
		return storage.GameTemplate{}, apperrors.WithMetadata(apperrors.CodeTemplateInvalidMode,
			fmt.Sprintf("unknown game mode %q", t.DefaultMode), map[string]string{"Mode": string(t.DefaultMode)})
	}
	if !t.SupportsCompetitive && !t.SupportsCooperative && !t.SupportsCampaign {
		switch t.DefaultMode {
		case storage.ModeCompetitive:
			t.SupportsCompetitive = true
		case storage.ModeCooperative:
			t.SupportsCooperative = true
		case storage.ModeCampaign:
			t.SupportsCampaign = true
		}
	}
	if !Supports(t, t.DefaultMode) {
		return storage.GameTemplate{}, apperrors.WithMetadata(apperrors.CodeTemplateNoModes,
			fmt.Sprintf("%s default mode %s is not supported", t.Name, t.DefaultMode),
			map[string]string{"Game": t.Name, "Mode": string(t.DefaultMode)})
	}
	t.IsCooperativeByDefault = t.DefaultMode == storage.ModeCooperative

	if err := checkBounds(t.MinPlayers, t.MaxPlayers); err != nil {
		return storage.GameTemplate{}, err
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now().UTC()
	}
	return t, nil
}

// NormalizeExtension trims an extension and checks its player bounds.
func NormalizeExtension(e storage.GameExtension) (storage.GameExtension, error) {
	e.Name = strings.TrimSpace(e.Name)
	e.BaseGameName = strings.TrimSpace(e.BaseGameName)
	if e.Name == "" {
		return storage.GameExtension{}, apperrors.New(apperrors.CodeExtensionNameEmpty, "extension name is required")
	}
	if e.BaseGameName == "" {
		return storage.GameExtension{}, apperrors.New(apperrors.CodeTemplateNameEmpty, "extension base game is required")
	}
	e.Description = strings.TrimSpace(e.Description)
	e.Rules = strings.TrimSpace(e.Rules)
	e.Image = strings.TrimSpace(e.Image)
	if err := checkBounds(e.MinPlayers, e.MaxPlayers); err != nil {
		return storage.GameExtension{}, err
	}
	return e, nil
}

func checkBounds(minPlayers, maxPlayers int) error {
	if minPlayers < 0 || maxPlayers < 0 || (minPlayers > 0 && maxPlayers > 0 && minPlayers > maxPlayers) {
		return apperrors.WithMetadata(apperrors.CodeTemplatePlayerBounds,
			fmt.Sprintf("player bounds %d-%d", minPlayers, maxPlayers),
			map[string]string{"Min": strconv.Itoa(minPlayers), "Max": strconv.Itoa(maxPlayers)})
	}
	return nil
}
