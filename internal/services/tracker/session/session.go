// Package session holds the rules for starting, completing and annotating
// recorded game sessions.
package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/playlog/internal/platform/errors"
	"github.com/louisbranch/playlog/internal/platform/id"
	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

// WinConditionTie marks a competitive session whose top score is shared.
const WinConditionTie = "tie"

// StartInput describes a session about to be played.
type StartInput struct {
	GameType   string
	Mode       storage.GameMode
	Players    []string
	Characters map[string]string
	Extensions []string
	Date       time.Time
	StartTime  time.Time
}

// Start validates input against the game's template and extensions and
// returns a new, not yet completed, session.
func Start(input StartInput, template storage.GameTemplate, extensions []storage.GameExtension, now func() time.Time, idGenerator id.Generator) (storage.GameSession, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.Default
	}

	normalized, err := NormalizeStartInput(input, template)
	if err != nil {
		return storage.GameSession{}, err
	}
	if err := Validate(normalized, template, extensions); err != nil {
		return storage.GameSession{}, err
	}

	sessionID, err := idGenerator()
	if err != nil {
		return storage.GameSession{}, fmt.Errorf("generate session id: %w", err)
	}
	createdAt := now().UTC()
	if normalized.StartTime.IsZero() {
		normalized.StartTime = createdAt
	}
	if normalized.Date.IsZero() {
		normalized.Date = normalized.StartTime
	}

	return storage.GameSession{
		ID:                sessionID,
		GameType:          template.Name,
		IsCooperative:     normalized.Mode == storage.ModeCooperative,
		GameMode:          normalized.Mode,
		Players:           normalized.Players,
		Scores:            map[string]float64{},
		Characters:        normalized.Characters,
		DeadCharacters:    map[string]bool{},
		NewCharacterNames: map[string]string{},
		Extensions:        normalized.Extensions,
		Date:              normalized.Date.UTC(),
		StartTime:         normalized.StartTime.UTC(),
		CreatedAt:         createdAt,
	}, nil
}

// NormalizeStartInput trims identifiers and resolves the mode from the
// template when none is given.
func NormalizeStartInput(input StartInput, template storage.GameTemplate) (StartInput, error) {
	input.GameType = strings.TrimSpace(input.GameType)
	if input.Mode == "" {
		input.Mode = template.DefaultMode
	}
	if input.Mode == "" {
		input.Mode = storage.ModeCompetitive
		if template.IsCooperativeByDefault {
			input.Mode = storage.ModeCooperative
		}
	}
	if !input.Mode.Valid() {
		return StartInput{}, apperrors.WithMetadata(apperrors.CodeTemplateInvalidMode,
			fmt.Sprintf("unknown game mode %q", input.Mode), map[string]string{"Mode": string(input.Mode)})
	}
	input.Players = trimAll(input.Players)
	input.Extensions = trimAll(input.Extensions)

	characters := make(map[string]string, len(input.Characters))
	for player, character := range input.Characters {
		player, character = strings.TrimSpace(player), strings.TrimSpace(character)
		if player != "" && character != "" {
			characters[player] = character
		}
	}
	input.Characters = characters
	return input, nil
}

// Validate checks a normalized start input against the template rules:
// distinct players within the player-count bounds (raised by selected
// extensions), a supported mode, extensions of this base game and
// characters drawn from the template roster.
func Validate(input StartInput, template storage.GameTemplate, extensions []storage.GameExtension) error {
	if len(input.Players) == 0 {
		return apperrors.New(apperrors.CodeSessionNoPlayers, "session has no players")
	}
	seen := make(map[string]struct{}, len(input.Players))
	for _, player := range input.Players {
		if _, dup := seen[player]; dup {
			return apperrors.WithMetadata(apperrors.CodeSessionDuplicatePlayer,
				fmt.Sprintf("player %s listed twice", player), map[string]string{"Player": player})
		}
		seen[player] = struct{}{}
	}

	if !Supports(template, input.Mode) {
		return apperrors.WithMetadata(apperrors.CodeSessionModeUnsupported,
			fmt.Sprintf("%s does not support %s", template.Name, input.Mode),
			map[string]string{"Game": template.Name, "Mode": string(input.Mode)})
	}

	available := make(map[string]storage.GameExtension, len(extensions))
	for _, extension := range extensions {
		if extension.BaseGameName == template.Name {
			available[extension.Name] = extension
		}
	}
	minPlayers, maxPlayers := template.MinPlayers, template.MaxPlayers
	for _, name := range input.Extensions {
		extension, ok := available[name]
		if !ok {
			return apperrors.WithMetadata(apperrors.CodeSessionUnknownExtension,
				fmt.Sprintf("%s is not an extension of %s", name, template.Name),
				map[string]string{"Extension": name, "Game": template.Name})
		}
		if extension.MaxPlayers > maxPlayers && maxPlayers > 0 {
			maxPlayers = extension.MaxPlayers
		}
	}
	count := len(input.Players)
	if (minPlayers > 0 && count < minPlayers) || (maxPlayers > 0 && count > maxPlayers) {
		return apperrors.WithMetadata(apperrors.CodeSessionPlayerCount,
			fmt.Sprintf("%s takes %d-%d players, got %d", template.Name, minPlayers, maxPlayers, count),
			map[string]string{
				"Game":  template.Name,
				"Min":   strconv.Itoa(minPlayers),
				"Max":   strconv.Itoa(maxPlayers),
				"Count": strconv.Itoa(count),
			})
	}

	roster := make(map[string]struct{}, len(template.Characters))
	for _, character := range template.Characters {
		roster[character] = struct{}{}
	}
	for player, character := range input.Characters {
		if _, ok := seen[player]; !ok {
			return apperrors.WithMetadata(apperrors.CodeSessionUnknownPlayer,
				fmt.Sprintf("character assigned to non-player %s", player), map[string]string{"Player": player})
		}
		if _, ok := roster[character]; len(roster) > 0 && !ok {
			return apperrors.WithMetadata(apperrors.CodeSessionUnknownCharacter,
				fmt.Sprintf("%s is not a character of %s", character, template.Name),
				map[string]string{"Character": character, "Game": template.Name})
		}
	}
	return nil
}

// Supports reports whether the template allows mode.
func Supports(template storage.GameTemplate, mode storage.GameMode) bool {
	switch mode {
	case storage.ModeCompetitive:
		return template.SupportsCompetitive
	case storage.ModeCooperative:
		return template.SupportsCooperative
	case storage.ModeCampaign:
		return template.SupportsCampaign
	}
	return false
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
