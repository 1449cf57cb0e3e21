package session

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/playlog/internal/platform/errors"
	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

// ApplyCharacterEvent records event against one of the session's assigned
// characters and appends it to the history. A death needs a living
// character, a revive a dead one, and a rename a non-empty new name.
func ApplyCharacterEvent(s storage.GameSession, event storage.CharacterEvent, now func() time.Time) (storage.GameSession, error) {
	if now == nil {
		now = time.Now
	}
	event.CharacterID = strings.TrimSpace(event.CharacterID)
	event.Details = strings.TrimSpace(event.Details)
	if !assigned(s, event.CharacterID) {
		return storage.GameSession{}, apperrors.WithMetadata(apperrors.CodeCharacterNotInSession,
			fmt.Sprintf("character %s not in session %s", event.CharacterID, s.ID),
			map[string]string{"Character": event.CharacterID})
	}

	dead := copyBools(s.DeadCharacters)
	names := copyStrings(s.NewCharacterNames)
	switch event.Type {
	case storage.CharacterDeath:
		if dead[event.CharacterID] {
			return storage.GameSession{}, apperrors.WithMetadata(apperrors.CodeCharacterAlreadyDead,
				fmt.Sprintf("character %s already dead", event.CharacterID), map[string]string{"Character": event.CharacterID})
		}
		dead[event.CharacterID] = true
	case storage.CharacterRevive:
		if !dead[event.CharacterID] {
			return storage.GameSession{}, apperrors.WithMetadata(apperrors.CodeCharacterNotDead,
				fmt.Sprintf("character %s not dead", event.CharacterID), map[string]string{"Character": event.CharacterID})
		}
		delete(dead, event.CharacterID)
	case storage.CharacterRename:
		if event.Details == "" {
			return storage.GameSession{}, apperrors.New(apperrors.CodeCharacterNameEmpty, "rename without a new name")
		}
		names[event.CharacterID] = event.Details
	default:
		return storage.GameSession{}, apperrors.WithMetadata(apperrors.CodeCharacterInvalidEvent,
			fmt.Sprintf("unknown character event %q", event.Type), map[string]string{"Type": string(event.Type)})
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = now()
	}
	event.Timestamp = event.Timestamp.UTC()

	s.DeadCharacters = dead
	s.NewCharacterNames = names
	s.CharacterHistory = append(append([]storage.CharacterEvent(nil), s.CharacterHistory...), event)
	return s, nil
}

func assigned(s storage.GameSession, character string) bool {
	if character == "" {
		return false
	}
	for _, assignedCharacter := range s.Characters {
		if assignedCharacter == character {
			return true
		}
	}
	return false
}

func copyBools(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		if v {
			out[k] = v
		}
	}
	return out
}

func copyStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
