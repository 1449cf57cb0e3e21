package bgg

import (
	"strings"

	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

const cooperativeMechanic = "Cooperative Game"

// Template converts a detail record into a game template and one extension
// per listed expansion. Games tagged with the cooperative mechanic default
// to cooperative play.
func Template(d Detail) (storage.GameTemplate, []storage.GameExtension) {
	template := storage.GameTemplate{
		Name:                strings.TrimSpace(d.Name),
		Description:         d.Description,
		Image:               d.Image,
		MinPlayers:          d.MinPlayers,
		MaxPlayers:          d.MaxPlayers,
		SupportsCompetitive: true,
		DefaultMode:         storage.ModeCompetitive,
	}
	for _, character := range d.Characters {
		if character = strings.TrimSpace(character); character != "" {
			template.Characters = append(template.Characters, character)
		}
	}
	template.HasCharacters = len(template.Characters) > 0
	for _, mechanic := range d.Mechanics {
		if strings.EqualFold(mechanic, cooperativeMechanic) {
			template.SupportsCooperative = true
			template.IsCooperativeByDefault = true
			template.DefaultMode = storage.ModeCooperative
		}
	}

	extensions := make([]storage.GameExtension, 0, len(d.Expansions))
	seen := map[string]struct{}{}
	for _, expansion := range d.Expansions {
		name := strings.TrimSpace(expansion.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		extensions = append(extensions, storage.GameExtension{Name: name, BaseGameName: template.Name})
	}
	return template, extensions
}
