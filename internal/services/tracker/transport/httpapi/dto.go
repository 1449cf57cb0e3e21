package httpapi

import (
	"time"

	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

type playerJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type templateJSON struct {
	Name                   string   `json:"name"`
	HasCharacters          bool     `json:"hasCharacters"`
	Characters             []string `json:"characters"`
	IsCooperativeByDefault bool     `json:"isCooperativeByDefault"`
	SupportsCooperative    bool     `json:"supportsCooperative"`
	SupportsCompetitive    bool     `json:"supportsCompetitive"`
	SupportsCampaign       bool     `json:"supportsCampaign"`
	DefaultMode            string   `json:"defaultMode,omitempty"`
	BaseGameName           string   `json:"baseGameName,omitempty"`
	MinPlayers             int      `json:"minPlayers,omitempty"`
	MaxPlayers             int      `json:"maxPlayers,omitempty"`
	Description            string   `json:"description,omitempty"`
	Image                  string   `json:"image,omitempty"`
	CreatedAt              string   `json:"createdAt,omitempty"`
}

type extensionJSON struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	BaseGameName string `json:"baseGameName"`
	Description  string `json:"description,omitempty"`
	MinPlayers   int    `json:"minPlayers,omitempty"`
	MaxPlayers   int    `json:"maxPlayers,omitempty"`
	Rules        string `json:"rules,omitempty"`
	Image        string `json:"image,omitempty"`
}

type sessionJSON struct {
	ID                string                   `json:"id"`
	GameType          string                   `json:"gameType"`
	IsCooperative     bool                     `json:"isCooperative"`
	GameMode          string                   `json:"gameMode"`
	Players           []string                 `json:"players"`
	Scores            map[string]float64       `json:"scores"`
	Characters        map[string]string        `json:"characters"`
	DeadCharacters    map[string]bool          `json:"deadCharacters"`
	NewCharacterNames map[string]string        `json:"newCharacterNames"`
	Extensions        []string                 `json:"extensions"`
	Winner            string                   `json:"winner,omitempty"`
	WinCondition      string                   `json:"winCondition,omitempty"`
	Date              string                   `json:"date,omitempty"`
	StartTime         string                   `json:"startTime,omitempty"`
	EndTime           string                   `json:"endTime,omitempty"`
	Duration          int                      `json:"duration"`
	Completed         bool                     `json:"completed"`
	CoopResult        string                   `json:"coopResult,omitempty"`
	CharacterHistory  []storage.CharacterEvent `json:"characterHistory"`
	CreatedAt         string                   `json:"createdAt"`
}

type startSessionRequest struct {
	GameType   string            `json:"gameType"`
	GameMode   string            `json:"gameMode"`
	Players    []string          `json:"players"`
	Characters map[string]string `json:"characters"`
	Extensions []string          `json:"extensions"`
	Date       time.Time         `json:"date"`
	StartTime  time.Time         `json:"startTime"`
}

type completeSessionRequest struct {
	Scores       map[string]float64 `json:"scores"`
	Winner       string             `json:"winner"`
	WinCondition string             `json:"winCondition"`
	CoopResult   string             `json:"coopResult"`
	EndTime      time.Time          `json:"endTime"`
}

type characterEventRequest struct {
	Type        string    `json:"type"`
	CharacterID string    `json:"characterId"`
	Timestamp   time.Time `json:"timestamp"`
	Details     string    `json:"details"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type preferenceRequest struct {
	Value string `json:"value"`
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func toPlayerJSON(player storage.Player) playerJSON {
	return playerJSON{ID: player.ID, Name: player.Name, CreatedAt: player.CreatedAt.UTC()}
}

func toTemplateJSON(t storage.GameTemplate) templateJSON {
	characters := t.Characters
	if characters == nil {
		characters = []string{}
	}
	return templateJSON{
		Name:                   t.Name,
		HasCharacters:          t.HasCharacters,
		Characters:             characters,
		IsCooperativeByDefault: t.IsCooperativeByDefault,
		SupportsCooperative:    t.SupportsCooperative,
		SupportsCompetitive:    t.SupportsCompetitive,
		SupportsCampaign:       t.SupportsCampaign,
		DefaultMode:            string(t.DefaultMode),
		BaseGameName:           t.BaseGameName,
		MinPlayers:             t.MinPlayers,
		MaxPlayers:             t.MaxPlayers,
		Description:            t.Description,
		Image:                  t.Image,
		CreatedAt:              formatTime(t.CreatedAt),
	}
}

func (t templateJSON) record() storage.GameTemplate {
	return storage.GameTemplate{
		Name:                   t.Name,
		HasCharacters:          t.HasCharacters,
		Characters:             t.Characters,
		IsCooperativeByDefault: t.IsCooperativeByDefault,
		SupportsCooperative:    t.SupportsCooperative,
		SupportsCompetitive:    t.SupportsCompetitive,
		SupportsCampaign:       t.SupportsCampaign,
		DefaultMode:            storage.GameMode(t.DefaultMode),
		BaseGameName:           t.BaseGameName,
		MinPlayers:             t.MinPlayers,
		MaxPlayers:             t.MaxPlayers,
		Description:            t.Description,
		Image:                  t.Image,
	}
}

func toExtensionJSON(e storage.GameExtension) extensionJSON {
	return extensionJSON{
		ID:           e.ID,
		Name:         e.Name,
		BaseGameName: e.BaseGameName,
		Description:  e.Description,
		MinPlayers:   e.MinPlayers,
		MaxPlayers:   e.MaxPlayers,
		Rules:        e.Rules,
		Image:        e.Image,
	}
}

func (e extensionJSON) record() storage.GameExtension {
	return storage.GameExtension{
		Name:         e.Name,
		BaseGameName: e.BaseGameName,
		Description:  e.Description,
		MinPlayers:   e.MinPlayers,
		MaxPlayers:   e.MaxPlayers,
		Rules:        e.Rules,
		Image:        e.Image,
	}
}

func toSessionJSON(s storage.GameSession) sessionJSON {
	out := sessionJSON{
		ID:                s.ID,
		GameType:          s.GameType,
		IsCooperative:     s.IsCooperative,
		GameMode:          string(s.GameMode),
		Players:           s.Players,
		Scores:            s.Scores,
		Characters:        s.Characters,
		DeadCharacters:    s.DeadCharacters,
		NewCharacterNames: s.NewCharacterNames,
		Extensions:        s.Extensions,
		Winner:            s.Winner,
		WinCondition:      s.WinCondition,
		Date:              formatTime(s.Date),
		StartTime:         formatTime(s.StartTime),
		EndTime:           formatTime(s.EndTime),
		Duration:          s.Duration,
		Completed:         s.Completed,
		CoopResult:        string(s.CoopResult),
		CharacterHistory:  s.CharacterHistory,
		CreatedAt:         formatTime(s.CreatedAt),
	}
	if out.Players == nil {
		out.Players = []string{}
	}
	if out.Scores == nil {
		out.Scores = map[string]float64{}
	}
	if out.Characters == nil {
		out.Characters = map[string]string{}
	}
	if out.DeadCharacters == nil {
		out.DeadCharacters = map[string]bool{}
	}
	if out.NewCharacterNames == nil {
		out.NewCharacterNames = map[string]string{}
	}
	if out.Extensions == nil {
		out.Extensions = []string{}
	}
	if out.CharacterHistory == nil {
		out.CharacterHistory = []storage.CharacterEvent{}
	}
	return out
}

func mapSlice[T, U any](in []T, convert func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, item := range in {
		out = append(out, convert(item))
	}
	return out
}
