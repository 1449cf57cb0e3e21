// Package storage defines persistence contracts for tracker state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// GameMode is how a session (or a template by default) is played.
type GameMode string

const (
	ModeCompetitive GameMode = "competitive"
	ModeCooperative GameMode = "cooperative"
	ModeCampaign    GameMode = "campaign"
)

// Valid reports whether m is a known mode.
func (m GameMode) Valid() bool {
	switch m {
	case ModeCompetitive, ModeCooperative, ModeCampaign:
		return true
	}
	return false
}

// CoopResult is the shared outcome of a cooperative session.
type CoopResult string

const (
	CoopWon  CoopResult = "won"
	CoopLost CoopResult = "lost"
)

// CharacterEventType classifies a character history entry.
type CharacterEventType string

const (
	CharacterDeath  CharacterEventType = "death"
	CharacterRevive CharacterEventType = "revive"
	CharacterRename CharacterEventType = "rename"
)

// Player is a person who plays sessions.
type Player struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// GameTemplate describes a game that sessions are recorded against; Name is
// its logical key.
type GameTemplate struct {
	Name                   string
	HasCharacters          bool
	Characters             []string
	IsCooperativeByDefault bool
	SupportsCooperative    bool
	SupportsCompetitive    bool
	SupportsCampaign       bool
	DefaultMode            GameMode
	BaseGameName           string
	MinPlayers             int
	MaxPlayers             int
	Description            string
	Image                  string
	CreatedAt              time.Time
}

// GameExtension is an expansion of a base game template.
type GameExtension struct {
	ID           string
	Name         string
	BaseGameName string
	Description  string
	MinPlayers   int
	MaxPlayers   int
	Rules        string
	Image        string
}

// CharacterEvent is one entry of a session's character history.
type CharacterEvent struct {
	Type        CharacterEventType `json:"type"`
	CharacterID string             `json:"characterId"`
	Timestamp   time.Time          `json:"timestamp"`
	Details     string             `json:"details,omitempty"`
}

// GameSession is one recorded play of a game.
type GameSession struct {
	ID                string
	GameType          string
	IsCooperative     bool
	GameMode          GameMode
	Players           []string
	Scores            map[string]float64
	Characters        map[string]string
	DeadCharacters    map[string]bool
	NewCharacterNames map[string]string
	Extensions        []string
	Winner            string
	WinCondition      string
	Date              time.Time
	StartTime         time.Time
	EndTime           time.Time
	// Duration is the played time in whole minutes.
	Duration         int
	Completed        bool
	CoopResult       CoopResult
	CharacterHistory []CharacterEvent
	CreatedAt        time.Time
}

// SessionFilter narrows ListSessions.
type SessionFilter struct {
	GameType      string
	CompletedOnly bool
	Limit         int
}

// PlayerStore persists players.
type PlayerStore interface {
	CreatePlayer(ctx context.Context, player Player) error
	GetPlayer(ctx context.Context, id string) (Player, error)
	ListPlayers(ctx context.Context) ([]Player, error)
	UpdatePlayer(ctx context.Context, player Player) error
	DeletePlayer(ctx context.Context, id string) error
}

// TemplateStore persists game templates and their extensions.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, template GameTemplate) error
	GetTemplate(ctx context.Context, name string) (GameTemplate, error)
	ListTemplates(ctx context.Context) ([]GameTemplate, error)
	UpdateTemplate(ctx context.Context, template GameTemplate) error
	DeleteTemplate(ctx context.Context, name string) error

	CreateExtension(ctx context.Context, extension GameExtension) error
	ListExtensions(ctx context.Context, baseGameName string) ([]GameExtension, error)
	DeleteExtension(ctx context.Context, id string) error
}

// SessionStore persists game sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session GameSession) error
	GetSession(ctx context.Context, id string) (GameSession, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]GameSession, error)
	UpdateSession(ctx context.Context, session GameSession) error
	DeleteSession(ctx context.Context, id string) error
}

// PreferenceStore persists key/value preferences.
type PreferenceStore interface {
	LoadPreferences(ctx context.Context) (map[string]string, error)
	PutPreference(ctx context.Context, key, value string) error
}

// Store is the full tracker persistence surface.
type Store interface {
	PlayerStore
	TemplateStore
	SessionStore
	PreferenceStore
}
