package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodePlayerNameEmpty           = "PLAYER_NAME_EMPTY"
	CodeTemplateNameEmpty         = "TEMPLATE_NAME_EMPTY"
	CodeTemplateInvalidMode       = "TEMPLATE_INVALID_MODE"
	CodeTemplateNoModes           = "TEMPLATE_NO_MODES"
	CodeTemplatePlayerBounds      = "TEMPLATE_PLAYER_BOUNDS"
	CodeExtensionNameEmpty        = "EXTENSION_NAME_EMPTY"
	CodeSessionNoPlayers          = "SESSION_NO_PLAYERS"
	CodeSessionDuplicatePlayer    = "SESSION_DUPLICATE_PLAYER"
	CodeSessionUnknownPlayer      = "SESSION_UNKNOWN_PLAYER"
	CodeSessionPlayerCount        = "SESSION_PLAYER_COUNT"
	CodeSessionModeUnsupported    = "SESSION_MODE_UNSUPPORTED"
	CodeSessionUnknownExtension   = "SESSION_UNKNOWN_EXTENSION"
	CodeSessionUnknownCharacter   = "SESSION_UNKNOWN_CHARACTER"
	CodeSessionAlreadyCompleted   = "SESSION_ALREADY_COMPLETED"
	CodeSessionWinnerNotPlayer    = "SESSION_WINNER_NOT_PLAYER"
	CodeSessionCoopResultRequired = "SESSION_COOP_RESULT_REQUIRED"
	CodeSessionInvalidTiming      = "SESSION_INVALID_TIMING"
	CodeCharacterNotInSession     = "CHARACTER_NOT_IN_SESSION"
	CodeCharacterInvalidEvent     = "CHARACTER_INVALID_EVENT"
	CodeCharacterAlreadyDead      = "CHARACTER_ALREADY_DEAD"
	CodeCharacterNotDead          = "CHARACTER_NOT_DEAD"
	CodeCharacterNameEmpty        = "CHARACTER_NAME_EMPTY"
	CodePreferenceKeyEmpty        = "PREFERENCE_KEY_EMPTY"
	CodeMetadataUnavailable       = "METADATA_UNAVAILABLE"
	CodeMetadataInvalidID         = "METADATA_INVALID_ID"
	CodeNotFound                  = "NOT_FOUND"
	CodeAlreadyExists             = "ALREADY_EXISTS"
)

var enUSMessages = map[Code]string{
	// Player errors
	CodePlayerNameEmpty: "Player name cannot be empty",

	// Template errors
	CodeTemplateNameEmpty:    "Game name cannot be empty",
	CodeTemplateInvalidMode:  "Unknown game mode {{.Mode}}",
	CodeTemplateNoModes:      "A game must support at least one mode",
	CodeTemplatePlayerBounds: "Minimum players ({{.Min}}) cannot exceed maximum players ({{.Max}})",

	// Extension errors
	CodeExtensionNameEmpty: "Extension name cannot be empty",

	// Session errors
	CodeSessionNoPlayers:          "A session needs at least one player",
	CodeSessionDuplicatePlayer:    "Player {{.Player}} is listed more than once",
	CodeSessionUnknownPlayer:      "Player {{.Player}} does not exist",
	CodeSessionPlayerCount:        "{{.Game}} is played by {{.Min}} to {{.Max}} players, got {{.Count}}",
	CodeSessionModeUnsupported:    "{{.Game}} does not support {{.Mode}} play",
	CodeSessionUnknownExtension:   "{{.Extension}} is not an extension of {{.Game}}",
	CodeSessionUnknownCharacter:   "{{.Character}} is not a character of {{.Game}}",
	CodeSessionAlreadyCompleted:   "This session is already completed",
	CodeSessionWinnerNotPlayer:    "The winner must be one of the session players",
	CodeSessionCoopResultRequired: "Cooperative sessions need a won or lost result",
	CodeSessionInvalidTiming:      "A session cannot end before it starts",

	// Character errors
	CodeCharacterNotInSession: "{{.Character}} is not played in this session",
	CodeCharacterInvalidEvent: "Unknown character event {{.Type}}",
	CodeCharacterAlreadyDead:  "{{.Character}} is already dead",
	CodeCharacterNotDead:      "{{.Character}} is not dead",
	CodeCharacterNameEmpty:    "A new character name cannot be empty",

	// Preference errors
	CodePreferenceKeyEmpty: "Preference key cannot be empty",

	// Metadata errors
	CodeMetadataUnavailable: "Game metadata is unavailable right now",
	CodeMetadataInvalidID:   "Invalid game metadata id {{.ID}}",

	// Storage errors
	CodeNotFound:      "Not found",
	CodeAlreadyExists: "Already exists",
}
