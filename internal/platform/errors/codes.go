// Package errors provides structured domain errors with localized messages.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Player errors
	CodePlayerNameEmpty Code = "PLAYER_NAME_EMPTY"

	// Template errors
	CodeTemplateNameEmpty    Code = "TEMPLATE_NAME_EMPTY"
	CodeTemplateInvalidMode  Code = "TEMPLATE_INVALID_MODE"
	CodeTemplateNoModes      Code = "TEMPLATE_NO_MODES"
	CodeTemplatePlayerBounds Code = "TEMPLATE_PLAYER_BOUNDS"

	// Extension errors
	CodeExtensionNameEmpty Code = "EXTENSION_NAME_EMPTY"

	// Session errors
	CodeSessionNoPlayers          Code = "SESSION_NO_PLAYERS"
	CodeSessionDuplicatePlayer    Code = "SESSION_DUPLICATE_PLAYER"
	CodeSessionUnknownPlayer      Code = "SESSION_UNKNOWN_PLAYER"
	CodeSessionPlayerCount        Code = "SESSION_PLAYER_COUNT"
	CodeSessionModeUnsupported    Code = "SESSION_MODE_UNSUPPORTED"
	CodeSessionUnknownExtension   Code = "SESSION_UNKNOWN_EXTENSION"
	CodeSessionUnknownCharacter   Code = "SESSION_UNKNOWN_CHARACTER"
	CodeSessionAlreadyCompleted   Code = "SESSION_ALREADY_COMPLETED"
	CodeSessionWinnerNotPlayer    Code = "SESSION_WINNER_NOT_PLAYER"
	CodeSessionCoopResultRequired Code = "SESSION_COOP_RESULT_REQUIRED"
	CodeSessionInvalidTiming      Code = "SESSION_INVALID_TIMING"

	// Character errors
	CodeCharacterNotInSession Code = "CHARACTER_NOT_IN_SESSION"
	CodeCharacterInvalidEvent Code = "CHARACTER_INVALID_EVENT"
	CodeCharacterAlreadyDead  Code = "CHARACTER_ALREADY_DEAD"
	CodeCharacterNotDead      Code = "CHARACTER_NOT_DEAD"
	CodeCharacterNameEmpty    Code = "CHARACTER_NAME_EMPTY"

	// Preference errors
	CodePreferenceKeyEmpty Code = "PREFERENCE_KEY_EMPTY"

	// Metadata errors
	CodeMetadataUnavailable Code = "METADATA_UNAVAILABLE"
	CodeMetadataInvalidID   Code = "METADATA_INVALID_ID"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodePlayerNameEmpty,
		CodeTemplateNameEmpty,
		CodeTemplateInvalidMode,
		CodeTemplateNoModes,
		CodeTemplatePlayerBounds,
		CodeExtensionNameEmpty,
		CodeSessionNoPlayers,
		CodeSessionDuplicatePlayer,
		CodeSessionUnknownPlayer,
		CodeSessionPlayerCount,
		CodeSessionModeUnsupported,
		CodeSessionUnknownExtension,
		CodeSessionUnknownCharacter,
		CodeSessionWinnerNotPlayer,
		CodeSessionCoopResultRequired,
		CodeSessionInvalidTiming,
		CodeCharacterNotInSession,
		CodeCharacterInvalidEvent,
		CodeCharacterNameEmpty,
		CodePreferenceKeyEmpty,
		CodeMetadataInvalidID:
		return http.StatusBadRequest

	// Conflict - state doesn't allow operation
	case CodeSessionAlreadyCompleted,
		CodeCharacterAlreadyDead,
		CodeCharacterNotDead,
		CodeAlreadyExists:
		return http.StatusConflict

	case CodeNotFound:
		return http.StatusNotFound

	case CodeMetadataUnavailable:
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
