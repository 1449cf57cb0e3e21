// Package httpapi serves the tracker JSON API and its dashboard page.
package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/playlog/internal/platform/errors"
	"github.com/louisbranch/playlog/internal/platform/errors/i18n"
	"github.com/louisbranch/playlog/internal/platform/httpx"
	"github.com/louisbranch/playlog/internal/platform/i18n/catalog"
	"github.com/louisbranch/playlog/internal/platform/requestctx"
	"github.com/louisbranch/playlog/internal/services/tracker/integration/bgg"
	"github.com/louisbranch/playlog/internal/services/tracker/service"
	"github.com/louisbranch/playlog/internal/services/tracker/session"
	"github.com/louisbranch/playlog/internal/services/tracker/stats"
	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

const maxBodyBytes = 1 << 20

// LocaleKey is the preference holding the default message locale.
const LocaleKey = "locale"

// Tracker is the service surface the handlers call.
type Tracker interface {
	CreatePlayer(ctx context.Context, name string) (storage.Player, error)
	GetPlayer(ctx context.Context, playerID string) (storage.Player, error)
	ListPlayers(ctx context.Context) ([]storage.Player, error)
	RenamePlayer(ctx context.Context, playerID, name string) (storage.Player, error)
	DeletePlayer(ctx context.Context, playerID string) error

	CreateTemplate(ctx context.Context, template storage.GameTemplate) (storage.GameTemplate, error)
	GetTemplate(ctx context.Context, name string) (storage.GameTemplate, error)
	ListTemplates(ctx context.Context) ([]storage.GameTemplate, error)
	UpdateTemplate(ctx context.Context, template storage.GameTemplate) (storage.GameTemplate, error)
	DeleteTemplate(ctx context.Context, name string) error

	CreateExtension(ctx context.Context, extension storage.GameExtension) (storage.GameExtension, error)
	ListExtensions(ctx context.Context, baseGameName string) ([]storage.GameExtension, error)
	DeleteExtension(ctx context.Context, extensionID string) error

	StartSession(ctx context.Context, input session.StartInput) (storage.GameSession, error)
	GetSession(ctx context.Context, sessionID string) (storage.GameSession, error)
	ListSessions(ctx context.Context, filter storage.SessionFilter) ([]storage.GameSession, error)
	CompleteSession(ctx context.Context, sessionID string, outcome session.Outcome) (storage.GameSession, error)
	RecordCharacterEvent(ctx context.Context, sessionID string, event storage.CharacterEvent) (storage.GameSession, error)
	DeleteSession(ctx context.Context, sessionID string) error

	Stats(ctx context.Context) (stats.Summary, error)
	SearchGames(ctx context.Context, query string) ([]bgg.SearchResult, error)
	ImportGame(ctx context.Context, gameID string) (service.Imported, error)

	Preference(key, def string) string
	Preferences() map[string]string
	SetPreference(ctx context.Context, key, value string) error
}

// Handler routes tracker requests.
type Handler struct {
	tracker Tracker
	logger  *log.Logger
	mux     *http.ServeMux
}

// NewHandler builds the route table.
func NewHandler(tracker Tracker, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	h := &Handler{tracker: tracker, logger: logger, mux: http.NewServeMux()}
	h.routes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.mux.HandleFunc("GET /health", h.health)
	h.mux.HandleFunc("GET /{$}", h.dashboard)

	h.mux.HandleFunc("GET /api/players", h.listPlayers)
	h.mux.HandleFunc("POST /api/players", h.createPlayer)
	h.mux.HandleFunc("GET /api/players/{id}", h.getPlayer)
	h.mux.HandleFunc("PUT /api/players/{id}", h.renamePlayer)
	h.mux.HandleFunc("DELETE /api/players/{id}", h.deletePlayer)

	h.mux.HandleFunc("GET /api/templates", h.listTemplates)
	h.mux.HandleFunc("POST /api/templates", h.createTemplate)
	h.mux.HandleFunc("GET /api/templates/{name}", h.getTemplate)
	h.mux.HandleFunc("PUT /api/templates/{name}", h.updateTemplate)
	h.mux.HandleFunc("DELETE /api/templates/{name}", h.deleteTemplate)
	h.mux.HandleFunc("GET /api/templates/{name}/extensions", h.listTemplateExtensions)
	h.mux.HandleFunc("POST /api/templates/{name}/extensions", h.createExtension)

	h.mux.HandleFunc("GET /api/extensions", h.listExtensions)
	h.mux.HandleFunc("DELETE /api/extensions/{id}", h.deleteExtension)

	h.mux.HandleFunc("GET /api/sessions", h.listSessions)
	h.mux.HandleFunc("POST /api/sessions", h.startSession)
	h.mux.HandleFunc("GET /api/sessions/{id}", h.getSession)
	h.mux.HandleFunc("DELETE /api/sessions/{id}", h.deleteSession)
	h.mux.HandleFunc("POST /api/sessions/{id}/complete", h.completeSession)
	h.mux.HandleFunc("POST /api/sessions/{id}/character-events", h.recordCharacterEvent)

	h.mux.HandleFunc("GET /api/stats", h.stats)
	h.mux.HandleFunc("GET /api/bgg/search", h.searchGames)
	h.mux.HandleFunc("POST /api/bgg/import/{id}", h.importGame)

	h.mux.HandleFunc("GET /api/preferences", h.listPreferences)
	h.mux.HandleFunc("GET /api/preferences/{key}", h.getPreference)
	h.mux.HandleFunc("PUT /api/preferences/{key}", h.setPreference)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.tracker.ListPlayers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapSlice(players, toPlayerJSON))
}

func (h *Handler) createPlayer(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !h.decode(w, r, &req) {
		return
	}
	player, err := h.tracker.CreatePlayer(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toPlayerJSON(player))
}

func (h *Handler) getPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := h.tracker.GetPlayer(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPlayerJSON(player))
}

func (h *Handler) renamePlayer(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !h.decode(w, r, &req) {
		return
	}
	player, err := h.tracker.RenamePlayer(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPlayerJSON(player))
}

func (h *Handler) deletePlayer(w http.ResponseWriter, r *http.Request) {
	h.noContent(w, r, h.tracker.DeletePlayer(r.Context(), r.PathValue("id")))
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.tracker.ListTemplates(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapSlice(templates, toTemplateJSON))
}

func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateJSON
	if !h.decode(w, r, &req) {
		return
	}
	template, err := h.tracker.CreateTemplate(r.Context(), req.record())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toTemplateJSON(template))
}

func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	template, err := h.tracker.GetTemplate(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTemplateJSON(template))
}

func (h *Handler) updateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateJSON
	if !h.decode(w, r, &req) {
		return
	}
	req.Name = r.PathValue("name")
	template, err := h.tracker.UpdateTemplate(r.Context(), req.record())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTemplateJSON(template))
}

func (h *Handler) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	h.noContent(w, r, h.tracker.DeleteTemplate(r.Context(), r.PathValue("name")))
}

func (h *Handler) listTemplateExtensions(w http.ResponseWriter, r *http.Request) {
	h.writeExtensions(w, r, r.PathValue("name"))
}

func (h *Handler) listExtensions(w http.ResponseWriter, r *http.Request) {
	h.writeExtensions(w, r, r.URL.Query().Get("baseGame"))
}

func (h *Handler) writeExtensions(w http.ResponseWriter, r *http.Request, baseGameName string) {
	extensions, err := h.tracker.ListExtensions(r.Context(), baseGameName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapSlice(extensions, toExtensionJSON))
}

func (h *Handler) createExtension(w http.ResponseWriter, r *http.Request) {
	var req extensionJSON
	if !h.decode(w, r, &req) {
		return
	}
	req.BaseGameName = r.PathValue("name")
	extension, err := h.tracker.CreateExtension(r.Context(), req.record())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toExtensionJSON(extension))
}

func (h *Handler) deleteExtension(w http.ResponseWriter, r *http.Request) {
	h.noContent(w, r, h.tracker.DeleteExtension(r.Context(), r.PathValue("id")))
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := storage.SessionFilter{GameType: query.Get("game")}
	if raw := strings.TrimSpace(query.Get("completed")); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeBadRequest(w, "completed must be a boolean")
			return
		}
		filter.CompletedOnly = completed
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}
	sessions, err := h.tracker.ListSessions(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapSlice(sessions, toSessionJSON))
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !h.decode(w, r, &req) {
		return
	}
	started, err := h.tracker.StartSession(r.Context(), session.StartInput{
		GameType:   req.GameType,
		Mode:       storage.GameMode(strings.TrimSpace(req.GameMode)),
		Players:    req.Players,
		Characters: req.Characters,
		Extensions: req.Extensions,
		Date:       req.Date,
		StartTime:  req.StartTime,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toSessionJSON(started))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	found, err := h.tracker.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSessionJSON(found))
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	h.noContent(w, r, h.tracker.DeleteSession(r.Context(), r.PathValue("id")))
}

func (h *Handler) completeSession(w http.ResponseWriter, r *http.Request) {
	var req completeSessionRequest
	if !h.decode(w, r, &req) {
		return
	}
	done, err := h.tracker.CompleteSession(r.Context(), r.PathValue("id"), session.Outcome{
		Scores:       req.Scores,
		Winner:       req.Winner,
		WinCondition: req.WinCondition,
		CoopResult:   storage.CoopResult(strings.TrimSpace(req.CoopResult)),
		EndTime:      req.EndTime,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSessionJSON(done))
}

func (h *Handler) recordCharacterEvent(w http.ResponseWriter, r *http.Request) {
	var req characterEventRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.tracker.RecordCharacterEvent(r.Context(), r.PathValue("id"), storage.CharacterEvent{
		Type:        storage.CharacterEventType(strings.TrimSpace(req.Type)),
		CharacterID: req.CharacterID,
		Timestamp:   req.Timestamp,
		Details:     req.Details,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSessionJSON(updated))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.tracker.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) searchGames(w http.ResponseWriter, r *http.Request) {
	results, err := h.tracker.SearchGames(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, results)
}

func (h *Handler) importGame(w http.ResponseWriter, r *http.Request) {
	imported, err := h.tracker.ImportGame(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"template":   toTemplateJSON(imported.Template),
		"extensions": mapSlice(imported.Extensions, toExtensionJSON),
	})
}

func (h *Handler) listPreferences(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.tracker.Preferences())
}

func (h *Handler) getPreference(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	h.writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": h.tracker.Preference(key, "")})
}

func (h *Handler) setPreference(w http.ResponseWriter, r *http.Request) {
	var req preferenceRequest
	if !h.decode(w, r, &req) {
		return
	}
	key := r.PathValue("key")
	if err := h.tracker.SetPreference(r.Context(), key, req.Value); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, target); err != nil {
		h.writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) noContent(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	if err := httpx.WriteJSON(w, status, payload); err != nil {
		h.logger.Printf("write response: %v", err)
	}
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, message string) {
	if err := httpx.WriteJSONError(w, http.StatusBadRequest, message); err != nil {
		h.logger.Printf("write response: %v", err)
	}
}

// writeError renders domain errors with their localized message and hides
// anything else behind a 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	domainErr, ok := apperrors.As(err)
	if !ok {
		if errors.Is(err, context.Canceled) {
			return
		}
		h.logger.Printf("request failed method=%s path=%s request_id=%s err=%v", r.Method, r.URL.Path, requestctx.RequestIDFromContext(r.Context()), err)
		if writeErr := httpx.WriteJSONError(w, http.StatusInternalServerError, "internal error"); writeErr != nil {
			h.logger.Printf("write response: %v", writeErr)
		}
		return
	}
	status := domainErr.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logger.Printf("request failed method=%s path=%s request_id=%s code=%s err=%v", r.Method, r.URL.Path, requestctx.RequestIDFromContext(r.Context()), domainErr.Code, err)
	}
	message := domainErr.LocalizedMessage(h.locale(r))
	if writeErr := httpx.WriteJSONCodeError(w, status, string(domainErr.Code), message); writeErr != nil {
		h.logger.Printf("write response: %v", writeErr)
	}
}

// locale prefers the best supported Accept-Language match, then the stored
// locale preference.
func (h *Handler) locale(r *http.Request) string {
	if locale, ok := catalog.Default().Match(r.Header.Get("Accept-Language")); ok {
		return locale
	}
	return h.tracker.Preference(LocaleKey, i18n.BaseLocale)
}
