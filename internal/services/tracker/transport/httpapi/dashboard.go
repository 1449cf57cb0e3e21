package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/louisbranch/playlog/internal/platform/i18n/catalog"

	"github.com/louisbranch/playlog/internal/services/tracker/stats"
	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

const dashboardRecentSessions = 10

// dashboardView is everything the dashboard page renders.
type dashboardView struct {
	Summary  stats.Summary
	Sessions []storage.GameSession
	Players  map[string]string
	Locale   string
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := h.tracker.Stats(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sessions, err := h.tracker.ListSessions(ctx, storage.SessionFilter{Limit: dashboardRecentSessions})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	names := make(map[string]string, len(summary.Players))
	for _, player := range summary.Players {
		names[player.PlayerID] = player.Name
	}
	templ.Handler(dashboardPage(dashboardView{Summary: summary, Sessions: sessions, Players: names, Locale: h.locale(r)})).ServeHTTP(w, r)
}

func (v dashboardView) text(key string) string {
	return catalog.Default().Text(v.Locale, key)
}

func (v dashboardView) sessionLine(s storage.GameSession) string {
	return s.GameType + " " + v.text("dashboard.session.on") + " " + formatDay(s.Date) + ": " + sessionResult(s, v.Players, v.text)
}

func sessionResult(s storage.GameSession, names map[string]string, t func(string) string) string {
	switch {
	case !s.Completed:
		return t("dashboard.session.in_progress")
	case s.IsCooperative:
		return string(s.CoopResult)
	case s.Winner != "":
		if name, ok := names[s.Winner]; ok {
			return name + " " + t("dashboard.session.won")
		}
		return s.Winner + " " + t("dashboard.session.won")
	case s.WinCondition != "":
		return s.WinCondition
	}
	return t("dashboard.session.completed")
}

func formatDay(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format("2006-01-02")
}

func percent(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}

func oneDecimal(value float64) string {
	return fmt.Sprintf("%.1f", value)
}

func wholeNumber(value float64) string {
	return fmt.Sprintf("%.0f", value)
}
